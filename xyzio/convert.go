package xyzio

import (
	"fmt"
	"sort"

	"github.com/pdok/xyz/mapslicehelp"
	"github.com/pdok/xyz/table"
)

// ConvertIDBasedXYZ converts a Segment-ID grouped table into plain x y z rows
// where every polyline is followed by a 999.0 sentinel row.
// Groups are written in ascending Segment-ID order.
func ConvertIDBasedXYZ(t *table.Table, names ColumnNames) (*table.Table, error) {
	if err := requireColumns(t, append(names.Coordinates(), names.Segment)...); err != nil {
		return nil, err
	}
	groups, err := t.GroupBy(names.Segment)
	if err != nil {
		return nil, err
	}
	out := table.New(coordinateSpecs(names)...)
	for _, group := range groups {
		for _, i := range group.Rows {
			if err := out.Append(t.Value(names.X, i), t.Value(names.Y, i), t.Value(names.Z, i)); err != nil {
				return nil, err
			}
		}
		if err := out.Append(Sentinel, Sentinel, Sentinel); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ApplyFilter keeps the rows whose value in each filter column is one of the listed values.
// A filter key that is not a column is an ErrInvalidFilterKey.
func ApplyFilter(t *table.Table, filter map[string][]string) (*table.Table, error) {
	if len(filter) == 0 {
		return t, nil
	}
	keys := make([]string, 0, len(filter))
	for key := range filter {
		if !t.Has(key) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFilterKey, key)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	allowed := make(map[string]map[string]any, len(keys))
	for _, key := range keys {
		allowed[key] = mapslicehelp.AsKeys(filter[key])
	}
	return t.Filter(func(i int) bool {
		for _, key := range keys {
			s, ok := t.Str(key, i)
			if !ok {
				return false
			}
			if _, hit := allowed[key][s]; !hit {
				return false
			}
		}
		return true
	}), nil
}
