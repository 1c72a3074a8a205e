package table

import (
	"fmt"

	"github.com/umpc/go-sortedmap"
)

// Group is a set of rows sharing the same key
type Group struct {
	Key  int64
	Rows []int
}

// GroupBy groups the rows of an integer column by value.
// Groups are ordered by ascending key, rows keep their table order.
// Null keys are an error.
func (t *Table) GroupBy(name string) ([]Group, error) {
	if _, err := t.get(name); err != nil {
		return nil, err
	}
	byKey := sortedmap.New(8, func(i, j interface{}) bool {
		return i.(int64) < j.(int64)
	})
	rowsPerKey := make(map[int64][]int)
	for i := 0; i < t.nrow; i++ {
		key, ok := t.Int(name, i)
		if !ok {
			return nil, fmt.Errorf("column %s row %d: cannot group on null", name, i)
		}
		if _, seen := rowsPerKey[key]; !seen {
			byKey.Insert(key, key)
		}
		rowsPerKey[key] = append(rowsPerKey[key], i)
	}
	groups := make([]Group, 0, len(rowsPerKey))
	for _, k := range byKey.Keys() {
		key := k.(int64)
		groups = append(groups, Group{Key: key, Rows: rowsPerKey[key]})
	}
	return groups, nil
}
