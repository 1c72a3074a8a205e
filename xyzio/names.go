package xyzio

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/perimeterx/marshmallow"

	"github.com/pdok/xyz/mapslicehelp"
)

var ErrInvalidColumnNames = errors.New("invalid column names")

// ColumnNames binds the roles of the table columns to their names.
type ColumnNames struct {
	// Easting
	X string `default:"X_UTME" validate:"required" json:"x"`
	// Northing
	Y string `default:"Y_UTMN" validate:"required" json:"y"`
	// Depth, positive down
	Z string `default:"Z_TVDSS" validate:"required" json:"z"`
	// Segment-ID, groups the rows of a polygons table into polylines
	Segment string `default:"POLY_ID" validate:"required" json:"segment"`
	// Measured depth, used for well picks
	MD string `default:"M_MDEPTH" validate:"required" json:"md"`
}

func DefaultColumnNames() ColumnNames {
	var names ColumnNames
	if err := defaults.Set(&names); err != nil {
		panic(err)
	}
	return names
}

// Coordinates returns the X, Y and Z names
func (n ColumnNames) Coordinates() []string {
	return []string{n.X, n.Y, n.Z}
}

// IsReserved is true for any of the bound names
func (n ColumnNames) IsReserved(name string) bool {
	switch name {
	case n.X, n.Y, n.Z, n.Segment, n.MD:
		return true
	}
	return false
}

func (n ColumnNames) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(n); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidColumnNames, err)
	}
	if dupes := mapslicehelp.Duplicates([]string{n.X, n.Y, n.Z, n.Segment, n.MD}); len(dupes) > 0 {
		return fmt.Errorf("%w: used more than once: %s", ErrInvalidColumnNames, strings.Join(dupes, ", "))
	}
	return nil
}

// UnmarshalJSON fills in the defaults for missing keys and rejects unknown keys.
func (n *ColumnNames) UnmarshalJSON(data []byte) error {
	err := defaults.Set(n)
	if err != nil {
		return err
	}

	unknown, err := marshmallow.Unmarshal(data, n, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		keys := make([]string, 0, len(unknown))
		for k := range unknown {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Errorf("%w: unknown keys %s", ErrInvalidColumnNames, strings.Join(keys, ", "))
	}
	return n.Validate()
}
