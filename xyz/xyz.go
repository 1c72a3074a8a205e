// Package xyz implements Points and Polygons, containers of XYZ rows with
// optional Segment-IDs and attributes, and the shared import and export logic
// behind them.
package xyz

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-spatial/geom"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/pdok/xyz/mapslicehelp"
	"github.com/pdok/xyz/mathhelp"
	"github.com/pdok/xyz/project"
	"github.com/pdok/xyz/table"
	"github.com/pdok/xyz/xyzio"
)

var (
	ErrNotAFile         = errors.New("not a file")
	ErrNotAFolder       = errors.New("not a folder")
	ErrInvalidTuple     = errors.New("tuples must have 3 or 4 elements, all of the same length")
	ErrEmptyList        = errors.New("empty list")
	ErrInvalidDataframe = errors.New("invalid dataframe")
)

// XYZ is what Points and Polygons have in common
type XYZ interface {
	FromFile(path string, format xyzio.Format) error
	FromList(list [][]float64) error
	ToFile(path string, opts ExportOptions) (int, error)
	FromProject(p project.Project, name, category string, opts ProjectOptions) error
	ToProject(p project.Project, name, category string, opts ProjectOptions) (int, error)
	Dataframe() *table.Table
	SetDataframe(t *table.Table) error
	NRow() int
	ColumnNames() xyzio.ColumnNames
	Attributes() *xyzio.Attributes
	FileSource() string
	Describe(w io.Writer) error
	Extent() *geom.Extent
	Geometry() geom.Geometry
	IsPolygons() bool
}

type Option func(*base)

// WithColumnNames binds the coordinate, Segment-ID and MD columns
func WithColumnNames(names xyzio.ColumnNames) Option {
	return func(b *base) {
		b.names = names
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(b *base) {
		b.log = log
	}
}

type base struct {
	df       *table.Table
	names    xyzio.ColumnNames
	attrs    *xyzio.Attributes
	filesrc  string
	log      logrus.FieldLogger
	polygons bool
}

func newBase(polygons bool, opts ...Option) base {
	b := base{
		names:    xyzio.DefaultColumnNames(),
		attrs:    xyzio.NewAttributes(),
		log:      logrus.StandardLogger(),
		polygons: polygons,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) kind() string {
	if b.polygons {
		return "Polygons"
	}
	return "Points"
}

func (b *base) IsPolygons() bool {
	return b.polygons
}

// Dataframe returns the table itself, nil when nothing is loaded
func (b *base) Dataframe() *table.Table {
	return b.df
}

// SetDataframe stores a copy of t. The coordinate columns are required, for
// polygons also the Segment-ID column. Other columns are registered as attributes.
func (b *base) SetDataframe(t *table.Table) error {
	if t == nil {
		return fmt.Errorf("%w: nil", ErrInvalidDataframe)
	}
	required := b.names.Coordinates()
	if b.polygons {
		required = append(required, b.names.Segment)
	}
	for _, name := range required {
		if !t.Has(name) {
			return fmt.Errorf("%w: missing column %s", ErrInvalidDataframe, name)
		}
	}
	b.df = t.Copy()
	b.syncAttributes()
	return nil
}

// syncAttributes registers columns that are not bound to a role and drops
// attributes whose column is gone
func (b *base) syncAttributes() {
	if b.df == nil {
		b.attrs = xyzio.NewAttributes()
		return
	}
	for _, name := range mapslicehelp.OrderedMapKeys(b.attrs) {
		if !b.df.Has(name) {
			b.attrs.Delete(name)
		}
	}
	for _, spec := range b.df.Specs() {
		if b.names.IsReserved(spec.Name) {
			continue
		}
		if _, known := b.attrs.Get(spec.Name); !known {
			b.attrs.Set(spec.Name, spec.Type)
		}
	}
}

func (b *base) NRow() int {
	return b.df.Len()
}

func (b *base) ColumnNames() xyzio.ColumnNames {
	return b.names
}

// Attributes returns the attribute columns and their types in column order
func (b *base) Attributes() *xyzio.Attributes {
	return b.attrs
}

// FileSource is the file (or project item) the data was read from
func (b *base) FileSource() string {
	return b.filesrc
}

func (b *base) copyBase() base {
	return base{
		df:       b.df.Copy(),
		names:    b.names,
		attrs:    mapslicehelp.CloneOrderedMap(b.attrs),
		log:      b.log,
		polygons: b.polygons,
	}
}

// normalize prepares a freshly read table: polygons without Segment-IDs get
// them from the gaps, then rows with an undefined coordinate are dropped.
func (b *base) normalize(t *table.Table) (*table.Table, error) {
	if b.polygons && !t.Has(b.names.Segment) {
		if err := t.AddColumn(b.names.Segment, table.Int, inferSegments(t)); err != nil {
			return nil, err
		}
	}
	coordinates := b.names.Coordinates()
	return t.Filter(func(i int) bool {
		return !t.HasNull(i, coordinates...)
	}), nil
}

// inferSegments numbers the rows by the count of all-null rows up to and
// including them: rows before the first gap get 0, then 1, and so on.
func inferSegments(t *table.Table) []any {
	gaps := make([]float64, t.Len())
	for i := range gaps {
		gaps[i] = mathhelp.Bool2float(t.IsNullRow(i))
	}
	cumulative := floats.CumSum(make([]float64, len(gaps)), gaps)
	ids := make([]any, len(cumulative))
	for i, c := range cumulative {
		ids[i] = int64(c)
	}
	return ids
}

func (b *base) xy() [][2]float64 {
	if b.df == nil {
		return nil
	}
	pts := make([][2]float64, 0, b.df.Len())
	for i := 0; i < b.df.Len(); i++ {
		x, okx := b.df.Float(b.names.X, i)
		y, oky := b.df.Float(b.names.Y, i)
		if okx && oky {
			pts = append(pts, [2]float64{x, y})
		}
	}
	return pts
}

// Extent is the planar bounding box, nil without rows
func (b *base) Extent() *geom.Extent {
	pts := b.xy()
	if len(pts) == 0 {
		return nil
	}
	return geom.NewExtent(pts...)
}

var (
	_ XYZ = (*Points)(nil)
	_ XYZ = (*Polygons)(nil)
)
