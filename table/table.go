// Package table implements a small column oriented table with typed, nullable
// columns. It is the tabular entity behind Points and Polygons: rows of
// coordinates, an optional segment id and any number of named attributes.
package table

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	ErrNoSuchColumn    = errors.New("no such column")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrRowLength       = errors.New("row length does not match number of columns")
	ErrColumnLength    = errors.New("column length does not match number of rows")
)

// ColumnType is the type of all non-null values in a column.
type ColumnType int

const (
	Float ColumnType = iota
	Int
	String
	Bool
)

func (ct ColumnType) String() string {
	switch ct {
	case Float:
		return "float"
	case Int:
		return "int"
	case String:
		return "str"
	case Bool:
		return "bool"
	default:
		return "unknown(" + strconv.Itoa(int(ct)) + ")"
	}
}

// ParseColumnType is the inverse of ColumnType.String
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(s) {
	case "float":
		return Float, nil
	case "int":
		return Int, nil
	case "str", "string":
		return String, nil
	case "bool":
		return Bool, nil
	}
	return Float, fmt.Errorf("unknown column type %q", s)
}

// Spec describes a column for New
type Spec struct {
	Name string
	Type ColumnType
}

type column struct {
	ctype  ColumnType
	values []any // nil is null
}

// Table holds equally long columns in insertion order.
type Table struct {
	columns *orderedmap.OrderedMap[string, *column]
	nrow    int
}

// New creates an empty table with the given columns.
// Duplicate names panic, as they are always a programming error.
func New(specs ...Spec) *Table {
	t := &Table{columns: orderedmap.New[string, *column]()}
	for _, s := range specs {
		if _, present := t.columns.Get(s.Name); present {
			panic(fmt.Errorf("%w: %s", ErrDuplicateColumn, s.Name))
		}
		t.columns.Set(s.Name, &column{ctype: s.Type})
	}
	return t
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.nrow
}

// Names returns the column names in order
func (t *Table) Names() []string {
	names := make([]string, 0, t.columns.Len())
	for p := t.columns.Oldest(); p != nil; p = p.Next() {
		names = append(names, p.Key)
	}
	return names
}

// Specs returns name and type of every column in order
func (t *Table) Specs() []Spec {
	specs := make([]Spec, 0, t.columns.Len())
	for p := t.columns.Oldest(); p != nil; p = p.Next() {
		specs = append(specs, Spec{Name: p.Key, Type: p.Value.ctype})
	}
	return specs
}

func (t *Table) Has(name string) bool {
	_, ok := t.columns.Get(name)
	return ok
}

func (t *Table) Type(name string) (ColumnType, bool) {
	c, ok := t.columns.Get(name)
	if !ok {
		return Float, false
	}
	return c.ctype, true
}

func (t *Table) get(name string) (*column, error) {
	c, ok := t.columns.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchColumn, name)
	}
	return c, nil
}

// AddColumn appends a column. A nil values slice gives an all-null column.
func (t *Table) AddColumn(name string, ctype ColumnType, values []any) error {
	if t.Has(name) {
		return fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
	}
	if values != nil && len(values) != t.nrow {
		return fmt.Errorf("%w: %s has %d values, table has %d rows", ErrColumnLength, name, len(values), t.nrow)
	}
	c := &column{ctype: ctype, values: make([]any, t.nrow)}
	for i, v := range values {
		cv, err := coerce(v, ctype)
		if err != nil {
			return fmt.Errorf("column %s row %d: %w", name, i, err)
		}
		c.values[i] = cv
	}
	t.columns.Set(name, c)
	return nil
}

func (t *Table) DropColumn(name string) {
	t.columns.Delete(name)
}

// RenameColumn renames a column keeping its position
func (t *Table) RenameColumn(from, to string) error {
	if from == to {
		return nil
	}
	if !t.Has(from) {
		return fmt.Errorf("%w: %s", ErrNoSuchColumn, from)
	}
	if t.Has(to) {
		return fmt.Errorf("%w: %s", ErrDuplicateColumn, to)
	}
	renamed := orderedmap.New[string, *column]()
	for p := t.columns.Oldest(); p != nil; p = p.Next() {
		key := p.Key
		if key == from {
			key = to
		}
		renamed.Set(key, p.Value)
	}
	t.columns = renamed
	return nil
}

// Append adds a row, values given in column order.
func (t *Table) Append(row ...any) error {
	if len(row) != t.columns.Len() {
		return fmt.Errorf("%w: got %d values for %d columns", ErrRowLength, len(row), t.columns.Len())
	}
	coerced := make([]any, len(row))
	i := 0
	for p := t.columns.Oldest(); p != nil; p = p.Next() {
		v, err := coerce(row[i], p.Value.ctype)
		if err != nil {
			return fmt.Errorf("column %s: %w", p.Key, err)
		}
		coerced[i] = v
		i++
	}
	i = 0
	for p := t.columns.Oldest(); p != nil; p = p.Next() {
		p.Value.values = append(p.Value.values, coerced[i])
		i++
	}
	t.nrow++
	return nil
}

// AppendMap adds a row from a name to value map. Columns absent from the map are null.
func (t *Table) AppendMap(row map[string]any) error {
	values := make([]any, 0, t.columns.Len())
	for p := t.columns.Oldest(); p != nil; p = p.Next() {
		values = append(values, row[p.Key])
	}
	return t.Append(values...)
}

// Value returns the cell value, nil for null.
func (t *Table) Value(name string, i int) any {
	c, ok := t.columns.Get(name)
	if !ok || i < 0 || i >= t.nrow {
		return nil
	}
	return c.values[i]
}

func (t *Table) Float(name string, i int) (float64, bool) {
	v := t.Value(name, i)
	if v == nil {
		return math.NaN(), false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return math.NaN(), false
	}
	return f, true
}

func (t *Table) Int(name string, i int) (int64, bool) {
	v := t.Value(name, i)
	if v == nil {
		return 0, false
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Str formats the cell value, false for null
func (t *Table) Str(name string, i int) (string, bool) {
	v := t.Value(name, i)
	if v == nil {
		return "", false
	}
	return FormatValue(v), true
}

// FormatValue formats a non-null cell value
func FormatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// Set replaces a single cell
func (t *Table) Set(name string, i int, v any) error {
	c, err := t.get(name)
	if err != nil {
		return err
	}
	if i < 0 || i >= t.nrow {
		return fmt.Errorf("row %d out of range [0,%d)", i, t.nrow)
	}
	cv, err := coerce(v, c.ctype)
	if err != nil {
		return fmt.Errorf("column %s: %w", name, err)
	}
	c.values[i] = cv
	return nil
}

// Row returns the values of row i in column order
func (t *Table) Row(i int) []any {
	row := make([]any, 0, t.columns.Len())
	for p := t.columns.Oldest(); p != nil; p = p.Next() {
		row = append(row, p.Value.values[i])
	}
	return row
}

// IsNullRow is true when every cell of row i is null
func (t *Table) IsNullRow(i int) bool {
	for p := t.columns.Oldest(); p != nil; p = p.Next() {
		if p.Value.values[i] != nil {
			return false
		}
	}
	return true
}

// HasNull is true when any of the given columns is null in row i.
// Columns that do not exist count as null.
func (t *Table) HasNull(i int, names ...string) bool {
	for _, name := range names {
		if t.Value(name, i) == nil {
			return true
		}
	}
	return false
}

// Select returns a new table with the given rows, in the given order
func (t *Table) Select(rows []int) *Table {
	out := &Table{columns: orderedmap.New[string, *column](), nrow: len(rows)}
	for p := t.columns.Oldest(); p != nil; p = p.Next() {
		values := make([]any, len(rows))
		for j, r := range rows {
			values[j] = p.Value.values[r]
		}
		out.columns.Set(p.Key, &column{ctype: p.Value.ctype, values: values})
	}
	return out
}

// Filter returns a new table with the rows for which keep returns true
func (t *Table) Filter(keep func(i int) bool) *Table {
	rows := make([]int, 0, t.nrow)
	for i := 0; i < t.nrow; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return t.Select(rows)
}

// Copy returns a deep copy
func (t *Table) Copy() *Table {
	if t == nil {
		return nil
	}
	rows := make([]int, t.nrow)
	for i := range rows {
		rows[i] = i
	}
	return t.Select(rows)
}

// Concat appends the rows of others to a copy of t. The result has the union of
// all columns, ordered by first appearance; missing cells are null.
// A column appearing with different types is an error.
func (t *Table) Concat(others ...*Table) (*Table, error) {
	all := append([]*Table{t}, others...)
	out := &Table{columns: orderedmap.New[string, *column]()}
	for _, tbl := range all {
		if tbl == nil {
			continue
		}
		for p := tbl.columns.Oldest(); p != nil; p = p.Next() {
			existing, ok := out.columns.Get(p.Key)
			if !ok {
				out.columns.Set(p.Key, &column{ctype: p.Value.ctype})
				continue
			}
			if existing.ctype != p.Value.ctype {
				return nil, fmt.Errorf("column %s has types %s and %s", p.Key, existing.ctype, p.Value.ctype)
			}
		}
	}
	for _, tbl := range all {
		if tbl == nil {
			continue
		}
		for p := out.columns.Oldest(); p != nil; p = p.Next() {
			src, ok := tbl.columns.Get(p.Key)
			if ok {
				p.Value.values = append(p.Value.values, src.values...)
			} else {
				p.Value.values = append(p.Value.values, make([]any, tbl.nrow)...)
			}
		}
		out.nrow += tbl.nrow
	}
	return out, nil
}

// Floats returns a column as float64s, NaN for null
func (t *Table) Floats(name string) ([]float64, error) {
	if _, err := t.get(name); err != nil {
		return nil, err
	}
	out := make([]float64, t.nrow)
	for i := range out {
		out[i], _ = t.Float(name, i)
	}
	return out, nil
}

// Ints returns a column as int64s, null is reported as an error
func (t *Table) Ints(name string) ([]int64, error) {
	if _, err := t.get(name); err != nil {
		return nil, err
	}
	out := make([]int64, t.nrow)
	for i := range out {
		n, ok := t.Int(name, i)
		if !ok {
			return nil, fmt.Errorf("column %s row %d: null or not an integer", name, i)
		}
		out[i] = n
	}
	return out, nil
}

// Head writes the first n rows as whitespace aligned text
func (t *Table) Head(w io.Writer, n int) error {
	names := t.Names()
	widths := make([]int, len(names))
	for j, name := range names {
		widths[j] = len(name)
	}
	if n > t.nrow || n < 0 {
		n = t.nrow
	}
	cells := make([][]string, n)
	for i := 0; i < n; i++ {
		cells[i] = make([]string, len(names))
		for j, name := range names {
			s, ok := t.Str(name, i)
			if !ok {
				s = "NaN"
			}
			cells[i][j] = s
			widths[j] = max(widths[j], len(s))
		}
	}
	line := func(vals []string) string {
		parts := make([]string, len(vals))
		for j, v := range vals {
			parts[j] = fmt.Sprintf("%*s", widths[j], v)
		}
		return strings.Join(parts, "  ") + "\n"
	}
	if _, err := io.WriteString(w, line(names)); err != nil {
		return err
	}
	for _, row := range cells {
		if _, err := io.WriteString(w, line(row)); err != nil {
			return err
		}
	}
	return nil
}

// coerce converts v to the go type used for ctype. NaN floats become null.
func coerce(v any, ctype ColumnType) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch ctype {
	case Float:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(f) {
			return nil, nil
		}
		return f, nil
	case Int:
		if f, isFloat := v.(float64); isFloat {
			if math.IsNaN(f) {
				return nil, nil
			}
			return int64(f), nil
		}
		return cast.ToInt64E(v)
	case String:
		return cast.ToStringE(v)
	case Bool:
		return cast.ToBoolE(v)
	}
	return nil, fmt.Errorf("unknown column type %v", ctype)
}
