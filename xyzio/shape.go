package xyzio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"

	"github.com/pdok/xyz/table"
)

const dbfNameLength = 10

func fieldType(f shp.Field) table.ColumnType {
	switch f.Fieldtype {
	case 'N':
		if f.Precision == 0 {
			return table.Int
		}
		return table.Float
	case 'F':
		return table.Float
	case 'L':
		return table.Bool
	}
	return table.String
}

func parseDBF(raw string, ctype table.ColumnType) any {
	raw = strings.TrimSpace(strings.Trim(raw, "\x00"))
	if raw == "" {
		return nil
	}
	switch ctype {
	case table.Bool:
		switch strings.ToUpper(raw) {
		case "T", "Y":
			return true
		case "F", "N":
			return false
		}
		return nil
	case table.String:
		return raw
	}
	v, err := parseCell(raw, ctype)
	if err != nil {
		return nil
	}
	return v
}

// ReadShape reads a point or polyline shapefile. Points keep their Z (0 for 2D shapes),
// every polyline part gets its own Segment-ID. DBF fields become attributes.
func ReadShape(path string, names ColumnNames) (*table.Table, *Attributes, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	var lines bool
	switch r.GeometryType {
	case shp.POINT, shp.POINTZ, shp.POINTM:
	case shp.POLYLINE, shp.POLYLINEZ, shp.POLYLINEM:
		lines = true
	default:
		return nil, nil, fmt.Errorf("%w: shape type %d", ErrUnsupportedFormat, r.GeometryType)
	}

	attrs := NewAttributes()
	fields := r.Fields()
	ctypes := make([]table.ColumnType, len(fields))
	specs := coordinateSpecs(names)
	if lines {
		specs = append(specs, table.Spec{Name: names.Segment, Type: table.Int})
	}
	for i, f := range fields {
		ctypes[i] = fieldType(f)
		name := f.String()
		if names.IsReserved(name) {
			return nil, nil, fmt.Errorf("%w: attribute %s clashes with a coordinate column", ErrParse, name)
		}
		attrs.Set(name, ctypes[i])
		specs = append(specs, table.Spec{Name: name, Type: ctypes[i]})
	}
	t := table.New(specs...)

	segment := int64(0)
	for r.Next() {
		n, shape := r.Shape()
		attrValues := make([]any, len(fields))
		for i := range fields {
			attrValues[i] = parseDBF(r.ReadAttribute(n, i), ctypes[i])
		}
		appendRow := func(x, y float64, z any, seg []any) error {
			row := append([]any{x, y, z}, seg...)
			return t.Append(append(row, attrValues...)...)
		}

		switch s := shape.(type) {
		case *shp.Point:
			err = appendRow(s.X, s.Y, 0.0, nil)
		case *shp.PointZ:
			err = appendRow(s.X, s.Y, s.Z, nil)
		case *shp.PointM:
			err = appendRow(s.X, s.Y, 0.0, nil)
		case *shp.PolyLine:
			err = eachPart(s.Parts, len(s.Points), func(part int, i int) error {
				return appendRow(s.Points[i].X, s.Points[i].Y, 0.0, []any{segment + int64(part)})
			})
			segment += int64(s.NumParts)
		case *shp.PolyLineZ:
			err = eachPart(s.Parts, len(s.Points), func(part int, i int) error {
				var z any
				if i < len(s.ZArray) {
					z = s.ZArray[i]
				}
				return appendRow(s.Points[i].X, s.Points[i].Y, z, []any{segment + int64(part)})
			})
			segment += int64(s.NumParts)
		case *shp.PolyLineM:
			err = eachPart(s.Parts, len(s.Points), func(part int, i int) error {
				return appendRow(s.Points[i].X, s.Points[i].Y, 0.0, []any{segment + int64(part)})
			})
			segment += int64(s.NumParts)
		case *shp.Null:
			continue
		default:
			err = fmt.Errorf("%w: shape %T", ErrUnsupportedFormat, shape)
		}
		if err != nil {
			return nil, nil, err
		}
	}
	if err := r.Err(); err != nil {
		return nil, nil, err
	}
	return t, attrs, nil
}

func eachPart(parts []int32, npoints int, f func(part int, i int) error) error {
	for p, start := range parts {
		end := npoints
		if p+1 < len(parts) {
			end = int(parts[p+1])
		}
		for i := int(start); i < end; i++ {
			if err := f(p, i); err != nil {
				return err
			}
		}
	}
	return nil
}

// shapeAttributeName maps a column name to the name it gets in the dbf file
func shapeAttributeName(name string) string {
	if len(name) > dbfNameLength {
		return name[:dbfNameLength]
	}
	return name
}

func shapeFields(t *table.Table, attributes []string) ([]shp.Field, error) {
	fields := make([]shp.Field, 0, len(attributes))
	seen := make(map[string]string, len(attributes))
	for _, name := range attributes {
		short := shapeAttributeName(name)
		if other, dupe := seen[short]; dupe {
			return nil, fmt.Errorf("attributes %s and %s share the dbf name %s", other, name, short)
		}
		seen[short] = name
		ctype, _ := t.Type(name)
		switch ctype {
		case table.Int:
			fields = append(fields, shp.NumberField(short, 18))
		case table.Float:
			fields = append(fields, shp.FloatField(short, 24, 8))
		default:
			fields = append(fields, shp.StringField(short, 254))
		}
	}
	return fields, nil
}

func dbfValue(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return int(x)
	case float64:
		return x
	case bool:
		if x {
			return "T"
		}
		return "F"
	}
	return table.FormatValue(v)
}

// moveDBF puts the attribute file next to path. go-shp drops the dot when it
// derives the dbf name from a path ending in .shp.
func moveDBF(path string) error {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if _, err := os.Stat(base + "dbf"); err == nil {
		return os.Rename(base+"dbf", base+".dbf")
	}
	if _, err := os.Stat(base + ".dbf"); err != nil {
		return fmt.Errorf("attribute file of %s not written: %w", path, err)
	}
	return nil
}

// WriteShape writes t as a POINTZ shapefile, or as a POLYLINEZ shapefile with one
// shape per Segment-ID when lines is set. Attributes of a polyline are taken
// from its first row. Rows with a null coordinate are skipped.
func WriteShape(path string, t *table.Table, names ColumnNames, attributes []string, lines bool) (n int, err error) {
	if err := requireColumns(t, names.Coordinates()...); err != nil {
		return 0, err
	}
	if err := requireColumns(t, attributes...); err != nil {
		return 0, err
	}
	fields, err := shapeFields(t, attributes)
	if err != nil {
		return 0, err
	}
	shapeType := shp.ShapeType(shp.POINTZ)
	if lines {
		if err := requireColumns(t, names.Segment); err != nil {
			return 0, err
		}
		shapeType = shp.POLYLINEZ
	}
	w, err := shp.Create(path, shapeType)
	if err != nil {
		return 0, err
	}
	defer func() {
		w.Close()
		if err == nil && len(fields) > 0 {
			if err = moveDBF(path); err != nil {
				n = 0
			}
		}
	}()
	if len(fields) > 0 {
		if err := w.SetFields(fields); err != nil {
			return 0, err
		}
	}
	writeAttributes := func(shape int32, i int) error {
		for f, name := range attributes {
			if err := w.WriteAttribute(int(shape), f, dbfValue(t.Value(name, i))); err != nil {
				return err
			}
		}
		return nil
	}

	if !lines {
		count := 0
		for i := 0; i < t.Len(); i++ {
			if t.HasNull(i, names.Coordinates()...) {
				continue
			}
			x, _ := t.Float(names.X, i)
			y, _ := t.Float(names.Y, i)
			z, _ := t.Float(names.Z, i)
			shape := w.Write(&shp.PointZ{X: x, Y: y, Z: z})
			if err := writeAttributes(shape, i); err != nil {
				return 0, err
			}
			count++
		}
		return count, nil
	}

	groups, err := t.GroupBy(names.Segment)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, group := range groups {
		var points []shp.Point
		var zs []float64
		first := -1
		for _, i := range group.Rows {
			if t.HasNull(i, names.Coordinates()...) {
				continue
			}
			if first < 0 {
				first = i
			}
			x, _ := t.Float(names.X, i)
			y, _ := t.Float(names.Y, i)
			z, _ := t.Float(names.Z, i)
			points = append(points, shp.Point{X: x, Y: y})
			zs = append(zs, z)
		}
		if len(points) == 0 {
			continue
		}
		zmin, zmax := zs[0], zs[0]
		for _, z := range zs {
			zmin = min(zmin, z)
			zmax = max(zmax, z)
		}
		line := &shp.PolyLineZ{
			Box:       shp.BBoxFromPoints(points),
			NumParts:  1,
			NumPoints: int32(len(points)),
			Parts:     []int32{0},
			Points:    points,
			ZRange:    [2]float64{zmin, zmax},
			ZArray:    zs,
			MRange:    [2]float64{0, 0},
			MArray:    make([]float64, len(points)),
		}
		shape := w.Write(line)
		if err := writeAttributes(shape, first); err != nil {
			return 0, err
		}
		count += len(points)
	}
	return count, nil
}
