package xyzio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/pdok/xyz/table"
)

const (
	// Sentinel is the value marking undefined cells and polyline breaks in the xyz format
	Sentinel = 999.0
	// ZMAPNull is the default null value of the ZMAP+ format
	ZMAPNull = 1.0e30
	undef    = "UNDEF"
)

// Attributes maps attribute column names to their type, in file order
type Attributes = orderedmap.OrderedMap[string, table.ColumnType]

func NewAttributes() *Attributes {
	return orderedmap.New[string, table.ColumnType]()
}

func coordinateSpecs(names ColumnNames) []table.Spec {
	return []table.Spec{{Name: names.X, Type: table.Float}, {Name: names.Y, Type: table.Float}, {Name: names.Z, Type: table.Float}}
}

func parseErr(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrParse, line, fmt.Sprintf(format, args...))
}

// ReadXYZ reads whitespace or comma separated x y z rows.
// Cells equal to 999.0 are null, blank lines give all-null rows, lines starting with # are skipped.
func ReadXYZ(r io.Reader, names ColumnNames) (*table.Table, error) {
	t := table.New(coordinateSpecs(names)...)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
		if len(fields) == 0 {
			if err := t.Append(nil, nil, nil); err != nil {
				return nil, err
			}
			continue
		}
		if len(fields) < 3 {
			return nil, parseErr(lineNo, "expected 3 values, got %d", len(fields))
		}
		row := make([]any, 3)
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, parseErr(lineNo, "%v", err)
			}
			if v != Sentinel {
				row[i] = v
			}
		}
		if err := t.Append(row...); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// ReadZMAP reads the ZMAP+ line format: a ! comment banner, an @ header block
// holding the null value, then x y z [id] rows.
func ReadZMAP(r io.Reader, names ColumnNames) (*table.Table, error) {
	var t *table.Table
	null := ZMAPNull
	nullFound := false
	inHeader, headerDone := false, false
	nfields := 0

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "!"):
			continue
		case strings.HasPrefix(line, "@"):
			if inHeader && line == "@" {
				inHeader, headerDone = false, true
			} else if !headerDone {
				inHeader = true
			}
			continue
		case inHeader:
			if !nullFound {
				parts := strings.Split(line, ",")
				if len(parts) >= 2 {
					if _, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
						if v, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err == nil {
							null, nullFound = v, true
						}
					}
				}
			}
			continue
		}

		fields := strings.Fields(line)
		if t == nil {
			nfields = len(fields)
			specs := coordinateSpecs(names)
			switch nfields {
			case 3:
			case 4:
				specs = append(specs, table.Spec{Name: names.Segment, Type: table.Int})
			default:
				return nil, parseErr(lineNo, "expected 3 or 4 values, got %d", nfields)
			}
			t = table.New(specs...)
		}
		if len(fields) != nfields {
			return nil, parseErr(lineNo, "expected %d values, got %d", nfields, len(fields))
		}
		row := make([]any, nfields)
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, parseErr(lineNo, "%v", err)
			}
			if v != null {
				row[i] = v
			}
		}
		if err := t.Append(row...); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if t == nil {
		t = table.New(coordinateSpecs(names)...)
	}
	return t, nil
}

var rmsAttrTypes = map[string]table.ColumnType{
	"Discrete": table.Int,
	"Int":      table.Int,
	"Float":    table.Float,
	"String":   table.String,
}

// ReadRMSAttr reads x y z rows with attributes declared by leading "<Type> <Name>" lines.
// UNDEF cells are null.
func ReadRMSAttr(r io.Reader, names ColumnNames) (*table.Table, *Attributes, error) {
	attrs := NewAttributes()
	var t *table.Table
	var ctypes []table.ColumnType

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields, err := splitFields(line)
		if err != nil {
			return nil, nil, parseErr(lineNo, "%v", err)
		}
		if t == nil {
			if ctype, isHeader := rmsAttrTypes[fields[0]]; isHeader && len(fields) == 2 {
				if names.IsReserved(fields[1]) {
					return nil, nil, parseErr(lineNo, "attribute %s clashes with a coordinate column", fields[1])
				}
				attrs.Set(fields[1], ctype)
				continue
			}
			specs := coordinateSpecs(names)
			for p := attrs.Oldest(); p != nil; p = p.Next() {
				specs = append(specs, table.Spec{Name: p.Key, Type: p.Value})
			}
			t = table.New(specs...)
			for _, spec := range specs {
				ctypes = append(ctypes, spec.Type)
			}
		}
		if len(fields) != 3+attrs.Len() {
			return nil, nil, parseErr(lineNo, "expected %d values, got %d", 3+attrs.Len(), len(fields))
		}
		row := make([]any, len(fields))
		for i, field := range fields {
			if field == undef {
				continue
			}
			v, err := parseCell(field, ctypes[i])
			if err != nil {
				return nil, nil, parseErr(lineNo, "%v", err)
			}
			row[i] = v
		}
		if err := t.Append(row...); err != nil {
			return nil, nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if t == nil {
		specs := coordinateSpecs(names)
		for p := attrs.Oldest(); p != nil; p = p.Next() {
			specs = append(specs, table.Spec{Name: p.Key, Type: p.Value})
		}
		t = table.New(specs...)
	}
	return t, attrs, nil
}

func parseCell(field string, ctype table.ColumnType) (any, error) {
	switch ctype {
	case table.Float:
		return strconv.ParseFloat(field, 64)
	case table.Int:
		n, err := strconv.ParseInt(field, 10, 64)
		if err == nil {
			return n, nil
		}
		f, ferr := strconv.ParseFloat(field, 64)
		if ferr != nil {
			return nil, err
		}
		return int64(f), nil
	case table.Bool:
		return strconv.ParseBool(field)
	}
	return field, nil
}

// splitFields splits on whitespace, double quotes group a field
func splitFields(line string) ([]string, error) {
	var fields []string
	var current strings.Builder
	inQuote, hasField := false, false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			hasField = true
		case unicode.IsSpace(r) && !inQuote:
			if hasField {
				fields = append(fields, current.String())
				current.Reset()
				hasField = false
			}
		default:
			current.WriteRune(r)
			hasField = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	if hasField {
		fields = append(fields, current.String())
	}
	return fields, nil
}
