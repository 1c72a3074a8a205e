package xyzio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdok/xyz/table"
)

// WriteOptions steers WriteRMSAttr
type WriteOptions struct {
	// Attributes are written after x y z, each announced by a header line
	Attributes []string
	// Sentinels converts Segment-ID groups into 999.0 delimited rows
	Sentinels bool
	// Null is written for null cells, UNDEF when empty
	Null string
}

var rmsAttrHeaders = map[table.ColumnType]string{
	table.Int:    "Discrete",
	table.Float:  "Float",
	table.String: "String",
	table.Bool:   "String",
}

func formatCell(t *table.Table, name string, i int, null string) string {
	v := t.Value(name, i)
	if v == nil {
		return null
	}
	s := table.FormatValue(v)
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r == ' ' || r == '\t' }) {
		return `"` + s + `"`
	}
	return s
}

func requireColumns(t *table.Table, names ...string) error {
	for _, name := range names {
		if !t.Has(name) {
			return fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return nil
}

// WriteRMSAttr writes x y z (and attribute) rows. It returns the number of
// data rows written, sentinel rows not included.
func WriteRMSAttr(w io.Writer, t *table.Table, names ColumnNames, opts WriteOptions) (int, error) {
	null := opts.Null
	if null == "" {
		null = undef
	}
	if err := requireColumns(t, names.Coordinates()...); err != nil {
		return 0, err
	}
	if err := requireColumns(t, opts.Attributes...); err != nil {
		return 0, err
	}
	bw := bufio.NewWriter(w)

	if opts.Sentinels {
		converted, err := ConvertIDBasedXYZ(t, names)
		if err != nil {
			return 0, err
		}
		for i := 0; i < converted.Len(); i++ {
			row := make([]string, 3)
			for j, name := range names.Coordinates() {
				row[j] = formatCell(converted, name, i, null)
			}
			if _, err := bw.WriteString(strings.Join(row, " ") + "\n"); err != nil {
				return 0, err
			}
		}
		return t.Len(), bw.Flush()
	}

	for _, attr := range opts.Attributes {
		ctype, _ := t.Type(attr)
		if _, err := fmt.Fprintf(bw, "%s %s\n", rmsAttrHeaders[ctype], attr); err != nil {
			return 0, err
		}
	}
	columns := append(names.Coordinates(), opts.Attributes...)
	for i := 0; i < t.Len(); i++ {
		row := make([]string, len(columns))
		for j, name := range columns {
			row[j] = formatCell(t, name, i, null)
		}
		if _, err := bw.WriteString(strings.Join(row, " ") + "\n"); err != nil {
			return 0, err
		}
	}
	return t.Len(), bw.Flush()
}

// WriteZMAP writes the ZMAP+ line format. Without a Segment-ID column all rows get id 1.
func WriteZMAP(w io.Writer, t *table.Table, names ColumnNames) (int, error) {
	if err := requireColumns(t, names.Coordinates()...); err != nil {
		return 0, err
	}
	null := strconv.FormatFloat(ZMAPNull, 'E', 1, 64)
	bw := bufio.NewWriter(w)
	header := "!\n!     File exported by xyz\n!\n@XYZ_LINES HEADER, CP, 4\n15, " + null + ", , 7, 1\n@\n"
	if _, err := bw.WriteString(header); err != nil {
		return 0, err
	}
	hasSegment := t.Has(names.Segment)
	for i := 0; i < t.Len(); i++ {
		row := make([]string, 4)
		for j, name := range names.Coordinates() {
			row[j] = formatCell(t, name, i, null)
		}
		row[3] = "1"
		if hasSegment {
			row[3] = formatCell(t, names.Segment, i, "1")
		}
		if _, err := bw.WriteString(strings.Join(row, " ") + "\n"); err != nil {
			return 0, err
		}
	}
	return t.Len(), bw.Flush()
}

// WriteWellPicks writes "horizon well md" rows when the md column is present,
// "horizon well x y z" rows otherwise.
func WriteWellPicks(w io.Writer, t *table.Table, names ColumnNames, horizonColumn, wellColumn, mdColumn string) (int, error) {
	if horizonColumn == "" || !t.Has(horizonColumn) {
		return 0, fmt.Errorf("%w: column for horizons/zones <%s>", ErrMissingColumn, horizonColumn)
	}
	if wellColumn == "" || !t.Has(wellColumn) {
		return 0, fmt.Errorf("%w: column for wells <%s>", ErrMissingColumn, wellColumn)
	}
	columns := []string{horizonColumn, wellColumn}
	if mdColumn != "" && t.Has(mdColumn) {
		columns = append(columns, mdColumn)
	} else {
		if err := requireColumns(t, names.Coordinates()...); err != nil {
			return 0, err
		}
		columns = append(columns, names.Coordinates()...)
	}
	bw := bufio.NewWriter(w)
	for i := 0; i < t.Len(); i++ {
		row := make([]string, len(columns))
		for j, name := range columns {
			row[j] = formatCell(t, name, i, undef)
		}
		if _, err := bw.WriteString(strings.Join(row, " ") + "\n"); err != nil {
			return 0, err
		}
	}
	return t.Len(), bw.Flush()
}
