package xyz

import (
	"bytes"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdok/xyz/table"
	"github.com/pdok/xyz/well"
	"github.com/pdok/xyz/xyzio"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const gapped = `1 1 1
2 2 2
999 999 999
3 3 3
999.0 999.0 999.0
4 4 4
5 5 999
6 6 6
`

func TestPolygonsGapSegmentation(t *testing.T) {
	path := writeFile(t, "lines.pol", gapped)
	p, err := PolygonsFromFile(path, xyzio.FormatGuess, WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, 5, p.NRow())
	ids, err := p.Dataframe().Ints("POLY_ID")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 0, 1, 2, 2}, ids)
	zs, err := p.Dataframe().Floats("Z_TVDSS")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 6}, zs)
	assert.Equal(t, path, p.FileSource())
}

func TestPointsDropUndefined(t *testing.T) {
	path := writeFile(t, "points.poi", gapped)
	p, err := PointsFromFile(path, xyzio.FormatGuess, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, 5, p.NRow())
	assert.Equal(t, []string{"X_UTME", "Y_UTMN", "Z_TVDSS"}, p.Dataframe().Names())
}

func TestFromFileErrors(t *testing.T) {
	dir := t.TempDir()
	noext := writeFile(t, "noextension", "1 2 3\n")
	unknown := writeFile(t, "points.csv", "1 2 3\n")
	xyzfile := writeFile(t, "points.xyz", "1 2 3\n")

	tests := []struct {
		name    string
		path    string
		format  xyzio.Format
		wantErr error
	}{
		{name: "missing", path: filepath.Join(dir, "missing.poi"), format: xyzio.FormatGuess, wantErr: fs.ErrNotExist},
		{name: "directory", path: dir, format: xyzio.FormatGuess, wantErr: ErrNotAFile},
		{name: "no extension", path: noext, format: xyzio.FormatGuess, wantErr: xyzio.ErrMissingExtension},
		{name: "unknown extension", path: unknown, format: xyzio.FormatGuess, wantErr: xyzio.ErrUnsupportedFormat},
		{name: "unknown hint", path: xyzfile, format: "csv", wantErr: xyzio.ErrUnsupportedFormat},
		{name: "export only", path: xyzfile, format: xyzio.FormatRMSWellPicks, wantErr: xyzio.ErrUnsupportedFormat},
		{name: "hint overrides extension", path: unknown, format: xyzio.FormatXYZ, wantErr: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPoints(WithLogger(quietLogger()))
			err := p.FromFile(tt.path, tt.format)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFromList(t *testing.T) {
	tests := []struct {
		name    string
		list    [][]float64
		columns []string
		wantErr error
	}{
		{
			name:    "three",
			list:    [][]float64{{1, 2, 3}, {4, 5, 6}},
			columns: []string{"X_UTME", "Y_UTMN", "Z_TVDSS"},
		},
		{
			name:    "four",
			list:    [][]float64{{1, 2, 3, 0}, {4, 5, 6, 1.7}},
			columns: []string{"X_UTME", "Y_UTMN", "Z_TVDSS", "POLY_ID"},
		},
		{name: "two", list: [][]float64{{1, 2}}, wantErr: ErrInvalidTuple},
		{name: "five", list: [][]float64{{1, 2, 3, 4, 5}}, wantErr: ErrInvalidTuple},
		{name: "mixed", list: [][]float64{{1, 2, 3}, {1, 2, 3, 4}}, wantErr: ErrInvalidTuple},
		{name: "empty", list: nil, wantErr: ErrEmptyList},
		{name: "nan id", list: [][]float64{{1, 1, 1, math.NaN()}, {2, 2, 2, 0}}, wantErr: ErrInvalidTuple},
		{name: "inf id", list: [][]float64{{1, 1, 1, 0}, {2, 2, 2, math.Inf(1)}}, wantErr: ErrInvalidTuple},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PolygonsFromList(tt.list, WithLogger(quietLogger()))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.columns, p.Dataframe().Names())
			assert.Equal(t, len(tt.list), p.NRow())
		})
	}

	p, err := PointsFromList([][]float64{{1, 2, 3, 0}, {4, 5, 6, 1.7}})
	require.NoError(t, err)
	ids, err := p.Dataframe().Ints("POLY_ID")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1}, ids)
}

func TestToFileEmpty(t *testing.T) {
	dir := t.TempDir()

	p := NewPolygons(WithLogger(quietLogger()))
	n, err := p.ToFile(filepath.Join(dir, "nothing.pol"), ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, p.SetDataframe(table.New(
		table.Spec{Name: "X_UTME", Type: table.Float},
		table.Spec{Name: "Y_UTMN", Type: table.Float},
		table.Spec{Name: "Z_TVDSS", Type: table.Float},
		table.Spec{Name: "POLY_ID", Type: table.Int},
	)))
	n, err = p.ToFile(filepath.Join(dir, "empty.pol"), ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = p.ToFile(filepath.Join(dir, "missing", "empty.pol"), ExportOptions{})
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestToFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p, err := PolygonsFromList([][]float64{{1, 1, 1, 3}, {2, 2, 2, 3}, {3, 3, 3, 7}}, WithLogger(quietLogger()))
	require.NoError(t, err)

	path := filepath.Join(dir, "out.pol")
	n, err := p.ToFile(path, ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	back, err := PolygonsFromFile(path, xyzio.FormatGuess, WithLogger(quietLogger()))
	require.NoError(t, err)
	for _, name := range []string{"X_UTME", "Y_UTMN", "Z_TVDSS"} {
		want, _ := p.Dataframe().Floats(name)
		got, _ := back.Dataframe().Floats(name)
		assert.InDeltaSlice(t, want, got, 1e-9)
	}
	ids, err := back.Dataframe().Ints("POLY_ID")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 0, 1}, ids)
}

func TestToFileFormats(t *testing.T) {
	dir := t.TempDir()
	p, err := PointsFromList([][]float64{{1, 1, 1}, {2, 2, 2}}, WithLogger(quietLogger()))
	require.NoError(t, err)
	df := p.Dataframe().Copy()
	require.NoError(t, df.AddColumn("TopName", table.String, []any{"Top1", "Top2"}))
	require.NoError(t, p.SetDataframe(df))

	path := filepath.Join(dir, "out.rmsattr")
	n, err := p.ToFile(path, ExportOptions{Format: xyzio.FormatGuess, Filter: map[string][]string{"TopName": {"Top2"}}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "String TopName\n2 2 2 Top2\n", string(content))

	_, err = p.ToFile(path, ExportOptions{Format: xyzio.FormatRMSAttr, Filter: map[string][]string{"Zone": {"A"}}})
	assert.ErrorIs(t, err, xyzio.ErrInvalidFilterKey)

	n, err = p.ToFile(filepath.Join(dir, "out.zmap"), ExportOptions{Format: xyzio.FormatZMAP})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = p.ToFile(filepath.Join(dir, "out.shp"), ExportOptions{Format: xyzio.FormatShape})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	shp, err := PointsFromFile(filepath.Join(dir, "out.shp"), xyzio.FormatGuess, WithLogger(quietLogger()))
	require.NoError(t, err)
	_, ok := shp.Attributes().Get("TopName")
	assert.True(t, ok)
}

func zoneWell(t *testing.T, name string, zones []any) *well.Well {
	t.Helper()
	tbl := table.New(
		table.Spec{Name: "X_UTME", Type: table.Float},
		table.Spec{Name: "Y_UTMN", Type: table.Float},
		table.Spec{Name: "Z_TVDSS", Type: table.Float},
		table.Spec{Name: "Zonelog", Type: table.Int},
	)
	for i, z := range zones {
		require.NoError(t, tbl.Append(float64(i), float64(i), float64(1000+i), z))
	}
	w, err := well.New(name, tbl, well.Options{})
	require.NoError(t, err)
	return w
}

func TestFromWells(t *testing.T) {
	w1 := zoneWell(t, "W1", []any{1, 2, 2, 1, 2})
	w2 := zoneWell(t, "W2", []any{2, 2, nil, 2})
	w3 := zoneWell(t, "W3", []any{1, 1})

	p := NewPolygons(WithLogger(quietLogger()))
	n, err := p.FromWells(well.Wells{w1, w3, w2}, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids, err := p.Dataframe().Ints("POLY_ID")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 0, 1, 2, 2, 3}, ids)
	_, ok := p.Attributes().Get(well.WellNameColumn)
	assert.True(t, ok)

	groups, err := p.Dataframe().GroupBy("POLY_ID")
	require.NoError(t, err)
	for _, g := range groups {
		first, _ := p.Dataframe().Str(well.WellNameColumn, g.Rows[0])
		for _, i := range g.Rows {
			name, _ := p.Dataframe().Str(well.WellNameColumn, i)
			assert.Equal(t, first, name, "segment %d spans wells", g.Key)
		}
	}
}

func TestFromWellsNothing(t *testing.T) {
	p, err := PolygonsFromList([][]float64{{1, 1, 1, 0}}, WithLogger(quietLogger()))
	require.NoError(t, err)

	n, err := p.FromWells(nil, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = p.FromWells(well.Wells{zoneWell(t, "W", []any{1, 1})}, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, p.NRow())
}

func TestFromWellPicks(t *testing.T) {
	p := NewPoints(WithLogger(quietLogger()))
	n, err := p.FromWellPicks(well.Wells{zoneWell(t, "W1", []any{1, 2, 2, 3}), zoneWell(t, "W2", []any{1, 1})})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	zones, err := p.Dataframe().Ints(well.ZoneColumn)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, zones)

	path := filepath.Join(t.TempDir(), "picks.txt")
	n, err = p.ToFile(path, ExportOptions{Format: xyzio.FormatRMSWellPicks, HorizonColumn: well.ZoneColumn, WellColumn: well.WellNameColumn})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2 W1 1 1 1001\n3 W1 3 3 1003\n", string(content))
}

func TestXYZDataframe(t *testing.T) {
	p, err := PolygonsFromList([][]float64{{1, 1, 1, 1}, {2, 2, 2, 0}}, WithLogger(quietLogger()))
	require.NoError(t, err)
	xyz, err := p.XYZDataframe()
	require.NoError(t, err)
	xs, err := xyz.Floats("X_UTME")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 999, 1, 999}, xs)

	_, err = NewPolygons().XYZDataframe()
	assert.ErrorIs(t, err, ErrInvalidDataframe)
}

func TestLengthsAndAreas(t *testing.T) {
	p, err := PolygonsFromList([][]float64{
		{0, 0, 0, 0}, {3, 4, 0, 0}, {3, 4, 12, 0},
		{0, 0, 0, 1}, {10, 0, 0, 1}, {10, 10, 0, 1}, {0, 10, 0, 1},
	}, WithLogger(quietLogger()))
	require.NoError(t, err)

	require.NoError(t, p.AddHLen())
	require.NoError(t, p.AddTLen())
	hcum, _ := p.Dataframe().Floats(HCumLen)
	assert.InDeltaSlice(t, []float64{0, 5, 5, 0, 10, 20, 30}, hcum, 1e-9)
	tcum, _ := p.Dataframe().Floats(TCumLen)
	assert.InDeltaSlice(t, []float64{0, 5, 17, 0, 10, 20, 30}, tcum, 1e-9)
	tdelta, _ := p.Dataframe().Floats(TDeltaLen)
	assert.InDeltaSlice(t, []float64{0, 5, 12, 0, 10, 10, 10}, tdelta, 1e-9)
	_, ok := p.Attributes().Get(HDeltaLen)
	assert.True(t, ok)

	require.NoError(t, p.AddHLen())
	assert.Equal(t, 3+1+4, len(p.Dataframe().Names()))

	areas, err := p.Areas()
	require.NoError(t, err)
	assert.InDelta(t, 0, areas[0], 1e-9)
	assert.InDelta(t, 100, areas[1], 1e-9)
}

func TestGeometryAndExtent(t *testing.T) {
	p, err := PolygonsFromList([][]float64{{0, 0, 0, 0}, {1, 1, 0, 0}, {5, 6, 0, 1}, {7, 8, 0, 1}})
	require.NoError(t, err)
	lines, err := p.Segments()
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, [][2]float64{{5, 6}, {7, 8}}, [][2]float64(lines[1]))

	ext := p.Extent()
	require.NotNil(t, ext)
	assert.Equal(t, 0.0, ext.MinX())
	assert.Equal(t, 8.0, ext.MaxY())

	assert.Nil(t, NewPoints().Extent())
}

func TestSetDataframeAndCopy(t *testing.T) {
	p := NewPolygons(WithLogger(quietLogger()))
	err := p.SetDataframe(table.New(table.Spec{Name: "X_UTME"}, table.Spec{Name: "Y_UTMN"}, table.Spec{Name: "Z_TVDSS"}))
	assert.ErrorIs(t, err, ErrInvalidDataframe)

	src, err := PolygonsFromList([][]float64{{0, 0, 0, 0}})
	require.NoError(t, err)
	df := src.Dataframe().Copy()
	require.NoError(t, df.AddColumn("Name", table.String, []any{"a"}))
	require.NoError(t, p.SetDataframe(df))
	require.NoError(t, df.Set("Name", 0, "changed"))
	name, _ := p.Dataframe().Str("Name", 0)
	assert.Equal(t, "a", name)

	cp := p.Copy()
	require.NoError(t, cp.Dataframe().Set("Name", 0, "b"))
	name, _ = p.Dataframe().Str("Name", 0)
	assert.Equal(t, "a", name)
	assert.Equal(t, 1, cp.Attributes().Len())
	assert.Empty(t, cp.FileSource())
}

func TestDescribe(t *testing.T) {
	path := writeFile(t, "lines.pol", gapped)
	p, err := PolygonsFromFile(path, xyzio.FormatXYZ, WithLogger(quietLogger()))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.Describe(&buf))
	out := buf.String()
	assert.Contains(t, out, "Description of Polygons instance")
	assert.Contains(t, out, path)
	assert.Contains(t, out, "X_UTME, Y_UTMN, Z_TVDSS")
	assert.Contains(t, out, "MULTILINESTRING")
	assert.Contains(t, out, "POLY_ID")
}

func TestDescribeSinglePointSegment(t *testing.T) {
	p, err := PolygonsFromList([][]float64{{1, 1, 1, 0}, {2, 2, 2, 0}, {3, 3, 3, 1}}, WithLogger(quietLogger()))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NotPanics(t, func() { require.NoError(t, p.Describe(&buf)) })
	out := buf.String()
	geometry := out[strings.Index(out, "geometry"):]
	geometry = geometry[:strings.Index(geometry, "\n")]
	assert.Contains(t, geometry, "MULTILINESTRING")
	assert.NotContains(t, geometry, "invalid")
	assert.NotContains(t, geometry, "3 3")
}
