package gpkg

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdok/xyz/processing"
	"github.com/pdok/xyz/project"
	"github.com/pdok/xyz/table"
	"github.com/pdok/xyz/xyz"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func openTemp(t *testing.T) *Project {
	t.Helper()
	p, err := Open(filepath.Join(t.TempDir(), "project.gpkg"), Options{Log: quietLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestFeatureTableName(t *testing.T) {
	tests := []struct {
		stype    project.Stype
		name     string
		category string
		want     string
	}{
		{project.Horizons, "TopReek", "DS_extracted", "xyz_horizons_top_reek_ds_extracted"},
		{project.Zones, "Below Top", "", "xyz_zones_below_top"},
		{project.Faults, "F-a/b", "x", "xyz_faults_f_a_b_x"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, featureTableName(tt.stype, tt.name, tt.category))
		})
	}
}

func TestFeatureTableSQL(t *testing.T) {
	ft := newFeatureTable("xyz_h")
	ft.columns = append(ft.columns, column{name: "WellName", ctype: "TEXT"})

	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "xyz_h"("fid" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT, "geom" POINT, "realisation" INTEGER NOT NULL, "seq" INTEGER NOT NULL, "poly_id" INTEGER, "z" REAL, "WellName" TEXT);`, ft.createSQL())
	assert.Equal(t, `INSERT INTO "xyz_h"("realisation","seq","poly_id","z","WellName","geom") VALUES(?,?,?,?,?,?)`, ft.insertSQL())
	assert.Equal(t, `SELECT "geom","realisation","seq","poly_id","z","WellName" FROM "xyz_h" WHERE realisation = ? ORDER BY seq;`, ft.selectSQL())
}

func TestRegister(t *testing.T) {
	p := openTemp(t)

	require.NoError(t, p.Register(project.Horizons, "TopReek", "DS", false))
	require.NoError(t, p.Register(project.Horizons, "TopReek", "DS", false))
	require.NoError(t, p.Register(project.Zones, "Reek", "", true))

	assert.ErrorIs(t, p.Register(project.Horizons, " ", "DS", false), ErrInvalidName)
	assert.ErrorIs(t, p.Register(project.Stype("wells"), "w", "", false), project.ErrInvalidStype)

	items, err := p.Items()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, Item{Stype: project.Horizons, Name: "TopReek", Category: "DS", Table: "xyz_horizons_top_reek_ds"}, items[0])
	assert.Equal(t, Item{Stype: project.Zones, Name: "Reek", Polygons: true, Table: "xyz_zones_reek"}, items[1])
}

func TestUnknownItem(t *testing.T) {
	p := openTemp(t)
	pts, err := xyz.PointsFromList([][]float64{{1, 2, 3}}, xyz.WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = pts.ToProject(p, "nope", "DS", xyz.ProjectOptions{})
	assert.ErrorIs(t, err, project.ErrUnknownItem)

	err = xyz.NewPoints(xyz.WithLogger(quietLogger())).FromProject(p, "nope", "DS", xyz.ProjectOptions{})
	assert.ErrorIs(t, err, project.ErrUnknownItem)
}

func TestNoData(t *testing.T) {
	p := openTemp(t)
	require.NoError(t, p.Register(project.Horizons, "TopReek", "DS", false))

	err := xyz.NewPoints(xyz.WithLogger(quietLogger())).FromProject(p, "TopReek", "DS", xyz.ProjectOptions{})
	assert.ErrorIs(t, err, project.ErrNoData)

	pts, err := xyz.PointsFromList([][]float64{{1, 2, 3}}, xyz.WithLogger(quietLogger()))
	require.NoError(t, err)
	_, err = pts.ToProject(p, "TopReek", "DS", xyz.ProjectOptions{})
	require.NoError(t, err)

	err = xyz.NewPoints(xyz.WithLogger(quietLogger())).FromProject(p, "TopReek", "DS", xyz.ProjectOptions{Realisation: 3})
	assert.ErrorIs(t, err, project.ErrNoData)
}

func TestPolygonsRoundTrip(t *testing.T) {
	p := openTemp(t)
	require.NoError(t, p.Register(project.Zones, "Reek", "", true))

	pol, err := xyz.PolygonsFromList([][]float64{
		{1, 1, 10, 0}, {2, 1, 11, 0}, {2, 2, 12, 0},
		{5, 5, 20, 1}, {6, 5, 21, 1},
	}, xyz.WithLogger(quietLogger()))
	require.NoError(t, err)

	n, err := pol.ToProject(p, "Reek", "", xyz.ProjectOptions{Stype: "zones"})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	back := xyz.NewPolygons(xyz.WithLogger(quietLogger()))
	require.NoError(t, back.FromProject(p, "Reek", "", xyz.ProjectOptions{Stype: "zones"}))
	assert.Equal(t, 5, back.NRow())

	df := back.Dataframe()
	xs, err := df.Floats("X_UTME")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 2, 5, 6}, xs)
	zs, err := df.Floats("Z_TVDSS")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11, 12, 20, 21}, zs)
	ids, err := df.Ints("POLY_ID")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 0, 0, 1, 1}, ids)
}

func TestPointsAttributesAndRealisations(t *testing.T) {
	p := openTemp(t)
	require.NoError(t, p.Register(project.Horizons, "TopReek", "picks", false))

	df := table.New(
		table.Spec{Name: "X_UTME", Type: table.Float},
		table.Spec{Name: "Y_UTMN", Type: table.Float},
		table.Spec{Name: "Z_TVDSS", Type: table.Float},
		table.Spec{Name: "WellName", Type: table.String},
		table.Spec{Name: "Quality", Type: table.Int},
	)
	require.NoError(t, df.Append(1.0, 2.0, 3.0, "OP_1", 1))
	require.NoError(t, df.Append(4.0, 5.0, 6.0, "OP_2", nil))
	require.NoError(t, df.Append(7.0, 8.0, 9.0, "OP_3", 3))
	pts := xyz.NewPoints(xyz.WithLogger(quietLogger()))
	require.NoError(t, pts.SetDataframe(df))

	opts := xyz.ProjectOptions{Attributes: true}
	n, err := pts.ToProject(p, "TopReek", "picks", opts)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// realisation 1 holds the filtered rows only
	filtered := xyz.ProjectOptions{Attributes: true, Realisation: 1, Filter: map[string][]string{"WellName": {"OP_2"}}}
	n, err = pts.ToProject(p, "TopReek", "picks", filtered)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	back := xyz.NewPoints(xyz.WithLogger(quietLogger()))
	require.NoError(t, back.FromProject(p, "TopReek", "picks", opts))
	assert.Equal(t, 3, back.NRow())
	assert.Equal(t, []string{"WellName", "Quality"}, back.Dataframe().Names()[3:])
	quality, ok := back.Attributes().Get("Quality")
	require.True(t, ok)
	assert.Equal(t, table.Int, quality)
	name, _ := back.Dataframe().Str("WellName", 2)
	assert.Equal(t, "OP_3", name)
	assert.Nil(t, back.Dataframe().Value("Quality", 1))

	// coordinates only
	plain := xyz.NewPoints(xyz.WithLogger(quietLogger()))
	require.NoError(t, plain.FromProject(p, "TopReek", "picks", xyz.ProjectOptions{}))
	assert.Equal(t, []string{"X_UTME", "Y_UTMN", "Z_TVDSS"}, plain.Dataframe().Names())

	// replacing a realisation
	n, err = pts.ToProject(p, "TopReek", "picks", xyz.ProjectOptions{Realisation: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	again := xyz.NewPoints(xyz.WithLogger(quietLogger()))
	require.NoError(t, again.FromProject(p, "TopReek", "picks", xyz.ProjectOptions{Realisation: 1}))
	assert.Equal(t, 3, again.NRow())
}

func TestExportEmpty(t *testing.T) {
	p := openTemp(t)
	require.NoError(t, p.Register(project.Horizons, "TopReek", "DS", false))

	n, err := xyz.NewPoints(xyz.WithLogger(quietLogger())).ToProject(p, "TopReek", "DS", xyz.ProjectOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestAttributeClash(t *testing.T) {
	p := openTemp(t)
	require.NoError(t, p.Register(project.Horizons, "TopReek", "DS", false))

	df := table.New(
		table.Spec{Name: "X_UTME", Type: table.Float},
		table.Spec{Name: "Y_UTMN", Type: table.Float},
		table.Spec{Name: "Z_TVDSS", Type: table.Float},
		table.Spec{Name: "seq", Type: table.Int},
	)
	require.NoError(t, df.Append(1.0, 2.0, 3.0, 1))
	pts := xyz.NewPoints(xyz.WithLogger(quietLogger()))
	require.NoError(t, pts.SetDataframe(df))

	_, err := pts.ToProject(p, "TopReek", "DS", xyz.ProjectOptions{Attributes: true})
	assert.Error(t, err)
}

func TestProjectTarget(t *testing.T) {
	p := openTemp(t)
	a, err := xyz.PointsFromList([][]float64{{1, 2, 3}, {4, 5, 6}}, xyz.WithLogger(quietLogger()))
	require.NoError(t, err)
	b, err := xyz.PolygonsFromList([][]float64{{1, 1, 1, 0}, {2, 2, 2, 0}}, xyz.WithLogger(quietLogger()))
	require.NoError(t, err)

	source := testSource{items: []processing.Item{{Name: "a", Data: a}, {Name: "b", Data: b}}}
	target := ProjectTarget{Project: p, Category: "batch", Register: true, Log: quietLogger()}
	processing.ProcessItems(source, []processing.Target{target}, processing.DropEmpty, quietLogger())

	items, err := p.Items()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.False(t, items[0].Polygons)
	assert.True(t, items[1].Polygons)

	back := xyz.NewPolygons(xyz.WithLogger(quietLogger()))
	require.NoError(t, back.FromProject(p, "b", "batch", xyz.ProjectOptions{}))
	assert.Equal(t, 2, back.NRow())

	// without Register nothing is stored for unknown items
	unregistered := ProjectTarget{Project: p, Category: "other", Log: quietLogger()}
	processing.ProcessItems(source, []processing.Target{unregistered}, nil, quietLogger())
	items, err = p.Items()
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

type testSource struct {
	items []processing.Item
}

func (s testSource) ReadItems(items chan<- processing.Item) {
	defer close(items)
	for _, item := range s.items {
		items <- item
	}
}
