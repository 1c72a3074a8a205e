package sieve

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdok/xyz/processing"
	"github.com/pdok/xyz/xyz"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func square(id, size float64) [][]float64 {
	return [][]float64{{0, 0, 1, id}, {0, size, 1, id}, {size, size, 1, id}, {size, 0, 1, id}, {0, 0, 1, id}}
}

func TestPolygons(t *testing.T) {
	var list [][]float64
	list = append(list, square(0, 10)...)
	list = append(list, square(1, 2)...)
	// open polyline, never sieved
	list = append(list, [][]float64{{0, 0, 1, 2}, {1, 0, 1, 2}}...)

	var tests = []struct {
		resolution float64
		dropped    int
		rows       int
		ids        []int64
	}{
		0: {resolution: 1, dropped: 0, rows: 12, ids: []int64{0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 2, 2}},
		1: {resolution: 2, dropped: 1, rows: 7, ids: []int64{0, 0, 0, 0, 0, 2, 2}},
		2: {resolution: 10, dropped: 2, rows: 2, ids: []int64{2, 2}},
	}

	for k, test := range tests {
		p, err := xyz.PolygonsFromList(list, xyz.WithLogger(quietLogger()))
		require.NoError(t, err)
		sieved, dropped, err := Polygons(p, test.resolution)
		require.NoError(t, err, k)
		assert.Equal(t, test.dropped, dropped, k)
		assert.Equal(t, test.rows, sieved.NRow(), k)
		ids, err := sieved.Dataframe().Ints("POLY_ID")
		require.NoError(t, err)
		assert.Equal(t, test.ids, ids, k)
		assert.Equal(t, 12, p.NRow(), "input is left alone")
	}
}

func TestPolygonsWithoutSegments(t *testing.T) {
	p, err := xyz.PolygonsFromList([][]float64{{0, 0, 1}, {0, 1, 1}, {1, 1, 1}, {0, 0, 1}}, xyz.WithLogger(quietLogger()))
	require.NoError(t, err)
	sieved, dropped, err := Polygons(p, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 0, sieved.NRow())
}

func TestFunc(t *testing.T) {
	small, err := xyz.PolygonsFromList(square(0, 1), xyz.WithLogger(quietLogger()))
	require.NoError(t, err)
	pts, err := xyz.PointsFromList([][]float64{{0, 0, 1}}, xyz.WithLogger(quietLogger()))
	require.NoError(t, err)

	f := Func(5, quietLogger())
	_, keep := f(processing.Item{Name: "small", Data: small})
	assert.False(t, keep)
	item, keep := f(processing.Item{Name: "points", Data: pts})
	assert.True(t, keep)
	assert.Equal(t, 1, item.Data.NRow())
}
