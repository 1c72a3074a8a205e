// Package sieve drops polygons that are too small for a given resolution.
package sieve

import (
	"github.com/sirupsen/logrus"

	"github.com/pdok/xyz/geomhelp"
	"github.com/pdok/xyz/processing"
	"github.com/pdok/xyz/table"
	"github.com/pdok/xyz/xyz"
)

// segments groups the rows by Segment-ID, all rows form one segment without the column
func segments(df *table.Table, segment string) ([]table.Group, error) {
	if !df.Has(segment) {
		rows := make([]int, df.Len())
		for i := range rows {
			rows[i] = i
		}
		return []table.Group{{Key: 0, Rows: rows}}, nil
	}
	return df.GroupBy(segment)
}

// Polygons returns a copy of p without the closed segments whose area is at
// most resolution². Open polylines are kept. Also returns the number of
// dropped segments.
func Polygons(p *xyz.Polygons, resolution float64) (*xyz.Polygons, int, error) {
	minArea := resolution * resolution
	df := p.Dataframe()
	out := p.Copy()
	if df.Len() == 0 {
		return out, 0, nil
	}
	names := p.ColumnNames()
	groups, err := segments(df, names.Segment)
	if err != nil {
		return nil, 0, err
	}

	drop := make(map[int]bool)
	dropped := 0
	for _, g := range groups {
		ring := make([][2]float64, 0, len(g.Rows))
		for _, i := range g.Rows {
			x, okx := df.Float(names.X, i)
			y, oky := df.Float(names.Y, i)
			if okx && oky {
				ring = append(ring, [2]float64{x, y})
			}
		}
		if !geomhelp.IsClosed(ring) || geomhelp.Shoelace(ring) > minArea {
			continue
		}
		dropped++
		for _, i := range g.Rows {
			drop[i] = true
		}
	}
	if dropped == 0 {
		return out, 0, nil
	}
	kept := df.Filter(func(i int) bool { return !drop[i] })
	if !kept.Has(names.Segment) {
		if err := kept.AddColumn(names.Segment, table.Int, make([]any, kept.Len())); err != nil {
			return nil, 0, err
		}
	}
	if err := out.SetDataframe(kept); err != nil {
		return nil, 0, err
	}
	return out, dropped, nil
}

// Func sieves polygons items, points pass unchanged. Items left without
// rows are dropped.
func Func(resolution float64, log logrus.FieldLogger) processing.ProcessFunc {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(item processing.Item) (processing.Item, bool) {
		p, ok := item.Data.(*xyz.Polygons)
		if !ok {
			return item, true
		}
		sieved, dropped, err := Polygons(p, resolution)
		if err != nil {
			log.WithError(err).WithField("item", item.Name).Error("sieve failed")
			return item, false
		}
		if dropped > 0 {
			log.WithFields(logrus.Fields{"item": item.Name, "dropped": dropped}).Debug("sieved")
		}
		return processing.Item{Name: item.Name, Data: sieved}, sieved.NRow() > 0
	}
}
