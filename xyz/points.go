package xyz

import (
	"github.com/go-spatial/geom"

	"github.com/pdok/xyz/table"
	"github.com/pdok/xyz/well"
	"github.com/pdok/xyz/xyzio"
)

// Points is a set of XYZ points, the Segment-ID column is optional.
type Points struct {
	base
}

func NewPoints(opts ...Option) *Points {
	return &Points{base: newBase(false, opts...)}
}

func PointsFromFile(path string, format xyzio.Format, opts ...Option) (*Points, error) {
	p := NewPoints(opts...)
	if err := p.FromFile(path, format); err != nil {
		return nil, err
	}
	return p, nil
}

func PointsFromList(list [][]float64, opts ...Option) (*Points, error) {
	p := NewPoints(opts...)
	if err := p.FromList(list); err != nil {
		return nil, err
	}
	return p, nil
}

// Copy is deep, the file source is not copied
func (p *Points) Copy() *Points {
	return &Points{base: p.copyBase()}
}

// Geometry returns the points as a MultiPoint, Z dropped
func (p *Points) Geometry() geom.Geometry {
	return geom.MultiPoint(p.xy())
}

// FromWellPicks replaces the table by the zone picks of all wells, with the
// zone and well name as attributes. Returns the number of picks.
func (p *Points) FromWellPicks(wells well.Wells) (int, error) {
	var picks []*table.Table
	for _, w := range wells {
		wp, err := renameToBound(w.ZonePicks(), w.ColumnNames(), p.names)
		if err != nil {
			return 0, err
		}
		if wp.Len() > 0 {
			picks = append(picks, wp)
		}
	}
	if len(picks) == 0 {
		p.log.WithField("wells", len(wells)).Warn("no zone picks in wells")
		return 0, nil
	}
	all, err := picks[0].Concat(picks[1:]...)
	if err != nil {
		return 0, err
	}
	if err := p.SetDataframe(all); err != nil {
		return 0, err
	}
	p.filesrc = ""
	return all.Len(), nil
}

// renameToBound renames the role columns of t from the names it was created
// with to the names bound here
func renameToBound(t *table.Table, from, to xyzio.ColumnNames) (*table.Table, error) {
	if from == to {
		return t, nil
	}
	pairs := [][2]string{{from.X, to.X}, {from.Y, to.Y}, {from.Z, to.Z}, {from.Segment, to.Segment}, {from.MD, to.MD}}
	for _, pair := range pairs {
		if !t.Has(pair[0]) {
			continue
		}
		if err := t.RenameColumn(pair[0], "__"+pair[1]); err != nil {
			return nil, err
		}
	}
	for _, pair := range pairs {
		if !t.Has("__" + pair[1]) {
			continue
		}
		if err := t.RenameColumn("__"+pair[1], pair[1]); err != nil {
			return nil, err
		}
	}
	return t, nil
}
