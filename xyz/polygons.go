package xyz

import (
	"fmt"
	"math"

	"github.com/go-spatial/geom"
	"gonum.org/v1/gonum/floats"

	"github.com/pdok/xyz/geomhelp"
	"github.com/pdok/xyz/mapslicehelp"
	"github.com/pdok/xyz/mathhelp"
	"github.com/pdok/xyz/table"
	"github.com/pdok/xyz/well"
	"github.com/pdok/xyz/xyzio"
)

const (
	HCumLen   = "H_CUMLEN"
	HDeltaLen = "H_DELTALEN"
	TCumLen   = "T_CUMLEN"
	TDeltaLen = "T_DELTALEN"
)

// Polygons is a set of polylines; rows sharing a Segment-ID form one line.
type Polygons struct {
	base
}

func NewPolygons(opts ...Option) *Polygons {
	return &Polygons{base: newBase(true, opts...)}
}

func PolygonsFromFile(path string, format xyzio.Format, opts ...Option) (*Polygons, error) {
	p := NewPolygons(opts...)
	if err := p.FromFile(path, format); err != nil {
		return nil, err
	}
	return p, nil
}

func PolygonsFromList(list [][]float64, opts ...Option) (*Polygons, error) {
	p := NewPolygons(opts...)
	if err := p.FromList(list); err != nil {
		return nil, err
	}
	return p, nil
}

// Copy is deep, the file source is not copied
func (p *Polygons) Copy() *Polygons {
	return &Polygons{base: p.copyBase()}
}

// FromWells replaces the table by the zone intervals of the wells. The
// Segment-IDs of every well are offset by one more than the largest id so
// far, so ids never collide. Returns the number of wells contributing; with
// none the table is left as is.
func (p *Polygons) FromWells(wells well.Wells, zone int64, resample int) (int, error) {
	var parts []*table.Table
	offset := int64(0)
	for _, w := range wells {
		wp := w.ZoneInterval(zone, resample)
		if wp == nil {
			continue
		}
		wp, err := renameToBound(wp, w.ColumnNames(), p.names)
		if err != nil {
			return 0, err
		}
		ids, err := wp.Ints(p.names.Segment)
		if err != nil {
			return 0, err
		}
		for i := range ids {
			ids[i] += offset
			if err := wp.Set(p.names.Segment, i, ids[i]); err != nil {
				return 0, err
			}
		}
		offset = mapslicehelp.MaxOr(ids, offset-1) + 1
		parts = append(parts, wp)
	}
	if len(parts) == 0 {
		p.log.WithField("zone", zone).Debug("no well enters zone")
		return 0, nil
	}
	all, err := parts[0].Concat(parts[1:]...)
	if err != nil {
		return 0, err
	}
	if err := p.SetDataframe(all); err != nil {
		return 0, err
	}
	p.filesrc = ""
	return len(parts), nil
}

// XYZDataframe returns X, Y, Z rows where every polyline ends with a 999.0 row
func (p *Polygons) XYZDataframe() (*table.Table, error) {
	if p.df == nil {
		return nil, fmt.Errorf("%w: nothing loaded", ErrInvalidDataframe)
	}
	return xyzio.ConvertIDBasedXYZ(p.df, p.names)
}

// segmentGroups groups the rows by Segment-ID; without the column all rows
// form segment 0
func (p *Polygons) segmentGroups() ([]table.Group, error) {
	if p.df == nil {
		return nil, nil
	}
	if !p.df.Has(p.names.Segment) {
		rows := make([]int, p.df.Len())
		for i := range rows {
			rows[i] = i
		}
		return []table.Group{{Key: 0, Rows: rows}}, nil
	}
	return p.df.GroupBy(p.names.Segment)
}

func (p *Polygons) segmentXY(rows []int) [][2]float64 {
	line := make([][2]float64, 0, len(rows))
	for _, i := range rows {
		if p.df.HasNull(i, p.names.X, p.names.Y) {
			continue
		}
		x, _ := p.df.Float(p.names.X, i)
		y, _ := p.df.Float(p.names.Y, i)
		line = append(line, [2]float64{x, y})
	}
	return line
}

// Segments returns the planar polylines in Segment-ID order
func (p *Polygons) Segments() ([]geom.LineString, error) {
	groups, err := p.segmentGroups()
	if err != nil {
		return nil, err
	}
	lines := make([]geom.LineString, 0, len(groups))
	for _, g := range groups {
		lines = append(lines, geom.LineString(p.segmentXY(g.Rows)))
	}
	return lines, nil
}

// Geometry returns the polylines as a MultiLineString, empty when the
// Segment-IDs can not be grouped
func (p *Polygons) Geometry() geom.Geometry {
	lines, err := p.Segments()
	if err != nil {
		p.log.WithError(err).Warn("no geometry")
		return geom.MultiLineString{}
	}
	mls := make(geom.MultiLineString, len(lines))
	for i, l := range lines {
		mls[i] = l
	}
	return mls
}

// Areas returns the planar area of every segment, closed as a ring
func (p *Polygons) Areas() (map[int64]float64, error) {
	groups, err := p.segmentGroups()
	if err != nil {
		return nil, err
	}
	areas := make(map[int64]float64, len(groups))
	for _, g := range groups {
		areas[g.Key] = geomhelp.Shoelace(p.segmentXY(g.Rows))
	}
	return areas, nil
}

// AddHLen adds the horizontal cumulative and delta length along every segment
func (p *Polygons) AddHLen() error {
	return p.addLength(HCumLen, HDeltaLen, func(dx, dy, _ float64) float64 {
		return math.Hypot(dx, dy)
	})
}

// AddTLen adds the true (3D) cumulative and delta length along every segment
func (p *Polygons) AddTLen() error {
	return p.addLength(TCumLen, TDeltaLen, mathhelp.Hypot3)
}

func (p *Polygons) addLength(cumName, deltaName string, dist func(dx, dy, dz float64) float64) error {
	groups, err := p.segmentGroups()
	if err != nil {
		return err
	}
	if p.df == nil {
		return fmt.Errorf("%w: nothing loaded", ErrInvalidDataframe)
	}
	cum := make([]any, p.df.Len())
	delta := make([]any, p.df.Len())
	for _, g := range groups {
		var rows []int
		for _, i := range g.Rows {
			if !p.df.HasNull(i, p.names.Coordinates()...) {
				rows = append(rows, i)
			}
		}
		deltas := make([]float64, len(rows))
		for k := 1; k < len(rows); k++ {
			prev, cur := rows[k-1], rows[k]
			x0, _ := p.df.Float(p.names.X, prev)
			y0, _ := p.df.Float(p.names.Y, prev)
			z0, _ := p.df.Float(p.names.Z, prev)
			x1, _ := p.df.Float(p.names.X, cur)
			y1, _ := p.df.Float(p.names.Y, cur)
			z1, _ := p.df.Float(p.names.Z, cur)
			deltas[k] = dist(x1-x0, y1-y0, z1-z0)
		}
		cums := floats.CumSum(make([]float64, len(deltas)), deltas)
		for k, i := range rows {
			delta[i] = deltas[k]
			cum[i] = cums[k]
		}
	}
	for _, name := range []string{cumName, deltaName} {
		p.df.DropColumn(name)
	}
	if err := p.df.AddColumn(cumName, table.Float, cum); err != nil {
		return err
	}
	if err := p.df.AddColumn(deltaName, table.Float, delta); err != nil {
		return err
	}
	p.syncAttributes()
	return nil
}
