// Package well holds a minimal well container: a trajectory table with a
// discrete zone log, enough to derive zone intervals and zone picks.
package well

import (
	"errors"
	"fmt"

	"github.com/creasty/defaults"

	"github.com/pdok/xyz/table"
	"github.com/pdok/xyz/xyzio"
)

const (
	// WellNameColumn holds the name of the well a derived row came from
	WellNameColumn = "WellName"
	// ZoneColumn holds the zone of a pick
	ZoneColumn = "Zone"
)

var ErrInvalidWell = errors.New("invalid well")

// Options binds the well log names
type Options struct {
	Names   xyzio.ColumnNames
	ZoneLog string `default:"Zonelog"`
	// MDLog is optional, Names.MD when empty
	MDLog string
}

func (o *Options) setDefaults() {
	if o.Names == (xyzio.ColumnNames{}) {
		o.Names = xyzio.DefaultColumnNames()
	}
	_ = defaults.Set(o)
	if o.MDLog == "" {
		o.MDLog = o.Names.MD
	}
}

// Well is a named trajectory with logs
type Well struct {
	Name string
	t    *table.Table
	opts Options
}

// New validates that t has the coordinate columns and an integer zone log.
func New(name string, t *table.Table, opts Options) (*Well, error) {
	opts.setDefaults()
	if name == "" {
		return nil, fmt.Errorf("%w: no name", ErrInvalidWell)
	}
	for _, col := range opts.Names.Coordinates() {
		if !t.Has(col) {
			return nil, fmt.Errorf("%w: %s misses column %s", ErrInvalidWell, name, col)
		}
	}
	ctype, ok := t.Type(opts.ZoneLog)
	if !ok {
		return nil, fmt.Errorf("%w: %s misses zone log %s", ErrInvalidWell, name, opts.ZoneLog)
	}
	if ctype != table.Int {
		return nil, fmt.Errorf("%w: zone log %s of %s is %s, not discrete", ErrInvalidWell, opts.ZoneLog, name, ctype)
	}
	return &Well{Name: name, t: t, opts: opts}, nil
}

// Table returns the well logs, not a copy
func (w *Well) Table() *table.Table {
	return w.t
}

// ColumnNames returns the names of the coordinate columns of derived tables
func (w *Well) ColumnNames() xyzio.ColumnNames {
	return w.opts.Names
}

type Wells []*Well

func (ws Wells) Names() []string {
	names := make([]string, len(ws))
	for i, w := range ws {
		names[i] = w.Name
	}
	return names
}

// ZoneInterval returns the part of the trajectory inside zone as polylines:
// every contiguous run of samples gets its own Segment-ID, starting at 0.
// Within a run every resample-th sample is kept, the first one always.
// Nil when the well never enters the zone.
func (w *Well) ZoneInterval(zone int64, resample int) *table.Table {
	if resample < 1 {
		resample = 1
	}
	names := w.opts.Names
	out := table.New(
		table.Spec{Name: names.X, Type: table.Float},
		table.Spec{Name: names.Y, Type: table.Float},
		table.Spec{Name: names.Z, Type: table.Float},
		table.Spec{Name: names.Segment, Type: table.Int},
		table.Spec{Name: WellNameColumn, Type: table.String},
	)
	segment := int64(-1)
	inRun := false
	pos := 0
	for i := 0; i < w.t.Len(); i++ {
		z, ok := w.t.Int(w.opts.ZoneLog, i)
		if !ok || z != zone || w.t.HasNull(i, names.Coordinates()...) {
			inRun = false
			continue
		}
		if !inRun {
			inRun = true
			segment++
			pos = 0
		}
		if pos%resample == 0 {
			// columns and types are fixed above, Append cannot fail
			_ = out.Append(w.t.Value(names.X, i), w.t.Value(names.Y, i), w.t.Value(names.Z, i), segment, w.Name)
		}
		pos++
	}
	if out.Len() == 0 {
		return nil
	}
	return out
}

// ZonePicks returns a row wherever the zone log changes between two
// consecutive defined samples, located at the lower sample and carrying
// the zone entered. The MD column is only present when the well has an MD log.
func (w *Well) ZonePicks() *table.Table {
	names := w.opts.Names
	specs := []table.Spec{
		{Name: names.X, Type: table.Float},
		{Name: names.Y, Type: table.Float},
		{Name: names.Z, Type: table.Float},
		{Name: ZoneColumn, Type: table.Int},
		{Name: WellNameColumn, Type: table.String},
	}
	hasMD := w.t.Has(w.opts.MDLog)
	if hasMD {
		specs = append(specs, table.Spec{Name: names.MD, Type: table.Float})
	}
	out := table.New(specs...)
	var previous int64
	defined := false
	for i := 0; i < w.t.Len(); i++ {
		z, ok := w.t.Int(w.opts.ZoneLog, i)
		if !ok {
			continue
		}
		if defined && z != previous && !w.t.HasNull(i, names.Coordinates()...) {
			row := []any{w.t.Value(names.X, i), w.t.Value(names.Y, i), w.t.Value(names.Z, i), z, w.Name}
			if hasMD {
				row = append(row, w.t.Value(w.opts.MDLog, i))
			}
			_ = out.Append(row...)
		}
		previous, defined = z, true
	}
	return out
}
