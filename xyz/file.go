package xyz

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/pdok/xyz/mapslicehelp"
	"github.com/pdok/xyz/table"
	"github.com/pdok/xyz/xyzio"
)

// FromFile reads path in the given format, guessing it from the extension
// for FormatGuess.
func (b *base) FromFile(path string, format xyzio.Format) error {
	log := b.log.WithField("file", path)
	log.Info("reading from file")

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("does file exist? %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotAFile, path)
	}
	format, err = xyzio.Resolve(format, path)
	if err != nil {
		return err
	}
	if !format.Importable() {
		return fmt.Errorf("%w: %s is export only", xyzio.ErrUnsupportedFormat, format)
	}

	var t *table.Table
	attrs := xyzio.NewAttributes()
	if format == xyzio.FormatShape {
		t, attrs, err = xyzio.ReadShape(path, b.names)
	} else {
		t, attrs, err = b.readText(path, format)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	t, err = b.normalize(t)
	if err != nil {
		return err
	}
	b.df = t
	b.attrs = attrs
	b.syncAttributes()
	b.filesrc = path

	log.WithFields(logrus.Fields{"format": format, "rows": t.Len(), "kind": b.kind()}).Info("reading from file done")
	return nil
}

func (b *base) readText(path string, format xyzio.Format) (*table.Table, *xyzio.Attributes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	switch format {
	case xyzio.FormatXYZ:
		t, err := xyzio.ReadXYZ(f, b.names)
		return t, xyzio.NewAttributes(), err
	case xyzio.FormatZMAP:
		t, err := xyzio.ReadZMAP(f, b.names)
		return t, xyzio.NewAttributes(), err
	case xyzio.FormatRMSAttr:
		return xyzio.ReadRMSAttr(f, b.names)
	}
	return nil, nil, fmt.Errorf("%w: %s", xyzio.ErrUnsupportedFormat, format)
}

// FromList replaces the table by the given tuples. All tuples have 3 (X, Y, Z)
// or all have 4 (X, Y, Z, Segment-ID) elements; the fourth is truncated to an integer.
func (b *base) FromList(list [][]float64) error {
	if len(list) == 0 {
		return ErrEmptyList
	}
	width := len(list[0])
	if width != 3 && width != 4 {
		return fmt.Errorf("%w: first tuple has %d", ErrInvalidTuple, width)
	}
	specs := []table.Spec{
		{Name: b.names.X, Type: table.Float},
		{Name: b.names.Y, Type: table.Float},
		{Name: b.names.Z, Type: table.Float},
	}
	if width == 4 {
		specs = append(specs, table.Spec{Name: b.names.Segment, Type: table.Int})
	}
	t := table.New(specs...)
	for i, tuple := range list {
		if len(tuple) != width {
			return fmt.Errorf("%w: tuple %d has %d, expected %d", ErrInvalidTuple, i, len(tuple), width)
		}
		row := make([]any, width)
		for j, v := range tuple {
			row[j] = v
		}
		if width == 4 {
			if math.IsNaN(tuple[3]) || math.IsInf(tuple[3], 0) {
				return fmt.Errorf("%w: tuple %d has Segment-ID %v", ErrInvalidTuple, i, tuple[3])
			}
			row[3] = int64(tuple[3])
		}
		if err := t.Append(row...); err != nil {
			return err
		}
	}
	b.df = t
	b.attrs = xyzio.NewAttributes()
	b.filesrc = ""
	return nil
}

// ExportOptions steers ToFile
type ExportOptions struct {
	// Format defaults to xyz
	Format xyzio.Format
	// Attributes exported with rms_attr and shp, all attributes when nil
	Attributes []string
	// Filter keeps rows by column value, e.g. {"TopName": {"Top1", "Top2"}}
	Filter map[string][]string
	// HorizonColumn, WellColumn and MDColumn are used by rms_wellpicks.
	// MDColumn defaults to the bound MD name.
	HorizonColumn string
	WellColumn    string
	MDColumn      string
}

// ToFile exports to path and returns the number of rows written. The folder
// of path must exist. Nothing loaded or no rows is not an error, it returns 0.
func (b *base) ToFile(path string, opts ExportOptions) (int, error) {
	log := b.log.WithField("file", path)
	folder := filepath.Dir(path)
	info, err := os.Stat(folder)
	if err != nil {
		return 0, fmt.Errorf("folder for %s: %w", path, err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%w: %s", ErrNotAFolder, folder)
	}

	if b.df.Len() == 0 {
		log.Warn("nothing to export")
		return 0, nil
	}

	format := opts.Format
	if format == "" {
		format = xyzio.FormatXYZ
	}
	format, err = xyzio.Resolve(format, path)
	if err != nil {
		return 0, err
	}

	df, err := xyzio.ApplyFilter(b.df, opts.Filter)
	if err != nil {
		return 0, err
	}
	attributes := opts.Attributes
	if attributes == nil {
		attributes = mapslicehelp.OrderedMapKeys(b.attrs)
	}

	var n int
	if format == xyzio.FormatShape {
		n, err = xyzio.WriteShape(path, df, b.names, attributes, b.polygons && df.Has(b.names.Segment))
	} else {
		n, err = b.writeText(path, df, format, attributes, opts)
	}
	if err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	if n == 0 {
		log.Warn("nothing to export")
	}
	log.WithFields(logrus.Fields{"format": format, "rows": n}).Info("exported")
	return n, nil
}

func (b *base) writeText(path string, df *table.Table, format xyzio.Format, attributes []string, opts ExportOptions) (n int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	switch format {
	case xyzio.FormatXYZ:
		sentinels := b.polygons && df.Has(b.names.Segment)
		return xyzio.WriteRMSAttr(f, df, b.names, xyzio.WriteOptions{Sentinels: sentinels})
	case xyzio.FormatRMSAttr:
		return xyzio.WriteRMSAttr(f, df, b.names, xyzio.WriteOptions{Attributes: attributes})
	case xyzio.FormatZMAP:
		return xyzio.WriteZMAP(f, df, b.names)
	case xyzio.FormatRMSWellPicks:
		md := opts.MDColumn
		if md == "" {
			md = b.names.MD
		}
		return xyzio.WriteWellPicks(f, df, b.names, opts.HorizonColumn, opts.WellColumn, md)
	}
	return 0, fmt.Errorf("%w: %s", xyzio.ErrUnsupportedFormat, format)
}
