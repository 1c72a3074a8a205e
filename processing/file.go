package processing

import (
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdok/xyz/xyz"
	"github.com/pdok/xyz/xyzio"
)

// FileSource reads every path as Points, or as Polygons when Polygons is set.
// Files that can not be read are logged and skipped.
type FileSource struct {
	Paths    []string
	Format   xyzio.Format
	Polygons bool
	Names    xyzio.ColumnNames
	Log      logrus.FieldLogger
}

func itemName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (s FileSource) ReadItems(items chan<- Item) {
	defer close(items)
	log := orStandard(s.Log)
	names := s.Names
	if names == (xyzio.ColumnNames{}) {
		names = xyzio.DefaultColumnNames()
	}
	opts := []xyz.Option{xyz.WithColumnNames(names), xyz.WithLogger(log)}
	for _, path := range s.Paths {
		var data xyz.XYZ
		if s.Polygons {
			data = xyz.NewPolygons(opts...)
		} else {
			data = xyz.NewPoints(opts...)
		}
		if err := data.FromFile(path, s.Format); err != nil {
			log.WithError(err).WithField("file", path).Error("skipped")
			continue
		}
		items <- Item{Name: itemName(path), Data: data}
	}
}

// DirTarget writes every item to <Dir>/<name>.<extension of Format>
type DirTarget struct {
	Dir     string
	Options xyz.ExportOptions
	Log     logrus.FieldLogger
}

func (t DirTarget) WriteItems(items <-chan Item) {
	log := orStandard(t.Log)
	format := t.Options.Format
	if format == "" || format == xyzio.FormatGuess {
		format = xyzio.FormatXYZ
	}
	opts := t.Options
	opts.Format = format
	for item := range items {
		path := filepath.Join(t.Dir, item.Name+"."+format.Extension())
		n, err := item.Data.ToFile(path, opts)
		if err != nil {
			log.WithError(err).WithField("file", path).Error("write failed")
			continue
		}
		log.WithFields(logrus.Fields{"file": path, "rows": n}).Debug("written")
	}
}
