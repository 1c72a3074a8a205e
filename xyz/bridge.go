package xyz

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pdok/xyz/project"
	"github.com/pdok/xyz/xyzio"
)

// ProjectOptions steers FromProject and ToProject
type ProjectOptions struct {
	// Stype defaults to horizons
	Stype       string
	Realisation int
	Attributes  bool
	// Filter is only used on export
	Filter map[string][]string
}

func (b *base) request(name, category string, stype project.Stype, opts ProjectOptions) project.Request {
	return project.Request{
		Name:        name,
		Category:    category,
		Stype:       stype,
		Realisation: opts.Realisation,
		Attributes:  opts.Attributes,
		Filter:      opts.Filter,
		Names:       b.names,
		Polygons:    b.polygons,
	}
}

func stypeOrDefault(s string) string {
	if s == "" {
		return string(project.Horizons)
	}
	return s
}

// FromProject loads an item from a project. The item must exist.
func (b *base) FromProject(p project.Project, name, category string, opts ProjectOptions) error {
	stype, err := project.ParseImportStype(stypeOrDefault(opts.Stype))
	if err != nil {
		return err
	}
	req := b.request(name, category, stype, opts)
	data, err := p.Import(req)
	if err != nil {
		return fmt.Errorf("import %s from %s: %w", req, p, err)
	}
	t, err := b.normalize(data.Table)
	if err != nil {
		return err
	}
	b.df = t
	b.attrs = xyzio.NewAttributes()
	if data.Attributes != nil {
		b.attrs = data.Attributes
	}
	b.syncAttributes()
	b.filesrc = fmt.Sprintf("%s: %s (%s)", p, name, category)
	b.log.WithFields(logrus.Fields{"item": req.String(), "rows": t.Len()}).Info("imported from project")
	return nil
}

// ToProject stores the table as an item of a project. The item must exist.
// Returns the number of rows stored.
func (b *base) ToProject(p project.Project, name, category string, opts ProjectOptions) (int, error) {
	stype, err := project.ParseExportStype(stypeOrDefault(opts.Stype))
	if err != nil {
		return 0, err
	}
	req := b.request(name, category, stype, opts)
	if b.df.Len() == 0 {
		b.log.WithField("item", req.String()).Warn("nothing to export")
		return 0, nil
	}
	n, err := p.Export(req, project.Data{Table: b.df, Attributes: b.attrs})
	if err != nil {
		return 0, fmt.Errorf("export %s to %s: %w", req, p, err)
	}
	b.log.WithFields(logrus.Fields{"item": req.String(), "rows": n}).Info("exported to project")
	return n, nil
}
