package gpkg

import (
	"github.com/sirupsen/logrus"

	"github.com/pdok/xyz/processing"
	"github.com/pdok/xyz/project"
	"github.com/pdok/xyz/xyz"
)

// ProjectTarget exports every item under its own name. With Register set,
// missing items are registered first.
type ProjectTarget struct {
	Project     *Project
	Stype       project.Stype
	Category    string
	Realisation int
	Attributes  bool
	Register    bool
	Log         logrus.FieldLogger
}

func (t ProjectTarget) WriteItems(items <-chan processing.Item) {
	log := t.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	stype := t.Stype
	if stype == "" {
		stype = project.Horizons
	}
	opts := xyz.ProjectOptions{Stype: string(stype), Realisation: t.Realisation, Attributes: t.Attributes}
	for item := range items {
		l := log.WithFields(logrus.Fields{"item": item.Name, "stype": stype})
		if t.Register {
			if err := t.Project.Register(stype, item.Name, t.Category, item.Data.IsPolygons()); err != nil {
				l.WithError(err).Error("register failed")
				continue
			}
		}
		n, err := item.Data.ToProject(t.Project, item.Name, t.Category, opts)
		if err != nil {
			l.WithError(err).Error("export failed")
			continue
		}
		l.WithField("rows", n).Debug("stored")
	}
}

var _ processing.Target = ProjectTarget{}
