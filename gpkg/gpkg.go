// Package gpkg stores points and polygons items in a GeoPackage. It is a
// project in the sense of package project: items are registered up front in
// a catalogue and hold one set of rows per realisation.
package gpkg

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-spatial/geom/encoding/gpkg"
	"github.com/iancoleman/strcase"
	"github.com/sirupsen/logrus"

	"github.com/pdok/xyz/mathhelp"
	"github.com/pdok/xyz/project"
)

const (
	catalogTable    = "xyz_catalog"
	attributesTable = "xyz_attributes"
)

var ErrInvalidName = errors.New("invalid item name")

var nonIdentifier = regexp.MustCompile(`[^a-z0-9_]+`)

// Options for Open
type Options struct {
	// SRS of the geometries, must be known in gpkg_spatial_ref_sys. Defaults
	// to the undefined cartesian SRS.
	SRS int32 `default:"-1"`
	Log logrus.FieldLogger
}

// Project is a GeoPackage backed project.Project
type Project struct {
	path   string
	handle *gpkg.Handle
	srs    int32
	log    logrus.FieldLogger
}

// Item is an entry of the catalogue
type Item struct {
	Stype    project.Stype
	Name     string
	Category string
	Polygons bool
	Table    string
}

// Open opens or creates the GeoPackage at path and makes sure the catalogue exists.
func Open(path string, opts Options) (*Project, error) {
	if err := defaults.Set(&opts); err != nil {
		return nil, err
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	handle, err := gpkg.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening GeoPackage: %w", err)
	}
	p := &Project{path: path, handle: handle, srs: opts.SRS, log: opts.Log.WithField("gpkg", path)}
	if err := p.createCatalog(); err != nil {
		handle.Close()
		return nil, err
	}
	return p, nil
}

func (p *Project) Close() error {
	return p.handle.Close()
}

func (p *Project) String() string {
	return "GPKG " + p.path
}

func (p *Project) createCatalog() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS "` + catalogTable + `"(` +
			`stype TEXT NOT NULL, name TEXT NOT NULL, category TEXT NOT NULL, ` +
			`polygons INTEGER NOT NULL, table_name TEXT NOT NULL UNIQUE, ` +
			`PRIMARY KEY (stype, name, category));`,
		`CREATE TABLE IF NOT EXISTS "` + attributesTable + `"(` +
			`table_name TEXT NOT NULL, name TEXT NOT NULL, type TEXT NOT NULL, position INTEGER NOT NULL, ` +
			`PRIMARY KEY (table_name, name));`,
	}
	for _, query := range queries {
		if _, err := p.handle.Exec(query); err != nil {
			return fmt.Errorf("error creating catalogue: %w", err)
		}
	}
	return nil
}

// featureTableName derives a sqlite identifier from the item identity
func featureTableName(stype project.Stype, name, category string) string {
	parts := []string{string(stype), name}
	if category != "" {
		parts = append(parts, category)
	}
	snake := strcase.ToSnake(strings.Join(parts, " "))
	return "xyz_" + strings.Trim(nonIdentifier.ReplaceAllString(snake, "_"), "_")
}

// Register makes an item exist, so it can be exported to. Registering an
// existing item is a no-op.
func (p *Project) Register(stype project.Stype, name, category string, polygons bool) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if _, err := project.ParseExportStype(string(stype)); err != nil {
		return err
	}
	_, err := p.handle.Exec(
		`INSERT OR IGNORE INTO "`+catalogTable+`"(stype, name, category, polygons, table_name) VALUES(?,?,?,?,?)`,
		string(stype), name, category, mathhelp.Bool2int(polygons), featureTableName(stype, name, category),
	)
	if err != nil {
		return fmt.Errorf("error registering %s/%s: %w", stype, name, err)
	}
	p.log.WithFields(logrus.Fields{"stype": stype, "name": name, "category": category}).Debug("registered")
	return nil
}

// Items lists the catalogue
func (p *Project) Items() ([]Item, error) {
	rows, err := p.handle.Query(`SELECT stype, name, category, polygons, table_name FROM "` + catalogTable + `" ORDER BY stype, name, category;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var item Item
		var stype string
		var polygons int
		if err := rows.Scan(&stype, &item.Name, &item.Category, &polygons, &item.Table); err != nil {
			return nil, err
		}
		item.Stype = project.Stype(stype)
		item.Polygons = polygons == 1
		items = append(items, item)
	}
	return items, rows.Err()
}

func (p *Project) item(req project.Request) (Item, error) {
	item := Item{Stype: req.Stype, Name: req.Name, Category: req.Category}
	var polygons int
	row := p.handle.QueryRow(
		`SELECT polygons, table_name FROM "`+catalogTable+`" WHERE stype = ? AND name = ? AND category = ?;`,
		string(req.Stype), req.Name, req.Category,
	)
	if err := row.Scan(&polygons, &item.Table); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return item, fmt.Errorf("%w: %s", project.ErrUnknownItem, req)
		}
		return item, err
	}
	item.Polygons = polygons == 1
	return item, nil
}

func (p *Project) tableExists(name string) (bool, error) {
	var count int
	err := p.handle.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?;`, name).Scan(&count)
	return count > 0, err
}

var _ project.Project = (*Project)(nil)
