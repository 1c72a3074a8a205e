package gpkg

import (
	"fmt"
	"strings"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/gpkg"
	"github.com/sirupsen/logrus"

	"github.com/pdok/xyz/project"
	"github.com/pdok/xyz/table"
	"github.com/pdok/xyz/xyzio"
)

const (
	fidColumn         = "fid"
	geometryColumn    = "geom"
	realisationColumn = "realisation"
	seqColumn         = "seq"
	polyIDColumn      = "poly_id"
	zColumn           = "z"
)

type column struct {
	name    string
	ctype   string
	notnull bool
	pk      bool
}

// featureTable is the layout of an item table: one POINT per vertex
type featureTable struct {
	name    string
	columns []column
	gcolumn string
}

func newFeatureTable(name string) featureTable {
	return featureTable{
		name: name,
		columns: []column{
			{name: fidColumn, ctype: "INTEGER", notnull: true, pk: true},
			{name: geometryColumn, ctype: "POINT"},
			{name: realisationColumn, ctype: "INTEGER", notnull: true},
			{name: seqColumn, ctype: "INTEGER", notnull: true},
			{name: polyIDColumn, ctype: "INTEGER"},
			{name: zColumn, ctype: "REAL"},
		},
		gcolumn: geometryColumn,
	}
}

func isFixedColumn(name string) bool {
	switch strings.ToLower(name) {
	case fidColumn, geometryColumn, realisationColumn, seqColumn, polyIDColumn, zColumn:
		return true
	}
	return false
}

func sqlType(ctype table.ColumnType) string {
	switch ctype {
	case table.Int:
		return "INTEGER"
	case table.Float:
		return "REAL"
	case table.Bool:
		return "BOOLEAN"
	}
	return "TEXT"
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// createSQL creates a CREATE statement on the given table and column information
func (t featureTable) createSQL() string {
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %v`, quote(t.name))
	var columnparts []string
	for _, column := range t.columns {
		columnpart := quote(column.name) + ` ` + column.ctype
		if column.notnull {
			columnpart = columnpart + ` NOT NULL`
		}
		if column.pk {
			columnpart = columnpart + ` PRIMARY KEY AUTOINCREMENT`
		}

		columnparts = append(columnparts, columnpart)
	}

	query := create + `(` + strings.Join(columnparts, `, `) + `);`
	return query
}

// selectSQL builds the SELECT statement for the rows of one realisation in
// seq order, geometry first
func (t featureTable) selectSQL() string {
	csql := []string{quote(t.gcolumn)}
	for _, c := range t.columns {
		if c.name != t.gcolumn && c.name != fidColumn {
			csql = append(csql, quote(c.name))
		}
	}
	query := `SELECT ` + strings.Join(csql, `,`) + ` FROM ` + quote(t.name) +
		` WHERE ` + realisationColumn + ` = ? ORDER BY ` + seqColumn + `;`
	return query
}

// insertSQL builds the INSERT statement, geometry last
func (t featureTable) insertSQL() string {
	var csql, vsql []string
	for _, c := range t.columns {
		if c.name != t.gcolumn && c.name != fidColumn {
			csql = append(csql, quote(c.name))
			vsql = append(vsql, `?`)
		}
	}
	csql = append(csql, quote(t.gcolumn))
	vsql = append(vsql, `?`)
	query := `INSERT INTO ` + quote(t.name) + `(` + strings.Join(csql, `,`) + `) VALUES(` + strings.Join(vsql, `,`) + `)`
	return query
}

// attributes returns the registered attribute columns of a feature table in order
func (p *Project) attributes(tableName string) (*xyzio.Attributes, error) {
	attrs := xyzio.NewAttributes()
	rows, err := p.handle.Query(`SELECT name, type FROM "`+attributesTable+`" WHERE table_name = ? ORDER BY position;`, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name, ctype string
		if err := rows.Scan(&name, &ctype); err != nil {
			return nil, err
		}
		parsed, err := table.ParseColumnType(ctype)
		if err != nil {
			return nil, err
		}
		attrs.Set(name, parsed)
	}
	return attrs, rows.Err()
}

func (p *Project) featureTable(item Item, attrs *xyzio.Attributes) featureTable {
	ft := newFeatureTable(item.Table)
	for pair := attrs.Oldest(); pair != nil; pair = pair.Next() {
		ft.columns = append(ft.columns, column{name: pair.Key, ctype: sqlType(pair.Value)})
	}
	return ft
}

// ensureTable creates the feature table on first use and adds attribute
// columns it does not have yet. Returns the layout covering all registered attributes.
func (p *Project) ensureTable(item Item, wanted *xyzio.Attributes) (featureTable, error) {
	exists, err := p.tableExists(item.Table)
	if err != nil {
		return featureTable{}, err
	}
	if !exists {
		ft := newFeatureTable(item.Table)
		if _, err := p.handle.Exec(ft.createSQL()); err != nil {
			return featureTable{}, fmt.Errorf("error creating table %s: %w", item.Table, err)
		}
		err = p.handle.AddGeometryTable(gpkg.TableDescription{
			Name:          item.Table,
			ShortName:     item.Name,
			Description:   fmt.Sprintf("%s %s %s", item.Stype, item.Name, item.Category),
			GeometryField: geometryColumn,
			GeometryType:  gpkg.Point,
			SRS:           p.srs,
			//
			Z: gpkg.Prohibited,
			M: gpkg.Prohibited,
		})
		if err != nil {
			return featureTable{}, fmt.Errorf("error adding geometry table %s: %w", item.Table, err)
		}
	}

	registered, err := p.attributes(item.Table)
	if err != nil {
		return featureTable{}, err
	}
	for pair := wanted.Oldest(); pair != nil; pair = pair.Next() {
		if isFixedColumn(pair.Key) {
			return featureTable{}, fmt.Errorf("attribute %s clashes with a column of %s", pair.Key, item.Table)
		}
		if existing, ok := registered.Get(pair.Key); ok {
			if existing != pair.Value {
				return featureTable{}, fmt.Errorf("attribute %s of %s is %s, not %s", pair.Key, item.Table, existing, pair.Value)
			}
			continue
		}
		alter := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s;`, quote(item.Table), quote(pair.Key), sqlType(pair.Value))
		if _, err := p.handle.Exec(alter); err != nil {
			return featureTable{}, fmt.Errorf("error adding attribute %s: %w", pair.Key, err)
		}
		_, err := p.handle.Exec(
			`INSERT INTO "`+attributesTable+`"(table_name, name, type, position) VALUES(?,?,?,?)`,
			item.Table, pair.Key, pair.Value.String(), registered.Len(),
		)
		if err != nil {
			return featureTable{}, err
		}
		registered.Set(pair.Key, pair.Value)
	}
	return p.featureTable(item, registered), nil
}

// Export replaces the rows of the realisation of a registered item.
// Rows without X or Y are skipped.
func (p *Project) Export(req project.Request, data project.Data) (int, error) {
	item, err := p.item(req)
	if err != nil {
		return 0, err
	}
	names := req.Names
	df, err := xyzio.ApplyFilter(data.Table, req.Filter)
	if err != nil {
		return 0, err
	}
	wanted := xyzio.NewAttributes()
	if req.Attributes && data.Attributes != nil {
		for pair := data.Attributes.Oldest(); pair != nil; pair = pair.Next() {
			if df.Has(pair.Key) {
				wanted.Set(pair.Key, pair.Value)
			}
		}
	}
	ft, err := p.ensureTable(item, wanted)
	if err != nil {
		return 0, err
	}
	attrColumns := ft.columns[len(newFeatureTable("").columns):]

	tx, err := p.handle.Begin()
	if err != nil {
		return 0, fmt.Errorf("could not start a transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM `+quote(item.Table)+` WHERE `+realisationColumn+` = ?;`, req.Realisation); err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare(ft.insertSQL())
	if err != nil {
		return 0, fmt.Errorf("could not prepare a statement: %w", err)
	}
	defer stmt.Close()

	var ext *geom.Extent
	count := 0
	for i := 0; i < df.Len(); i++ {
		if df.HasNull(i, names.X, names.Y) {
			continue
		}
		x, _ := df.Float(names.X, i)
		y, _ := df.Float(names.Y, i)
		point := geom.Point{x, y}
		sb, err := gpkg.NewBinary(p.srs, point)
		if err != nil {
			return 0, fmt.Errorf("could not create a binary geometry: %w", err)
		}
		values := []any{req.Realisation, count, df.Value(names.Segment, i), df.Value(names.Z, i)}
		for _, c := range attrColumns {
			if _, ok := wanted.Get(c.name); ok {
				values = append(values, df.Value(c.name, i))
			} else {
				values = append(values, nil)
			}
		}
		values = append(values, sb)
		if _, err := stmt.Exec(values...); err != nil {
			return 0, fmt.Errorf("could not insert row %d: %w", i, err)
		}
		count++

		if ext == nil {
			ext = geom.NewExtent([2]float64{x, y})
		} else {
			ext.AddGeometry(point)
		}
	}
	if err := stmt.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	if ext != nil {
		if err := p.handle.UpdateGeometryExtent(item.Table, ext); err != nil {
			p.log.WithError(err).Warn("failed to update extent")
		}
	}
	p.log.WithFields(logrus.Fields{"item": req.String(), "realisation": req.Realisation, "rows": count}).Info("exported")
	return count, nil
}

// Import reads the rows of the realisation of a registered item.
// The Segment-ID column is present for polygon items and requests, and when
// any row has one.
func (p *Project) Import(req project.Request) (project.Data, error) {
	item, err := p.item(req)
	if err != nil {
		return project.Data{}, err
	}
	exists, err := p.tableExists(item.Table)
	if err != nil {
		return project.Data{}, err
	}
	if !exists {
		return project.Data{}, fmt.Errorf("%w: %s", project.ErrNoData, req)
	}
	registered, err := p.attributes(item.Table)
	if err != nil {
		return project.Data{}, err
	}
	ft := p.featureTable(item, registered)

	rows, err := p.handle.Query(ft.selectSQL(), req.Realisation)
	if err != nil {
		return project.Data{}, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return project.Data{}, err
	}

	var records [][]any
	hasSegment := item.Polygons || req.Polygons
	for rows.Next() {
		vals := make([]any, len(cols))
		valPtrs := make([]any, len(cols))
		for i := range cols {
			valPtrs[i] = &vals[i]
		}
		if err := rows.Scan(valPtrs...); err != nil {
			return project.Data{}, fmt.Errorf("err reading row values: %w", err)
		}
		wkbgeom, err := gpkg.DecodeGeometry(vals[0].([]byte))
		if err != nil {
			return project.Data{}, fmt.Errorf("error decoding the geometry: %w", err)
		}
		point, ok := wkbgeom.Geometry.(geom.Point)
		if !ok {
			return project.Data{}, fmt.Errorf("unexpected geometry %T in %s", wkbgeom.Geometry, item.Table)
		}
		// vals: geom, realisation, seq, poly_id, z, attributes...
		record := []any{point.X(), point.Y(), vals[4], vals[3]}
		if vals[3] != nil {
			hasSegment = true
		}
		for i := 5; i < len(vals); i++ {
			v := vals[i]
			if b, isBytes := v.([]byte); isBytes {
				v = string(b)
			}
			record = append(record, v)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return project.Data{}, err
	}
	if len(records) == 0 {
		return project.Data{}, fmt.Errorf("%w: %s realisation %d", project.ErrNoData, req, req.Realisation)
	}

	names := req.Names
	specs := []table.Spec{{Name: names.X, Type: table.Float}, {Name: names.Y, Type: table.Float}, {Name: names.Z, Type: table.Float}}
	if hasSegment {
		specs = append(specs, table.Spec{Name: names.Segment, Type: table.Int})
	}
	attrs := xyzio.NewAttributes()
	if req.Attributes {
		for pair := registered.Oldest(); pair != nil; pair = pair.Next() {
			specs = append(specs, table.Spec{Name: pair.Key, Type: pair.Value})
			attrs.Set(pair.Key, pair.Value)
		}
	}
	t := table.New(specs...)
	for _, record := range records {
		row := append([]any{}, record[:3]...)
		if hasSegment {
			row = append(row, record[3])
		}
		if req.Attributes {
			row = append(row, record[4:]...)
		}
		if err := t.Append(row...); err != nil {
			return project.Data{}, err
		}
	}
	p.log.WithFields(logrus.Fields{"item": req.String(), "realisation": req.Realisation, "rows": t.Len()}).Info("imported")
	return project.Data{Table: t, Attributes: attrs}, nil
}
