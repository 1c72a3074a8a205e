// Package project holds the contract between points/polygons containers and a
// host project that stores them: the folder types, the request and payload
// types and the Project interface itself.
package project

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdok/xyz/table"
	"github.com/pdok/xyz/xyzio"
)

var (
	ErrInvalidStype = errors.New("invalid stype")
	ErrUnknownItem  = errors.New("item does not exist in project")
	ErrNoData       = errors.New("no data")
)

// Stype is the project folder an item lives in
type Stype string

const (
	Horizons     Stype = "horizons"
	Zones        Stype = "zones"
	Faults       Stype = "faults"
	Clipboard    Stype = "clipboard"
	HorizonPicks Stype = "horizon_picks"
)

var (
	importStypes = []Stype{Horizons, Zones, Faults, Clipboard}
	exportStypes = []Stype{Horizons, Zones, Faults, Clipboard, HorizonPicks}
)

func parseStype(s string, valid []Stype) (Stype, error) {
	lower := Stype(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range valid {
		if v == lower {
			return v, nil
		}
	}
	options := make([]string, len(valid))
	for i, v := range valid {
		options[i] = string(v)
	}
	return "", fmt.Errorf("%w: %q, must be one of %s", ErrInvalidStype, s, strings.Join(options, ", "))
}

// ParseImportStype accepts the folder types items can be read from
func ParseImportStype(s string) (Stype, error) {
	return parseStype(s, importStypes)
}

// ParseExportStype accepts the folder types items can be written to
func ParseExportStype(s string) (Stype, error) {
	return parseStype(s, exportStypes)
}

// Request identifies an item in a project and what to do with it.
type Request struct {
	Name        string
	Category    string
	Stype       Stype
	Realisation int
	// Attributes carries the attribute columns along, coordinates only otherwise
	Attributes bool
	// Filter is applied before export
	Filter   map[string][]string
	Names    xyzio.ColumnNames
	Polygons bool
}

func (r Request) String() string {
	if r.Category == "" {
		return fmt.Sprintf("%s/%s", r.Stype, r.Name)
	}
	return fmt.Sprintf("%s/%s/%s", r.Stype, r.Name, r.Category)
}

// Data is the table exchanged with a project
type Data struct {
	Table      *table.Table
	Attributes *xyzio.Attributes
}

// Project imports and exports points and polygons tables.
type Project interface {
	Import(Request) (Data, error)
	// Export returns the number of rows written
	Export(Request, Data) (int, error)
	String() string
}
