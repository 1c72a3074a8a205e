package xyz

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-spatial/geom"

	"github.com/pdok/xyz/geomhelp"
)

const (
	describeWktLength = 80
	describeHeadRows  = 5
)

// Describe writes a short human readable summary
func (p *Points) Describe(w io.Writer) error {
	return describe(w, &p.base, geomhelp.WktEncode(p.Geometry(), describeWktLength))
}

// Describe writes a short human readable summary. Segments with fewer than two points are left out of the geometry.
func (p *Polygons) Describe(w io.Writer) error {
	var mls geom.MultiLineString
	if lines, err := p.Segments(); err == nil {
		for _, l := range lines {
			if len(l) > 1 {
				mls = append(mls, l)
			}
		}
	}
	return describe(w, &p.base, geomhelp.WktEncode(mls, describeWktLength))
}

func describe(w io.Writer, b *base, wkt string) error {
	var sb strings.Builder
	line := func(key string, value any) {
		fmt.Fprintf(&sb, "  %-22s: %v\n", key, value)
	}
	fmt.Fprintf(&sb, "Description of %s instance\n", b.kind())
	source := b.filesrc
	if source == "" {
		source = "-"
	}
	line("file source", source)
	line("xname, yname, zname", strings.Join(b.names.Coordinates(), ", "))
	if b.polygons {
		line("segment id", b.names.Segment)
	}
	line("rows", b.NRow())

	attrs := make([]string, 0, b.attrs.Len())
	for pair := b.attrs.Oldest(); pair != nil; pair = pair.Next() {
		attrs = append(attrs, fmt.Sprintf("%s (%s)", pair.Key, pair.Value))
	}
	if len(attrs) == 0 {
		line("attributes", "-")
	} else {
		line("attributes", strings.Join(attrs, ", "))
	}
	if ext := b.Extent(); ext != nil {
		line("extent", fmt.Sprintf("%g %g %g %g", ext.MinX(), ext.MinY(), ext.MaxX(), ext.MaxY()))
	}
	line("geometry", wkt)
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}
	if b.df.Len() == 0 {
		return nil
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return b.df.Head(w, describeHeadRows)
}
