package geomhelp

import (
	"math"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/wkt"
	"github.com/muesli/reflow/truncate"
)

// https://en.wikipedia.org/wiki/Shoelace_formula
func Shoelace(pts [][2]float64) float64 {
	sum := 0.
	if len(pts) == 0 {
		return 0.
	}

	p0 := pts[len(pts)-1]
	for _, p1 := range pts {
		sum += p0[1]*p1[0] - p0[0]*p1[1]
		p0 = p1
	}
	return math.Abs(sum / 2)
}

// IsClosed reports whether the first and last point of a line coincide
func IsClosed(pts [][2]float64) bool {
	return len(pts) > 2 && pts[0] == pts[len(pts)-1]
}

// WktEncode encodes g as WKT truncated to maxLen (0 for no limit). Geometries
// that can not be encoded give a placeholder.
func WktEncode(g geom.Geometry, maxLen uint) string {
	encoded, err := wkt.EncodeString(g)
	if err != nil {
		encoded = "<invalid geometry: " + err.Error() + ">"
	}
	if maxLen == 0 {
		return encoded
	}
	return truncate.StringWithTail(encoded, maxLen, "...")
}
