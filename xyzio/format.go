// Package xyzio reads and writes points and polygons tables in the supported
// file formats.
package xyzio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingExtension  = errors.New("file extension missing")
	ErrMissingColumn     = errors.New("column not present")
	ErrInvalidFilterKey  = errors.New("invalid filter key")
	ErrParse             = errors.New("parse error")
)

type Format string

const (
	FormatGuess Format = "guess"
	// FormatXYZ is plain x y z rows, 999.0 marks a polyline break
	FormatXYZ Format = "xyz"
	// FormatZMAP is the ZMAP+ line format, e.g. fault lines
	FormatZMAP Format = "zmap"
	// FormatRMSAttr is x y z rows with typed attribute columns
	FormatRMSAttr Format = "rms_attr"
	// FormatRMSWellPicks is horizon well md, or horizon well x y z (export only)
	FormatRMSWellPicks Format = "rms_wellpicks"
	// FormatShape is an ESRI shapefile
	FormatShape Format = "shp"
)

// ParseFormat resolves a (case insensitive) format hint, including its aliases
func ParseFormat(hint string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "", "guess":
		return FormatGuess, nil
	case "xyz", "poi", "pol":
		return FormatXYZ, nil
	case "zmap":
		return FormatZMAP, nil
	case "rms_attr", "rmsattr":
		return FormatRMSAttr, nil
	case "rms_wellpicks":
		return FormatRMSWellPicks, nil
	case "shp":
		return FormatShape, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, hint)
}

// GuessFormat derives the format from the extension of path
func GuessFormat(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingExtension, path)
	}
	f, err := ParseFormat(strings.TrimPrefix(ext, "."))
	if err != nil {
		return "", err
	}
	if f == FormatGuess {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return f, nil
}

// Resolve turns guess into a concrete format using path
func Resolve(f Format, path string) (Format, error) {
	if f == "" || f == FormatGuess {
		return GuessFormat(path)
	}
	return ParseFormat(string(f))
}

// Extension is the file extension (without dot) used when writing this format
func (f Format) Extension() string {
	switch f {
	case FormatRMSAttr:
		return "rmsattr"
	case FormatRMSWellPicks:
		return "txt"
	}
	return string(f)
}

// Importable is false for export-only formats
func (f Format) Importable() bool {
	switch f {
	case FormatXYZ, FormatZMAP, FormatRMSAttr, FormatShape:
		return true
	}
	return false
}
