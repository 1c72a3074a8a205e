package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStype(t *testing.T) {
	tests := []struct {
		input      string
		importOK   bool
		exportOK   bool
		wantImport Stype
	}{
		0: {input: "horizons", importOK: true, exportOK: true, wantImport: Horizons},
		1: {input: "Zones", importOK: true, exportOK: true, wantImport: Zones},
		2: {input: "FAULTS", importOK: true, exportOK: true, wantImport: Faults},
		3: {input: "clipboard", importOK: true, exportOK: true, wantImport: Clipboard},
		4: {input: "horizon_picks", importOK: false, exportOK: true},
		5: {input: "wells", importOK: false, exportOK: false},
		6: {input: "", importOK: false, exportOK: false},
	}
	for i, tt := range tests {
		got, err := ParseImportStype(tt.input)
		if tt.importOK {
			require.NoError(t, err, "test %d", i)
			assert.Equal(t, tt.wantImport, got, "test %d", i)
		} else {
			assert.ErrorIs(t, err, ErrInvalidStype, "test %d", i)
		}
		_, err = ParseExportStype(tt.input)
		if tt.exportOK {
			assert.NoError(t, err, "test %d", i)
		} else {
			assert.ErrorIs(t, err, ErrInvalidStype, "test %d", i)
		}
	}
}

func TestRequestString(t *testing.T) {
	assert.Equal(t, "horizons/TopA/DS_extracted", Request{Stype: Horizons, Name: "TopA", Category: "DS_extracted"}.String())
	assert.Equal(t, "faults/F1", Request{Stype: Faults, Name: "F1"}.String())
}
