package market

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableLookup(t *testing.T) {
	tb := Default()
	assert.Equal(t, 4200.0, tb.Lookup("79111", "Haus"))
	assert.Equal(t, 4200.0, tb.Lookup("79111", "Mehrfamilienhaus"))
	assert.Equal(t, 4600.0, tb.Lookup("79111", "Wohnung"))
	assert.Equal(t, 4600.0, tb.Lookup("79111", "Grundstück"))
	assert.Zero(t, tb.Lookup("00000", "Haus"))
	assert.Zero(t, tb.Lookup("", "Haus"))
}

func TestLoadJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "prices.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"12": {"haus": 1000, "wohnung": 2000}}`), 0o644))
	tb, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, tb.Lookup("12345", "Haus"))
	assert.Zero(t, tb.Lookup("79111", "Haus"))
}
