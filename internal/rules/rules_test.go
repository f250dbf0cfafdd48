package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	tb, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), tb)
	assert.Len(t, tb.LocationHints, 8)
}

func TestLoadOverlaysOnlyGivenLists(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(p, []byte("forbiddenWords: [Makler, Tippgeber]\n"), 0o644))

	tb, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"Makler", "Tippgeber"}, tb.ForbiddenWords)
	assert.Equal(t, Default().UniqueFeatureKeywords, tb.UniqueFeatureKeywords)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
