package aliases

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "masters", "teams.yaml"), `
- id: man_city
  name: Man City
  aliases: [Manchester City]
- id: liverpool
  name: Liverpool
`)
	writeFile(t, filepath.Join(dir, "masters", "competitions.json"),
		`[{"id": "epl", "name": "English Premier League", "kind": "competition"}]`)
	writeFile(t, filepath.Join(dir, "overlays", "williamhill.yaml"), `
teams:
  Man. City: man_city
competitions:
  Prem: epl
`)
	writeFile(t, filepath.Join(dir, "overlays", "betfair.yaml"), `
teams:
  Liverpool FC: liverpool
`)
	writeFile(t, filepath.Join(dir, "synonyms.yaml"), `
man_city: [City]
`)

	ix, report, err := Load(Sources{
		MastersPath:     filepath.Join(dir, "masters"),
		OverlaysDir:     filepath.Join(dir, "overlays"),
		ExchangeOverlay: "betfair",
		SynonymsPath:    filepath.Join(dir, "synonyms.yaml"),
		UseSynonyms:     true,
	}, nil)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 3, ix.Len())

	for _, name := range []string{"Man. City", "Manchester City", "city"} {
		id, ok := ix.LookupCanonical(name)
		require.True(t, ok, name)
		assert.Equal(t, "man_city", id)
	}
	id, ok := ix.Lookup(KindCompetition, "prem")
	require.True(t, ok)
	assert.Equal(t, "epl", id)

	id, ok = ix.LookupCanonical("LIVERPOOL  fc")
	require.True(t, ok)
	assert.Equal(t, "liverpool", id)
}

func TestLoadSkipsSynonymsUnlessEnabled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "teams.yaml"), "- {id: man_city, name: Man City}\n")
	writeFile(t, filepath.Join(dir, "synonyms.yaml"), "man_city: [City]\n")

	ix, _, err := Load(Sources{MastersPath: filepath.Join(dir, "teams.yaml"), SynonymsPath: filepath.Join(dir, "synonyms.yaml")}, nil)
	require.NoError(t, err)
	_, ok := ix.LookupCanonical("City")
	assert.False(t, ok)
}

func TestLoadMissingMasters(t *testing.T) {
	_, _, err := Load(Sources{MastersPath: filepath.Join(t.TempDir(), "nope")}, nil)
	require.Error(t, err)
}
