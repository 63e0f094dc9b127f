package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/config"
)

func TestFilters(t *testing.T) {
	off := false
	f := Filters(config.PublishConfig{Threshold: 1.1, MinLiquidity: 50, MaxSpreadPct: 10, EnforceSpread: &off})
	assert.Equal(t, 1.1, f.Threshold)
	assert.Equal(t, 50.0, f.MinLiquidity)
	assert.True(t, f.RequireMinLiquidity)
	assert.False(t, f.EnforceSpread)
}

func TestNewResolution(t *testing.T) {
	dir := t.TempDir()
	masters := filepath.Join(dir, "masters.yaml")
	require.NoError(t, os.WriteFile(masters, []byte(`
- id: liverpool
  name: Liverpool
  kind: team
  aliases: [Liverpool FC]
`), 0o644))

	cfg := &config.Config{}
	cfg.Aliases.MastersPath = masters
	cfg.Betfair.SessionToken = "static"
	cfg.Betfair.AppKey = "key"

	res, err := NewResolution(cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Aliases.Len())
	assert.NotNil(t, res.Resolver)
	assert.NotNil(t, NewBookFetcher(cfg, res.Client))
}

func TestNewResolutionMissingAliases(t *testing.T) {
	cfg := &config.Config{}
	cfg.Aliases.MastersPath = filepath.Join(t.TempDir(), "missing")
	_, err := NewResolution(cfg)
	assert.Error(t, err)
}
