package skiplog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/config"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

func TestWriteJSONLines(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	ts := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	require.NoError(t, w.Write([]models.FailureRecord{
		{Timestamp: ts, RunID: "r1", Stage: models.StageResolve, Title: "Arsenal & Chelsea to win",
			Team: "Chelsea", Kind: models.KindTeamWin, ReasonCode: models.ReasonNoCandidates,
			TriedNames: []string{"Chelsea", "Chelsea FC"}},
		{Timestamp: ts, RunID: "r1", Stage: models.StageDecompose, Title: "Saka to score",
			ReasonCode: models.ReasonUnsupportedProp},
	}))

	sc := bufio.NewScanner(&buf)
	var rows []map[string]any
	for sc.Scan() {
		var row map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &row))
		rows = append(rows, row)
	}
	require.Len(t, rows, 2)
	assert.Equal(t, "resolve", rows[0]["stage"])
	assert.Equal(t, "NO_CANDIDATES", rows[0]["reason_code"])
	assert.Equal(t, []any{"Chelsea", "Chelsea FC"}, rows[0]["tried_names"])
	assert.NotContains(t, rows[1], "team")
}

func TestNilWriterDiscards(t *testing.T) {
	var w *Writer
	assert.NoError(t, w.Write([]models.FailureRecord{{Title: "x"}}))
	assert.NoError(t, w.Close())
	assert.Nil(t, Open(config.FileLogConfig{}))
}

func TestOpenRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skips.jsonl")
	w := Open(config.FileLogConfig{File: path, MaxSizeMB: 1})
	require.NotNil(t, w)
	require.NoError(t, w.Write([]models.FailureRecord{{Title: "x", ReasonCode: models.ReasonNoLegs}}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reason_code":"NO_LEGS"`)
}
