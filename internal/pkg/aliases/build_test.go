package aliases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRejectsSameTierConflict(t *testing.T) {
	b := NewBuilder(nil)
	b.AddMasters("teams", []MasterRecord{
		{ID: "inter_milan", Name: "Inter Milan", Aliases: []string{"Inter"}},
		{ID: "inter_turku", Name: "Inter Turku", Aliases: []string{"inter"}},
	})
	_, report, err := b.Build()
	require.ErrorIs(t, err, ErrLint)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, "inter", report.Conflicts[0].Key)
	assert.Equal(t, []string{"inter_milan", "inter_turku"}, report.Conflicts[0].IDs)
}

func TestBuildOverlayWinsAcrossTiers(t *testing.T) {
	b := NewBuilder(nil)
	b.AddMasters("teams", []MasterRecord{
		{ID: "inter_milan", Name: "Inter Milan", Aliases: []string{"Inter"}},
		{ID: "inter_turku", Name: "Inter Turku"},
	})
	b.AddAliases("veikkaus", PriorityBookmaker, []AliasRecord{{Key: "Inter", ID: "inter_turku"}})

	ix, report, err := b.Build()
	require.NoError(t, err)
	id, ok := ix.LookupCanonical("inter")
	require.True(t, ok)
	assert.Equal(t, "inter_turku", id)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, WarnOverride, report.Warnings[0].Code)
	assert.NotContains(t, ix.AliasKeysForCanonical("inter_milan"), "inter")
}

func TestBuildReportsOrphans(t *testing.T) {
	b := NewBuilder(nil)
	b.AddMasters("teams", []MasterRecord{{ID: "arsenal", Name: "Arsenal"}})
	b.AddAliases("skybet", PriorityBookmaker, []AliasRecord{{Key: "Spurs", ID: "tottenham"}})

	_, report, err := b.Build()
	require.ErrorIs(t, err, ErrLint)
	require.Len(t, report.Orphans, 1)
	assert.Equal(t, Orphan{Source: "skybet", Key: "Spurs", ID: "tottenham"}, report.Orphans[0])
}

func TestBuildExcludesFlaggedKeys(t *testing.T) {
	b := NewBuilder(nil)
	b.AddMasters("teams", []MasterRecord{
		{ID: "fulham", Name: "Fulham", Aliases: []string{"Fulham U21"}},
		{ID: "barcelona_b", Name: "Barcelona B", Aliases: []string{"Barca B"}},
	})
	ix, report, err := b.Build()
	require.NoError(t, err)

	_, ok := ix.LookupCanonical("Fulham U21")
	assert.False(t, ok)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, WarnFlaggedKey, report.Warnings[0].Code)

	id, ok := ix.LookupCanonical("Barca B")
	require.True(t, ok, "flags matching the canonical entity are kept")
	assert.Equal(t, "barcelona_b", id)
}

func TestBuildDuplicateMasterID(t *testing.T) {
	b := NewBuilder(nil)
	b.AddMasters("a", []MasterRecord{{ID: "arsenal", Name: "Arsenal"}})
	b.AddMasters("b", []MasterRecord{{ID: "arsenal", Name: "Arsenal FC"}})
	_, report, err := b.Build()
	require.ErrorIs(t, err, ErrLint)
	assert.Len(t, report.Conflicts, 1)
}
