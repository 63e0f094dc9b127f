package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := NewClassifier("Barcelona Atletic")

	tests := []struct {
		name string
		want Flags
	}{
		{"Arsenal", Flags{}},
		{"Arsenal Women", Flags{Women: true}},
		{"Chelsea Ladies", Flags{Women: true}},
		{"Real Madrid Femenino", Flags{Women: true}},
		{"Lyon (W)", Flags{Women: true}},
		{"Fulham U21", Flags{Youth: true}},
		{"Fulham U-21", Flags{Youth: true}},
		{"Spain Under 19", Flags{Youth: true}},
		{"Ajax Youth", Flags{Youth: true}},
		{"Chelsea Reserves", Flags{Reserve: true}},
		{"Inter (Res)", Flags{Reserve: true}},
		{"Barcelona B", Flags{BTeam: true}},
		{"Bayern Munich II", Flags{BTeam: true, WhitelistedBTeam: true}},
		{"Real Sociedad B", Flags{BTeam: true, WhitelistedBTeam: true}},
		{"Real Madrid Castilla", Flags{BTeam: true, WhitelistedBTeam: true}},
		{"Jong Twente", Flags{BTeam: true}},
		{"Jong Ajax", Flags{BTeam: true, WhitelistedBTeam: true}},
		{"Barcelona Atletic B", Flags{BTeam: true}},
		{"Arsenal U23 Women", Flags{Women: true, Youth: true}},
		{"Club Brugge", Flags{}},
		{"B", Flags{}},
		{"Jong", Flags{}},
		{"Bournemouth", Flags{}},
		{"Femenino", Flags{Women: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.name))
		})
	}
}

func TestClassifyExtraWhitelist(t *testing.T) {
	c := NewClassifier("Sporting CP B")
	assert.Equal(t, Flags{BTeam: true, WhitelistedBTeam: true}, c.Classify("Sporting CP B"))
	assert.Equal(t, Flags{BTeam: true}, NewClassifier().Classify("Sporting CP B"))
}

func TestClassifyIsPure(t *testing.T) {
	c := NewClassifier()
	for i := 0; i < 3; i++ {
		assert.Equal(t, c.Classify("Fulham U21"), c.Classify("Fulham U21"))
	}
}
