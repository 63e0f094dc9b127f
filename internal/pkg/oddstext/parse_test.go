package oddstext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOdds(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"5/2", 3.5},
		{" 11/10 ", 2.1},
		{"EVS", 2.0},
		{"Evens", 2.0},
		{"1/3", 1.333333},
		{"100/1", 101},
		{"3.50", 3.5},
		{"2", 2},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOdds(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseOddsErrors(t *testing.T) {
	for _, in := range []string{"", "abc", "5/0", "0/1", "1.0", "0.5", "x/2", "-3/1"} {
		_, err := ParseOdds(in)
		assert.Error(t, err, in)
	}
}
