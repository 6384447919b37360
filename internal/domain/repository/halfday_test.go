package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHalfDayIndexRoundTrip(t *testing.T) {
	for i := 0; i < 12; i++ {
		hd, ok := HalfDayAt(i)
		require.True(t, ok, "index %d", i)
		assert.Equal(t, i, hd.Index())
	}

	_, ok := HalfDayAt(12)
	assert.False(t, ok)
	_, ok = HalfDayAt(-1)
	assert.False(t, ok)
}

func TestHalfDayWeekOrder(t *testing.T) {
	assert.Equal(t, 0, MonAM.Index())
	assert.Equal(t, 1, MonPM.Index())
	assert.Equal(t, 11, SatPM.Index())
	assert.Equal(t, -1, HalfDay("sun-am").Index())
}

func TestNormalizeHalfDay(t *testing.T) {
	tests := []struct {
		in   string
		want HalfDay
		ok   bool
	}{
		{"mon-am", MonAM, true},
		{"Mon-AM", MonAM, true},
		{"sat_pm", SatPM, true},
		{" wed-pm ", WedPM, true},
		{"sunday", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeHalfDay(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}
