package forecast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePattern(t *testing.T) {
	tests := []struct {
		in   string
		want Pattern
	}{
		{"decreasing", Decreasing},
		{"Random", Random},
		{"smallspike", SmallSpike},
		{"small-spike", SmallSpike},
		{"Small_Spike", SmallSpike},
		{"LARGESPIKE", LargeSpike},
		{"large spike", LargeSpike},
		{"", PatternUnknown},
		{"unknown", PatternUnknown},
	}
	for _, tt := range tests {
		got, err := ParsePattern(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}

	_, err := ParsePattern("spiky")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPatternTextRoundTrip(t *testing.T) {
	for _, p := range Patterns() {
		text, err := p.MarshalText()
		require.NoError(t, err)

		var back Pattern
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, p, back)
	}
}

func TestPatternJSONUsesNames(t *testing.T) {
	out, err := json.Marshal(map[string]Pattern{"pattern": SmallSpike})
	require.NoError(t, err)
	assert.JSONEq(t, `{"pattern":"smallspike"}`, string(out))

	var in struct {
		Pattern Pattern `json:"pattern"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"pattern":"largespike"}`), &in))
	assert.Equal(t, LargeSpike, in.Pattern)
}

func TestPriorRowsSumToOne(t *testing.T) {
	priors := DefaultPriors()
	for prev, row := range priors {
		sum := 0.0
		for _, p := range row {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-12, "row %d", prev)
	}
}

func TestPatternTreeLengthsCoverTheWeek(t *testing.T) {
	// Walk every tree along its shortest and longest phase lengths; both
	// extremes must land on exactly twelve half-days.
	for _, r := range patternRoots {
		for _, longest := range []bool{false, true} {
			done := append([]int(nil), r.done...)
			for spec := r.spec; spec != nil; spec = spec.next {
				min, max := spec.length(done)
				require.LessOrEqual(t, min, max, "%s %s", r.pattern, spec.name)
				require.GreaterOrEqual(t, min, 0, "%s %s", r.pattern, spec.name)
				if longest {
					done = append(done, max)
				} else {
					done = append(done, min)
				}
			}
			total := 0
			for _, n := range done {
				total += n
			}
			assert.Equal(t, maxHalfDays, total,
				"pattern %s longest=%v phases=%v", r.pattern, longest, done)
		}
	}
}
