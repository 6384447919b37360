package forecast

import (
	"fmt"
	"strings"
)

// Pattern identifies one of the four weekly price-generation processes.
// The zero value PatternUnknown stands for "previous week's pattern is not
// known"; it is valid as a conditioning input but never appears in results.
// The numeric values are part of the external contract (events, API).
type Pattern uint8

const (
	PatternUnknown Pattern = iota
	Decreasing
	Random
	SmallSpike
	LargeSpike
)

// Patterns returns the four concrete patterns in canonical order.
func Patterns() [4]Pattern {
	return [4]Pattern{Decreasing, Random, SmallSpike, LargeSpike}
}

func (p Pattern) String() string {
	switch p {
	case Decreasing:
		return "decreasing"
	case Random:
		return "random"
	case SmallSpike:
		return "smallspike"
	case LargeSpike:
		return "largespike"
	default:
		return "unknown"
	}
}

// Label returns the display name, e.g. "SmallSpike".
func (p Pattern) Label() string {
	switch p {
	case Decreasing:
		return "Decreasing"
	case Random:
		return "Random"
	case SmallSpike:
		return "SmallSpike"
	case LargeSpike:
		return "LargeSpike"
	default:
		return "Unknown"
	}
}

// ParsePattern converts a user-supplied name into a Pattern. Case and
// separators are ignored, so "Small-Spike" and "small_spike" both parse.
// The empty string and "unknown" map to PatternUnknown.
func ParsePattern(s string) (Pattern, error) {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	switch norm {
	case "decreasing":
		return Decreasing, nil
	case "random":
		return Random, nil
	case "smallspike":
		return SmallSpike, nil
	case "largespike":
		return LargeSpike, nil
	case "", "unknown":
		return PatternUnknown, nil
	default:
		return PatternUnknown, fmt.Errorf("%w: unknown pattern %q", ErrInvalidInput, s)
	}
}

// MarshalText implements encoding.TextMarshaler, so patterns serialize as
// their lowercase names in JSON and YAML.
func (p Pattern) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pattern) UnmarshalText(text []byte) error {
	parsed, err := ParsePattern(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// index maps the four concrete patterns onto 0..3 for table lookups.
func (p Pattern) index() int {
	return int(p) - 1
}
