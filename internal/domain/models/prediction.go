package models

import "time"

// PatternChance pairs a pattern name with its posterior probability.
type PatternChance struct {
	Pattern     string  `json:"pattern"`
	Probability float64 `json:"probability"`
}

// Prediction is one computed posterior, most likely pattern first. Island
// and WeekStart are empty for stateless calls that never touch storage.
type Prediction struct {
	Island     string          `json:"island,omitempty"`
	WeekStart  time.Time       `json:"week_start"`
	Chances    []PatternChance `json:"chances"`
	TopPattern string          `json:"top_pattern"`
	ComputedAt time.Time       `json:"computed_at"`
}

// Chance returns the probability assigned to the named pattern.
func (p *Prediction) Chance(pattern string) float64 {
	for _, c := range p.Chances {
		if c.Pattern == pattern {
			return c.Probability
		}
	}
	return 0
}
