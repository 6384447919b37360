package models

// Kafka payloads. WeekStart travels as YYYY-MM-DD (the week's Sunday) so
// events stay readable and timezone-free.

// ReportEvent is consumed from the reports topic. It mirrors the report
// submission API: a half-day sell price, or a base price when HalfDay is
// empty.
type ReportEvent struct {
	ReportID  string `json:"report_id,omitempty"`
	Island    string `json:"island"`
	WeekStart string `json:"week_start"`
	HalfDay   string `json:"half_day,omitempty"`
	Price     int    `json:"price"`
	LastWeek  string `json:"last_week,omitempty"`
}

// PredictionEvent is published after every recompute.
type PredictionEvent struct {
	Island     string          `json:"island"`
	WeekStart  string          `json:"week_start"`
	TopPattern string          `json:"top_pattern"`
	Chances    []PatternChance `json:"chances"`
	ComputedAt int64           `json:"computed_at"`
}
