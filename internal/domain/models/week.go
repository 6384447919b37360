package models

import "time"

// HalfDaysPerWeek is the number of selling slots, Monday AM through
// Saturday PM.
const HalfDaysPerWeek = 12

// PriceWeek is one island week: Sunday's buying price plus whatever
// half-day sell prices have been reported so far. A zero price means the
// slot has no report yet.
type PriceWeek struct {
	Island    string               `json:"island"`
	WeekStart time.Time            `json:"week_start"`
	BasePrice int                  `json:"base_price"`
	LastWeek  string               `json:"last_week,omitempty"` // previous week's pattern, when recorded
	Prices    [HalfDaysPerWeek]int `json:"prices"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Reported counts the half-days that have a price.
func (w *PriceWeek) Reported() int {
	n := 0
	for _, p := range w.Prices {
		if p > 0 {
			n++
		}
	}
	return n
}

// TrimmedPrices returns the price sequence up to the last reported slot,
// keeping interior gaps as zeros. Trailing unreported slots carry no
// information and are not observations.
func (w *PriceWeek) TrimmedPrices() []int {
	last := -1
	for i, p := range w.Prices {
		if p > 0 {
			last = i
		}
	}
	return append([]int(nil), w.Prices[:last+1]...)
}

// PriceReport is one user submission. A report with a half-day slot carries
// that slot's sell price; a report without one sets the week's base price
// and, optionally, last week's pattern.
type PriceReport struct {
	ID         string    `json:"id"`
	Island     string    `json:"island"`
	WeekStart  time.Time `json:"week_start"`
	HalfDay    string    `json:"half_day,omitempty"`
	Price      int       `json:"price"`
	LastWeek   string    `json:"last_week,omitempty"`
	ReportedAt time.Time `json:"reported_at"`
}

// IsBase reports whether this submission sets the week's base price.
func (r *PriceReport) IsBase() bool {
	return r.HalfDay == ""
}
