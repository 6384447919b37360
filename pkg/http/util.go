package http

import (
	"time"

	xutil "StalkPull/pkg/util"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int { return xutil.ParseIntDefault(s, def) }

// ParseWeekStartDefault parses a YYYY-MM-DD week start, snapping to Sunday,
// or returns default if empty/invalid.
func ParseWeekStartDefault(s string, def time.Time) time.Time {
	return xutil.ParseWeekStartDefault(s, def)
}
