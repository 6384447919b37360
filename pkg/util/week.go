package util

import "time"

// WeekStartLayout is the wire format for week start dates.
const WeekStartLayout = "2006-01-02"

// WeekStart returns the Sunday that opens the price week containing t,
// at midnight UTC. Turnip weeks run Sunday through Saturday.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// ParseWeekStart parses a YYYY-MM-DD date and snaps it to the Sunday of
// its week, so callers can pass any day of the week they reported on.
func ParseWeekStart(s string) (time.Time, error) {
	t, err := time.Parse(WeekStartLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return WeekStart(t), nil
}

// ParseWeekStartDefault parses a week start or returns default if empty/invalid.
func ParseWeekStartDefault(s string, def time.Time) time.Time {
	if s == "" {
		return def
	}
	t, err := ParseWeekStart(s)
	if err != nil {
		return def
	}
	return t
}

// FormatWeekStart renders a week start for storage keys and events.
func FormatWeekStart(t time.Time) string {
	return t.UTC().Format(WeekStartLayout)
}

// HalfDayTime returns the opening time of the price slot at index 0..11
// within the week starting at weekStart. Slot 0 is Monday morning;
// shops post the AM price at 08:00 and the PM price at 12:00.
func HalfDayTime(weekStart time.Time, index int) time.Time {
	day := index / 2
	hour := 8
	if index%2 == 1 {
		hour = 12
	}
	return weekStart.UTC().AddDate(0, 0, 1+day).Add(time.Duration(hour) * time.Hour)
}
