package repository

import "strings"

// HalfDay identifies one of the twelve selling slots in a week.
type HalfDay string

const (
	MonAM HalfDay = "mon-am"
	MonPM HalfDay = "mon-pm"
	TueAM HalfDay = "tue-am"
	TuePM HalfDay = "tue-pm"
	WedAM HalfDay = "wed-am"
	WedPM HalfDay = "wed-pm"
	ThuAM HalfDay = "thu-am"
	ThuPM HalfDay = "thu-pm"
	FriAM HalfDay = "fri-am"
	FriPM HalfDay = "fri-pm"
	SatAM HalfDay = "sat-am"
	SatPM HalfDay = "sat-pm"
)

var halfDays = [...]HalfDay{
	MonAM, MonPM, TueAM, TuePM, WedAM, WedPM,
	ThuAM, ThuPM, FriAM, FriPM, SatAM, SatPM,
}

// IsValidHalfDay returns true if hd is a supported slot.
func IsValidHalfDay(hd HalfDay) bool {
	return hd.Index() >= 0
}

// Index returns the slot's position in the week, 0 for Monday AM through
// 11 for Saturday PM, or -1 when unknown.
func (hd HalfDay) Index() int {
	for i, d := range halfDays {
		if d == hd {
			return i
		}
	}
	return -1
}

// HalfDayAt returns the slot at position i in the week.
func HalfDayAt(i int) (HalfDay, bool) {
	if i < 0 || i >= len(halfDays) {
		return "", false
	}
	return halfDays[i], true
}

// NormalizeHalfDay converts raw input ("Mon-AM", "mon_am") to a valid slot.
func NormalizeHalfDay(s string) (HalfDay, bool) {
	hd := HalfDay(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if IsValidHalfDay(hd) {
		return hd, true
	}
	return "", false
}
