package util

import "strconv"

// ParseIntDefault parses s as an int, falling back to def when s is empty
// or malformed. Used for environment overrides where a bad value should
// keep the configured default rather than abort startup.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// ParseBoolDefault parses s as a bool with the same fallback behavior.
func ParseBoolDefault(s string, def bool) bool {
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}
