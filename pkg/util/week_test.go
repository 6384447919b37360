package util

import (
	"testing"
	"time"
)

func TestWeekStartSnapsToSunday(t *testing.T) {
	// 2024-10-10 is a Thursday; its week opened Sunday 2024-10-06.
	thu := time.Date(2024, 10, 10, 15, 30, 0, 0, time.UTC)
	got := WeekStart(thu)
	want := time.Date(2024, 10, 6, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected week start %v", got)
	}
	if got.Weekday() != time.Sunday {
		t.Fatalf("expected Sunday, got %v", got.Weekday())
	}
}

func TestWeekStartIsIdempotent(t *testing.T) {
	sun := time.Date(2024, 10, 6, 0, 0, 0, 0, time.UTC)
	if got := WeekStart(sun); !got.Equal(sun) {
		t.Fatalf("sunday moved to %v", got)
	}
}

func TestParseWeekStart(t *testing.T) {
	got, err := ParseWeekStart("2024-10-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 10, 6, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected week start %v", got)
	}

	if _, err := ParseWeekStart("not-a-date"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseWeekStartDefault(t *testing.T) {
	def := time.Date(2024, 10, 6, 0, 0, 0, 0, time.UTC)
	if got := ParseWeekStartDefault("", def); !got.Equal(def) {
		t.Fatalf("expected default")
	}
	if got := ParseWeekStartDefault("zzz", def); !got.Equal(def) {
		t.Fatalf("expected default on invalid input")
	}
}

func TestFormatWeekStartRoundTrip(t *testing.T) {
	want := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	got, err := ParseWeekStart(FormatWeekStart(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("round trip produced %v", got)
	}
}

func TestHalfDayTime(t *testing.T) {
	sun := time.Date(2024, 10, 6, 0, 0, 0, 0, time.UTC)

	monAM := HalfDayTime(sun, 0)
	if monAM.Weekday() != time.Monday || monAM.Hour() != 8 {
		t.Fatalf("unexpected slot 0 time %v", monAM)
	}

	monPM := HalfDayTime(sun, 1)
	if monPM.Weekday() != time.Monday || monPM.Hour() != 12 {
		t.Fatalf("unexpected slot 1 time %v", monPM)
	}

	satPM := HalfDayTime(sun, 11)
	if satPM.Weekday() != time.Saturday || satPM.Hour() != 12 {
		t.Fatalf("unexpected slot 11 time %v", satPM)
	}
}
