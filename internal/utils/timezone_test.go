package utils

import (
	"testing"
	"time"
)

func TestLocalDate(t *testing.T) {
	// 23:30 UTC on Jan 14 is already Jan 15 in Moscow (UTC+3) and still
	// Jan 14 in New York.
	instant := time.Date(2025, 1, 14, 23, 30, 0, 0, time.UTC)

	cases := []struct {
		tz       string
		expected string
	}{
		{"UTC", "20250114"},
		{"Europe/Moscow", "20250115"},
		{"America/New_York", "20250114"},
		{"Not/AZone", "20250114"}, // unknown zones fall back to UTC
	}
	for _, tc := range cases {
		if got := LocalDate(instant, tc.tz); got != tc.expected {
			t.Errorf("LocalDate(%s) = %s, expected %s", tc.tz, got, tc.expected)
		}
	}
}

func TestEndOfLocalDay(t *testing.T) {
	instant := time.Date(2025, 1, 14, 23, 30, 0, 0, time.UTC)

	end := EndOfLocalDay(instant, "UTC")
	expected := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	if !end.Equal(expected) {
		t.Fatalf("EndOfLocalDay(UTC) = %v, expected %v", end, expected)
	}

	// In Moscow the instant is already Jan 15, so the day ends Jan 16 00:00 MSK.
	moscow, _ := time.LoadLocation("Europe/Moscow")
	endMsk := EndOfLocalDay(instant, "Europe/Moscow")
	expectedMsk := time.Date(2025, 1, 16, 0, 0, 0, 0, moscow)
	if !endMsk.Equal(expectedMsk) {
		t.Fatalf("EndOfLocalDay(Moscow) = %v, expected %v", endMsk, expectedMsk)
	}
}

func TestStartOfLocalDay(t *testing.T) {
	instant := time.Date(2025, 1, 14, 23, 30, 0, 0, time.UTC)

	start := StartOfLocalDay(instant, "UTC")
	expected := time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC)
	if !start.Equal(expected) {
		t.Fatalf("StartOfLocalDay(UTC) = %v, expected %v", start, expected)
	}

	// In Moscow the instant is already Jan 15, so its day starts Jan 15 00:00 MSK.
	moscow, _ := time.LoadLocation("Europe/Moscow")
	startMsk := StartOfLocalDay(instant, "Europe/Moscow")
	expectedMsk := time.Date(2025, 1, 15, 0, 0, 0, 0, moscow)
	if !startMsk.Equal(expectedMsk) {
		t.Fatalf("StartOfLocalDay(Moscow) = %v, expected %v", startMsk, expectedMsk)
	}

	// The day is the half-open window [start, end).
	if !EndOfLocalDay(instant, "Europe/Moscow").Equal(startMsk.AddDate(0, 0, 1)) {
		t.Fatal("EndOfLocalDay must be exactly one day after StartOfLocalDay")
	}
}
