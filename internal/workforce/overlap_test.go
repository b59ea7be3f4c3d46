package workforce

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		expected                       bool
	}{
		{"back to back do not overlap", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"one minute overlap", at(10, 0), at(11, 0), at(10, 59), at(11, 30), true},
		{"contained interval", at(9, 0), at(17, 0), at(12, 0), at(13, 0), true},
		{"identical intervals", at(9, 0), at(17, 0), at(9, 0), at(17, 0), true},
		{"disjoint", at(8, 0), at(9, 0), at(14, 0), at(15, 0), false},
		{"touching at start", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.expected {
				t.Fatalf("Overlaps = %v, expected %v", got, tc.expected)
			}
			// symmetric
			if got := Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd); got != tc.expected {
				t.Fatalf("Overlaps (swapped) = %v, expected %v", got, tc.expected)
			}
		})
	}
}

func TestEffectiveHours(t *testing.T) {
	cases := []struct {
		name         string
		start, end   time.Time
		breakMinutes int
		expected     float64
	}{
		{"eight hour day with lunch", at(9, 0), at(17, 0), 60, 7},
		{"no break", at(9, 0), at(12, 30), 0, 3.5},
		{"break exceeds span", at(9, 0), at(9, 30), 60, 0},
		{"zero span", at(9, 0), at(9, 0), 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EffectiveHours(tc.start, tc.end, tc.breakMinutes); got != tc.expected {
				t.Fatalf("EffectiveHours = %v, expected %v", got, tc.expected)
			}
		})
	}
}

func TestPayMinor(t *testing.T) {
	wage := int64(50000) // 500.00 per hour

	if pay := PayMinor(7, &wage); pay == nil || *pay != 350000 {
		t.Fatalf("PayMinor(7h) = %v, expected 350000", pay)
	}
	if pay := PayMinor(7.5, &wage); pay == nil || *pay != 375000 {
		t.Fatalf("PayMinor(7.5h) = %v, expected 375000", pay)
	}
	// rounds to the nearest minor unit
	oddWage := int64(333)
	if pay := PayMinor(0.5, &oddWage); pay == nil || *pay != 167 {
		t.Fatalf("PayMinor(0.5h x 333) = %v, expected 167", pay)
	}
	if pay := PayMinor(8, nil); pay != nil {
		t.Fatalf("nil wage must yield nil pay, got %v", pay)
	}
}
