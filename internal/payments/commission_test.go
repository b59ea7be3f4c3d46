package payments

import "testing"

func TestCommissionMinor(t *testing.T) {
	cases := []struct {
		name     string
		amount   int64
		rate     float64
		expected int64
	}{
		{"ten percent floors", 1099, 0.10, 109},
		{"ten percent exact", 990, 0.10, 99},
		{"zero rate", 5000, 0, 0},
		{"zero amount", 0, 0.15, 0},
		{"full rate", 777, 1.0, 777},
		{"rate above one is capped", 777, 1.5, 777},
		{"binary float noise", 100, 0.29, 29},
		{"single minor unit below threshold", 9, 0.10, 0},
		{"negative amount", -100, 0.10, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CommissionMinor(tc.amount, tc.rate); got != tc.expected {
				t.Fatalf("CommissionMinor(%d, %v) = %d, expected %d", tc.amount, tc.rate, got, tc.expected)
			}
		})
	}
}
