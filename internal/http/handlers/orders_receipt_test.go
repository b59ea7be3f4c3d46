package handlers

import "testing"

func TestFormatMinor(t *testing.T) {
	cases := []struct {
		amount   int64
		currency string
		expected string
	}{
		{1099, "RUB", "10.99 RUB"},
		{100, "RUB", "1.00 RUB"},
		{5, "RUB", "0.05 RUB"},
		{0, "RUB", "0.00 RUB"},
		{-250, "RUB", "-2.50 RUB"},
		{123456789, "USD", "1234567.89 USD"},
	}
	for _, tc := range cases {
		if got := formatMinor(tc.amount, tc.currency); got != tc.expected {
			t.Errorf("formatMinor(%d, %s) = %s, expected %s", tc.amount, tc.currency, got, tc.expected)
		}
	}
}
