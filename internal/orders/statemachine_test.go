package orders

import (
	"testing"

	"foodcourt-backoffice/internal/domain"
)

func TestCanTransition(t *testing.T) {
	statuses := []domain.OrderStatus{
		domain.OrderPending, domain.OrderPreparing, domain.OrderReady,
		domain.OrderCompleted, domain.OrderCancelled,
	}

	allowed := map[[2]domain.OrderStatus]bool{
		{domain.OrderPending, domain.OrderPreparing}:   true,
		{domain.OrderPending, domain.OrderCancelled}:   true,
		{domain.OrderPreparing, domain.OrderReady}:     true,
		{domain.OrderPreparing, domain.OrderCancelled}: true,
		{domain.OrderReady, domain.OrderCompleted}:     true,
		{domain.OrderReady, domain.OrderCancelled}:     true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			expected := allowed[[2]domain.OrderStatus{from, to}]
			if got := CanTransition(from, to); got != expected {
				t.Errorf("CanTransition(%s, %s) = %v, expected %v", from, to, got, expected)
			}
		}
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	if CanTransition("PAUSED", domain.OrderReady) {
		t.Fatal("unknown source status must not transition")
	}
	if CanTransition(domain.OrderPending, "PAUSED") {
		t.Fatal("unknown target status must not transition")
	}
}

func TestIsTerminal(t *testing.T) {
	cases := []struct {
		status   domain.OrderStatus
		terminal bool
	}{
		{domain.OrderPending, false},
		{domain.OrderPreparing, false},
		{domain.OrderReady, false},
		{domain.OrderCompleted, true},
		{domain.OrderCancelled, true},
	}
	for _, tc := range cases {
		if got := IsTerminal(tc.status); got != tc.terminal {
			t.Errorf("IsTerminal(%s) = %v, expected %v", tc.status, got, tc.terminal)
		}
	}
}

func TestFormatOrderNumberPadding(t *testing.T) {
	cases := []struct {
		localDate string
		value     int64
		expected  string
	}{
		{"20250115", 1, "20250115-001"},
		{"20250115", 42, "20250115-042"},
		{"20251231", 999, "20251231-999"},
		{"20251231", 1000, "20251231-1000"},
	}
	for _, tc := range cases {
		if got := FormatOrderNumber(tc.localDate, tc.value); got != tc.expected {
			t.Errorf("FormatOrderNumber(%s, %d) = %s, expected %s", tc.localDate, tc.value, got, tc.expected)
		}
	}
}
