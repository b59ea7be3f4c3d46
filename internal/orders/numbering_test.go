package orders

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"

	"foodcourt-backoffice/internal/db/dbtest"
)

func TestFormatOrderNumber(t *testing.T) {
	tests := []struct {
		localDate string
		value     int64
		want      string
	}{
		{"20250101", 1, "20250101-001"},
		{"20250101", 42, "20250101-042"},
		{"20251231", 999, "20251231-999"},
		{"20251231", 1000, "20251231-1000"},
	}
	for _, tt := range tests {
		if got := FormatOrderNumber(tt.localDate, tt.value); got != tt.want {
			t.Errorf("FormatOrderNumber(%s, %d) = %s, expected %s", tt.localDate, tt.value, got, tt.want)
		}
	}
}

// Consecutive allocations against the same counter row produce a dense
// 1-based sequence.
func TestAllocateOrderNumberSequence(t *testing.T) {
	counter := int64(0)
	fake := &dbtest.Fake{
		QueryRowFn: func(sql string, args []any) pgx.Row {
			if strings.Contains(sql, "order_number_counter") {
				counter++
				return &dbtest.Row{Values: []any{counter}}
			}
			return &dbtest.Row{}
		},
	}
	tx, err := fake.BeginTx(context.Background(), pgx.TxOptions{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	want := []string{"20250101-001", "20250101-002", "20250101-003"}
	for _, expected := range want {
		got, err := allocateOrderNumber(context.Background(), tx, "rest-1", "20250101")
		if err != nil {
			t.Fatalf("allocate failed: %v", err)
		}
		if got != expected {
			t.Fatalf("allocated %s, expected %s", got, expected)
		}
	}
}
