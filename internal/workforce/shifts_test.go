package workforce

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"foodcourt-backoffice/internal/db/dbtest"
	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/internal/utils"
)

func employeeRow() *dbtest.Row {
	return &dbtest.Row{Values: []any{
		"emp-1", "rest-1", nil, "Ann", "+70000000001", nil, "CASHIER", nil, true,
	}}
}

// Booking over an existing SCHEDULED shift must be rejected with the
// half-open interval rule: touching endpoints are fine, any real overlap is not.
func TestScheduleShiftRejectsOverlap(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	existingStart := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	existingEnd := existingStart.Add(4 * time.Hour)

	fake := &dbtest.Fake{
		QueryRowFn: func(sql string, args []any) pgx.Row {
			if strings.Contains(sql, "from employee") {
				return employeeRow()
			}
			return &dbtest.Row{}
		},
		QueryFn: func(sql string, args []any) (pgx.Rows, error) {
			if strings.Contains(sql, "from shift") {
				return &dbtest.Rows{Data: [][]any{{"shift-1", existingStart, existingEnd}}}, nil
			}
			return &dbtest.Rows{}, nil
		},
	}
	ledger := &Ledger{Pool: fake, Logger: zap.NewNop(), Now: func() time.Time { return now }}

	_, err := ledger.ScheduleShift(context.Background(), "rest-1", ScheduleInput{
		EmployeeID:     "emp-1",
		ScheduledStart: existingStart.Add(2 * time.Hour),
		ScheduledEnd:   existingEnd.Add(2 * time.Hour),
	})
	derr, ok := domain.AsError(err)
	if !ok || derr.Code != domain.CodeOverlappingShift {
		t.Fatalf("expected OverlappingShift, got %v", err)
	}

	// Back-to-back booking starting exactly at the existing end is allowed.
	shift, err := ledger.ScheduleShift(context.Background(), "rest-1", ScheduleInput{
		EmployeeID:     "emp-1",
		ScheduledStart: existingEnd,
		ScheduledEnd:   existingEnd.Add(4 * time.Hour),
	})
	if err != nil {
		t.Fatalf("back-to-back booking rejected: %v", err)
	}
	if shift.Status != domain.ShiftScheduled {
		t.Fatalf("status = %s, expected SCHEDULED", shift.Status)
	}
}

// ClockIn must only activate a shift scheduled to start today: the lookup
// carries the local-day window, so a stale SCHEDULED shift from yesterday
// cannot shadow today's booking.
func TestClockInScopedToLocalDay(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	tz := "Europe/Moscow"

	t.Run("no shift today opens on-demand", func(t *testing.T) {
		var windowArgs []any
		fake := &dbtest.Fake{
			QueryRowFn: func(sql string, args []any) pgx.Row {
				switch {
				case strings.Contains(sql, "from employee"):
					return employeeRow()
				case strings.Contains(sql, "select exists"):
					return &dbtest.Row{Values: []any{false}}
				case strings.Contains(sql, "status = 'SCHEDULED'"):
					windowArgs = args
					return &dbtest.Row{Err: pgx.ErrNoRows}
				}
				return &dbtest.Row{}
			},
		}
		ledger := &Ledger{Pool: fake, Logger: zap.NewNop(), Now: func() time.Time { return now }}

		shift, err := ledger.ClockIn(context.Background(), "rest-1", "emp-1", tz)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(windowArgs) != 3 {
			t.Fatalf("scheduled-shift lookup args = %v, expected employee id plus day window", windowArgs)
		}
		wantStart := utils.StartOfLocalDay(now, tz)
		wantEnd := utils.EndOfLocalDay(now, tz)
		if got := windowArgs[1].(time.Time); !got.Equal(wantStart) {
			t.Fatalf("window start = %v, expected %v", got, wantStart)
		}
		if got := windowArgs[2].(time.Time); !got.Equal(wantEnd) {
			t.Fatalf("window end = %v, expected %v", got, wantEnd)
		}

		if shift.Status != domain.ShiftActive || !shift.ScheduledEnd.Equal(wantEnd) {
			t.Fatalf("on-demand shift = %+v, expected ACTIVE until end of local day", shift)
		}
	})

	t.Run("today's scheduled shift activates", func(t *testing.T) {
		scheduledStart := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
		scheduledEnd := scheduledStart.Add(8 * time.Hour)
		fake := &dbtest.Fake{
			QueryRowFn: func(sql string, args []any) pgx.Row {
				switch {
				case strings.Contains(sql, "from employee"):
					return employeeRow()
				case strings.Contains(sql, "select exists"):
					return &dbtest.Row{Values: []any{false}}
				case strings.Contains(sql, "status = 'SCHEDULED'"):
					return &dbtest.Row{Values: []any{
						"shift-1", "emp-1", scheduledStart, scheduledEnd, 30, nil,
					}}
				}
				return &dbtest.Row{}
			},
		}
		ledger := &Ledger{Pool: fake, Logger: zap.NewNop(), Now: func() time.Time { return now }}

		shift, err := ledger.ClockIn(context.Background(), "rest-1", "emp-1", tz)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if shift.ID != "shift-1" || shift.Status != domain.ShiftActive {
			t.Fatalf("expected shift-1 activated, got %+v", shift)
		}
		if shift.ActualStart == nil || !shift.ActualStart.Equal(now) {
			t.Fatalf("actual start = %v, expected clock-in instant", shift.ActualStart)
		}

		var activated bool
		for _, stmt := range fake.Stmts {
			if strings.Contains(stmt.SQL, "update shift set status = 'ACTIVE'") {
				activated = true
			}
		}
		if !activated {
			t.Fatal("scheduled shift was never activated")
		}
	})
}
