package workforce

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"foodcourt-backoffice/internal/db"
	"foodcourt-backoffice/internal/events"
)

// SweepMissedShifts cancels scheduled shifts whose start passed more than
// grace ago without a clock-in, and emits one shift.missed per shift. Runs
// from the jobs ticker.
func (l *Ledger) SweepMissedShifts(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := l.now().Add(-grace)

	var missed int
	err := db.WithSerializableTx(ctx, l.Pool, func(ctx context.Context, tx pgx.Tx) error {
		missed = 0
		rows, err := tx.Query(ctx, `
			select s.id, s.employee_id, e.restaurant_id
			from shift s
			join employee e on e.id = s.employee_id
			where s.status = 'SCHEDULED'
			  and s.actual_start is null
			  and s.scheduled_start < $1
			for update of s
		`, cutoff)
		if err != nil {
			return err
		}
		type missedShift struct {
			id, employeeID, restaurantID string
		}
		var shifts []missedShift
		for rows.Next() {
			var m missedShift
			if err := rows.Scan(&m.id, &m.employeeID, &m.restaurantID); err != nil {
				rows.Close()
				return err
			}
			shifts = append(shifts, m)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, m := range shifts {
			if _, err := tx.Exec(ctx, `
				update shift set status = 'CANCELLED', notes = coalesce(notes, 'No-show') where id = $1
			`, m.id); err != nil {
				return err
			}
			if err := events.Append(ctx, tx, events.New(events.ShiftMissed, "shift", m.id, map[string]any{
				"employeeId":   m.employeeID,
				"restaurantId": m.restaurantID,
			})); err != nil {
				return err
			}
			missed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if missed > 0 {
		l.Logger.Info("missed shifts swept", zap.Int("count", missed))
	}
	return missed, nil
}
