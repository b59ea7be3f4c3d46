package workforce

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"foodcourt-backoffice/internal/db"
	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/internal/events"
	"foodcourt-backoffice/internal/utils"
)

type ScheduleInput struct {
	EmployeeID     string    `json:"employeeId"`
	ScheduledStart time.Time `json:"scheduledStart"`
	ScheduledEnd   time.Time `json:"scheduledEnd"`
	BreakMinutes   int       `json:"breakMinutes"`
	Notes          *string   `json:"notes,omitempty"`
}

// ScheduleShift books a future shift, rejecting any overlap with the
// employee's other non-cancelled shifts.
func (l *Ledger) ScheduleShift(ctx context.Context, restaurantID string, in ScheduleInput) (*domain.Shift, error) {
	if !in.ScheduledStart.Before(in.ScheduledEnd) {
		return nil, domain.Validation("scheduledStart must be before scheduledEnd")
	}
	if in.BreakMinutes < 0 {
		return nil, domain.Validation("breakMinutes cannot be negative")
	}

	var created *domain.Shift
	err := db.WithSerializableTx(ctx, l.Pool, func(ctx context.Context, tx pgx.Tx) error {
		emp, err := loadEmployeeTx(ctx, tx, restaurantID, in.EmployeeID)
		if err != nil {
			return err
		}
		if !emp.Active {
			return domain.Validation("Employee is not active")
		}

		overlap, err := hasOverlap(ctx, tx, emp.ID, in.ScheduledStart, in.ScheduledEnd, "")
		if err != nil {
			return err
		}
		if overlap {
			return domain.OverlappingShift("Shift overlaps an existing shift for this employee")
		}

		shift := domain.Shift{
			ID:             uuid.NewString(),
			EmployeeID:     emp.ID,
			ScheduledStart: in.ScheduledStart,
			ScheduledEnd:   in.ScheduledEnd,
			BreakMinutes:   in.BreakMinutes,
			Status:         domain.ShiftScheduled,
			Notes:          in.Notes,
		}
		if _, err := tx.Exec(ctx, `
			insert into shift (id, employee_id, scheduled_start, scheduled_end, break_minutes, status, notes, created_at)
			values ($1,$2,$3,$4,$5,$6,$7,$8)
		`, shift.ID, shift.EmployeeID, shift.ScheduledStart, shift.ScheduledEnd,
			shift.BreakMinutes, string(shift.Status), shift.Notes, l.now()); err != nil {
			return err
		}
		created = &shift
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// hasOverlap checks the half-open interval [start, end) against the
// employee's SCHEDULED and ACTIVE shifts, skipping excludeID.
func hasOverlap(ctx context.Context, tx pgx.Tx, employeeID string, start, end time.Time, excludeID string) (bool, error) {
	rows, err := tx.Query(ctx, `
		select id, scheduled_start, scheduled_end
		from shift
		where employee_id = $1 and status in ('SCHEDULED', 'ACTIVE')
	`, employeeID)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var existingStart, existingEnd time.Time
		if err := rows.Scan(&id, &existingStart, &existingEnd); err != nil {
			return false, err
		}
		if id == excludeID {
			continue
		}
		if Overlaps(start, end, existingStart, existingEnd) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// ClockIn activates today's scheduled shift, or opens an on-demand shift
// running to the end of the local day when nothing was scheduled.
func (l *Ledger) ClockIn(ctx context.Context, restaurantID, employeeID, timezone string) (*domain.Shift, error) {
	now := l.now()

	var result *domain.Shift
	err := db.WithSerializableTx(ctx, l.Pool, func(ctx context.Context, tx pgx.Tx) error {
		emp, err := loadEmployeeTx(ctx, tx, restaurantID, employeeID)
		if err != nil {
			return err
		}
		if !emp.Active {
			return domain.Validation("Employee is not active")
		}

		var activeExists bool
		if err := tx.QueryRow(ctx, `
			select exists(select 1 from shift where employee_id = $1 and status = 'ACTIVE')
		`, emp.ID).Scan(&activeExists); err != nil {
			return err
		}
		if activeExists {
			return domain.Conflict("Employee already has an active shift")
		}

		// Earliest shift scheduled to start today; yesterday's stale
		// SCHEDULED rows must not shadow it.
		dayStart := utils.StartOfLocalDay(now, timezone)
		dayEnd := utils.EndOfLocalDay(now, timezone)
		var shift domain.Shift
		err = tx.QueryRow(ctx, `
			select id, employee_id, scheduled_start, scheduled_end, break_minutes, notes
			from shift
			where employee_id = $1 and status = 'SCHEDULED'
			  and scheduled_start >= $2 and scheduled_start < $3
			order by scheduled_start asc
			limit 1
		`, emp.ID, dayStart, dayEnd).Scan(&shift.ID, &shift.EmployeeID, &shift.ScheduledStart,
			&shift.ScheduledEnd, &shift.BreakMinutes, &shift.Notes)

		switch {
		case err == nil:
			shift.Status = domain.ShiftActive
			shift.ActualStart = &now
			if _, err := tx.Exec(ctx, `
				update shift set status = 'ACTIVE', actual_start = $1 where id = $2
			`, now, shift.ID); err != nil {
				return err
			}
		case err == pgx.ErrNoRows:
			// On-demand shift: starts now, scheduled to the end of the local day.
			shift = domain.Shift{
				ID:             uuid.NewString(),
				EmployeeID:     emp.ID,
				ScheduledStart: now,
				ScheduledEnd:   dayEnd,
				Status:         domain.ShiftActive,
				ActualStart:    &now,
			}
			if _, err := tx.Exec(ctx, `
				insert into shift (id, employee_id, scheduled_start, scheduled_end, break_minutes, status, actual_start, created_at)
				values ($1,$2,$3,$4,0,'ACTIVE',$5,$6)
			`, shift.ID, shift.EmployeeID, shift.ScheduledStart, shift.ScheduledEnd, now, now); err != nil {
				return err
			}
		default:
			return err
		}

		if err := events.Append(ctx, tx, events.New(events.ShiftStarted, "shift", shift.ID, map[string]any{
			"employeeId":   emp.ID,
			"restaurantId": restaurantID,
		})); err != nil {
			return err
		}
		result = &shift
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type ClockOutResult struct {
	Shift          domain.Shift `json:"shift"`
	EffectiveHours float64      `json:"effectiveHours"`
	PayMinor       *int64       `json:"payMinor,omitempty"`
}

// ClockOut completes the employee's active shift and settles its pay from
// the wage in effect right now.
func (l *Ledger) ClockOut(ctx context.Context, restaurantID, employeeID string) (*ClockOutResult, error) {
	now := l.now()

	var result *ClockOutResult
	err := db.WithSerializableTx(ctx, l.Pool, func(ctx context.Context, tx pgx.Tx) error {
		emp, err := loadEmployeeTx(ctx, tx, restaurantID, employeeID)
		if err != nil {
			return err
		}

		var shift domain.Shift
		err = tx.QueryRow(ctx, `
			select id, employee_id, scheduled_start, scheduled_end, break_minutes, actual_start, notes
			from shift
			where employee_id = $1 and status = 'ACTIVE'
			for update
		`, emp.ID).Scan(&shift.ID, &shift.EmployeeID, &shift.ScheduledStart, &shift.ScheduledEnd,
			&shift.BreakMinutes, &shift.ActualStart, &shift.Notes)
		if err != nil {
			if err == pgx.ErrNoRows {
				return domain.Conflict("Employee has no active shift")
			}
			return err
		}

		start := shift.ScheduledStart
		if shift.ActualStart != nil {
			start = *shift.ActualStart
		}
		hours := EffectiveHours(start, now, shift.BreakMinutes)
		pay := PayMinor(hours, emp.HourlyWageMinor)

		shift.Status = domain.ShiftCompleted
		shift.ActualEnd = &now
		if _, err := tx.Exec(ctx, `
			update shift set status = 'COMPLETED', actual_end = $1, effective_hours = $2, pay_minor = $3
			where id = $4
		`, now, hours, pay, shift.ID); err != nil {
			return err
		}

		if err := events.Append(ctx, tx, events.New(events.ShiftEnded, "shift", shift.ID, map[string]any{
			"employeeId":   emp.ID,
			"restaurantId": restaurantID,
			"hours":        hours,
		})); err != nil {
			return err
		}

		result = &ClockOutResult{Shift: shift, EffectiveHours: hours, PayMinor: pay}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type ShiftFilter struct {
	EmployeeID string
	Status     domain.ShiftStatus
	From       *time.Time
	To         *time.Time
}

// ListShifts returns the restaurant's shifts, newest first, capped at 200.
func (l *Ledger) ListShifts(ctx context.Context, restaurantID string, filter ShiftFilter) ([]domain.Shift, error) {
	query := `
		select s.id, s.employee_id, s.scheduled_start, s.scheduled_end,
		       s.actual_start, s.actual_end, s.break_minutes, s.status, s.notes
		from shift s
		join employee e on e.id = s.employee_id
		where e.restaurant_id = $1`
	args := []any{restaurantID}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		query += ` and s.employee_id = $` + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` and s.status = $` + strconv.Itoa(len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += ` and s.scheduled_end > $` + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += ` and s.scheduled_start < $` + strconv.Itoa(len(args))
	}
	query += ` order by s.scheduled_start desc limit 200`

	rows, err := l.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]domain.Shift, 0)
	for rows.Next() {
		var s domain.Shift
		var status string
		if err := rows.Scan(&s.ID, &s.EmployeeID, &s.ScheduledStart, &s.ScheduledEnd,
			&s.ActualStart, &s.ActualEnd, &s.BreakMinutes, &status, &s.Notes); err != nil {
			return nil, err
		}
		s.Status = domain.ShiftStatus(status)
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}
