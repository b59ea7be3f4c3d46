package workforce

import (
	"context"
	"time"
)

type PayrollLine struct {
	EmployeeID     string  `json:"employeeId"`
	EmployeeName   string  `json:"employeeName"`
	ShiftCount     int     `json:"shiftCount"`
	EffectiveHours float64 `json:"effectiveHours"`
	PayMinor       int64   `json:"payMinor"`
}

type PayrollSummary struct {
	RestaurantID  string        `json:"restaurantId"`
	From          time.Time     `json:"from"`
	To            time.Time     `json:"to"`
	Lines         []PayrollLine `json:"lines"`
	TotalPayMinor int64         `json:"totalPayMinor"`
}

// Payroll rolls up completed shifts per employee over [from, to). Shifts
// with a nil wage contribute hours but no pay.
func (l *Ledger) Payroll(ctx context.Context, restaurantID string, from, to time.Time) (*PayrollSummary, error) {
	rows, err := l.Pool.Query(ctx, `
		select e.id, e.name,
		       count(s.id),
		       coalesce(sum(s.effective_hours), 0),
		       coalesce(sum(s.pay_minor), 0)
		from employee e
		join shift s on s.employee_id = e.id
		where e.restaurant_id = $1
		  and s.status = 'COMPLETED'
		  and s.actual_end >= $2
		  and s.actual_end < $3
		group by e.id, e.name
		order by e.name asc
	`, restaurantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := PayrollSummary{
		RestaurantID: restaurantID,
		From:         from,
		To:           to,
		Lines:        make([]PayrollLine, 0),
	}
	for rows.Next() {
		var line PayrollLine
		if err := rows.Scan(&line.EmployeeID, &line.EmployeeName, &line.ShiftCount,
			&line.EffectiveHours, &line.PayMinor); err != nil {
			return nil, err
		}
		summary.Lines = append(summary.Lines, line)
		summary.TotalPayMinor += line.PayMinor
	}
	return &summary, rows.Err()
}
