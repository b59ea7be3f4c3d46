package workforce

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"foodcourt-backoffice/internal/db"
	"foodcourt-backoffice/internal/domain"
)

// Ledger owns employees, invite tokens and the shift timeline.
type Ledger struct {
	Pool   db.DB
	Logger *zap.Logger
	Now    func() time.Time
}

func (l *Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

var employeeRoles = map[domain.EmployeeRole]bool{
	domain.EmployeeManager: true,
	domain.EmployeeCashier: true,
	domain.EmployeeCook:    true,
	domain.EmployeeWaiter:  true,
	domain.EmployeeCleaner: true,
}

type EmployeeInput struct {
	Name            string              `json:"name"`
	Phone           string              `json:"phone"`
	Email           *string             `json:"email,omitempty"`
	Role            domain.EmployeeRole `json:"role"`
	HourlyWageMinor *int64              `json:"hourlyWageMinor,omitempty"`
}

func (in *EmployeeInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" {
		return domain.Validation("Employee name is required")
	}
	if in.Phone == "" {
		return domain.Validation("Employee phone is required")
	}
	if !employeeRoles[in.Role] {
		return domain.Validation("Unknown employee role")
	}
	if in.HourlyWageMinor != nil && *in.HourlyWageMinor < 0 {
		return domain.Validation("hourlyWageMinor cannot be negative")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// CreateEmployee adds an active employee. The partial unique index on
// (restaurant_id, phone) where active rejects a duplicate active phone.
func (l *Ledger) CreateEmployee(ctx context.Context, restaurantID string, in EmployeeInput) (*domain.Employee, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	emp := domain.Employee{
		ID:              uuid.NewString(),
		RestaurantID:    restaurantID,
		Name:            in.Name,
		Phone:           in.Phone,
		Email:           in.Email,
		Role:            in.Role,
		HourlyWageMinor: in.HourlyWageMinor,
		Active:          true,
	}
	_, err := l.Pool.Exec(ctx, `
		insert into employee (id, restaurant_id, name, phone, email, role, hourly_wage_minor, active, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,true,$8)
	`, emp.ID, emp.RestaurantID, emp.Name, emp.Phone, emp.Email, string(emp.Role), emp.HourlyWageMinor, l.now())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.AlreadyExists("An active employee with this phone already works here")
		}
		return nil, err
	}
	return &emp, nil
}

type EmployeeUpdate struct {
	Name            *string              `json:"name,omitempty"`
	Email           *string              `json:"email,omitempty"`
	Role            *domain.EmployeeRole `json:"role,omitempty"`
	HourlyWageMinor *int64               `json:"hourlyWageMinor,omitempty"`
}

// UpdateEmployee patches mutable fields. Phone is immutable: it anchors the
// active-uniqueness rule and invite matching.
func (l *Ledger) UpdateEmployee(ctx context.Context, restaurantID, employeeID string, in EmployeeUpdate) (*domain.Employee, error) {
	if in.Role != nil && !employeeRoles[*in.Role] {
		return nil, domain.Validation("Unknown employee role")
	}
	if in.HourlyWageMinor != nil && *in.HourlyWageMinor < 0 {
		return nil, domain.Validation("hourlyWageMinor cannot be negative")
	}

	var updated *domain.Employee
	err := db.WithSerializableTx(ctx, l.Pool, func(ctx context.Context, tx pgx.Tx) error {
		emp, err := loadEmployeeTx(ctx, tx, restaurantID, employeeID)
		if err != nil {
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domain.Validation("Employee name is required")
			}
			emp.Name = name
		}
		if in.Email != nil {
			emp.Email = in.Email
		}
		if in.Role != nil {
			emp.Role = *in.Role
		}
		if in.HourlyWageMinor != nil {
			emp.HourlyWageMinor = in.HourlyWageMinor
		}
		_, err = tx.Exec(ctx, `
			update employee set name = $1, email = $2, role = $3, hourly_wage_minor = $4 where id = $5
		`, emp.Name, emp.Email, string(emp.Role), emp.HourlyWageMinor, emp.ID)
		if err != nil {
			return err
		}
		updated = emp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeactivateEmployee soft-deletes: the row stays for payroll history and the
// phone slot frees up for a future hire.
func (l *Ledger) DeactivateEmployee(ctx context.Context, restaurantID, employeeID string) error {
	tag, err := l.Pool.Exec(ctx, `
		update employee set active = false where id = $1 and restaurant_id = $2 and active
	`, employeeID, restaurantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("Employee not found")
	}
	return nil
}

// ListEmployees returns all employees of a restaurant, active first.
func (l *Ledger) ListEmployees(ctx context.Context, restaurantID string) ([]domain.Employee, error) {
	rows, err := l.Pool.Query(ctx, `
		select id, restaurant_id, principal_id, name, phone, email, role, hourly_wage_minor, active
		from employee where restaurant_id = $1
		order by active desc, name asc
	`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0)
	for rows.Next() {
		var emp domain.Employee
		var role string
		if err := rows.Scan(&emp.ID, &emp.RestaurantID, &emp.PrincipalID, &emp.Name, &emp.Phone,
			&emp.Email, &role, &emp.HourlyWageMinor, &emp.Active); err != nil {
			return nil, err
		}
		emp.Role = domain.EmployeeRole(role)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func loadEmployeeTx(ctx context.Context, tx pgx.Tx, restaurantID, employeeID string) (*domain.Employee, error) {
	var emp domain.Employee
	var role string
	err := tx.QueryRow(ctx, `
		select id, restaurant_id, principal_id, name, phone, email, role, hourly_wage_minor, active
		from employee where id = $1 and restaurant_id = $2
		for update
	`, employeeID, restaurantID).Scan(&emp.ID, &emp.RestaurantID, &emp.PrincipalID, &emp.Name,
		&emp.Phone, &emp.Email, &role, &emp.HourlyWageMinor, &emp.Active)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.NotFound("Employee not found")
		}
		return nil, err
	}
	emp.Role = domain.EmployeeRole(role)
	return &emp, nil
}
