package workforce

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"foodcourt-backoffice/internal/db"
	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/internal/events"
)

const inviteSecretBytes = 32

type InviteInput struct {
	RestaurantID    string              `json:"restaurantId,omitempty"`
	GrantedRole     domain.EmployeeRole `json:"grantedRole"`
	HourlyWageMinor *int64              `json:"hourlyWageMinor,omitempty"`
	ExpiresAt       time.Time           `json:"expiresAt"`
	MaxUses         int                 `json:"maxUses"`
}

type CreatedInvite struct {
	Invite domain.InviteToken `json:"invite"`
	// Token is shown once at creation. Only its bcrypt hash is stored.
	Token string `json:"token"`
}

func newInviteSecret() (string, error) {
	buf := make([]byte, inviteSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ParseInviteToken splits "<id>.<secret>". The id locates the row, the
// secret is compared against the stored hash.
func ParseInviteToken(token string) (id, secret string, ok bool) {
	id, secret, ok = strings.Cut(token, ".")
	if !ok || id == "" || secret == "" {
		return "", "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", "", false
	}
	return id, secret, true
}

// CreateInvite mints an invite token for a restaurant. The plaintext token
// is returned exactly once.
func (l *Ledger) CreateInvite(ctx context.Context, restaurantID, createdBy string, in InviteInput) (*CreatedInvite, error) {
	if !employeeRoles[in.GrantedRole] {
		return nil, domain.Validation("Unknown employee role")
	}
	if in.HourlyWageMinor != nil && *in.HourlyWageMinor < 0 {
		return nil, domain.Validation("hourlyWageMinor cannot be negative")
	}
	if !in.ExpiresAt.After(l.now()) {
		return nil, domain.Validation("expiresAt must be in the future")
	}
	if in.MaxUses < 1 {
		in.MaxUses = 1
	}

	secret, err := newInviteSecret()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	invite := domain.InviteToken{
		ID:                   uuid.NewString(),
		RestaurantID:         restaurantID,
		GrantedRole:          in.GrantedRole,
		HourlyWageMinor:      in.HourlyWageMinor,
		ExpiresAt:            in.ExpiresAt,
		MaxUses:              in.MaxUses,
		Status:               domain.InviteActive,
		CreatedByPrincipalID: createdBy,
	}
	_, err = l.Pool.Exec(ctx, `
		insert into invite_token (id, restaurant_id, granted_role, hourly_wage_minor,
			secret_hash, expires_at, max_uses, used_count, status, created_by, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,0,$8,$9,$10)
	`, invite.ID, invite.RestaurantID, string(invite.GrantedRole), invite.HourlyWageMinor,
		string(hash), invite.ExpiresAt, invite.MaxUses, string(invite.Status),
		invite.CreatedByPrincipalID, l.now())
	if err != nil {
		return nil, err
	}

	return &CreatedInvite{Invite: invite, Token: invite.ID + "." + secret}, nil
}

// RevokeInvite deactivates an invite before expiry.
func (l *Ledger) RevokeInvite(ctx context.Context, restaurantID, inviteID string) error {
	tag, err := l.Pool.Exec(ctx, `
		update invite_token set status = $1
		where id = $2 and restaurant_id = $3 and status = $4
	`, string(domain.InviteRevoked), inviteID, restaurantID, string(domain.InviteActive))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("Active invite not found")
	}
	return nil
}

type ConsumeInput struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// ConsumeInvite turns a customer principal into an employee of the inviting
// restaurant. The whole check-and-spend runs in one serializable transaction
// so two racing consumers cannot overdraw maxUses.
func (l *Ledger) ConsumeInvite(ctx context.Context, principalID string, in ConsumeInput) (*domain.Employee, error) {
	inviteID, secret, ok := ParseInviteToken(in.Token)
	if !ok {
		return nil, domain.Validation("Malformed invite token")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" || in.Phone == "" {
		return nil, domain.Validation("Name and phone are required")
	}

	var created *domain.Employee
	var expired bool
	err := db.WithSerializableTx(ctx, l.Pool, func(ctx context.Context, tx pgx.Tx) error {
		var (
			restaurantID string
			grantedRole  string
			wage         *int64
			secretHash   string
			expiresAt    time.Time
			maxUses      int
			usedCount    int
			status       string
		)
		err := tx.QueryRow(ctx, `
			select restaurant_id, granted_role, hourly_wage_minor, secret_hash,
			       expires_at, max_uses, used_count, status
			from invite_token where id = $1 for update
		`, inviteID).Scan(&restaurantID, &grantedRole, &wage, &secretHash,
			&expiresAt, &maxUses, &usedCount, &status)
		if err != nil {
			if err == pgx.ErrNoRows {
				return domain.NotFound("Invite not found")
			}
			return err
		}

		if bcrypt.CompareHashAndPassword([]byte(secretHash), []byte(secret)) != nil {
			return domain.NotFound("Invite not found")
		}
		if status != string(domain.InviteActive) {
			return domain.Conflict("Invite is no longer active")
		}
		if !l.now().Before(expiresAt) {
			expired = true
			return domain.Conflict("Invite has expired")
		}
		if usedCount >= maxUses {
			return domain.Conflict("Invite is no longer active")
		}

		var alreadyEmployed bool
		if err := tx.QueryRow(ctx, `
			select exists(select 1 from employee where restaurant_id = $1 and principal_id = $2 and active)
		`, restaurantID, principalID).Scan(&alreadyEmployed); err != nil {
			return err
		}
		if alreadyEmployed {
			return domain.AlreadyExists("You already work at this restaurant")
		}

		emp := domain.Employee{
			ID:              uuid.NewString(),
			RestaurantID:    restaurantID,
			PrincipalID:     &principalID,
			Name:            in.Name,
			Phone:           in.Phone,
			Role:            domain.EmployeeRole(grantedRole),
			HourlyWageMinor: wage,
			Active:          true,
		}
		_, err = tx.Exec(ctx, `
			insert into employee (id, restaurant_id, principal_id, name, phone, role, hourly_wage_minor, active, created_at)
			values ($1,$2,$3,$4,$5,$6,$7,true,$8)
		`, emp.ID, emp.RestaurantID, principalID, emp.Name, emp.Phone, string(emp.Role), emp.HourlyWageMinor, l.now())
		if err != nil {
			if isUniqueViolation(err) {
				return domain.AlreadyExists("An active employee with this phone already works here")
			}
			return err
		}

		usedCount++
		nextStatus := string(domain.InviteActive)
		if usedCount >= maxUses {
			nextStatus = string(domain.InviteConsumed)
		}
		if _, err := tx.Exec(ctx, `
			update invite_token set used_count = $1, status = $2 where id = $3
		`, usedCount, nextStatus, inviteID); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			update principal set role = $1 where id = $2 and role = $3
		`, string(domain.RoleEmployee), principalID, string(domain.RoleCustomer)); err != nil {
			return err
		}

		if err := events.Append(ctx, tx, events.New(events.InviteConsumed, "invite", inviteID, map[string]any{
			"restaurantId": restaurantID,
			"employeeId":   emp.ID,
			"principalId":  principalID,
		})); err != nil {
			return err
		}

		created = &emp
		return nil
	})
	if err != nil {
		// The Conflict above rolls the transaction back, so the status flip
		// has to run on its own connection to stick.
		if expired {
			if _, execErr := l.Pool.Exec(ctx, `
				update invite_token set status = $1 where id = $2 and status = $3
			`, string(domain.InviteExpired), inviteID, string(domain.InviteActive)); execErr != nil {
				l.Logger.Warn("failed to mark invite expired", zap.String("invite_id", inviteID), zap.Error(execErr))
			}
		}
		return nil, err
	}
	return created, nil
}
