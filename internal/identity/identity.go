package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"foodcourt-backoffice/internal/auth"
	"foodcourt-backoffice/internal/domain"
)

// Oracle exchanges a signed third-party session envelope for a principal,
// a session row and a bearer token.
type Oracle struct {
	Pool           *pgxpool.Pool
	Logger         *zap.Logger
	ProviderSecret string
	JWTSecret      string
	JWTTTL         time.Duration
	Now            func() time.Time
}

func (o *Oracle) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

type SessionGrant struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	Principal domain.Principal `json:"principal"`
}

// Authenticate verifies the envelope, provisions a Customer principal on
// first contact, opens a session and mints the access token.
func (o *Oracle) Authenticate(ctx context.Context, rawInitData string) (*SessionGrant, error) {
	initData, err := auth.VerifyInitData(rawInitData, o.ProviderSecret, o.now())
	if err != nil {
		return nil, err
	}

	var principal domain.Principal
	var role string
	err = o.Pool.QueryRow(ctx, `
		insert into principal (id, external_identity_id, role, display_name, created_at)
		values ($1, $2, $3, $4, $5)
		on conflict (external_identity_id)
			do update set display_name = excluded.display_name
		returning id, role, external_identity_id
	`, uuid.NewString(), initData.Subject, string(domain.RoleCustomer), initData.Name, o.now()).
		Scan(&principal.ID, &role, &principal.ExternalIdentityID)
	if err != nil {
		return nil, err
	}
	principal.Role = domain.Role(role)

	sessionID := uuid.NewString()
	expiresAt := o.now().Add(o.JWTTTL)
	if _, err := o.Pool.Exec(ctx, `
		insert into session (id, principal_id, created_at, expires_at)
		values ($1, $2, $3, $4)
	`, sessionID, principal.ID, o.now(), expiresAt); err != nil {
		return nil, err
	}

	token, err := auth.MintAccessToken(principal.ID, sessionID, principal.Role, o.JWTSecret, o.JWTTTL)
	if err != nil {
		return nil, err
	}

	o.Logger.Info("session opened",
		zap.String("principalId", principal.ID),
		zap.String("role", string(principal.Role)))
	return &SessionGrant{Token: token, ExpiresAt: expiresAt, Principal: principal}, nil
}

// Revoke closes one session. Idempotent: revoking twice is a no-op.
func (o *Oracle) Revoke(ctx context.Context, sessionID string) error {
	_, err := o.Pool.Exec(ctx, `
		update session set revoked_at = $1 where id = $2 and revoked_at is null
	`, o.now(), sessionID)
	return err
}
