package middleware

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"foodcourt-backoffice/internal/auth"
	"foodcourt-backoffice/internal/domain"
	"foodcourt-backoffice/pkg/response"
)

type contextKey string

const authContextKey contextKey = "authContext"

type AuthContext struct {
	PrincipalID string
	SessionID   string
	Role        domain.Role
}

func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	value := ctx.Value(authContextKey)
	if value == nil {
		return nil, false
	}
	ac, ok := value.(*AuthContext)
	return ac, ok
}

// PrincipalAuth validates the bearer token and binds the caller's principal.
// The session row must still be live; role is re-read from the principal row
// so an invite consumption is visible on the next token refresh.
func PrincipalAuth(db *pgxpool.Pool, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			claims, err := auth.VerifyAccessToken(token, jwtSecret)
			if err != nil {
				response.DomainError(w, domain.Unauthenticated("Authorization token required"))
				return
			}

			var role string
			err = db.QueryRow(r.Context(), `
				select p.role
				from principal p
				join session s on s.id = $2 and s.principal_id = p.id
					and s.revoked_at is null and s.expires_at > now()
				where p.id = $1
			`, claims.PrincipalID, claims.SessionID).Scan(&role)
			if err != nil {
				response.DomainError(w, domain.Unauthenticated("Session is no longer valid"))
				return
			}

			authCtx := &AuthContext{
				PrincipalID: claims.PrincipalID,
				SessionID:   claims.SessionID,
				Role:        domain.Role(role),
			}
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), authCtx)))
		})
	}
}
