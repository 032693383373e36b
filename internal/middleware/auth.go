package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"malkhana-backend/internal/auth"
	"malkhana-backend/internal/logger"
	"malkhana-backend/internal/models"
	"malkhana-backend/pkg/utils"
)

type contextKey string

const (
	StaffKey  contextKey = "staff"
	ClaimsKey contextKey = "claims"

	// AccessTokenCookie is the HTTP-only cookie set on login.
	AccessTokenCookie = "accessToken"
)

// StaffLookup loads the current staff record for a token.
type StaffLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.StaffMember, error)
}

// RevocationList answers whether a token id was logged out.
type RevocationList interface {
	IsTokenRevoked(ctx context.Context, jti string) bool
}

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	staff      StaffLookup
	revoked    RevocationList
	log        *logger.Logger
}

// NewAuthMiddleware builds the middleware. revoked may be nil when no cache is available.
func NewAuthMiddleware(jwtManager *auth.JWTManager, staff StaffLookup, revoked RevocationList, log *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		staff:      staff,
		revoked:    revoked,
		log:        log,
	}
}

// Authenticate validates the access token from the cookie or the Authorization header.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			utils.Fail(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			utils.Fail(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if m.revoked != nil && m.revoked.IsTokenRevoked(r.Context(), claims.ID) {
			utils.Fail(w, http.StatusUnauthorized, "Token has been revoked")
			return
		}

		// Load from the store so a deleted account stops working immediately.
		staff, err := m.staff.GetByID(r.Context(), claims.StaffID)
		if err != nil {
			utils.Fail(w, http.StatusUnauthorized, "Staff member not found")
			return
		}

		noteStaff(r.Context(), staff)
		ctx := context.WithValue(r.Context(), StaffKey, staff)
		ctx = context.WithValue(ctx, ClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole must run after Authenticate.
func (m *AuthMiddleware) RequireRole(allowed ...models.Designation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			staff, ok := CurrentStaff(r.Context())
			if !ok {
				utils.Fail(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			for _, d := range allowed {
				if staff.Designation == d {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.log.Warn("role check failed", "badge", staff.BadgeNumber, "path", r.URL.Path)
			utils.Fail(w, http.StatusForbidden, "Access denied: insufficient privileges")
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// CurrentStaff returns the authenticated staff member.
func CurrentStaff(ctx context.Context) (*models.StaffMember, bool) {
	staff, ok := ctx.Value(StaffKey).(*models.StaffMember)
	return staff, ok
}

// ClaimsFromContext returns the validated token claims.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims, ok
}

// WithStaff stores a staff member in ctx. Used by tests.
func WithStaff(ctx context.Context, staff *models.StaffMember) context.Context {
	return context.WithValue(ctx, StaffKey, staff)
}
