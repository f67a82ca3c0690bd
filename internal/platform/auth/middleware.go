package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/physiocare/dashboard/internal/platform/apperr"
)

type contextKey string

const (
	claimsKey    contextKey = "auth_claims"
	UserIDKey    contextKey = "user_id"
	UserRolesKey contextKey = "user_roles"
)

// Middleware authenticates the request from the token cookie, falling back
// to an Authorization: Bearer header. Revoked tokens are rejected.
func Middleware(issuer *TokenIssuer, revoked RevocationStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr := tokenFromRequest(c)
			if tokenStr == "" {
				return apperr.Unauthenticated("authentication invalid")
			}

			claims, err := issuer.Parse(tokenStr)
			if err != nil {
				return apperr.Unauthenticated("authentication invalid")
			}

			ctx := c.Request().Context()
			isRevoked, err := revoked.IsRevoked(ctx, claims.ID)
			if err != nil {
				return apperr.Internal(err)
			}
			if isRevoked {
				return apperr.Unauthenticated("authentication invalid")
			}

			c.SetRequest(c.Request().WithContext(WithClaims(ctx, claims)))
			return next(c)
		}
	}
}

func tokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" && cookie.Value != loggedOutValue {
		return cookie.Value
	}
	parts := strings.SplitN(c.Request().Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// WithClaims stores claims on ctx. Exposed for handler tests.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	ctx = context.WithValue(ctx, UserIDKey, claims.Subject)
	ctx = context.WithValue(ctx, UserRolesKey, []string{claims.Role})
	return ctx
}

func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

// UserIDFromContext returns the authenticated user's id, or uuid.Nil.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	sub, _ := ctx.Value(UserIDKey).(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}
