package db

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	TenantIDKey contextKey = "tenant_id"
	DBTxKey     contextKey = "db_tx"
)

// TenantMiddleware resolves the post that owns the request from the verified
// token claim set by the auth middleware and stores it on the request
// context. Requests for which skipper returns true pass through untouched.
func TenantMiddleware(skipper func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			tenantID, ok := extractTenantID(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			ctx := WithTenant(c.Request().Context(), tenantID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("tenant_id", tenantID)

			return next(c)
		}
	}
}

// extractTenantID reads the tenant only from the verified token claim;
// headers and query parameters are never trusted for tenancy.
func extractTenantID(c echo.Context) (uuid.UUID, bool) {
	raw, _ := c.Get("jwt_tenant_id").(string)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// WithTenant returns a copy of ctx carrying tenantID.
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// TenantFromContext retrieves the tenant (post) ID from context.
func TenantFromContext(ctx context.Context) uuid.UUID {
	tid, _ := ctx.Value(TenantIDKey).(uuid.UUID)
	return tid
}
