package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const PrincipalKey contextKey = "principal"

// JWTMiddleware verifies the bearer token on every request not matched by
// skipper. Any failure yields the same 401 so clients cannot probe why a
// token was rejected. On success the principal is stored on the request
// context and the tenant id on the echo context for the tenant middleware.
func JWTMiddleware(verifier TokenVerifier, skipper func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			tokenStr, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return unauthorized()
			}

			claims, err := verifier.Verify(tokenStr)
			if err != nil {
				return unauthorized()
			}
			principal, err := claims.Principal()
			if err != nil {
				return unauthorized()
			}

			c.Set("jwt_tenant_id", claims.PostID)
			c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), principal)))

			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func unauthorized() error {
	return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidToken.Error())
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFromContext is the single accessor for the authenticated session.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(Principal)
	return p, ok
}
