package identity

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const contextKey = "identity"

// RequireBearerAuth rejects requests without a valid bearer token before
// anything downstream runs, and stashes the resolved identity in the echo
// context.
func RequireBearerAuth(resolver Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderAuthorization))
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			who, err := resolver.Resolve(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx.Set(contextKey, who)
			return next(ctx)
		}
	}
}

// FromContext returns the identity stored by RequireBearerAuth, or nil when
// the route is unauthenticated.
func FromContext(ctx echo.Context) *Identity {
	who, _ := ctx.Get(contextKey).(*Identity)
	return who
}
