package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sadhanalabs/sadhana/core"
)

// authRequired authenticates the request's bearer token and stores the
// claims in the context. Expired or unparseable tokens are rejected before
// any role check happens.
func authRequired(conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return errTokenMissing
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				return errTokenMissing
			}

			claims, err := parseToken(parts[1], conf)
			if err != nil {
				return err
			}
			ctx.Set(contextClaimsKey, claims)
			return next(ctx)
		}
	}
}

// adminRequired denies any non-admin claim. Must run after authRequired.
func adminRequired() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if !claims.IsAdmin() {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
