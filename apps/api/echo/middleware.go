package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/user"
)

var (
	adminOnly = actorMiddleware(user.Actor.IsAdmin)
	staffOnly = actorMiddleware(user.Actor.IsStaff)
)

// actorMiddleware only lets through actors for which allowed is true.
func actorMiddleware(allowed func(user.Actor) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			actor, err := contextActor(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context actor")
			}
			if allowed(actor) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
