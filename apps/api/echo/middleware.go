package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core/session"
)

// sessionMiddleware signs the token subject in, so every authed handler finds a live mirror.
func sessionMiddleware(sessions *session.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			sess, err := sessions.SignIn(claims.Subject)
			if err != nil {
				if errors.Cause(err) == session.ErrClosed {
					return echo.NewHTTPError(http.StatusServiceUnavailable, "shutting down")
				}
				return errors.Wrap(err, "signing in")
			}
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}
