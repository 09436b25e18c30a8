package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/eduacademy/academy-api/internal/api/metrics"
	"github.com/eduacademy/academy-api/internal/core/access"
	"github.com/eduacademy/academy-api/internal/core/domain"
)

// Policy enforces the path rules of p on the path the router matches, which
// is the raw path when the request carries escaped characters. Failures are returned as
// domain.ErrUnauthenticated or domain.ErrAccessDenied for the error handler
// to render.
func Policy(p *access.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, _ := access.FromContext(c.Request().Context())
			decision, err := p.Evaluate(echo.GetPath(c.Request()), principal)
			metrics.AccessDecisionsTotal.WithLabelValues(string(decision)).Inc()
			if err != nil {
				return err
			}
			return next(c)
		}
	}
}

// RequireCapability guards a single route with a capability.
func RequireCapability(capability domain.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, _ := access.FromContext(c.Request().Context())
			if err := access.Authorize(principal, capability); err != nil {
				decision := access.DecisionDenied
				if principal == nil {
					decision = access.DecisionUnauthenticated
				}
				metrics.AccessDecisionsTotal.WithLabelValues(string(decision)).Inc()
				return err
			}
			return next(c)
		}
	}
}
