package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eduacademy/academy-api/internal/api/metrics"
	"github.com/eduacademy/academy-api/internal/core/access"
	"github.com/eduacademy/academy-api/internal/core/domain"
	"github.com/eduacademy/academy-api/internal/core/ports"
)

const bearerPrefix = "Bearer "

// Authenticate resolves the bearer token of each request to a principal. It
// never rejects a request: a missing, malformed, expired or unknown token
// leaves the request anonymous and the access policy decides what happens
// next. A principal already present in the request context is kept.
func Authenticate(tokens ports.TokenService, identities ports.IdentityLookup, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if _, ok := access.FromContext(req.Context()); ok {
				metrics.TokenChecksTotal.WithLabelValues("preauthenticated").Inc()
				return next(c)
			}

			header := req.Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, bearerPrefix)
			if !ok || token == "" {
				metrics.TokenChecksTotal.WithLabelValues("anonymous").Inc()
				return next(c)
			}

			subject, err := tokens.ExtractSubject(token)
			if err != nil {
				result := "invalid"
				if errors.Is(err, domain.ErrTokenExpired) {
					result = "expired"
				}
				metrics.TokenChecksTotal.WithLabelValues(result).Inc()
				return next(c)
			}

			user, err := identities.FindByEmail(req.Context(), subject)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					metrics.TokenChecksTotal.WithLabelValues("unknown_subject").Inc()
				} else {
					metrics.TokenChecksTotal.WithLabelValues("store_error").Inc()
					log.Error().Err(err).Msg("identity lookup failed, continuing anonymously")
				}
				return next(c)
			}

			if !tokens.Validate(token, user.Email) {
				metrics.TokenChecksTotal.WithLabelValues("rejected").Inc()
				return next(c)
			}

			p := access.NewPrincipal(user)
			c.SetRequest(req.WithContext(access.WithPrincipal(req.Context(), p)))
			metrics.TokenChecksTotal.WithLabelValues("authenticated").Inc()
			return next(c)
		}
	}
}
