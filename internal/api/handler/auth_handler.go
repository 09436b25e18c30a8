package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eduacademy/academy-api/internal/api/metrics"
	"github.com/eduacademy/academy-api/internal/core/domain"
	"github.com/eduacademy/academy-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	audit       ports.AuditSink
	now         func() time.Time
}

// NewAuthHandler wires the auth routes. audit may be nil.
func NewAuthHandler(authService ports.AuthService, audit ports.AuditSink) *AuthHandler {
	return &AuthHandler{authService: authService, audit: audit, now: time.Now}
}

// Register creates a new user account and returns a token for it.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  tokenResponse
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Failure      500   {object}  map[string]any
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(roleLabel(req.Role), "invalid").Inc()
		return err
	}

	token, user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(roleLabel(req.Role), registerResult(err)).Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues(string(user.Role), "success").Inc()
	h.record(c, domain.AuthEventRegister, user.Email)
	return c.JSON(http.StatusCreated, tokenResponse{JWT: token})
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			h.record(c, domain.AuthEventLoginFailure, req.Email)
		} else {
			metrics.LoginsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	h.record(c, domain.AuthEventLoginSuccess, user.Email)
	return c.JSON(http.StatusOK, tokenResponse{JWT: token})
}

func (h *AuthHandler) record(c echo.Context, kind domain.AuthEventKind, email string) {
	if h.audit == nil {
		return
	}
	h.audit.Enqueue(domain.AuthEvent{
		Kind:       kind,
		Email:      strings.ToLower(strings.TrimSpace(email)),
		RemoteIP:   c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
		OccurredAt: h.now().UTC(),
	})
}

// roleLabel keeps the metric cardinality bounded to the declared roles.
func roleLabel(name string) string {
	r, err := domain.ParseRole(name)
	if err != nil {
		return "invalid"
	}
	return string(r)
}

func registerResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return "duplicate"
	case errors.Is(err, domain.ErrUnknownRole), errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}
