package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eduacademy/academy-api/internal/api/handler"
	"github.com/eduacademy/academy-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Errors is
// either a single message or a map of field name to message.
type errorResponse struct {
	Status  int  `json:"status"`
	Success bool `json:"success"`
	Errors  any  `json:"errors"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Renders validation failures as a field map.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		resp := errorResponse{Status: code, Success: false, Errors: body}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

// statusByError maps sentinel errors to a status and the public message.
var statusByError = []struct {
	err  error
	code int
	msg  string
}{
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "authentication required"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{domain.ErrAccessDenied, http.StatusForbidden, "access denied"},
	{domain.ErrNotCourseInstructor, http.StatusForbidden, "not an instructor of this course"},
	{domain.ErrNotEnrolled, http.StatusForbidden, "not enrolled in this course"},
	{domain.ErrUnknownRole, http.StatusBadRequest, "unknown role"},
	{domain.ErrInvalidInput, http.StatusBadRequest, ""},
	{domain.ErrDuplicateIdentity, http.StatusConflict, "email or username already registered"},
	{domain.ErrAlreadyEnrolled, http.StatusConflict, "already enrolled"},
	{domain.ErrDuplicateRequest, http.StatusConflict, "enrollment request already pending"},
	{domain.ErrRequestNotPending, http.StatusConflict, "enrollment request is not pending"},
	{domain.ErrAlreadyPublished, http.StatusConflict, "course already published"},
	{domain.ErrAlreadyHidden, http.StatusConflict, "course already hidden"},
	{domain.ErrAlreadyGraded, http.StatusConflict, "submission already graded"},
	{domain.ErrSubmissionClosed, http.StatusConflict, "assessment is not accepting answers"},
	{domain.ErrDuplicateReview, http.StatusConflict, "course already reviewed"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{domain.ErrCourseNotFound, http.StatusNotFound, "course not found"},
	{domain.ErrLessonNotFound, http.StatusNotFound, "lesson not found"},
	{domain.ErrRequestNotFound, http.StatusNotFound, "enrollment request not found"},
	{domain.ErrAssessmentNotFound, http.StatusNotFound, "assessment not found"},
	{domain.ErrSubmissionNotFound, http.StatusNotFound, "submission not found"},
	{domain.ErrReviewNotFound, http.StatusNotFound, "review not found"},
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, any) {
	var ve *handler.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Fields
	}

	// Echo's own errors (bind failures, 404 from router, rate limiting, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Int("status", he.Code).Msg("http error")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			msg := m.msg
			if msg == "" {
				msg = err.Error()
			}
			return m.code, msg
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
