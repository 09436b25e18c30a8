package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eduacademy/academy-api/internal/core/domain"
)

// dataResponse is the success envelope of the /v1 routes.
type dataResponse struct {
	Status  int  `json:"status"`
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func respond(c echo.Context, code int, data any) error {
	return c.JSON(code, dataResponse{Status: code, Success: true, Data: data})
}

// --- Auth ---

type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role"     validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	JWT string `json:"jwt"`
}

// --- Identity ---

type meResponse struct {
	User        *domain.User `json:"user"`
	Authorities []string     `json:"authorities"`
}

// --- Courses ---

type courseRequest struct {
	Name        string `json:"name"        validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
}

type lessonRequest struct {
	Title   string `json:"title"   validate:"required,max=200"`
	Content string `json:"content" validate:"max=100000"`
}

// --- Course work ---

type assessmentRequest struct {
	Title   string     `json:"title"   validate:"required,max=200"`
	Content string     `json:"content" validate:"max=100000"`
	DueAt   *time.Time `json:"due_at"`
}

type gradeRequest struct {
	Score *int `json:"score" validate:"required,min=0,max=100"`
}

type answerRequest struct {
	Answer string `json:"answer" validate:"required,max=100000"`
}

type reviewRequest struct {
	Rating  int    `json:"rating"  validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}
