package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eduacademy/academy-api/internal/core/ports"
)

// StudentHandler serves /v1/student.
type StudentHandler struct {
	service ports.StudentService
}

func NewStudentHandler(service ports.StudentService) *StudentHandler {
	return &StudentHandler{service: service}
}

// ListCourses handles GET /v1/student/courses. Only published courses are
// listed.
func (h *StudentHandler) ListCourses(c echo.Context) error {
	courses, err := h.service.ListPublishedCourses(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, courses)
}

// GetCourse handles GET /v1/student/courses/:id.
func (h *StudentHandler) GetCourse(c echo.Context) error {
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	course, err := h.service.GetPublishedCourse(c.Request().Context(), courseID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, course)
}

// ListEnrolledCourses handles GET /v1/student/enrollments.
func (h *StudentHandler) ListEnrolledCourses(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courses, err := h.service.ListEnrolledCourses(c.Request().Context(), p.User.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, courses)
}

// ListEnrolledLessons handles GET /v1/student/enrollments/:id/lessons.
func (h *StudentHandler) ListEnrolledLessons(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	lessons, err := h.service.ListEnrolledLessons(c.Request().Context(), p.User.ID, courseID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, lessons)
}

// SendRequest handles POST /v1/student/courses/:id/requests.
//
// @Summary      Request enrollment in a course
// @Tags         student
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Course id"
// @Success      201  {object}  dataResponse
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any
// @Router       /v1/student/courses/{id}/requests [post]
func (h *StudentHandler) SendRequest(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	req, err := h.service.SendRequest(c.Request().Context(), p.User.ID, courseID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, req)
}

// CancelRequest handles DELETE /v1/student/courses/:id/requests.
func (h *StudentHandler) CancelRequest(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	req, err := h.service.CancelRequest(c.Request().Context(), p.User.ID, courseID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, req)
}

// ListRequests handles GET /v1/student/requests.
func (h *StudentHandler) ListRequests(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	requests, err := h.service.ListRequests(c.Request().Context(), p.User.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, requests)
}
