package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eduacademy/academy-api/internal/core/ports"
)

// InstructorHandler serves /v1/instructor. Every operation is scoped to the
// calling instructor.
type InstructorHandler struct {
	service ports.InstructorService
}

func NewInstructorHandler(service ports.InstructorService) *InstructorHandler {
	return &InstructorHandler{service: service}
}

// CreateCourse handles POST /v1/instructor/courses.
//
// @Summary      Create a course
// @Tags         instructor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      courseRequest  true  "Course"
// @Success      201   {object}  dataResponse
// @Failure      400   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Router       /v1/instructor/courses [post]
func (h *InstructorHandler) CreateCourse(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	var req courseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	course, err := h.service.CreateCourse(c.Request().Context(), p.User.ID, ports.CourseInput(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, course)
}

// ListCourses handles GET /v1/instructor/courses.
func (h *InstructorHandler) ListCourses(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courses, err := h.service.ListCourses(c.Request().Context(), p.User.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, courses)
}

// GetCourse handles GET /v1/instructor/courses/:id.
func (h *InstructorHandler) GetCourse(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	course, err := h.service.GetCourse(c.Request().Context(), p.User.ID, courseID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, course)
}

// UpdateCourse handles PUT /v1/instructor/courses/:id.
func (h *InstructorHandler) UpdateCourse(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req courseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	course, err := h.service.UpdateCourse(c.Request().Context(), p.User.ID, courseID, ports.CourseInput(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, course)
}

// DeleteCourse handles DELETE /v1/instructor/courses/:id.
func (h *InstructorHandler) DeleteCourse(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteCourse(c.Request().Context(), p.User.ID, courseID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListLessons handles GET /v1/instructor/courses/:id/lessons.
func (h *InstructorHandler) ListLessons(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	lessons, err := h.service.ListLessons(c.Request().Context(), p.User.ID, courseID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, lessons)
}

// AddLesson handles POST /v1/instructor/courses/:id/lessons.
func (h *InstructorHandler) AddLesson(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req lessonRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	lesson, err := h.service.AddLesson(c.Request().Context(), p.User.ID, courseID, ports.LessonInput(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, lesson)
}

// UpdateLesson handles PUT /v1/instructor/courses/:id/lessons/:lesson_id.
func (h *InstructorHandler) UpdateLesson(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	lessonID, err := pathID(c, "lesson_id")
	if err != nil {
		return err
	}
	var req lessonRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	lesson, err := h.service.UpdateLesson(c.Request().Context(), p.User.ID, courseID, lessonID, ports.LessonInput(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, lesson)
}

// DeleteLesson handles DELETE /v1/instructor/courses/:id/lessons/:lesson_id.
func (h *InstructorHandler) DeleteLesson(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	lessonID, err := pathID(c, "lesson_id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteLesson(c.Request().Context(), p.User.ID, courseID, lessonID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListRequests handles GET /v1/instructor/courses/:id/requests.
func (h *InstructorHandler) ListRequests(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	requests, err := h.service.ListRequests(c.Request().Context(), p.User.ID, courseID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, requests)
}

// ApproveRequest handles POST /v1/instructor/requests/:id/approve.
//
// @Summary      Approve an enrollment request
// @Tags         instructor
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request id"
// @Success      200  {object}  dataResponse
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any
// @Router       /v1/instructor/requests/{id}/approve [post]
func (h *InstructorHandler) ApproveRequest(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	requestID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	req, err := h.service.ApproveRequest(c.Request().Context(), p.User.ID, requestID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, req)
}

// RejectRequest handles POST /v1/instructor/requests/:id/reject.
func (h *InstructorHandler) RejectRequest(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	requestID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	req, err := h.service.RejectRequest(c.Request().Context(), p.User.ID, requestID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, req)
}
