package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eduacademy/academy-api/internal/core/domain"
	"github.com/eduacademy/academy-api/internal/core/ports"
)

// AdminHandler serves /v1/admin.
type AdminHandler struct {
	service ports.AdminService
}

func NewAdminHandler(service ports.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// ListCourses handles GET /v1/admin/courses?published=true|false.
//
// @Summary      List courses
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        published  query     bool  false  "Only published (true) or hidden (false) courses"
// @Success      200        {object}  dataResponse
// @Failure      400        {object}  map[string]any
// @Failure      403        {object}  map[string]any
// @Router       /v1/admin/courses [get]
func (h *AdminHandler) ListCourses(c echo.Context) error {
	var published *bool
	if c.QueryParam("published") != "" {
		var v bool
		if err := echo.QueryParamsBinder(c).Bool("published", &v).BindError(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid published").SetInternal(err)
		}
		published = &v
	}
	courses, err := h.service.ListCourses(c.Request().Context(), published)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, courses)
}

// GetCourse handles GET /v1/admin/courses/:id.
func (h *AdminHandler) GetCourse(c echo.Context) error {
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	course, err := h.service.GetCourse(c.Request().Context(), courseID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, course)
}

// PublishCourse handles POST /v1/admin/courses/:id/publish.
func (h *AdminHandler) PublishCourse(c echo.Context) error {
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	course, err := h.service.PublishCourse(c.Request().Context(), courseID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, course)
}

// HideCourse handles POST /v1/admin/courses/:id/hide.
func (h *AdminHandler) HideCourse(c echo.Context) error {
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	course, err := h.service.HideCourse(c.Request().Context(), courseID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, course)
}

// DeleteCourse handles DELETE /v1/admin/courses/:id.
func (h *AdminHandler) DeleteCourse(c echo.Context) error {
	courseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteCourse(c.Request().Context(), courseID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUsers handles GET /v1/admin/users?role=.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context(), c.QueryParam("role"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, users)
}

// ListInstructors handles GET /v1/admin/instructors.
func (h *AdminHandler) ListInstructors(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context(), string(domain.RoleInstructor))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, users)
}

// GetUser handles GET /v1/admin/users/:id.
func (h *AdminHandler) GetUser(c echo.Context) error {
	return h.getUserWithRole(c, "")
}

// GetInstructor handles GET /v1/admin/instructors/:id.
func (h *AdminHandler) GetInstructor(c echo.Context) error {
	return h.getUserWithRole(c, domain.RoleInstructor)
}

// GetStudent handles GET /v1/admin/students/:id.
func (h *AdminHandler) GetStudent(c echo.Context) error {
	return h.getUserWithRole(c, domain.RoleStudent)
}

// getUserWithRole answers not found when role is set and the user holds a
// different one.
func (h *AdminHandler) getUserWithRole(c echo.Context, role domain.Role) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.service.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if role != "" && user.Role != role {
		return domain.ErrUserNotFound
	}
	return respond(c, http.StatusOK, user)
}

// DeleteUser handles DELETE /v1/admin/users/:id.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteUser(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
