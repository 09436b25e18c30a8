package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eduacademy/academy-api/internal/core/access"
	"github.com/eduacademy/academy-api/internal/core/domain"
)

// principalFrom returns the principal the authentication filter attached to
// the request, or domain.ErrUnauthenticated.
func principalFrom(c echo.Context) (*access.Principal, error) {
	p, ok := access.FromContext(c.Request().Context())
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return p, nil
}

// pathID reads the int64 path parameter name.
func pathID(c echo.Context, name string) (int64, error) {
	var id int64
	if err := echo.PathParamsBinder(c).MustInt64(name, &id).BindError(); err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name).SetInternal(err)
	}
	return id, nil
}

// bindAndValidate binds the request body into req and runs the validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(err)
	}
	return c.Validate(req)
}
