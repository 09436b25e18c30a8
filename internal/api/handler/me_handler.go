package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type MeHandler struct{}

func NewMeHandler() *MeHandler {
	return &MeHandler{}
}

// Get returns the caller's identity and authorities.
//
// @Summary      Current identity
// @Tags         identity
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  map[string]any
// @Router       /v1/me [get]
func (h *MeHandler) Get(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	user := p.User
	return respond(c, http.StatusOK, meResponse{User: &user, Authorities: p.Authorities()})
}
