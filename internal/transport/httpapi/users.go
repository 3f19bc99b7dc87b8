package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service"
)

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) me(c echo.Context) error {
	u, err := s.users.Get(c.Request().Context(), actorOf(c).UserID)
	if err != nil {
		return s.fail(c, err)
	}
	return ok(c, http.StatusOK, toUser(u))
}

func (s *Server) getUser(c echo.Context) error {
	id, err := parseUUID("id", c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	if !actorOf(c).ActsFor(id) {
		return s.fail(c, service.ErrForbidden)
	}
	u, err := s.users.Get(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	return ok(c, http.StatusOK, toUser(u))
}

type roleRequest struct {
	Role string `json:"role"`
}

func (s *Server) setRole(c echo.Context) error {
	id, err := parseUUID("id", c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, service.Invalid("body", "must be valid JSON"))
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return s.fail(c, service.Invalid("role", "must be client, employee or admin"))
	}

	u, err := s.users.SetRole(c.Request().Context(), actorOf(c), id, role)
	if err != nil {
		return s.fail(c, err)
	}
	s.log.Info("user role changed", slog.String("user_id", u.ID.String()), slog.String("role", u.Role.String()))
	return ok(c, http.StatusOK, toUser(u))
}
