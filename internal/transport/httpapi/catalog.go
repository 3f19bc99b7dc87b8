package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"salonbook/backend/internal/service"
	"salonbook/backend/internal/service/catalog"
)

type serviceRequest struct {
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration"`
	Description     string `json:"description"`
	Price           int64  `json:"price"`
}

func (r serviceRequest) input() catalog.Input {
	return catalog.Input{
		Name:            r.Name,
		DurationMinutes: r.DurationMinutes,
		Description:     r.Description,
		Price:           r.Price,
	}
}

func (s *Server) listServices(c echo.Context) error {
	svcs, err := s.catalog.List(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return ok(c, http.StatusOK, toServices(svcs))
}

func (s *Server) getService(c echo.Context) error {
	id, err := parseUUID("id", c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	svc, err := s.catalog.Get(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	return ok(c, http.StatusOK, toService(svc))
}

func (s *Server) createService(c echo.Context) error {
	var req serviceRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, service.Invalid("body", "must be valid JSON"))
	}
	if err := catalog.Validate(req.input()); err != nil {
		return s.fail(c, err)
	}
	svc, err := s.catalog.Create(c.Request().Context(), actorOf(c), req.input())
	if err != nil {
		return s.fail(c, err)
	}
	return ok(c, http.StatusCreated, toService(svc))
}

func (s *Server) updateService(c echo.Context) error {
	id, err := parseUUID("id", c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	var req serviceRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, service.Invalid("body", "must be valid JSON"))
	}
	if err := catalog.Validate(req.input()); err != nil {
		return s.fail(c, err)
	}
	svc, err := s.catalog.Update(c.Request().Context(), actorOf(c), id, req.input())
	if err != nil {
		return s.fail(c, err)
	}
	return ok(c, http.StatusOK, toService(svc))
}

func (s *Server) deleteService(c echo.Context) error {
	id, err := parseUUID("id", c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	if err := s.catalog.Delete(c.Request().Context(), actorOf(c), id); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type assignRequest struct {
	EmployeeID string `json:"employee_id"`
}

func (s *Server) assignEmployee(c echo.Context) error {
	serviceID, err := parseUUID("id", c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, service.Invalid("body", "must be valid JSON"))
	}
	employeeID, err := parseUUID("employee_id", req.EmployeeID)
	if err != nil {
		return s.fail(c, err)
	}
	if err := s.catalog.AssignEmployee(c.Request().Context(), actorOf(c), serviceID, employeeID); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listEmployeeServices(c echo.Context) error {
	employeeID, err := parseUUID("employee_id", c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	svcs, err := s.catalog.ListForEmployee(c.Request().Context(), employeeID)
	if err != nil {
		return s.fail(c, err)
	}
	return ok(c, http.StatusOK, toServices(svcs))
}
