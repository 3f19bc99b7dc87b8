package httpapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/export"
	"salonbook/backend/internal/service/calendar"
)

func (s *Server) calendarRange(c echo.Context) error {
	employeeID, err := parseUUID("employee_id", c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	from, err := parseDate("start_date", c.QueryParam("start_date"))
	if err != nil {
		return s.fail(c, err)
	}
	to, err := parseDate("end_date", c.QueryParam("end_date"))
	if err != nil {
		return s.fail(c, err)
	}

	entries, err := s.calendar.Range(c.Request().Context(), actorOf(c), employeeID, domain.DateRange{From: from, To: to})
	if err != nil {
		return s.fail(c, err)
	}
	if entries == nil {
		entries = []calendar.Entry{}
	}
	return ok(c, http.StatusOK, entries)
}

func (s *Server) loadWeek(c echo.Context) (calendar.Week, error) {
	employeeID, err := parseUUID("employee_id", c.Param("id"))
	if err != nil {
		return calendar.Week{}, err
	}
	date := domain.DateOf(s.now().UTC())
	if raw := c.QueryParam("date"); raw != "" {
		if date, err = parseDate("date", raw); err != nil {
			return calendar.Week{}, err
		}
	}
	return s.calendar.Week(c.Request().Context(), actorOf(c), employeeID, date)
}

func (s *Server) calendarWeek(c echo.Context) error {
	week, err := s.loadWeek(c)
	if err != nil {
		return s.fail(c, err)
	}
	return ok(c, http.StatusOK, week)
}

func (s *Server) calendarWeekExport(c echo.Context) error {
	week, err := s.loadWeek(c)
	if err != nil {
		return s.fail(c, err)
	}
	var buf bytes.Buffer
	if err := export.WriteWeek(&buf, week); err != nil {
		return s.fail(c, fmt.Errorf("export week: %w", err))
	}
	filename := fmt.Sprintf("calendar_%s_%s.xlsx", week.EmployeeID, week.From)
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+filename)
	return c.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}
