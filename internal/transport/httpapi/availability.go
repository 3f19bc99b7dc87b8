package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service"
	"salonbook/backend/internal/service/availability"
)

// updateRequest moves a window; employee_id is optional and reassigns it.
type updateRequest struct {
	slotRequest
	EmployeeID string `json:"employee_id"`
}

// publishRequest accepts either a single slot or a batch in "slots".
type publishRequest struct {
	slotRequest
	Slots []slotRequest `json:"slots"`
}

func parseSlot(req slotRequest) (availability.Slot, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return availability.Slot{}, err
	}
	start, err := parseTime("start_time", req.StartTime)
	if err != nil {
		return availability.Slot{}, err
	}
	end, err := parseTime("end_time", req.EndTime)
	if err != nil {
		return availability.Slot{}, err
	}
	slot := availability.Slot{Date: date, Start: start, End: end}
	return slot, availability.ValidateSlot(slot)
}

func (s *Server) publishAvailability(c echo.Context) error {
	employeeID, err := parseUUID("employee_id", c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	var req publishRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, service.Invalid("body", "must be valid JSON"))
	}

	raw := req.Slots
	if len(raw) == 0 {
		raw = []slotRequest{req.slotRequest}
	}
	if len(raw) > availability.MaxBatch {
		return s.fail(c, service.Invalid("slots", "too many slots in one request"))
	}
	slots := make([]availability.Slot, 0, len(raw))
	for _, r := range raw {
		slot, err := parseSlot(r)
		if err != nil {
			return s.fail(c, err)
		}
		slots = append(slots, slot)
	}

	windows, err := s.availability.CreateBatch(c.Request().Context(), actorOf(c), employeeID, slots)
	if err != nil {
		return s.fail(c, err)
	}
	s.log.Info("availability published",
		slog.String("employee_id", employeeID.String()),
		slog.Int("count", len(windows)),
	)
	return ok(c, http.StatusCreated, toWindows(windows))
}

func (s *Server) listAvailability(c echo.Context) error {
	employeeID, err := parseUUID("employee_id", c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	in := availability.QueryInput{EmployeeID: employeeID}
	if in.Date, err = parseOptionalDate("date", c.QueryParam("date")); err != nil {
		return s.fail(c, err)
	}
	if in.Range.From, err = parseOptionalDate("start_date", c.QueryParam("start_date")); err != nil {
		return s.fail(c, err)
	}
	if in.Range.To, err = parseOptionalDate("end_date", c.QueryParam("end_date")); err != nil {
		return s.fail(c, err)
	}
	if err := availability.ValidateQuery(in); err != nil {
		return s.fail(c, err)
	}

	windows, err := s.availability.Query(c.Request().Context(), in)
	if err != nil {
		return s.fail(c, err)
	}
	return ok(c, http.StatusOK, toWindows(windows))
}

func (s *Server) updateAvailability(c echo.Context) error {
	id, err := parseUUID("id", c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, service.Invalid("body", "must be valid JSON"))
	}
	change := availability.Change{}
	if change.Slot, err = parseSlot(req.slotRequest); err != nil {
		return s.fail(c, err)
	}
	if req.EmployeeID != "" {
		if change.EmployeeID, err = parseUUID("employee_id", req.EmployeeID); err != nil {
			return s.fail(c, err)
		}
	}

	w, err := s.availability.Update(c.Request().Context(), actorOf(c), id, change)
	if err != nil {
		return s.fail(c, err)
	}
	return ok(c, http.StatusOK, toWindows([]domain.AvailabilityWindow{w})[0])
}

func (s *Server) deleteAvailability(c echo.Context) error {
	id, err := parseUUID("id", c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	if err := s.availability.Delete(c.Request().Context(), actorOf(c), id); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
