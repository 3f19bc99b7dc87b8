package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"salonbook/backend/internal/service"
)

const (
	codeUnauthenticated = "UNAUTHENTICATED"
	codeRateLimited     = "RATE_LIMITED"
	codeInternal        = "UPSTREAM_FAILURE"
)

type intervalBody struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type errorBody struct {
	Success  bool          `json:"success"`
	Error    string        `json:"error"`
	Code     string        `json:"code"`
	Interval *intervalBody `json:"interval,omitempty"`
}

type dataBody struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func ok(c echo.Context, code int, data any) error {
	return c.JSON(code, dataBody{Success: true, Data: data})
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation, service.KindConflict, service.KindTerminalState:
		return http.StatusBadRequest
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail maps a use-case error onto the JSON error envelope.
func (s *Server) fail(c echo.Context, err error) error {
	kind := service.KindOf(err)
	log := s.log.With(
		slog.String("route", c.Path()),
		slog.String("code", string(kind)),
	)

	body := errorBody{Error: err.Error(), Code: string(kind)}
	switch kind {
	case service.KindConflict:
		log.Info("request rejected", slog.Any("err", err))
		if iv, ok := service.ConflictInterval(err); ok {
			body.Interval = &intervalBody{
				Date:      iv.Date.String(),
				StartTime: iv.Start.String(),
				EndTime:   iv.End.String(),
			}
		}
	case service.KindValidation:
		log.Warn("invalid request", slog.Any("err", err))
	case service.KindUpstreamFailure:
		log.Error("request failed", slog.Any("err", err))
		body.Error = "internal error"
	default:
		log.Info("request refused", slog.Any("err", err))
	}
	return c.JSON(statusFor(kind), body)
}

// handleEchoError renders errors raised outside the handlers, such as
// unknown routes and middleware rejections, in the same envelope.
func (s *Server) handleEchoError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		_ = s.fail(c, err)
		return
	}

	body := errorBody{Error: http.StatusText(he.Code)}
	if msg, ok := he.Message.(string); ok {
		body.Error = msg
	}
	switch he.Code {
	case http.StatusUnauthorized:
		body.Code = codeUnauthenticated
	case http.StatusTooManyRequests:
		body.Code = codeRateLimited
	case http.StatusNotFound:
		body.Code = string(service.KindNotFound)
	case http.StatusInternalServerError:
		s.log.Error("request failed", slog.Any("err", err), slog.String("route", c.Path()))
		body.Code = codeInternal
		body.Error = "internal error"
	default:
		body.Code = string(service.KindValidation)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.JSON(he.Code, body)
}
