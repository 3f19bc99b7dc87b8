// Package httpapi exposes the scheduling use-cases as a JSON API over echo.
package httpapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service/appointments"
	"salonbook/backend/internal/service/availability"
	"salonbook/backend/internal/service/calendar"
	"salonbook/backend/internal/service/catalog"
	"salonbook/backend/internal/store"
)

type appointmentsService interface {
	Book(ctx context.Context, in appointments.BookInput) (domain.Appointment, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, to domain.AppointmentStatus) (domain.Appointment, error)
	Cancel(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Appointment, error)
	Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Appointment, error)
	ListByClient(ctx context.Context, actor domain.Actor, clientID uuid.UUID) ([]store.ClientEntry, error)
	ListByEmployee(ctx context.Context, actor domain.Actor, employeeID uuid.UUID) ([]domain.Appointment, error)
	ListAll(ctx context.Context, actor domain.Actor) ([]domain.Appointment, error)
}

type availabilityService interface {
	CreateBatch(ctx context.Context, actor domain.Actor, employeeID uuid.UUID, slots []availability.Slot) ([]domain.AvailabilityWindow, error)
	Update(ctx context.Context, actor domain.Actor, id uuid.UUID, change availability.Change) (domain.AvailabilityWindow, error)
	Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error
	Query(ctx context.Context, in availability.QueryInput) ([]domain.AvailabilityWindow, error)
}

type calendarService interface {
	Range(ctx context.Context, actor domain.Actor, employeeID uuid.UUID, r domain.DateRange) ([]calendar.Entry, error)
	Week(ctx context.Context, actor domain.Actor, employeeID uuid.UUID, date domain.CalendarDate) (calendar.Week, error)
}

type catalogService interface {
	Create(ctx context.Context, actor domain.Actor, in catalog.Input) (domain.Service, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Service, error)
	List(ctx context.Context) ([]domain.Service, error)
	Update(ctx context.Context, actor domain.Actor, id uuid.UUID, in catalog.Input) (domain.Service, error)
	Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error
	AssignEmployee(ctx context.Context, actor domain.Actor, serviceID, employeeID uuid.UUID) error
	ListForEmployee(ctx context.Context, employeeID uuid.UUID) ([]domain.Service, error)
}

type usersService interface {
	Get(ctx context.Context, id uuid.UUID) (domain.User, error)
	SetRole(ctx context.Context, actor domain.Actor, id uuid.UUID, role domain.Role) (domain.User, error)
}

type authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Actor, error)
}

type Deps struct {
	Appointments  appointmentsService
	Availability  availabilityService
	Calendar      calendarService
	Catalog       catalogService
	Users         usersService
	Authenticator authenticator
}

type Config struct {
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	Metrics        bool
}

type Server struct {
	appointments appointmentsService
	availability availabilityService
	calendar     calendarService
	catalog      catalogService
	users        usersService
	log          *slog.Logger
	now          func() time.Time
}

// New builds the echo instance with every route registered.
func New(deps Deps, cfg Config, log *slog.Logger) *echo.Echo {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "http"))
	s := &Server{
		appointments: deps.Appointments,
		availability: deps.Availability,
		calendar:     deps.Calendar,
		catalog:      deps.Catalog,
		users:        deps.Users,
		log:          log,
		now:          time.Now,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleEchoError

	e.Use(middleware.Recover())
	e.Use(observe(log))
	e.Use(requestTimeout(cfg.RequestTimeout))

	e.GET("/healthz", s.health)
	if cfg.Metrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	api := e.Group("/api/v1",
		authenticate(deps.Authenticator),
		newRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).middleware(),
	)

	api.GET("/me", s.me)
	api.GET("/users/:id", s.getUser)
	api.PUT("/users/:id/role", s.setRole)

	api.GET("/services", s.listServices)
	api.POST("/services", s.createService)
	api.GET("/services/:id", s.getService)
	api.PUT("/services/:id", s.updateService)
	api.DELETE("/services/:id", s.deleteService)
	api.POST("/services/:id/employees", s.assignEmployee)

	api.POST("/appointments", s.bookAppointment)
	api.GET("/appointments", s.listAppointments)
	api.GET("/appointments/:id", s.getAppointment)
	api.PATCH("/appointments/:id/status", s.updateAppointmentStatus)
	api.POST("/appointments/:id/cancel", s.cancelAppointment)

	api.GET("/employees/:id/services", s.listEmployeeServices)
	api.GET("/employees/:id/availability", s.listAvailability)
	api.POST("/employees/:id/availability", s.publishAvailability)
	api.PUT("/availability/:id", s.updateAvailability)
	api.DELETE("/availability/:id", s.deleteAvailability)

	api.GET("/employees/:id/calendar", s.calendarRange)
	api.GET("/employees/:id/calendar/week", s.calendarWeek)
	api.GET("/employees/:id/calendar/week.xlsx", s.calendarWeekExport)

	return e
}
