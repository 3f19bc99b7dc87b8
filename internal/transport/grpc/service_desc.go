package grpc

import (
	"context"

	"google.golang.org/grpc"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service/calendar"
)

const ServiceName = "salonbook.v1.SchedulingService"

type Appointment struct {
	ID              string `json:"id"`
	ClientID        string `json:"client_id"`
	EmployeeID      string `json:"employee_id"`
	ServiceID       string `json:"service_id"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
}

type BookAppointmentRequest struct {
	EmployeeID string `json:"employee_id"`
	ServiceID  string `json:"service_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
}

type BookAppointmentResponse struct {
	Appointment Appointment `json:"appointment"`
}

type UpdateAppointmentStatusRequest struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

type UpdateAppointmentStatusResponse struct {
	Appointment Appointment `json:"appointment"`
}

type Slot struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type Window struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Slot
}

type PublishAvailabilityRequest struct {
	EmployeeID string `json:"employee_id"`
	Slots      []Slot `json:"slots"`
}

type PublishAvailabilityResponse struct {
	Windows []Window `json:"windows"`
}

type ListEmployeeCalendarRequest struct {
	EmployeeID string `json:"employee_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

type ListEmployeeCalendarResponse struct {
	Entries []calendar.Entry `json:"entries"`
}

type SchedulingService interface {
	BookAppointment(ctx context.Context, req *BookAppointmentRequest) (*BookAppointmentResponse, error)
	UpdateAppointmentStatus(ctx context.Context, req *UpdateAppointmentStatusRequest) (*UpdateAppointmentStatusResponse, error)
	PublishAvailability(ctx context.Context, req *PublishAvailabilityRequest) (*PublishAvailabilityResponse, error)
	ListEmployeeCalendar(ctx context.Context, req *ListEmployeeCalendarRequest) (*ListEmployeeCalendarResponse, error)
}

func RegisterSchedulingService(s grpc.ServiceRegistrar, srv SchedulingService) {
	s.RegisterService(&SchedulingServiceDesc, srv)
}

// unary adapts a typed method to the grpc.MethodDesc handler shape.
func unary[Req any, Resp any](method string, call func(SchedulingService, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SchedulingService), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SchedulingService), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var SchedulingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulingService)(nil),
	Methods: []grpc.MethodDesc{
		unary("BookAppointment", SchedulingService.BookAppointment),
		unary("UpdateAppointmentStatus", SchedulingService.UpdateAppointmentStatus),
		unary("PublishAvailability", SchedulingService.PublishAvailability),
		unary("ListEmployeeCalendar", SchedulingService.ListEmployeeCalendar),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "salonbook/v1/scheduling",
}

func toAppointment(a domain.Appointment) Appointment {
	return Appointment{
		ID:              a.ID.String(),
		ClientID:        a.ClientID.String(),
		EmployeeID:      a.EmployeeID.String(),
		ServiceID:       a.ServiceID.String(),
		Date:            a.Date.String(),
		StartTime:       a.StartTime.String(),
		EndTime:         a.EndTime().String(),
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
	}
}

func toWindow(w domain.AvailabilityWindow) Window {
	return Window{
		ID:         w.ID.String(),
		EmployeeID: w.EmployeeID.String(),
		Slot: Slot{
			Date:      w.Date.String(),
			StartTime: w.StartTime.String(),
			EndTime:   w.EndTime.String(),
		},
	}
}
