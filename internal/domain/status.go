package domain

import (
	"fmt"
	"strings"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCancelled: nil,
	StatusCompleted: nil,
}

func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	st := AppointmentStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := appointmentTransitions[st]; !ok {
		return "", fmt.Errorf("invalid status %q", s)
	}
	return st, nil
}

// Terminal statuses accept no further transitions.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func (s AppointmentStatus) CanTransitionTo(to AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ActiveStatuses are the statuses that occupy an employee's time.
func ActiveStatuses() []AppointmentStatus {
	return []AppointmentStatus{StatusPending, StatusConfirmed}
}

// OverlappingAppointments returns the appointments whose interval overlaps
// interval under rule, skipping any whose status is in exclude.
func OverlappingAppointments(appts []Appointment, interval TimeInterval, rule OverlapRule, exclude []AppointmentStatus) []Appointment {
	var out []Appointment
	for _, a := range appts {
		if containsStatus(exclude, a.Status) {
			continue
		}
		if a.Interval().Overlaps(interval, rule) {
			out = append(out, a)
		}
	}
	return out
}

func containsStatus(list []AppointmentStatus, s AppointmentStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
