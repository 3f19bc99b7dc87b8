// Package memory is an in-process store used for development and tests.
// Writes run one at a time against a staged copy that replaces the live
// data only when the transaction function succeeds.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"salonbook/backend/internal/domain"
)

type DB struct {
	mu   sync.RWMutex
	data *dataset
	now  func() time.Time
}

func New() *DB {
	return &DB{
		data: newDataset(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

type dataset struct {
	users            map[uuid.UUID]domain.User
	services         map[uuid.UUID]domain.Service
	employeeServices map[domain.EmployeeService]struct{}
	windows          map[uuid.UUID]domain.AvailabilityWindow
	appointments     map[uuid.UUID]domain.Appointment
}

func newDataset() *dataset {
	return &dataset{
		users:            make(map[uuid.UUID]domain.User),
		services:         make(map[uuid.UUID]domain.Service),
		employeeServices: make(map[domain.EmployeeService]struct{}),
		windows:          make(map[uuid.UUID]domain.AvailabilityWindow),
		appointments:     make(map[uuid.UUID]domain.Appointment),
	}
}

func (d *dataset) clone() *dataset {
	out := &dataset{
		users:            make(map[uuid.UUID]domain.User, len(d.users)),
		services:         make(map[uuid.UUID]domain.Service, len(d.services)),
		employeeServices: make(map[domain.EmployeeService]struct{}, len(d.employeeServices)),
		windows:          make(map[uuid.UUID]domain.AvailabilityWindow, len(d.windows)),
		appointments:     make(map[uuid.UUID]domain.Appointment, len(d.appointments)),
	}
	for k, v := range d.users {
		out.users[k] = v
	}
	for k, v := range d.services {
		out.services[k] = v
	}
	for k := range d.employeeServices {
		out.employeeServices[k] = struct{}{}
	}
	for k, v := range d.windows {
		out.windows[k] = v
	}
	for k, v := range d.appointments {
		out.appointments[k] = v
	}
	return out
}

func (db *DB) read(fn func(d *dataset) error) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn(db.data)
}

// write applies fn to a staged copy and publishes it if fn succeeds.
func (db *DB) write(ctx context.Context, fn func(d *dataset) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	staged := db.data.clone()
	if err := fn(staged); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	db.data = staged
	return nil
}

func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
