package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/store"
)

type AppointmentRepo struct {
	db *DB
}

func NewAppointmentRepo(db *DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

func (r *AppointmentRepo) Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	var out domain.Appointment
	err := r.db.read(func(d *dataset) error {
		a, ok := d.appointments[id]
		if !ok {
			return store.ErrNotFound
		}
		out = a
		return nil
	})
	return out, err
}

func (r *AppointmentRepo) List(ctx context.Context, q store.Query) ([]domain.Appointment, error) {
	if err := q.Filter.Validate(store.AppointmentFields...); err != nil {
		return nil, err
	}
	var out []domain.Appointment
	_ = r.db.read(func(d *dataset) error {
		for _, a := range d.appointments {
			if matches(q.Filter, appointmentFields(a)) {
				out = append(out, a)
			}
		}
		return nil
	})
	sortBy(out, q.Order, appointmentFields)
	return out, nil
}

func (r *AppointmentRepo) ListCalendar(ctx context.Context, employeeID uuid.UUID, dr domain.DateRange) ([]store.CalendarEntry, error) {
	var out []store.CalendarEntry
	_ = r.db.read(func(d *dataset) error {
		for _, a := range d.appointments {
			if a.EmployeeID != employeeID || !dr.Contains(a.Date) || a.Status.Terminal() {
				continue
			}
			client := d.users[a.ClientID]
			out = append(out, store.CalendarEntry{
				Appointment:     a,
				ServiceName:     d.services[a.ServiceID].Name,
				ClientFirstName: client.FirstName,
				ClientLastName:  client.LastName,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Appointment, out[j].Appointment
		if c := a.Date.Compare(b.Date); c != 0 {
			return c < 0
		}
		return a.StartTime < b.StartTime
	})
	return out, nil
}

func (r *AppointmentRepo) ListClientHistory(ctx context.Context, clientID uuid.UUID) ([]store.ClientEntry, error) {
	var out []store.ClientEntry
	_ = r.db.read(func(d *dataset) error {
		for _, a := range d.appointments {
			if a.ClientID != clientID || a.Status == domain.StatusCancelled {
				continue
			}
			employee := d.users[a.EmployeeID]
			out = append(out, store.ClientEntry{
				Appointment:       a,
				ServiceName:       d.services[a.ServiceID].Name,
				EmployeeFirstName: employee.FirstName,
				EmployeeLastName:  employee.LastName,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Appointment, out[j].Appointment
		if c := a.Date.Compare(b.Date); c != 0 {
			return c > 0
		}
		return a.StartTime > b.StartTime
	})
	return out, nil
}

type AvailabilityRepo struct {
	db *DB
}

func NewAvailabilityRepo(db *DB) *AvailabilityRepo {
	return &AvailabilityRepo{db: db}
}

func (r *AvailabilityRepo) Get(ctx context.Context, id uuid.UUID) (domain.AvailabilityWindow, error) {
	var out domain.AvailabilityWindow
	err := r.db.read(func(d *dataset) error {
		w, ok := d.windows[id]
		if !ok {
			return store.ErrNotFound
		}
		out = w
		return nil
	})
	return out, err
}

func (r *AvailabilityRepo) List(ctx context.Context, q store.Query) ([]domain.AvailabilityWindow, error) {
	if err := q.Filter.Validate(store.AvailabilityFields...); err != nil {
		return nil, err
	}
	var out []domain.AvailabilityWindow
	_ = r.db.read(func(d *dataset) error {
		for _, w := range d.windows {
			if matches(q.Filter, windowFields(w)) {
				out = append(out, w)
			}
		}
		return nil
	})
	sortBy(out, q.Order, windowFields)
	return out, nil
}

type ServiceRepo struct {
	db *DB
}

func NewServiceRepo(db *DB) *ServiceRepo {
	return &ServiceRepo{db: db}
}

func (r *ServiceRepo) Create(ctx context.Context, svc domain.Service) (domain.Service, error) {
	if svc.ID == uuid.Nil {
		svc.ID = newID()
	}
	err := r.db.write(ctx, func(d *dataset) error {
		if _, ok := d.services[svc.ID]; ok {
			return store.ErrConflict
		}
		d.services[svc.ID] = svc
		return nil
	})
	if err != nil {
		return domain.Service{}, err
	}
	return svc, nil
}

func (r *ServiceRepo) Get(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	var out domain.Service
	err := r.db.read(func(d *dataset) error {
		svc, ok := d.services[id]
		if !ok {
			return store.ErrNotFound
		}
		out = svc
		return nil
	})
	return out, err
}

func (r *ServiceRepo) List(ctx context.Context) ([]domain.Service, error) {
	var out []domain.Service
	_ = r.db.read(func(d *dataset) error {
		for _, svc := range d.services {
			out = append(out, svc)
		}
		return nil
	})
	sortServices(out)
	return out, nil
}

func (r *ServiceRepo) Update(ctx context.Context, svc domain.Service) (domain.Service, error) {
	err := r.db.write(ctx, func(d *dataset) error {
		if _, ok := d.services[svc.ID]; !ok {
			return store.ErrNotFound
		}
		d.services[svc.ID] = svc
		return nil
	})
	if err != nil {
		return domain.Service{}, err
	}
	return svc, nil
}

func (r *ServiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.write(ctx, func(d *dataset) error {
		if _, ok := d.services[id]; !ok {
			return store.ErrNotFound
		}
		for _, a := range d.appointments {
			if a.ServiceID == id {
				return store.ErrReferenced
			}
		}
		delete(d.services, id)
		for link := range d.employeeServices {
			if link.ServiceID == id {
				delete(d.employeeServices, link)
			}
		}
		return nil
	})
}

func (r *ServiceRepo) AssignEmployee(ctx context.Context, serviceID, employeeID uuid.UUID) error {
	return r.db.write(ctx, func(d *dataset) error {
		if _, ok := d.services[serviceID]; !ok {
			return store.ErrNotFound
		}
		if _, ok := d.users[employeeID]; !ok {
			return store.ErrNotFound
		}
		d.employeeServices[domain.EmployeeService{EmployeeID: employeeID, ServiceID: serviceID}] = struct{}{}
		return nil
	})
}

func (r *ServiceRepo) ListEmployeeServices(ctx context.Context, employeeID uuid.UUID) ([]domain.Service, error) {
	var out []domain.Service
	_ = r.db.read(func(d *dataset) error {
		for link := range d.employeeServices {
			if link.EmployeeID != employeeID {
				continue
			}
			if svc, ok := d.services[link.ServiceID]; ok {
				out = append(out, svc)
			}
		}
		return nil
	})
	sortServices(out)
	return out, nil
}

func (r *ServiceRepo) BookedEmployees(ctx context.Context, serviceID uuid.UUID) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	_ = r.db.read(func(d *dataset) error {
		for _, a := range d.appointments {
			if a.ServiceID != serviceID || a.Status.Terminal() || seen[a.EmployeeID] {
				continue
			}
			seen[a.EmployeeID] = true
			out = append(out, a.EmployeeID)
		}
		return nil
	})
	return out, nil
}

func sortServices(s []domain.Service) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Name != s[j].Name {
			return s[i].Name < s[j].Name
		}
		return s[i].ID.String() < s[j].ID.String()
	})
}

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	if u.ID == uuid.Nil {
		u.ID = newID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.db.now()
	}
	err := r.db.write(ctx, func(d *dataset) error {
		if _, ok := d.users[u.ID]; ok {
			return store.ErrConflict
		}
		email := normalizeEmail(u.Email)
		for _, existing := range d.users {
			if normalizeEmail(existing.Email) == email {
				return store.ErrConflict
			}
		}
		d.users[u.ID] = u
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *UserRepo) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	var out domain.User
	err := r.db.read(func(d *dataset) error {
		u, ok := d.users[id]
		if !ok {
			return store.ErrNotFound
		}
		out = u
		return nil
	})
	return out, err
}

func (r *UserRepo) SetRole(ctx context.Context, id uuid.UUID, role domain.Role) (domain.User, error) {
	var out domain.User
	err := r.db.write(ctx, func(d *dataset) error {
		u, ok := d.users[id]
		if !ok {
			return store.ErrNotFound
		}
		u.Role = role
		d.users[id] = u
		out = u
		return nil
	})
	return out, err
}
