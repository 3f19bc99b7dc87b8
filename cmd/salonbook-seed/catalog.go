package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service/catalog"
	"salonbook/backend/internal/service/users"
	"salonbook/backend/internal/store"
)

type seedFile struct {
	Users    []seedUser    `yaml:"users"`
	Services []seedService `yaml:"services"`
}

type seedUser struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Role      string `yaml:"role"`
}

type seedService struct {
	Name        string   `yaml:"name"`
	Duration    int      `yaml:"duration"`
	Price       int64    `yaml:"price"`
	Description string   `yaml:"description"`
	Employees   []string `yaml:"employees"`
}

func parseSeed(r io.Reader) (seedFile, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return seedFile{}, fmt.Errorf("decode seed file: %w", err)
	}

	emails := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			return seedFile{}, fmt.Errorf("users[%d]: email is required", i)
		}
		if strings.TrimSpace(u.FirstName) == "" {
			return seedFile{}, fmt.Errorf("users[%d]: first_name is required", i)
		}
		if _, err := domain.ParseRole(orDefault(u.Role, "client")); err != nil {
			return seedFile{}, fmt.Errorf("users[%d]: %w", i, err)
		}
		emails[email] = true
	}
	for i, s := range f.Services {
		if err := catalog.Validate(catalog.Input{Name: s.Name, DurationMinutes: s.Duration, Price: s.Price}); err != nil {
			return seedFile{}, fmt.Errorf("services[%d]: %w", i, err)
		}
		for _, e := range s.Employees {
			if !emails[strings.ToLower(strings.TrimSpace(e))] {
				return seedFile{}, fmt.Errorf("services[%d]: employee %q is not listed under users", i, e)
			}
		}
	}
	return f, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// Seeded rows get name-derived IDs so that running the seed twice
// converges on the same data.
func userID(email string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("salonbook:seed:user:"+strings.ToLower(strings.TrimSpace(email))))
}

func serviceID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("salonbook:seed:service:"+strings.ToLower(strings.TrimSpace(name))))
}

type seedResult struct {
	Users    []domain.User
	Services int
}

func applySeed(ctx context.Context, log *slog.Logger, f seedFile, userRepo store.UserRepository, services store.ServiceRepository) (seedResult, error) {
	var res seedResult
	accounts := users.NewService(userRepo)
	for _, su := range f.Users {
		role, _ := domain.ParseRole(orDefault(su.Role, "client"))
		u := users.RegisterInput{
			ID:        userID(su.Email),
			FirstName: su.FirstName,
			LastName:  su.LastName,
			Email:     su.Email,
			Role:      role,
		}
		created, err := accounts.Register(ctx, u)
		switch {
		case errors.Is(err, store.ErrConflict):
			log.Info("user exists", slog.String("email", u.Email))
			if created, err = accounts.Get(ctx, u.ID); err != nil {
				return res, fmt.Errorf("load user %s: %w", u.Email, err)
			}
		case err != nil:
			return res, fmt.Errorf("create user %s: %w", u.Email, err)
		default:
			log.Info("user created", slog.String("email", u.Email), slog.String("role", role.String()))
		}
		res.Users = append(res.Users, created)
	}

	for _, ss := range f.Services {
		svc := domain.Service{
			ID:              serviceID(ss.Name),
			Name:            strings.TrimSpace(ss.Name),
			DurationMinutes: ss.Duration,
			Description:     strings.TrimSpace(ss.Description),
			Price:           ss.Price,
		}
		if _, err := services.Create(ctx, svc); err != nil {
			if !errors.Is(err, store.ErrConflict) {
				return res, fmt.Errorf("create service %s: %w", svc.Name, err)
			}
			log.Info("service exists", slog.String("name", svc.Name))
		} else {
			res.Services++
		}
		for _, email := range ss.Employees {
			if err := services.AssignEmployee(ctx, svc.ID, userID(email)); err != nil {
				return res, fmt.Errorf("assign %s to %s: %w", email, svc.Name, err)
			}
		}
	}
	return res, nil
}
