package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Role int16

const (
	RoleClient   Role = 0
	RoleEmployee Role = 1
	RoleAdmin    Role = 2
)

func (r Role) Valid() bool {
	return r >= RoleClient && r <= RoleAdmin
}

func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleEmployee:
		return "employee"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("role(%d)", int16(r))
	}
}

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "client", "0":
		return RoleClient, nil
	case "employee", "1":
		return RoleEmployee, nil
	case "admin", "2":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("invalid role %q", s)
	}
}

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	FirstName string    `bun:"first_name,notnull"`
	LastName  string    `bun:"last_name,notnull"`
	Email     string    `bun:"email,notnull"`
	Role      Role      `bun:"role,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if u.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			u.ID = id
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = time.Now().UTC()
		}
	}
	return nil
}

// Actor is the authenticated user behind a request.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// ActsFor reports whether the actor may manage resources owned by userID.
func (a Actor) ActsFor(userID uuid.UUID) bool {
	return a.IsAdmin() || a.UserID == userID
}
