// Package auth issues and verifies the bearer tokens that identify the
// actor behind a request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/store"
)

var ErrUnauthenticated = errors.New("unauthenticated")

type Claims struct {
	Role domain.Role `json:"role"`
	jwt.StandardClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (i *Issuer) Issue(u domain.User) (string, error) {
	now := i.now()
	claims := Claims{
		Role: u.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   u.ID.String(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(i.ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Parse verifies the signature and expiry and returns the claimed actor.
func (i *Issuer) Parse(raw string) (domain.Actor, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Actor{}, ErrUnauthenticated
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Actor{}, ErrUnauthenticated
	}
	return domain.Actor{UserID: id, Role: claims.Role}, nil
}

// Authenticator resolves a token to an actor whose role is read from the
// user store, so a demotion takes effect before the token expires.
type Authenticator struct {
	issuer *Issuer
	users  store.UserRepository
}

func NewAuthenticator(issuer *Issuer, users store.UserRepository) *Authenticator {
	return &Authenticator{issuer: issuer, users: users}
}

func (a *Authenticator) Authenticate(ctx context.Context, raw string) (domain.Actor, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Actor{}, ErrUnauthenticated
	}
	actor, err := a.issuer.Parse(raw)
	if err != nil {
		return domain.Actor{}, err
	}
	u, err := a.users.Get(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Actor{}, ErrUnauthenticated
		}
		return domain.Actor{}, err
	}
	return domain.Actor{UserID: u.ID, Role: u.Role}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

type actorKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}
