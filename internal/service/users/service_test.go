package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/service"
	"salonbook/backend/internal/store/memory"
)

func TestSetRole(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewUserRepo(memory.New()))

	u, err := svc.Register(ctx, RegisterInput{FirstName: "Cleo", Email: "cleo@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, u.Role)

	_, err = svc.SetRole(ctx, domain.Actor{UserID: u.ID, Role: domain.RoleClient}, u.ID, domain.RoleEmployee)
	assert.ErrorIs(t, err, service.ErrForbidden)

	admin := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin}
	promoted, err := svc.SetRole(ctx, admin, u.ID, domain.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, promoted.Role)

	_, err = svc.SetRole(ctx, admin, u.ID, domain.Role(7))
	assert.Equal(t, service.KindValidation, service.KindOf(err))

	_, err = svc.SetRole(ctx, admin, uuid.New(), domain.RoleAdmin)
	assert.Equal(t, service.KindNotFound, service.KindOf(err))

	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, got.Role)
}

func TestRegister_Validation(t *testing.T) {
	svc := NewService(memory.NewUserRepo(memory.New()))
	_, err := svc.Register(context.Background(), RegisterInput{FirstName: "Cleo", Email: "nope"})
	assert.Equal(t, service.KindValidation, service.KindOf(err))
	_, err = svc.Register(context.Background(), RegisterInput{Email: "a@b.c"})
	assert.Equal(t, service.KindValidation, service.KindOf(err))
}
