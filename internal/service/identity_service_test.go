package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/ordering-platform/internal/config"
	"github.com/Leganyst/ordering-platform/internal/model"
	"github.com/Leganyst/ordering-platform/internal/ordering"
	"github.com/Leganyst/ordering-platform/internal/repository"
)

func newIdentity(t *testing.T) *IdentityService {
	t.Helper()
	gdb := newTestDB(t)
	seedCatalog(t, gdb)
	return NewIdentityService(repository.NewGormUserRepository(gdb), testAuth)
}

func TestIdentityService_LoginAndRefresh(t *testing.T) {
	svc := newIdentity(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "cook", "password1")
	require.NoError(t, err)

	id, err := svc.Identity(pair.Token)
	require.NoError(t, err)
	assert.Equal(t, asCook, id)

	_, err = svc.Identity(pair.RefreshToken)
	assert.Equal(t, ordering.KindUnauthorized, ordering.KindOf(err), "refresh token is not an access token")

	access, err := svc.Refresh(ctx, pair.RefreshToken, "password1")
	require.NoError(t, err)
	_, err = svc.Identity(access)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.RefreshToken, "wrong-password")
	assert.Equal(t, ordering.KindUnauthorized, ordering.KindOf(err))

	_, err = svc.Refresh(ctx, pair.Token, "password1")
	assert.Equal(t, ordering.KindUnauthorized, ordering.KindOf(err))
}

func TestIdentityService_LoginFailures(t *testing.T) {
	svc := newIdentity(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "cook", "nope")
	assert.Equal(t, ordering.KindUnauthorized, ordering.KindOf(err))

	_, err = svc.Login(ctx, "ghost", "password1")
	assert.Equal(t, ordering.KindUnauthorized, ordering.KindOf(err))
}

func TestIdentityService_TokenExpiry(t *testing.T) {
	svc := newIdentity(t)
	ctx := context.Background()

	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	pair, err := svc.Login(ctx, "cook", "password1")
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(16 * time.Minute) }
	_, err = svc.Identity(pair.Token)
	assert.Equal(t, ordering.KindUnauthorized, ordering.KindOf(err), "access token lives 15 minutes")

	_, err = svc.Refresh(ctx, pair.RefreshToken, "password1")
	assert.NoError(t, err, "refresh token still valid")

	other := NewIdentityService(nil, config.AuthConfig{JWTSecret: "another-secret"})
	other.now = svc.now
	_, err = other.Identity(pair.Token)
	assert.Equal(t, ordering.KindUnauthorized, ordering.KindOf(err))
}

func TestIdentityService_Register(t *testing.T) {
	svc := newIdentity(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: "giulia", Password: "secret-pass", Role: "punto giovani"})
	require.NoError(t, err)
	assert.NotEqual(t, "secret-pass", u.Password)

	_, err = svc.Login(ctx, "giulia", "secret-pass")
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "giulia", Password: "secret-pass", Role: "bar"})
	assert.Equal(t, ordering.KindConflict, ordering.KindOf(err))

	_, err = svc.Register(ctx, RegisterInput{Username: "paolo", Password: "secret-pass", Role: config.AdminRole})
	assert.Equal(t, ordering.KindMalformedRequest, ordering.KindOf(err))

	_, err = svc.Register(ctx, RegisterInput{Username: "pa", Password: "secret-pass", Role: "bar"})
	assert.Equal(t, ordering.KindMalformedRequest, ordering.KindOf(err))
}

func TestIdentityService_Users(t *testing.T) {
	svc := newIdentity(t)
	ctx := context.Background()

	list, err := svc.ListUsers(ctx, asAdmin, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)
	assert.Equal(t, "barman", list.Items[0].Username)

	_, err = svc.GetUser(ctx, asCook, "barman")
	assert.Equal(t, ordering.KindForbidden, ordering.KindOf(err))
	u, err := svc.GetUser(ctx, asCook, "cook")
	require.NoError(t, err)
	assert.Equal(t, "sagra", u.Role)
	_, err = svc.GetUser(ctx, asAdmin, "ghost")
	assert.Equal(t, ordering.KindNotFound, ordering.KindOf(err))

	require.NoError(t, svc.ChangePassword(ctx, asCook, "brand-new-pass"))
	_, err = svc.Login(ctx, "cook", "brand-new-pass")
	require.NoError(t, err)
	assert.Equal(t, ordering.KindMalformedRequest, ordering.KindOf(svc.ChangePassword(ctx, asCook, "short")))

	assert.Equal(t, ordering.KindForbidden, ordering.KindOf(svc.DeleteUser(ctx, "admin")))
	require.NoError(t, svc.DeleteUser(ctx, "barman"))
	assert.Equal(t, ordering.KindNotFound, ordering.KindOf(svc.DeleteUser(ctx, "barman")))
}

func TestIdentityService_DeleteUserWithOrders(t *testing.T) {
	gdb := newTestDB(t)
	seedCatalog(t, gdb)
	svc := NewIdentityService(repository.NewGormUserRepository(gdb), testAuth)
	ctx := context.Background()

	_, err := NewOrderService(gdb).CreateOrder(ctx, asCook, &ordering.OrderRequest{
		Info: orderInfo(), Products: []ordering.ProductSelection{{ID: 3, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, ordering.KindConflict, ordering.KindOf(svc.DeleteUser(ctx, "cook")))
}

func TestIdentityService_SeedAdmin(t *testing.T) {
	gdb := newTestDB(t)
	users := repository.NewGormUserRepository(gdb)
	svc := NewIdentityService(users, testAuth)
	ctx := context.Background()

	password, created, err := svc.SeedAdmin(ctx)
	require.NoError(t, err)
	require.True(t, created)
	assert.Len(t, password, 8)

	pair, err := svc.Login(ctx, "admin", password)
	require.NoError(t, err)
	id, err := svc.Identity(pair.Token)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())

	_, created, err = svc.SeedAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(1), countRows(t, gdb, &model.User{}))
}
