package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medboard/internal/activity"
	activitymemory "medboard/internal/activity/store/memory"
	adminstore "medboard/internal/admin/store"
	jwttoken "medboard/internal/jwt_token"
	dErrors "medboard/pkg/domain-errors"
)

func newService(t *testing.T) (*Service, *activitymemory.Store) {
	t.Helper()
	log := activitymemory.New()
	svc := New(
		adminstore.NewInMemory(),
		jwttoken.NewJWTService("test-signing-key", "medboard-test"),
		WithActivityRecorder(activity.NewRecorder(log, nil)),
		WithTokenTTL(time.Hour),
	)
	return svc, log
}

func TestCreate(t *testing.T) {
	t.Run("creates an account with a hashed password", func(t *testing.T) {
		svc, log := newService(t)
		admin, err := svc.Create(context.Background(), CreateRequest{
			Name:     "Lisa Cuddy",
			Email:    "cuddy@ppth.example",
			Password: "hunter2hunter2",
		})
		require.NoError(t, err)
		assert.False(t, admin.ID.IsNil())
		assert.NotEqual(t, "hunter2hunter2", admin.PasswordHash)
		assert.False(t, admin.CreatedAt.IsZero())

		entries, err := log.List(context.Background(), activity.Filter{Action: activity.ActionCreateAdmin})
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.Create(context.Background(), CreateRequest{
			Name: "Lisa Cuddy", Email: "cuddy@ppth.example", Password: "short",
		})
		assert.Equal(t, dErrors.CodeValidation, dErrors.CodeOf(err))
	})

	t.Run("duplicate email conflicts case-insensitively", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.Create(context.Background(), CreateRequest{
			Name: "Lisa Cuddy", Email: "cuddy@ppth.example", Password: "hunter2hunter2",
		})
		require.NoError(t, err)

		_, err = svc.Create(context.Background(), CreateRequest{
			Name: "Imposter", Email: "CUDDY@ppth.example", Password: "hunter2hunter2",
		})
		assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
	})
}

func TestLogin(t *testing.T) {
	seed := func(t *testing.T, svc *Service) {
		t.Helper()
		_, err := svc.Create(context.Background(), CreateRequest{
			Name: "Lisa Cuddy", Email: "cuddy@ppth.example", Password: "hunter2hunter2",
		})
		require.NoError(t, err)
	}

	t.Run("valid credentials mint a token", func(t *testing.T) {
		svc, log := newService(t)
		seed(t, svc)

		result, err := svc.Login(context.Background(), "cuddy@ppth.example", "hunter2hunter2")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, time.Hour, result.ExpiresIn)

		entries, err := log.List(context.Background(), activity.Filter{Action: activity.ActionAdminLogin})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, result.Admin.ID, entries[0].AdminID, "login audits as the authenticating admin")
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _ := newService(t)
		seed(t, svc)

		_, err := svc.Login(context.Background(), "cuddy@ppth.example", "wrong-password")
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})

	t.Run("unknown email is indistinguishable from wrong password", func(t *testing.T) {
		svc, _ := newService(t)
		seed(t, svc)

		_, errPass := svc.Login(context.Background(), "cuddy@ppth.example", "wrong-password")
		_, errEmail := svc.Login(context.Background(), "nobody@ppth.example", "wrong-password")
		assert.Equal(t, errPass.Error(), errEmail.Error())
	})
}

func TestEnsureBootstrap(t *testing.T) {
	t.Run("seeds an empty store", func(t *testing.T) {
		svc, _ := newService(t)
		require.NoError(t, svc.EnsureBootstrap(context.Background(), "root@ppth.example", "hunter2hunter2"))

		_, err := svc.Login(context.Background(), "root@ppth.example", "hunter2hunter2")
		assert.NoError(t, err)
	})

	t.Run("does not overwrite existing accounts", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.Create(context.Background(), CreateRequest{
			Name: "Lisa Cuddy", Email: "cuddy@ppth.example", Password: "hunter2hunter2",
		})
		require.NoError(t, err)

		require.NoError(t, svc.EnsureBootstrap(context.Background(), "root@ppth.example", "hunter2hunter2"))
		_, err = svc.Login(context.Background(), "root@ppth.example", "hunter2hunter2")
		assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})

	t.Run("blank credentials are a no-op", func(t *testing.T) {
		svc, _ := newService(t)
		assert.NoError(t, svc.EnsureBootstrap(context.Background(), "", ""))
	})
}
