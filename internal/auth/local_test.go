package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"autoshop/internal/config"
	"autoshop/internal/domain"
	"autoshop/internal/fixtures"
	"autoshop/internal/models"
	"autoshop/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T, profiles []models.Profile) (*LocalBackend, *repository.MemoryRecordStore) {
	t.Helper()
	logger := zerolog.Nop()
	store := repository.NewMemoryRecordStore(0)
	return NewLocalBackend(store, "test:client", profiles, &logger), store
}

func TestNewBackendSelectsMode(t *testing.T) {
	logger := zerolog.Nop()
	deps := Deps{Store: repository.NewMemoryRecordStore(0), KeyPrefix: "p", Logger: &logger}

	tests := []struct {
		name string
		cfg  config.IdentityConfig
		want domain.Mode
	}{
		{"Empty", config.IdentityConfig{}, domain.ModeLocal},
		{"MissingKey", config.IdentityConfig{URL: "https://abc.example.co"}, domain.ModeLocal},
		{"Placeholder", config.IdentityConfig{URL: "https://placeholder.example.co", AnonKey: "k"}, domain.ModeLocal},
		{"Template", config.IdentityConfig{URL: "https://abc.example.co", AnonKey: "YOUR_ANON_KEY"}, domain.ModeLocal},
		{"Configured", config.IdentityConfig{URL: "https://abc.example.co", AnonKey: "eyJhbGciOi"}, domain.ModeRemote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewBackend(tt.cfg, deps).Mode())
		})
	}
}

func TestLocalRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	b, store := newLocal(t, fixtures.Default().Profiles)

	phone := "11999990000"
	stored := models.Profile{
		ID:        "42",
		Email:     "ana@example.com",
		FullName:  "Ana Lima",
		Phone:     &phone,
		Role:      models.RoleAdmin,
		CreatedAt: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 5, 2, 12, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "test:client:mock_user", data))

	session, err := b.RestoreSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, stored, *session.Profile)
	assert.Equal(t, models.Identity{ID: "42", Email: "ana@example.com"}, session.Identity)

	again, err := json.Marshal(session.Profile)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestLocalRestoreEmptyAndCorrupt(t *testing.T) {
	ctx := context.Background()
	b, store := newLocal(t, nil)

	session, err := b.RestoreSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)

	require.NoError(t, store.Set(ctx, "test:client:mock_user", []byte("{not json")))
	session, err = b.RestoreSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)

	raw, _ := store.Get(ctx, "test:client:mock_user")
	assert.Nil(t, raw)
}

func TestLocalSignOutClearsRecord(t *testing.T) {
	ctx := context.Background()
	b, store := newLocal(t, fixtures.Default().Profiles)

	_, err := b.LoginAsDemo(ctx, models.RoleCustomer)
	require.NoError(t, err)

	require.NoError(t, b.SignOut(ctx))
	require.NoError(t, b.SignOut(ctx))

	raw, err := store.Get(ctx, "test:client:mock_user")
	require.NoError(t, err)
	assert.Nil(t, raw)

	session, err := b.RestoreSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestLocalSignInWithEmail(t *testing.T) {
	ctx := context.Background()
	b, _ := newLocal(t, fixtures.Default().Profiles)

	t.Run("KnownEmail", func(t *testing.T) {
		session, err := b.SignInWithEmail(ctx, "Oficina@DoctorAuto.com.br", "whatever")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, session.Profile.Role)
		assert.Equal(t, "4", session.Identity.ID)
	})

	t.Run("UnknownEmailIsDemoCustomer", func(t *testing.T) {
		session, err := b.SignInWithEmail(ctx, "demo@nonexistent.test", "x")
		require.NoError(t, err)
		require.NotNil(t, session.Profile)
		assert.Equal(t, models.RoleCustomer, session.Profile.Role)
		assert.NotEmpty(t, session.Identity.ID)
	})
}

func TestLocalLoginAsDemo(t *testing.T) {
	ctx := context.Background()

	t.Run("MatchingRole", func(t *testing.T) {
		b, _ := newLocal(t, fixtures.Default().Profiles)
		session, err := b.LoginAsDemo(ctx, models.RoleManagement)
		require.NoError(t, err)
		assert.Equal(t, models.RoleManagement, session.Profile.Role)
	})

	t.Run("FallsBackToFirstProfile", func(t *testing.T) {
		profiles := []models.Profile{{ID: "9", Email: "c@x.com", Role: models.RoleCustomer}}
		b, _ := newLocal(t, profiles)
		session, err := b.LoginAsDemo(ctx, models.RoleManagement)
		require.NoError(t, err)
		assert.Equal(t, "9", session.Profile.ID)
	})

	t.Run("NoFixtures", func(t *testing.T) {
		b, _ := newLocal(t, nil)
		session, err := b.LoginAsDemo(ctx, models.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, models.RoleCustomer, session.Profile.Role)
	})
}

func TestLocalSignUp(t *testing.T) {
	ctx := context.Background()
	b, _ := newLocal(t, fixtures.Default().Profiles)
	b.now = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }

	session, err := b.SignUp(ctx, "nova@example.com", "secret", "Nova Cliente")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, models.RoleCustomer, session.Profile.Role)
	assert.Equal(t, "Nova Cliente", session.Profile.FullName)
	assert.Equal(t, b.now(), session.Profile.CreatedAt)
	assert.Len(t, session.Profile.ID, 36)

	profile, err := b.FetchProfile(ctx, session.Profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "nova@example.com", profile.Email)

	_, err = b.FetchProfile(ctx, "missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestLocalOAuthIsDemoCustomer(t *testing.T) {
	b, _ := newLocal(t, fixtures.Default().Profiles)
	start, err := b.SignInWithOAuth(context.Background())
	require.NoError(t, err)
	assert.Empty(t, start.RedirectURL)
	require.NotNil(t, start.Session)
	assert.Equal(t, models.RoleCustomer, start.Session.Profile.Role)
}
