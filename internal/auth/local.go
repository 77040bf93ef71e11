package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"autoshop/internal/domain"
	"autoshop/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LocalBackend signs users in against the fixture profiles and keeps the
// active profile in the record store. Passwords are not checked.
type LocalBackend struct {
	store    domain.RecordStore
	key      string
	profiles []models.Profile
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewLocalBackend(store domain.RecordStore, keyPrefix string, profiles []models.Profile, logger *zerolog.Logger) *LocalBackend {
	return &LocalBackend{
		store:    store,
		key:      keyPrefix + ":mock_user",
		profiles: profiles,
		logger:   logger,
		now:      time.Now,
	}
}

func (b *LocalBackend) Mode() domain.Mode { return domain.ModeLocal }

func (b *LocalBackend) RestoreSession(ctx context.Context) (*models.Session, error) {
	data, err := b.store.Get(ctx, b.key)
	if err != nil {
		return nil, fmt.Errorf("read local session: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var profile models.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		// испорченная запись равносильна отсутствию сессии
		b.logger.Warn().Err(err).Msg("Discarding unreadable local session")
		if delErr := b.store.Delete(ctx, b.key); delErr != nil {
			b.logger.Warn().Err(delErr).Msg("Failed to delete unreadable local session")
		}
		return nil, nil
	}
	return sessionFor(&profile), nil
}

func (b *LocalBackend) SignInWithEmail(ctx context.Context, email, _ string) (*models.Session, error) {
	for i := range b.profiles {
		if strings.EqualFold(b.profiles[i].Email, strings.TrimSpace(email)) {
			p := b.profiles[i]
			return b.persist(ctx, &p)
		}
	}
	// unknown emails sign in as the demo customer
	b.logger.Debug().Str("email", email).Msg("No fixture profile for email, using demo customer")
	return b.LoginAsDemo(ctx, models.RoleCustomer)
}

func (b *LocalBackend) SignInWithOAuth(ctx context.Context) (*domain.OAuthStart, error) {
	session, err := b.LoginAsDemo(ctx, models.RoleCustomer)
	if err != nil {
		return nil, err
	}
	return &domain.OAuthStart{Session: session}, nil
}

func (b *LocalBackend) CompleteOAuth(ctx context.Context, _ string) (*models.Session, error) {
	return b.LoginAsDemo(ctx, models.RoleCustomer)
}

func (b *LocalBackend) SignUp(ctx context.Context, email, _ string, fullName string) (*models.Session, error) {
	now := b.now().UTC()
	profile := &models.Profile{
		ID:        uuid.NewString(),
		Email:     strings.TrimSpace(email),
		FullName:  strings.TrimSpace(fullName),
		Role:      models.RoleCustomer,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return b.persist(ctx, profile)
}

func (b *LocalBackend) SignOut(ctx context.Context) error {
	if err := b.store.Delete(ctx, b.key); err != nil {
		return fmt.Errorf("delete local session: %w", err)
	}
	return nil
}

func (b *LocalBackend) LoginAsDemo(ctx context.Context, role models.Role) (*models.Session, error) {
	return b.persist(ctx, b.demoProfile(role))
}

func (b *LocalBackend) demoProfile(role models.Role) *models.Profile {
	for i := range b.profiles {
		if b.profiles[i].Role == role {
			p := b.profiles[i]
			return &p
		}
	}
	if len(b.profiles) > 0 {
		p := b.profiles[0]
		return &p
	}
	now := b.now().UTC()
	return &models.Profile{
		ID:        "demo-customer",
		Email:     "cliente@demo.local",
		FullName:  "Cliente Demo",
		Role:      models.RoleCustomer,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (b *LocalBackend) FetchProfile(ctx context.Context, id string) (*models.Profile, error) {
	for i := range b.profiles {
		if b.profiles[i].ID == id {
			p := b.profiles[i]
			return &p, nil
		}
	}

	// profiles created by SignUp only exist in the persisted record
	session, err := b.RestoreSession(ctx)
	if err != nil {
		return nil, err
	}
	if session != nil && session.Profile != nil && session.Profile.ID == id {
		return session.Profile, nil
	}
	return nil, ErrProfileNotFound
}

// OnAuthStateChange never fires in local mode: every change is the direct
// result of a call on this backend.
func (b *LocalBackend) OnAuthStateChange(domain.AuthChangeFunc) func() {
	return func() {}
}

func (b *LocalBackend) persist(ctx context.Context, profile *models.Profile) (*models.Session, error) {
	data, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("marshal local session: %w", err)
	}
	if err := b.store.Set(ctx, b.key, data); err != nil {
		return nil, fmt.Errorf("write local session: %w", err)
	}
	return sessionFor(profile), nil
}

func sessionFor(profile *models.Profile) *models.Session {
	return &models.Session{
		Identity: profile.Identity(),
		Profile:  profile,
	}
}
