package auth

import (
	"context"
	"errors"
	"sync"

	"autoshop/internal/domain"
	"autoshop/internal/models"

	"github.com/rs/zerolog"
)

type Status string

const (
	StatusLoading       Status = "loading"
	StatusAnonymous     Status = "anonymous"
	StatusAuthenticated Status = "authenticated"
)

// Snapshot is a consistent copy of the provider state.
type Snapshot struct {
	Status          Status           `json:"status"`
	Mode            domain.Mode      `json:"mode"`
	Identity        *models.Identity `json:"user"`
	Profile         *models.Profile  `json:"profile"`
	Role            models.Role      `json:"role"`
	IsAuthenticated bool             `json:"is_authenticated"`
}

// Provider owns the identity and profile of one client. The mutex only
// protects the fields; concurrent operations are not ordered against each
// other and the last one to finish wins.
type Provider struct {
	backend domain.IdentityBackend
	logger  *zerolog.Logger

	mu       sync.RWMutex
	identity *models.Identity
	profile  *models.Profile

	loaded      chan struct{}
	loadOnce    sync.Once
	initOnce    sync.Once
	unsubscribe func()
}

func NewProvider(backend domain.IdentityBackend, logger *zerolog.Logger) *Provider {
	return &Provider{
		backend: backend,
		logger:  logger,
		loaded:  make(chan struct{}),
	}
}

// Init restores the persisted session once. The provider leaves the loading
// state even when restoring fails; the error is returned for logging.
func (p *Provider) Init(ctx context.Context) error {
	var err error
	p.initOnce.Do(func() {
		p.unsubscribe = p.backend.OnAuthStateChange(p.onAuthChange)

		var session *models.Session
		session, err = p.backend.RestoreSession(ctx)
		if err != nil {
			p.logger.Error().Err(err).Str("mode", string(p.backend.Mode())).Msg("Failed to restore session")
		} else {
			p.apply(ctx, session)
		}
		p.loadOnce.Do(func() { close(p.loaded) })
	})
	return err
}

// Loaded is closed once Init has finished.
func (p *Provider) Loaded() <-chan struct{} {
	return p.loaded
}

func (p *Provider) isLoaded() bool {
	select {
	case <-p.loaded:
		return true
	default:
		return false
	}
}

func (p *Provider) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
}

func (p *Provider) Mode() domain.Mode {
	return p.backend.Mode()
}

func (p *Provider) Snapshot() Snapshot {
	snap := Snapshot{Mode: p.backend.Mode(), Status: StatusLoading}
	if !p.isLoaded() {
		return snap
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	snap.Status = StatusAnonymous
	if p.identity != nil {
		id := *p.identity
		snap.Identity = &id
		snap.Status = StatusAuthenticated
		snap.IsAuthenticated = true
	}
	if p.profile != nil {
		prof := *p.profile
		snap.Profile = &prof
		snap.Role = prof.Role
	}
	return snap
}

// Role is RoleNone while loading, when anonymous or without a profile.
func (p *Provider) Role() models.Role {
	return p.Snapshot().Role
}

// Require fails with ErrSessionLoading before Init completes, with
// ErrNotAuthenticated when nobody is signed in and with ErrForbidden when the
// role is below required. Customer access only needs a signed in identity; a
// missing profile withholds elevated roles, not the portal.
func (p *Provider) Require(required models.Role) (Snapshot, error) {
	snap := p.Snapshot()
	switch {
	case snap.Status == StatusLoading:
		return snap, ErrSessionLoading
	case !snap.IsAuthenticated:
		return snap, ErrNotAuthenticated
	case required == models.RoleCustomer:
		return snap, nil
	case !models.Allows(snap.Role, required):
		return snap, ErrForbidden
	}
	return snap, nil
}

func (p *Provider) SignInWithEmail(ctx context.Context, email, password string) error {
	session, err := p.backend.SignInWithEmail(ctx, email, password)
	if err != nil {
		return err
	}
	p.apply(ctx, session)
	return nil
}

// SignInWithOAuth returns the URL to send the user to. In local mode the
// sign-in completes immediately and the URL is empty.
func (p *Provider) SignInWithOAuth(ctx context.Context) (string, error) {
	start, err := p.backend.SignInWithOAuth(ctx)
	if err != nil {
		return "", err
	}
	if start.Session != nil {
		p.apply(ctx, start.Session)
	}
	return start.RedirectURL, nil
}

func (p *Provider) CompleteOAuth(ctx context.Context, code string) error {
	session, err := p.backend.CompleteOAuth(ctx, code)
	if err != nil {
		return err
	}
	p.apply(ctx, session)
	return nil
}

// SignUp reports pending=true when the account still needs confirmation;
// the provider state is then unchanged.
func (p *Provider) SignUp(ctx context.Context, email, password, fullName string) (pending bool, err error) {
	session, err := p.backend.SignUp(ctx, email, password, fullName)
	if err != nil {
		return false, err
	}
	if session == nil {
		return true, nil
	}
	p.apply(ctx, session)
	return false, nil
}

// SignOut always leaves the provider anonymous; a backend failure is still
// returned.
func (p *Provider) SignOut(ctx context.Context) error {
	err := p.backend.SignOut(ctx)
	p.clear()
	return err
}

func (p *Provider) LoginAsDemo(ctx context.Context, role models.Role) error {
	session, err := p.backend.LoginAsDemo(ctx, role)
	if err != nil {
		return err
	}
	p.apply(ctx, session)
	return nil
}

// Refresh re-validates the persisted session against the backend.
func (p *Provider) Refresh(ctx context.Context) error {
	if !p.isLoaded() {
		return ErrSessionLoading
	}
	session, err := p.backend.RestoreSession(ctx)
	if err != nil {
		return err
	}
	p.apply(ctx, session)
	return nil
}

func (p *Provider) onAuthChange(ctx context.Context, event domain.AuthChangeEvent, session *models.Session) {
	// during Init the restore result is applied directly
	if !p.isLoaded() {
		return
	}
	p.logger.Debug().Str("event", string(event)).Msg("Auth state changed")

	switch event {
	case domain.EventSignedOut:
		p.clear()
	case domain.EventSignedIn, domain.EventTokenRefreshed:
		p.apply(ctx, session)
	}
}

// apply sets the identity first and the profile second. A profile is only
// refetched when the identity changed or none is held.
func (p *Provider) apply(ctx context.Context, session *models.Session) {
	if session == nil {
		p.clear()
		return
	}

	id := session.Identity

	p.mu.Lock()
	known := p.identity != nil && p.identity.ID == id.ID && p.profile != nil
	p.identity = &id
	if session.Profile != nil {
		if session.Profile.ID == id.ID {
			prof := *session.Profile
			p.profile = &prof
		} else {
			p.logger.Warn().Str("user_id", id.ID).Str("profile_id", session.Profile.ID).Msg("Dropping profile of another identity")
			p.profile = nil
		}
		p.mu.Unlock()
		return
	}
	if !known {
		p.profile = nil
	}
	p.mu.Unlock()

	if !known {
		p.loadProfile(ctx, id.ID)
	}
}

func (p *Provider) loadProfile(ctx context.Context, userID string) {
	profile, err := p.backend.FetchProfile(ctx, userID)
	if err != nil {
		fetchErr := &ProfileFetchError{UserID: userID, Err: err}
		event := p.logger.Error()
		if errors.Is(err, ErrProfileNotFound) {
			event = p.logger.Warn()
		}
		event.Err(fetchErr).Str("user_id", userID).Msg("Profile unavailable, keeping identity")
		return
	}
	if profile == nil || profile.ID != userID {
		p.logger.Warn().Str("user_id", userID).Msg("Dropping profile of another identity")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.identity == nil || p.identity.ID != userID {
		return
	}
	p.profile = profile
}

func (p *Provider) clear() {
	p.mu.Lock()
	p.identity = nil
	p.profile = nil
	p.mu.Unlock()
}
