package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"autoshop/internal/auth"
	"autoshop/internal/config"
	"autoshop/internal/domain"
	"autoshop/internal/metrics"
	"autoshop/internal/models"

	"github.com/rs/zerolog"
)

type clientSession struct {
	provider *auth.Provider
	lastSeen time.Time
}

// SessionRegistry holds one session provider per client. Providers idle for
// longer than maxIdle are dropped; their persisted records stay in the store
// so the next request restores them.
type SessionRegistry struct {
	identity   config.IdentityConfig
	store      domain.RecordStore
	keyPrefix  string
	profiles   []models.Profile
	httpClient *http.Client
	maxIdle    time.Duration
	logger     *zerolog.Logger

	mu      sync.Mutex
	clients map[string]*clientSession
	now     func() time.Time
}

func NewSessionRegistry(identity config.IdentityConfig, store domain.RecordStore, keyPrefix string, profiles []models.Profile, httpClient *http.Client, maxIdle time.Duration, logger *zerolog.Logger) *SessionRegistry {
	return &SessionRegistry{
		identity:   identity,
		store:      store,
		keyPrefix:  keyPrefix,
		profiles:   profiles,
		httpClient: httpClient,
		maxIdle:    maxIdle,
		logger:     logger,
		clients:    make(map[string]*clientSession),
		now:        time.Now,
	}
}

// Mode reports which identity backend new providers use.
func (s *SessionRegistry) Mode() domain.Mode {
	if s.identity.IsConfigured() {
		return domain.ModeRemote
	}
	return domain.ModeLocal
}

// Get returns the provider of clientID, creating and initializing it on first
// use.
func (s *SessionRegistry) Get(ctx context.Context, clientID string) *auth.Provider {
	s.mu.Lock()
	now := s.now()
	if cs, ok := s.clients[clientID]; ok {
		cs.lastSeen = now
		s.mu.Unlock()
		select {
		case <-cs.provider.Loaded():
		case <-ctx.Done():
		}
		return cs.provider
	}

	backend := auth.NewBackend(s.identity, auth.Deps{
		Store:      s.store,
		KeyPrefix:  s.RecordKey(clientID, ""),
		Profiles:   s.profiles,
		HTTPClient: s.httpClient,
		Logger:     s.logger,
	})
	provider := auth.NewProvider(backend, s.logger)
	s.clients[clientID] = &clientSession{provider: provider, lastSeen: now}
	s.sweepLocked(now)
	metrics.SetActiveClients(len(s.clients))
	s.mu.Unlock()

	if err := provider.Init(ctx); err != nil {
		s.logger.Warn().Err(err).Str("client_id", clientID).Msg("Session restore failed, client starts anonymous")
	}
	return provider
}

// RecordKey scopes a record name to one client. An empty name yields the
// prefix handed to the identity backend.
func (s *SessionRegistry) RecordKey(clientID, name string) string {
	key := s.keyPrefix + ":" + clientID
	if name != "" {
		key += ":" + name
	}
	return key
}

func (s *SessionRegistry) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close unsubscribes every provider.
func (s *SessionRegistry) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cs := range s.clients {
		cs.provider.Close()
		delete(s.clients, id)
	}
	metrics.SetActiveClients(0)
}

func (s *SessionRegistry) sweepLocked(now time.Time) {
	if s.maxIdle <= 0 {
		return
	}
	for id, cs := range s.clients {
		if now.Sub(cs.lastSeen) > s.maxIdle {
			cs.provider.Close()
			delete(s.clients, id)
		}
	}
}
