package auth

import (
	"net/http"
	"time"

	"autoshop/internal/config"
	"autoshop/internal/domain"
	"autoshop/internal/models"

	"github.com/rs/zerolog"
)

// Deps are the collaborators shared by both backends. KeyPrefix scopes the
// persisted records to one client.
type Deps struct {
	Store      domain.RecordStore
	KeyPrefix  string
	Profiles   []models.Profile
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// NewBackend picks the remote backend when the identity service is
// configured and the local one otherwise.
func NewBackend(cfg config.IdentityConfig, deps Deps) domain.IdentityBackend {
	if cfg.IsConfigured() {
		client := deps.HTTPClient
		if client == nil {
			timeout := cfg.Timeout
			if timeout <= 0 {
				timeout = 15 * time.Second
			}
			client = &http.Client{Timeout: timeout}
		}
		return NewRemoteBackend(cfg, deps.Store, deps.KeyPrefix, client, deps.Logger)
	}
	return NewLocalBackend(deps.Store, deps.KeyPrefix, deps.Profiles, deps.Logger)
}
