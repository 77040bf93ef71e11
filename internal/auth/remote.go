package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"autoshop/internal/config"
	"autoshop/internal/domain"
	"autoshop/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// RemoteBackend talks to a hosted GoTrue/PostgREST identity service.
// Calls are made once; there are no retries.
type RemoteBackend struct {
	baseURL     string
	anonKey     string
	provider    string
	redirectURL string
	oauth       *oauth2.Config
	client      *http.Client
	store       domain.RecordStore
	sessionKey  string
	verifierKey string
	listeners   listenerSet
	logger      *zerolog.Logger
	now         func() time.Time
}

func NewRemoteBackend(cfg config.IdentityConfig, store domain.RecordStore, keyPrefix string, client *http.Client, logger *zerolog.Logger) *RemoteBackend {
	base := strings.TrimRight(cfg.URL, "/")
	return &RemoteBackend{
		baseURL:     base,
		anonKey:     cfg.AnonKey,
		provider:    cfg.OAuthProvider,
		redirectURL: cfg.RedirectURL,
		oauth: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				AuthURL:  base + "/auth/v1/authorize",
				TokenURL: base + "/auth/v1/token?grant_type=pkce",
			},
			RedirectURL: cfg.RedirectURL,
		},
		client:      client,
		store:       store,
		sessionKey:  keyPrefix + ":remote_session",
		verifierKey: keyPrefix + ":oauth_verifier",
		logger:      logger,
		now:         time.Now,
	}
}

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	User         *remoteUser `json:"user"`
}

type remoteUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// statusError is a non-2xx answer from the identity service.
type statusError struct {
	Status  int
	Code    string
	Message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("identity service returned %d: %s", e.Status, e.Message)
}

func (b *RemoteBackend) Mode() domain.Mode { return domain.ModeRemote }

func (b *RemoteBackend) RestoreSession(ctx context.Context) (*models.Session, error) {
	session, err := b.loadSession(ctx)
	if err != nil || session == nil {
		return nil, err
	}

	if session.Expired(b.now()) {
		refreshed, err := b.refresh(ctx, session.RefreshToken)
		if err != nil {
			var se *statusError
			if errors.As(err, &se) {
				b.logger.Info().Int("status", se.Status).Msg("Refresh token rejected, signing out")
				b.dropSession(ctx)
				return nil, nil
			}
			return nil, err
		}
		session = refreshed
		b.listeners.emit(ctx, domain.EventTokenRefreshed, session)
	}

	var user remoteUser
	if err := b.do(ctx, http.MethodGet, "/auth/v1/user", session.AccessToken, nil, &user); err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden) {
			b.dropSession(ctx)
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	session.Identity = models.Identity{ID: user.ID, Email: user.Email}
	return session, nil
}

func (b *RemoteBackend) SignInWithEmail(ctx context.Context, email, password string) (*models.Session, error) {
	body := map[string]string{"email": email, "password": password}
	var tr tokenResponse
	if err := b.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &tr); err != nil {
		return nil, authError("sign_in", err, ErrInvalidCredentials)
	}
	return b.storeTokens(ctx, &tr)
}

func (b *RemoteBackend) SignInWithOAuth(ctx context.Context) (*domain.OAuthStart, error) {
	verifier := oauth2.GenerateVerifier()
	if err := b.store.Set(ctx, b.verifierKey, []byte(verifier)); err != nil {
		return nil, fmt.Errorf("store oauth verifier: %w", err)
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("provider", b.provider),
	}
	if b.redirectURL != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_to", b.redirectURL))
	}
	return &domain.OAuthStart{RedirectURL: b.oauth.AuthCodeURL("", opts...)}, nil
}

func (b *RemoteBackend) CompleteOAuth(ctx context.Context, code string) (*models.Session, error) {
	verifier, err := b.store.Get(ctx, b.verifierKey)
	if err != nil {
		return nil, fmt.Errorf("read oauth verifier: %w", err)
	}
	if verifier == nil {
		return nil, &AuthError{Op: "oauth", Message: "no pending oauth sign-in", Err: ErrInvalidCredentials}
	}
	if err := b.store.Delete(ctx, b.verifierKey); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to delete oauth verifier")
	}

	body := map[string]string{"auth_code": code, "code_verifier": string(verifier)}
	var tr tokenResponse
	if err := b.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=pkce", "", body, &tr); err != nil {
		return nil, authError("oauth", err, ErrInvalidCredentials)
	}
	return b.storeTokens(ctx, &tr)
}

func (b *RemoteBackend) SignUp(ctx context.Context, email, password, fullName string) (*models.Session, error) {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": fullName},
	}

	var tr tokenResponse
	if err := b.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, &tr); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.Status < http.StatusInternalServerError && emailTaken(se) {
			return nil, &AuthError{Op: "sign_up", Message: se.Message, Err: ErrEmailTaken}
		}
		return nil, authError("sign_up", err, ErrRejected)
	}

	// without a token the account awaits email confirmation
	if tr.AccessToken == "" {
		return nil, nil
	}
	return b.storeTokens(ctx, &tr)
}

func (b *RemoteBackend) SignOut(ctx context.Context) error {
	session, err := b.loadSession(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	if err := b.do(ctx, http.MethodPost, "/auth/v1/logout", session.AccessToken, nil, nil); err != nil {
		var se *statusError
		if !errors.As(err, &se) {
			return fmt.Errorf("sign out: %w", err)
		}
		// the token is already gone on the server side
		b.logger.Debug().Int("status", se.Status).Msg("Logout rejected, clearing local session anyway")
	}

	if err := b.store.Delete(ctx, b.sessionKey); err != nil {
		return fmt.Errorf("delete remote session: %w", err)
	}
	return nil
}

func (b *RemoteBackend) LoginAsDemo(context.Context, models.Role) (*models.Session, error) {
	return nil, ErrDemoUnavailable
}

func (b *RemoteBackend) FetchProfile(ctx context.Context, id string) (*models.Profile, error) {
	token := ""
	if session, err := b.loadSession(ctx); err == nil && session != nil {
		token = session.AccessToken
	}

	path := "/rest/v1/profiles?id=eq." + url.QueryEscape(id) + "&select=*"
	var profile models.Profile
	err := b.doWith(ctx, http.MethodGet, path, token, nil, &profile, func(req *http.Request) {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	})
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.Status == http.StatusNotAcceptable || se.Status == http.StatusNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	if !profile.Role.Valid() {
		role, perr := models.ParseRole(string(profile.Role))
		if perr != nil {
			b.logger.Warn().Str("user_id", id).Str("role", string(profile.Role)).Msg("Unknown profile role")
		}
		profile.Role = role
	}
	return &profile, nil
}

func (b *RemoteBackend) OnAuthStateChange(fn domain.AuthChangeFunc) func() {
	return b.listeners.add(fn)
}

func (b *RemoteBackend) refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	if refreshToken == "" {
		return nil, &statusError{Status: http.StatusUnauthorized, Message: "no refresh token"}
	}
	var tr tokenResponse
	body := map[string]string{"refresh_token": refreshToken}
	if err := b.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", body, &tr); err != nil {
		return nil, err
	}
	return b.storeTokens(ctx, &tr)
}

func (b *RemoteBackend) dropSession(ctx context.Context) {
	if err := b.store.Delete(ctx, b.sessionKey); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to delete remote session")
	}
	b.listeners.emit(ctx, domain.EventSignedOut, nil)
}

func (b *RemoteBackend) storeTokens(ctx context.Context, tr *tokenResponse) (*models.Session, error) {
	session := &models.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    b.expiry(tr),
	}
	if tr.User != nil {
		session.Identity = models.Identity{ID: tr.User.ID, Email: tr.User.Email}
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal remote session: %w", err)
	}
	if err := b.store.Set(ctx, b.sessionKey, data); err != nil {
		return nil, fmt.Errorf("write remote session: %w", err)
	}
	return session, nil
}

func (b *RemoteBackend) loadSession(ctx context.Context) (*models.Session, error) {
	data, err := b.store.Get(ctx, b.sessionKey)
	if err != nil {
		return nil, fmt.Errorf("read remote session: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		b.logger.Warn().Err(err).Msg("Discarding unreadable remote session")
		return nil, nil
	}
	return &session, nil
}

// expiry prefers the exp claim of the access token over the response fields.
func (b *RemoteBackend) expiry(tr *tokenResponse) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tr.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	if tr.ExpiresAt > 0 {
		return time.Unix(tr.ExpiresAt, 0)
	}
	if tr.ExpiresIn > 0 {
		return b.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return time.Time{}
}

func (b *RemoteBackend) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	return b.doWith(ctx, method, path, token, body, out, nil)
}

func (b *RemoteBackend) doWith(ctx context.Context, method, path, token string, body, out interface{}, edit func(*http.Request)) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if token == "" {
		token = b.anonKey
	}
	req.Header.Set("apikey", b.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if edit != nil {
		edit(req)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		code, message := errorDetails(data)
		return &statusError{Status: resp.StatusCode, Code: code, Message: message}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorDetails pulls the machine code and the human readable text out of
// the error shapes the auth and rest endpoints use.
func errorDetails(data []byte) (code, message string) {
	var payload struct {
		ErrorCode        string `json:"error_code"`
		Code             any    `json:"code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", strings.TrimSpace(string(data))
	}
	code = payload.ErrorCode
	if c, ok := payload.Code.(string); ok && code == "" {
		code = c
	}
	for _, m := range []string{payload.Msg, payload.Message, payload.ErrorDescription, payload.Error} {
		if m != "" {
			return code, m
		}
	}
	return code, ""
}

// emailTaken recognises the duplicate account answer of the signup endpoint.
// Other 4xx answers such as weak_password share its status code.
func emailTaken(se *statusError) bool {
	switch se.Code {
	case "user_already_exists", "email_exists":
		return true
	}
	return strings.Contains(strings.ToLower(se.Message), "already registered")
}

// authError turns a rejected call into an AuthError carrying sentinel;
// anything else is reported as ErrIdentityUnavailable.
func authError(op string, err error, sentinel error) error {
	var se *statusError
	if errors.As(err, &se) && se.Status >= 400 && se.Status < 500 {
		return &AuthError{Op: op, Message: se.Message, Err: sentinel}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrIdentityUnavailable, err)
}
