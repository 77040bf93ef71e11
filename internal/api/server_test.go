package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"autoshop/internal/config"
	"autoshop/internal/database"
	"autoshop/internal/events"
	"autoshop/internal/export"
	"autoshop/internal/fixtures"
	"autoshop/internal/models"
	"autoshop/internal/repository"
	"autoshop/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server *httptest.Server
	http   *HTTPServer
	db     *database.DB
	bus    *events.EventBus

	mu     sync.Mutex
	events []string
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	f := fixtures.Default()
	require.NoError(t, db.Seed(context.Background(), f))

	cfg := &config.Config{
		API:      config.APIConfig{HTTP: config.APIHTTPConfig{Port: 8080}},
		Database: config.DatabaseConfig{Path: ":memory:"},
		Session:  config.SessionConfig{KeyPrefix: "test", TTL: time.Hour},
	}
	if mutate != nil {
		mutate(cfg)
	}

	env := &testEnv{db: db, bus: events.NewEventBus()}
	for _, eventType := range []string{events.EventSignedIn, events.EventSignedOut, events.EventBookingCreated, events.EventAppointmentStatusChanged} {
		env.bus.Subscribe(eventType, func(e *events.Event) error {
			env.mu.Lock()
			env.events = append(env.events, e.Type)
			env.mu.Unlock()
			return nil
		})
	}

	s := NewHTTPServer(Deps{
		Config:    cfg,
		Store:     repository.NewMemoryRecordStore(time.Hour),
		Repo:      db,
		Profiles:  f.ProfileList(),
		EventBus:  env.bus,
		Bookings:  service.NewBookingService(db, env.bus, nil, &logger),
		Agenda:    service.NewAgendaService(db, &logger),
		Catalog:   service.NewCatalogService(db, &logger),
		Clients:   service.NewClientService(db, &logger),
		Patio:     service.NewPatioService(db, &logger),
		Dashboard: service.NewDashboardService(db, &logger),
		Alerts:    service.NewAlertService(db, &logger),
		Exporter:  export.NewAgendaExporter(&logger),
		Logger:    &logger,
	})
	env.http = s
	env.server = httptest.NewServer(s.Handler())
	t.Cleanup(env.server.Close)
	t.Cleanup(s.sessions.Close)
	return env
}

func (e *testEnv) seen(eventType string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.events {
		if t == eventType {
			return true
		}
	}
	return false
}

// browser keeps the client cookie between requests.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (e *testEnv) browser(t *testing.T) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: e.server.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) do(method, path string, body any) (*http.Response, map[string]any) {
	b.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(b.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, b.base+path, reader)
	require.NoError(b.t, err)
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.Header.Get("Content-Type") == "application/json" {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp, out
}

func (b *browser) demo(role models.Role) map[string]any {
	b.t.Helper()
	resp, body := b.do(http.MethodPost, "/api/v1/auth/demo", demoRequest{Role: string(role)})
	require.Equal(b.t, http.StatusOK, resp.StatusCode, body)
	return body
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, body := env.browser(t).do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "local", body["mode"])
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
}

func TestSession_AnonymousAndDemo(t *testing.T) {
	env := newTestEnv(t, nil)
	b := env.browser(t)

	resp, body := b.do(http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session := body["session"].(map[string]any)
	assert.Equal(t, "anonymous", session["status"])
	assert.Equal(t, false, session["is_authenticated"])

	resp, body = b.do(http.MethodGet, "/api/v1/home", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Faça login para continuar", body["error"])

	body = b.demo(models.RoleManagement)
	assert.Equal(t, "/gestao", body["redirect"])
	session = body["session"].(map[string]any)
	assert.Equal(t, "management", session["role"])
	assert.True(t, env.seen(events.EventSignedIn))

	// the provider is restored from the record store for the same cookie
	_, body = b.do(http.MethodGet, "/api/v1/session", nil)
	assert.Equal(t, "authenticated", body["session"].(map[string]any)["status"])

	_, body = b.do(http.MethodGet, "/api/v1/navigation", nil)
	assert.Equal(t, true, body["can_open_admin"])

	resp, body = b.do(http.MethodPost, "/api/v1/auth/sign-out", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/login", body["redirect"])
	assert.True(t, env.seen(events.EventSignedOut))

	_, body = b.do(http.MethodGet, "/api/v1/session", nil)
	assert.Equal(t, "anonymous", body["session"].(map[string]any)["status"])
}

func TestSignIn_LocalMode(t *testing.T) {
	env := newTestEnv(t, nil)
	b := env.browser(t)

	resp, _ := b.do(http.MethodPost, "/api/v1/auth/sign-in", signInRequest{Email: "", Password: "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := b.do(http.MethodPost, "/api/v1/auth/sign-in", signInRequest{Email: "oficina@doctorauto.com.br", Password: "anything"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "admin", body["session"].(map[string]any)["role"])

	resp, _ = b.do(http.MethodPost, "/api/v1/auth/demo", map[string]string{"role": "root"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSignUp_LocalModeMirrorsProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	b := env.browser(t)

	resp, body := b.do(http.MethodPost, "/api/v1/auth/sign-up", signUpRequest{Email: "novo@email.com", Password: "secret", FullName: "Ana Lima"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	session := body["session"].(map[string]any)
	profile := session["profile"].(map[string]any)
	assert.Equal(t, "customer", session["role"])

	stored, err := env.db.GetProfile(context.Background(), profile["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", stored.FullName)
}

func TestCustomerPortal(t *testing.T) {
	env := newTestEnv(t, nil)
	b := env.browser(t)
	b.demo(models.RoleCustomer)

	resp, body := b.do(http.MethodGet, "/api/v1/home", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Olá, João", body["greeting"])
	assert.EqualValues(t, 2, body["unread_alerts"])

	resp, body = b.do(http.MethodGet, "/api/v1/agenda?status=pending", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["days"], 1)

	resp, _ = b.do(http.MethodGet, "/api/v1/agenda?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = b.do(http.MethodPost, "/api/v1/alerts/al1/read", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = b.do(http.MethodPost, "/api/v1/alerts/missing/read", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body = b.do(http.MethodGet, "/api/v1/alerts?filter=unread", nil)
	assert.EqualValues(t, 1, body["unread"])

	_, body = b.do(http.MethodGet, "/api/v1/services?category="+url.QueryEscape("Manutenção"), nil)
	assert.Len(t, body["services"], 2)

	resp, body = b.do(http.MethodGet, "/api/v1/admin/dashboard", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Acesso negado", body["error"])
}

func TestBookingWizard(t *testing.T) {
	env := newTestEnv(t, nil)
	b := env.browser(t)
	b.demo(models.RoleCustomer)

	resp, _ := b.do(http.MethodGet, "/api/v1/booking", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := b.do(http.MethodPost, "/api/v1/booking?service=s1", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "vehicle", body["step"])
	assert.Equal(t, "s1", body["draft"].(map[string]any)["service_id"])

	resp, body = b.do(http.MethodPost, "/api/v1/booking/next", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Selecione uma opção para continuar", body["error"])

	resp, body = b.do(http.MethodPost, "/api/v1/booking/vehicle", selectRequest{Value: "v3"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Veículo não encontrado", body["error"])

	resp, body = b.do(http.MethodPost, "/api/v1/booking/vehicle", selectRequest{Value: "v1"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "service", body["step"])

	resp, body = b.do(http.MethodPost, "/api/v1/booking/service", selectRequest{Value: "s1"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "datetime", body["step"])

	_, slots := b.do(http.MethodGet, "/api/v1/booking/slots", nil)
	dates := slots["dates"].([]any)
	require.NotEmpty(t, dates)

	resp, _ = b.do(http.MethodPost, "/api/v1/booking/date", selectRequest{Value: "1999-01-01"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = b.do(http.MethodPost, "/api/v1/booking/date", selectRequest{Value: dates[0].(string)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = b.do(http.MethodPost, "/api/v1/booking/time", selectRequest{Value: "09:00"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = b.do(http.MethodPost, "/api/v1/booking/notes", selectRequest{Value: "Barulho no freio"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = b.do(http.MethodPost, "/api/v1/booking/next", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "confirm", body["step"])
	assert.Equal(t, "Barulho no freio", body["draft"].(map[string]any)["notes"])

	resp, body = b.do(http.MethodPost, "/api/v1/booking/confirm", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "/agendamento-sucesso", body["redirect"])
	appointment := body["appointment"].(map[string]any)
	assert.Equal(t, "pending", appointment["status"])
	assert.Equal(t, dates[0], appointment["scheduled_date"])
	assert.True(t, env.seen(events.EventBookingCreated))

	stored, err := env.db.GetAppointment(context.Background(), appointment["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "v1", stored.VehicleID)

	// the draft is gone after a successful confirmation
	resp, _ = b.do(http.MethodGet, "/api/v1/booking", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBookingDraft_NotSharedBetweenUsers(t *testing.T) {
	env := newTestEnv(t, nil)
	b := env.browser(t)
	b.demo(models.RoleCustomer)

	resp, _ := b.do(http.MethodPost, "/api/v1/booking", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	b.do(http.MethodPost, "/api/v1/auth/sign-out", nil)
	resp, _ = b.do(http.MethodPost, "/api/v1/auth/sign-in", signInRequest{Email: "maria.santos@email.com", Password: "x"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = b.do(http.MethodGet, "/api/v1/booking", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	b := env.browser(t)
	b.demo(models.RoleManagement)

	resp, body := b.do(http.MethodGet, "/api/v1/admin/patio", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["columns"], 4)

	_, body = b.do(http.MethodGet, "/api/v1/admin/clients?search=maria", nil)
	assert.Len(t, body["clients"], 1)

	_, body = b.do(http.MethodGet, "/api/v1/admin/services", nil)
	assert.Len(t, body["services"], 6)

	_, body = b.do(http.MethodGet, "/api/v1/admin/agenda", nil)
	assert.Len(t, body["days"], 3)

	resp, _ = b.do(http.MethodGet, "/api/v1/admin/dashboard", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = b.do(http.MethodGet, "/api/v1/admin/agenda/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "agenda_")

	resp, body = b.do(http.MethodPost, "/api/v1/admin/appointments/a2/status", statusRequest{Status: "confirmed"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "confirmed", body["appointment"].(map[string]any)["status"])
	assert.True(t, env.seen(events.EventAppointmentStatusChanged))

	resp, _ = b.do(http.MethodPost, "/api/v1/admin/appointments/a2/status", statusRequest{Status: "done"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = b.do(http.MethodPost, "/api/v1/admin/appointments/zzz/status", statusRequest{Status: "confirmed"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.API.RateLimit = config.APIRateLimitConfig{RPS: 0.001, Burst: 2}
	})
	b := env.browser(t)

	for i := 0; i < 2; i++ {
		resp, _ := b.do(http.MethodGet, "/api/v1/session", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i)
	}
	resp, body := b.do(http.MethodGet, "/api/v1/session", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	// a fresh cookie from the same address shares the bucket
	resp, _ = env.browser(t).do(http.MethodGet, "/api/v1/session", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

// cookieless sends every request without the client cookie, so each one is
// handed a new client id.
func cookieless(t *testing.T, env *testEnv, method, path string, body any) int {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(method, env.server.URL+path, bytes.NewReader(raw))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestRateLimit_CookielessClients(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.API.RateLimit = config.APIRateLimitConfig{RPS: 0.001, Burst: 2}
	})

	limited := 0
	for i := 0; i < 50; i++ {
		status := cookieless(t, env, http.MethodPost, "/api/v1/auth/sign-in", signInRequest{Email: fmt.Sprintf("u%d@x.com", i), Password: "x"})
		if status == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Equal(t, 48, limited)
	assert.Equal(t, 1, env.http.limiter.size())
}

func TestAuthAttempts(t *testing.T) {
	env := newTestEnv(t, nil)
	b := env.browser(t)

	for i := 0; i < models.AuthRateLimitAttempts; i++ {
		resp, _ := b.do(http.MethodPost, "/api/v1/auth/sign-in", signInRequest{Email: fmt.Sprintf("u%d@x.com", i), Password: "x"})
		require.Equal(t, http.StatusOK, resp.StatusCode, "attempt %d", i)
	}
	resp, _ := b.do(http.MethodPost, "/api/v1/auth/sign-in", signInRequest{Email: "late@x.com", Password: "x"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestAuthAttempts_CookielessClients(t *testing.T) {
	env := newTestEnv(t, nil)

	for i := 0; i < models.AuthRateLimitAttempts; i++ {
		status := cookieless(t, env, http.MethodPost, "/api/v1/auth/sign-in", signInRequest{Email: fmt.Sprintf("u%d@x.com", i), Password: "x"})
		require.Equal(t, http.StatusOK, status, "attempt %d", i)
	}
	status := cookieless(t, env, http.MethodPost, "/api/v1/auth/sign-in", signInRequest{Email: "late@x.com", Password: "x"})
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestRateLimiter_DropsIdleBuckets(t *testing.T) {
	l := newRateLimiter(config.APIRateLimitConfig{RPS: 1, Burst: 2})
	now := time.Now()
	l.now = func() time.Time { return now }

	for i := 0; i < 20; i++ {
		l.getLimiter(fmt.Sprintf("10.0.0.%d", i))
	}
	assert.Equal(t, 20, l.size())

	now = now.Add(limiterIdle + time.Second)
	lim := l.getLimiter("10.0.1.1")
	assert.True(t, lim.Allow())
	assert.Equal(t, 1, l.size())
}

func TestRateLimiter_KeepsBucketsUntilRefilled(t *testing.T) {
	l := newRateLimiter(config.APIRateLimitConfig{RPS: 0.001, Burst: 2})
	assert.Greater(t, l.idle, limiterIdle)

	now := time.Now()
	l.now = func() time.Time { return now }
	lim := l.getLimiter("10.0.0.1")
	require.True(t, lim.AllowN(now, 2))

	now = now.Add(limiterIdle + time.Second)
	l.lastSweep = time.Time{}
	l.getLimiter("10.0.0.2")
	assert.Same(t, lim, l.getLimiter("10.0.0.1"))
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := env.browser(t).do(http.MethodPost, "/api/v1/auth/demo", map[string]string{"role": "customer", "extra": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
