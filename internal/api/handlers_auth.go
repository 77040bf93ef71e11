package api

import (
	"net/http"
	"strings"

	"autoshop/internal/auth"
	"autoshop/internal/events"
	"autoshop/internal/logging"
	"autoshop/internal/metrics"
	"autoshop/internal/models"
	"autoshop/internal/navigation"
)

type sessionResponse struct {
	Session  auth.Snapshot `json:"session"`
	Redirect string        `json:"redirect,omitempty"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type demoRequest struct {
	Role string `json:"role"`
}

// handleSession retries the profile fetch for a signed in identity that has
// none, so a transient failure at sign in does not stick.
func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	p := s.provider(r)
	if snap := p.Snapshot(); snap.Identity != nil && snap.Profile == nil {
		if err := p.Refresh(r.Context()); err != nil {
			logging.FromContext(r.Context(), s.logger).Warn().Err(err).Msg("session refresh failed")
		}
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: p.Snapshot()})
}

func (s *HTTPServer) handleNavigation(w http.ResponseWriter, r *http.Request) {
	snap := s.provider(r).Snapshot()
	// a signed in identity without a profile still gets the customer pages
	portalRole := snap.Role
	if snap.IsAuthenticated && portalRole == models.RoleNone {
		portalRole = models.RoleCustomer
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"role":           snap.Role,
		"bottom_nav":     navigation.BottomNav(portalRole),
		"admin_sections": navigation.AdminSections(snap.Role),
		"can_open_admin": navigation.CanOpenAdmin(snap.Role),
	})
}

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email e senha são obrigatórios")
		return
	}

	p := s.provider(r)
	err := p.SignInWithEmail(r.Context(), req.Email, req.Password)
	metrics.IncAuth(string(p.Mode()), "sign_in", err)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	snap := s.signedIn(r, p, "email")
	writeJSON(w, http.StatusOK, sessionResponse{Session: snap, Redirect: navigation.RouteHome})
}

func (s *HTTPServer) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		writeError(w, http.StatusBadRequest, "Nome, email e senha são obrigatórios")
		return
	}

	p := s.provider(r)
	pending, err := p.SignUp(r.Context(), req.Email, req.Password, req.FullName)
	metrics.IncAuth(string(p.Mode()), "sign_up", err)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if pending {
		writeJSON(w, http.StatusAccepted, map[string]any{
			"pending": true,
			"message": "Verifique seu email para confirmar o cadastro",
		})
		return
	}

	snap := s.signedIn(r, p, "sign_up")
	writeJSON(w, http.StatusCreated, sessionResponse{Session: snap, Redirect: navigation.RouteHome})
}

func (s *HTTPServer) handleSignOut(w http.ResponseWriter, r *http.Request) {
	p := s.provider(r)
	before := p.Snapshot()

	err := p.SignOut(r.Context())
	metrics.IncAuth(string(p.Mode()), "sign_out", err)
	if err != nil {
		logging.FromContext(r.Context(), s.logger).Warn().Err(err).Msg("sign out reported an error, session cleared anyway")
	}

	clientID := clientIDFromContext(r.Context())
	if err := s.Store.Delete(r.Context(), s.draftKey(clientID)); err != nil {
		logging.FromContext(r.Context(), s.logger).Warn().Err(err).Msg("failed to drop booking draft")
	}

	payload := events.SessionEventPayload{ClientID: clientID, Mode: string(p.Mode())}
	if before.Identity != nil {
		payload.UserID = before.Identity.ID
		payload.Email = before.Identity.Email
	}
	s.publish(r, events.EventSignedOut, payload)

	writeJSON(w, http.StatusOK, sessionResponse{Session: p.Snapshot(), Redirect: navigation.RouteLogin})
}

func (s *HTTPServer) handleDemo(w http.ResponseWriter, r *http.Request) {
	var req demoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Perfil inválido")
		return
	}

	p := s.provider(r)
	err = p.LoginAsDemo(r.Context(), role)
	metrics.IncAuth(string(p.Mode()), "demo", err)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	snap := s.signedIn(r, p, "demo")
	writeJSON(w, http.StatusOK, sessionResponse{Session: snap, Redirect: navigation.AfterDemoLogin(snap.Role)})
}

func (s *HTTPServer) handleOAuth(w http.ResponseWriter, r *http.Request) {
	p := s.provider(r)
	redirectURL, err := p.SignInWithOAuth(r.Context())
	metrics.IncAuth(string(p.Mode()), "oauth", err)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if redirectURL != "" {
		writeJSON(w, http.StatusOK, map[string]string{"redirect_url": redirectURL})
		return
	}

	snap := s.signedIn(r, p, "oauth")
	writeJSON(w, http.StatusOK, sessionResponse{Session: snap, Redirect: navigation.RouteHome})
}

func (s *HTTPServer) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "Código de autorização ausente")
		return
	}

	p := s.provider(r)
	err := p.CompleteOAuth(r.Context(), code)
	metrics.IncAuth(string(p.Mode()), "oauth_callback", err)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	s.signedIn(r, p, "oauth")
	http.Redirect(w, r, navigation.RouteHome, http.StatusFound)
}

// signedIn mirrors the profile into the database so shop records can refer
// to it and announces the sign-in.
func (s *HTTPServer) signedIn(r *http.Request, p *auth.Provider, method string) auth.Snapshot {
	snap := p.Snapshot()
	log := logging.FromContext(r.Context(), s.logger)

	if snap.Profile != nil && s.Repo != nil {
		if err := s.Repo.UpsertProfile(r.Context(), snap.Profile); err != nil {
			log.Warn().Err(err).Str("user_id", snap.Profile.ID).Msg("failed to store profile")
		}
	}

	payload := events.SessionEventPayload{
		ClientID: clientIDFromContext(r.Context()),
		Role:     string(snap.Role),
		Mode:     string(snap.Mode),
		Method:   method,
	}
	if snap.Identity != nil {
		payload.UserID = snap.Identity.ID
		payload.Email = snap.Identity.Email
	}
	s.publish(r, events.EventSignedIn, payload)

	log.Info().Str("user_id", payload.UserID).Str("role", payload.Role).Str("method", method).Msg("signed in")
	return snap
}

func (s *HTTPServer) publish(r *http.Request, eventType string, payload any) {
	if err := s.EventBus.PublishJSON(eventType, payload); err != nil {
		logging.FromContext(r.Context(), s.logger).Error().Err(err).Str("event", eventType).Msg("publish event error")
	}
}
