package api

import (
	"net/http"
	"strings"

	"autoshop/internal/models"
	"autoshop/internal/service"

	"github.com/go-chi/chi/v5"
)

func (s *HTTPServer) handleHome(w http.ResponseWriter, r *http.Request) {
	snap := snapshotFromContext(r.Context())
	userID := snap.Identity.ID

	home, err := s.Agenda.Home(r.Context(), userID)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	unread, err := s.Alerts.UnreadCount(r.Context(), userID)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"greeting":      "Olá, " + snap.Profile.FirstName(),
		"home":          home,
		"unread_alerts": unread,
	})
}

func (s *HTTPServer) handleAgenda(w http.ResponseWriter, r *http.Request) {
	snap := snapshotFromContext(r.Context())
	status := strings.TrimSpace(r.URL.Query().Get("status"))

	// the customer agenda always lists the caller's own appointments
	days, err := s.Agenda.Agenda(r.Context(), snap.Identity.ID, models.RoleCustomer, status)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

func (s *HTTPServer) handleAlerts(w http.ResponseWriter, r *http.Request) {
	snap := snapshotFromContext(r.Context())
	list, err := s.Alerts.List(r.Context(), snap.Identity.ID, r.URL.Query().Get("filter"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) handleReadAlert(w http.ResponseWriter, r *http.Request) {
	snap := snapshotFromContext(r.Context())
	if err := s.Alerts.MarkRead(r.Context(), snap.Identity.ID, chi.URLParam(r, "id")); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleReadAllAlerts(w http.ResponseWriter, r *http.Request) {
	snap := snapshotFromContext(r.Context())
	if err := s.Alerts.MarkAllRead(r.Context(), snap.Identity.ID); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.Catalog.List(r.Context(), serviceFilter(r))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	categories, err := s.Catalog.Categories(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	active := make([]*models.Service, 0, len(services))
	for _, svc := range services {
		if svc.IsActive {
			active = append(active, svc)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": active, "categories": categories})
}

func serviceFilter(r *http.Request) service.ServiceFilter {
	q := r.URL.Query()
	return service.ServiceFilter{Search: q.Get("search"), Category: q.Get("category")}
}
