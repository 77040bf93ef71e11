package api

import (
	"bytes"
	"net/http"
	"strings"

	"autoshop/internal/export"

	"github.com/go-chi/chi/v5"
)

type statusRequest struct {
	Status string `json:"status"`
}

func (s *HTTPServer) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.Dashboard.Summary(r.Context(), s.now())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *HTTPServer) handleAdminPatio(w http.ResponseWriter, r *http.Request) {
	board, err := s.Patio.Board(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"columns": board})
}

func (s *HTTPServer) handleAdminClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.Clients.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients})
}

func (s *HTTPServer) handleAdminServices(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, map[string]any{"services": services, "categories": categories})
}

func (s *HTTPServer) handleAdminAgenda(w http.ResponseWriter, r *http.Request) {
	snap := snapshotFromContext(r.Context())
	days, err := s.Agenda.Agenda(r.Context(), snap.Identity.ID, snap.Role, strings.TrimSpace(r.URL.Query().Get("status")))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

func (s *HTTPServer) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	snap := snapshotFromContext(r.Context())
	days, err := s.Agenda.Agenda(r.Context(), snap.Identity.ID, snap.Role, strings.TrimSpace(r.URL.Query().Get("status")))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	now := s.now()
	var buf bytes.Buffer
	if err := s.Exporter.Write(&buf, days, now); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(now)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *HTTPServer) handleAdminAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	snap := snapshotFromContext(r.Context())
	appointment, err := s.Bookings.UpdateStatus(r.Context(), chi.URLParam(r, "id"), strings.TrimSpace(req.Status), snap.Identity.ID)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointment": appointment})
}
