package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"autoshop/internal/booking"
	"autoshop/internal/models"

	"github.com/go-chi/chi/v5"
)

var errNoDraft = errors.New("no booking in progress")

type selectRequest struct {
	Value string `json:"value"`
}

func (s *HTTPServer) draftKey(clientID string) string {
	return s.sessions.RecordKey(clientID, "booking_draft")
}

// catalogFor loads what the wizard may offer to userID.
func (s *HTTPServer) catalogFor(r *http.Request, userID string) ([]*models.Vehicle, []*models.Service, error) {
	vehicles, err := s.Repo.GetVehiclesByUser(r.Context(), userID)
	if err != nil {
		return nil, nil, err
	}
	services, err := s.Repo.ListServices(r.Context())
	if err != nil {
		return nil, nil, err
	}
	return vehicles, services, nil
}

// loadWizard restores the client's draft. Drafts left behind by another user
// of the same browser are discarded.
func (s *HTTPServer) loadWizard(r *http.Request) (*booking.Wizard, error) {
	userID := snapshotFromContext(r.Context()).Identity.ID
	key := s.draftKey(clientIDFromContext(r.Context()))

	raw, err := s.Store.Get(r.Context(), key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errNoDraft
	}

	var draft models.BookingDraft
	if err := json.Unmarshal(raw, &draft); err != nil || draft.UserID != userID {
		_ = s.Store.Delete(r.Context(), key)
		return nil, errNoDraft
	}

	vehicles, services, err := s.catalogFor(r, userID)
	if err != nil {
		return nil, err
	}
	wiz, err := booking.Restore(draft, vehicles, services, s.now())
	if err != nil {
		_ = s.Store.Delete(r.Context(), key)
		return nil, errNoDraft
	}
	return wiz, nil
}

func (s *HTTPServer) saveWizard(r *http.Request, wiz *booking.Wizard) error {
	raw, err := json.Marshal(wiz.State())
	if err != nil {
		return err
	}
	return s.Store.Set(r.Context(), s.draftKey(clientIDFromContext(r.Context())), raw)
}

func (s *HTTPServer) handleBookingStart(w http.ResponseWriter, r *http.Request) {
	userID := snapshotFromContext(r.Context()).Identity.ID
	vehicles, services, err := s.catalogFor(r, userID)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	wiz := booking.New(userID, vehicles, services, r.URL.Query().Get("service"))
	if err := s.saveWizard(r, wiz); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wiz.View())
}

func (s *HTTPServer) handleBookingGet(w http.ResponseWriter, r *http.Request) {
	wiz, err := s.loadWizard(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wiz.View())
}

func (s *HTTPServer) handleBookingCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Delete(r.Context(), s.draftKey(clientIDFromContext(r.Context()))); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleBookingSlots(w http.ResponseWriter, r *http.Request) {
	dates := booking.AvailableDates(s.now())
	formatted := make([]string, 0, len(dates))
	for _, d := range dates {
		formatted = append(formatted, d.Format(models.DateLayout))
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": formatted, "times": booking.TimeSlots()})
}

func (s *HTTPServer) handleBookingSelect(w http.ResponseWriter, r *http.Request) {
	var apply func(*booking.Wizard, string) error
	switch chi.URLParam(r, "field") {
	case "vehicle":
		apply = (*booking.Wizard).SelectVehicle
	case "service":
		apply = (*booking.Wizard).SelectService
	case "date":
		apply = (*booking.Wizard).SelectDate
	case "time":
		apply = (*booking.Wizard).SelectTime
	case "notes":
		apply = (*booking.Wizard).SetNotes
	default:
		writeError(w, http.StatusNotFound, "Campo desconhecido")
		return
	}

	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	s.updateWizard(w, r, func(wiz *booking.Wizard) error { return apply(wiz, req.Value) })
}

func (s *HTTPServer) handleBookingNext(w http.ResponseWriter, r *http.Request) {
	s.updateWizard(w, r, (*booking.Wizard).Next)
}

func (s *HTTPServer) handleBookingBack(w http.ResponseWriter, r *http.Request) {
	s.updateWizard(w, r, (*booking.Wizard).Back)
}

// updateWizard applies one transition and stores the draft when it succeeds.
func (s *HTTPServer) updateWizard(w http.ResponseWriter, r *http.Request, step func(*booking.Wizard) error) {
	wiz, err := s.loadWizard(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if err := step(wiz); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if err := s.saveWizard(r, wiz); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wiz.View())
}

func (s *HTTPServer) handleBookingConfirm(w http.ResponseWriter, r *http.Request) {
	wiz, err := s.loadWizard(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	appointment, route, err := wiz.Confirm(r.Context(), s.Bookings)
	if err != nil {
		// keep the draft, with the failure recorded, for a retry
		if saveErr := s.saveWizard(r, wiz); saveErr != nil {
			s.logger.Error().Err(saveErr).Msg("failed to keep booking draft")
		}
		s.writeFailure(w, r, err)
		return
	}

	if err := s.Store.Delete(r.Context(), s.draftKey(clientIDFromContext(r.Context()))); err != nil {
		s.logger.Warn().Err(err).Msg("failed to drop confirmed booking draft")
	}
	writeJSON(w, http.StatusCreated, map[string]any{"appointment": appointment, "redirect": route})
}
