package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"autoshop/internal/auth"
	"autoshop/internal/booking"
	"autoshop/internal/database"
	"autoshop/internal/logging"
	"autoshop/internal/service"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeFailure maps domain errors to a status code and a message the portal
// can show as is.
func (s *HTTPServer) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	log := logging.FromContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeError(w, status, message)
}

type failureText struct {
	err     error
	status  int
	message string
}

var wizardFailures = []failureText{
	{booking.ErrSelectionRequired, http.StatusConflict, "Selecione uma opção para continuar"},
	{booking.ErrAtFirstStep, http.StatusConflict, "Você já está na primeira etapa"},
	{booking.ErrWrongStep, http.StatusConflict, "Ação indisponível nesta etapa do agendamento"},
	{booking.ErrCompleted, http.StatusConflict, "Este agendamento já foi confirmado"},
	{booking.ErrUnknownVehicle, http.StatusUnprocessableEntity, "Veículo não encontrado"},
	{booking.ErrUnknownService, http.StatusUnprocessableEntity, "Serviço não encontrado ou inativo"},
	{booking.ErrDateUnavailable, http.StatusUnprocessableEntity, "Data indisponível, escolha outro dia"},
	{booking.ErrTimeUnavailable, http.StatusUnprocessableEntity, "Horário indisponível, escolha outro horário"},
}

// submitCauses name the rejections of a confirmed draft.
var submitCauses = []failureText{
	{service.ErrVehicleNotOwned, http.StatusUnprocessableEntity, "o veículo não pertence à sua conta"},
	{service.ErrServiceUnavailable, http.StatusUnprocessableEntity, "o serviço não está disponível para agendamento"},
	{service.ErrIncompleteDraft, http.StatusUnprocessableEntity, "preencha todas as etapas"},
}

func lookupFailure(err error, table []failureText) (failureText, bool) {
	for _, f := range table {
		if errors.Is(err, f.err) {
			return f, true
		}
	}
	return failureText{}, false
}

func classify(err error) (int, string) {
	var authErr *auth.AuthError
	var submitErr *booking.BookingSubmitError

	switch {
	case errors.Is(err, auth.ErrSessionLoading):
		return http.StatusServiceUnavailable, "Carregando sessão, tente novamente"
	case errors.Is(err, auth.ErrNotAuthenticated):
		return http.StatusUnauthorized, "Faça login para continuar"
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, "Acesso negado"
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, "Email já cadastrado"
	case errors.Is(err, auth.ErrDemoUnavailable):
		return http.StatusConflict, "Acesso de demonstração indisponível"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Email ou senha inválidos"
	case errors.As(err, &authErr):
		if authErr.Message != "" {
			return http.StatusUnprocessableEntity, authErr.Message
		}
		return http.StatusUnprocessableEntity, "Operação recusada pelo serviço de autenticação"
	case errors.As(err, &submitErr):
		if f, ok := lookupFailure(err, submitCauses); ok {
			return f.status, "Não foi possível confirmar o agendamento: " + f.message
		}
		return http.StatusInternalServerError, "Não foi possível confirmar o agendamento, tente novamente"
	case errors.Is(err, errNoDraft):
		return http.StatusNotFound, "Nenhum agendamento em andamento"
	case errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest, "Status inválido"
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, "Não encontrado"
	case errors.Is(err, auth.ErrIdentityUnavailable):
		return http.StatusBadGateway, "Serviço de autenticação indisponível"
	}
	if f, ok := lookupFailure(err, wizardFailures); ok {
		return f.status, f.message
	}
	return http.StatusInternalServerError, "Erro interno"
}
