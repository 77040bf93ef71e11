package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"autoshop/internal/auth"
	"autoshop/internal/booking"
	"autoshop/internal/database"
	"autoshop/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"loading", auth.ErrSessionLoading, http.StatusServiceUnavailable},
		{"anonymous", auth.ErrNotAuthenticated, http.StatusUnauthorized},
		{"forbidden", auth.ErrForbidden, http.StatusForbidden},
		{"email taken", fmt.Errorf("sign up: %w", auth.ErrEmailTaken), http.StatusConflict},
		{"bad credentials", fmt.Errorf("sign in: %w", auth.ErrInvalidCredentials), http.StatusUnauthorized},
		{"identity down", fmt.Errorf("sign in: %w: %w", auth.ErrIdentityUnavailable, errors.New("dial tcp")), http.StatusBadGateway},
		{"wrong step", booking.ErrWrongStep, http.StatusConflict},
		{"selection missing", booking.ErrSelectionRequired, http.StatusConflict},
		{"bad date", booking.ErrDateUnavailable, http.StatusUnprocessableEntity},
		{"vehicle not owned", &booking.BookingSubmitError{Err: service.ErrVehicleNotOwned}, http.StatusUnprocessableEntity},
		{"submit failed", &booking.BookingSubmitError{Err: errors.New("disk full")}, http.StatusInternalServerError},
		{"no draft", errNoDraft, http.StatusNotFound},
		{"bad status", service.ErrInvalidStatus, http.StatusBadRequest},
		{"missing row", fmt.Errorf("get: %w", database.ErrNotFound), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, message)
		})
	}
}

func TestClassify_SubmitMessageNamesCause(t *testing.T) {
	_, message := classify(&booking.BookingSubmitError{Err: service.ErrServiceUnavailable})
	assert.Equal(t, "Não foi possível confirmar o agendamento: o serviço não está disponível para agendamento", message)
	assert.NotContains(t, message, service.ErrServiceUnavailable.Error())
}

func TestClassify_WizardMessagesArePortuguese(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{booking.ErrSelectionRequired, http.StatusConflict, "Selecione uma opção para continuar"},
		{booking.ErrAtFirstStep, http.StatusConflict, "Você já está na primeira etapa"},
		{booking.ErrWrongStep, http.StatusConflict, "Ação indisponível nesta etapa do agendamento"},
		{booking.ErrCompleted, http.StatusConflict, "Este agendamento já foi confirmado"},
		{booking.ErrUnknownVehicle, http.StatusUnprocessableEntity, "Veículo não encontrado"},
		{booking.ErrUnknownService, http.StatusUnprocessableEntity, "Serviço não encontrado ou inativo"},
		{booking.ErrDateUnavailable, http.StatusUnprocessableEntity, "Data indisponível, escolha outro dia"},
		{fmt.Errorf("select time: %w", booking.ErrTimeUnavailable), http.StatusUnprocessableEntity, "Horário indisponível, escolha outro horário"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, message := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, message)
			assert.NotContains(t, message, tt.err.Error())
		})
	}
}
