package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"autoshop/internal/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func setupMockServer(ctx context.Context, t *testing.T) (*http.ServeMux, *SheetsService) {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	srv, err := sheets.NewService(ctx, option.WithEndpoint(server.URL), option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return mux, newWithService(srv, "sid")
}

func TestSheetsService_TestConnection(t *testing.T) {
	ctx := context.Background()
	mux, s := setupMockServer(ctx, t)
	mux.HandleFunc("/v4/spreadsheets/sid/values/Agendamentos!A1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}}})
	})
	if err := s.TestConnection(ctx); err != nil {
		t.Errorf("TestConnection failed: %v", err)
	}
}

func TestSheetsService_WarmUpCache(t *testing.T) {
	ctx := context.Background()
	mux, s := setupMockServer(ctx, t)
	mux.HandleFunc("/v4/spreadsheets/sid/values/Agendamentos!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{
			Values: [][]interface{}{{"ID"}, {"a1"}, {}, {"a3"}},
		})
	})
	if err := s.WarmUpCache(ctx); err != nil {
		t.Fatalf("WarmUpCache failed: %v", err)
	}
	if row, ok := s.getCachedRow("a1"); !ok || row != 2 {
		t.Errorf("expected row 2 for a1, got %d", row)
	}
	if row, ok := s.getCachedRow("a3"); !ok || row != 4 {
		t.Errorf("expected row 4 for a3, got %d", row)
	}
}

func TestSheetsService_AppendAppointment(t *testing.T) {
	ctx := context.Background()
	mux, s := setupMockServer(ctx, t)
	mux.HandleFunc("/v4/spreadsheets/sid/values/Agendamentos!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}}})
	})
	mux.HandleFunc("/v4/spreadsheets/sid/values/Agendamentos!A:A:append", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.AppendValuesResponse{
			Updates: &sheets.UpdateValuesResponse{UpdatedRange: "Agendamentos!A10:I10"},
		})
	})

	a := &models.Appointment{ID: "a789", ScheduledDate: "2026-01-20", CreatedAt: time.Now()}
	if err := s.AppendAppointment(ctx, a); err != nil {
		t.Fatalf("AppendAppointment failed: %v", err)
	}
	if row, _ := s.getCachedRow("a789"); row != 10 {
		t.Errorf("expected cached row 10, got %d", row)
	}
}

func TestSheetsService_AppendAppointment_UpdatesExisting(t *testing.T) {
	ctx := context.Background()
	mux, s := setupMockServer(ctx, t)
	s.setCachedRow("a123", 2)

	called := false
	mux.HandleFunc("/v4/spreadsheets/sid/values/Agendamentos!A2:I2", func(w http.ResponseWriter, r *http.Request) {
		called = true
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	a := &models.Appointment{ID: "a123", CreatedAt: time.Now()}
	if err := s.AppendAppointment(ctx, a); err != nil {
		t.Fatalf("AppendAppointment failed: %v", err)
	}
	if !called {
		t.Errorf("expected row update instead of append")
	}
}

func TestSheetsService_UpdateAppointmentStatus(t *testing.T) {
	ctx := context.Background()
	mux, s := setupMockServer(ctx, t)
	s.setCachedRow("a123", 2)

	var req sheets.BatchUpdateValuesRequest
	mux.HandleFunc("/v4/spreadsheets/sid/values:batchUpdate", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(sheets.BatchUpdateValuesResponse{})
	})

	if err := s.UpdateAppointmentStatus(ctx, "a123", models.AppointmentConfirmed); err != nil {
		t.Fatalf("UpdateAppointmentStatus failed: %v", err)
	}
	if len(req.Data) != 2 || req.Data[0].Range != "Agendamentos!G2" {
		t.Errorf("unexpected batch update: %+v", req.Data)
	}
}

func TestSheetsService_FindAppointmentRow_NotFound(t *testing.T) {
	ctx := context.Background()
	mux, s := setupMockServer(ctx, t)
	mux.HandleFunc("/v4/spreadsheets/sid/values/Agendamentos!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}, {"a1"}}})
	})
	if _, err := s.FindAppointmentRow(ctx, "zzz"); err != ErrRowNotFound {
		t.Errorf("expected ErrRowNotFound, got %v", err)
	}
	if _, err := s.FindAppointmentRow(ctx, ""); err == nil {
		t.Errorf("expected error for empty id")
	}
}

func TestAppointmentRowValues(t *testing.T) {
	a := &models.Appointment{
		ID: "a1", UserID: "2", VehicleID: "v1", ServiceID: "s1",
		ScheduledDate: "2026-01-20", ScheduledTime: "09:00", Status: "pending", Notes: "n",
		CreatedAt: time.Date(2026, 1, 10, 8, 30, 0, 0, time.UTC),
	}
	values := appointmentRowValues(a)
	if len(values) != 9 {
		t.Fatalf("expected 9 columns, got %d", len(values))
	}
	if values[8] != "2026-01-10 08:30:00" {
		t.Errorf("unexpected created_at %v", values[8])
	}
}
