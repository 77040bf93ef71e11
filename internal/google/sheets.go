package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"sync"
	"time"

	"autoshop/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const sheetName = "Agendamentos"

var ErrRowNotFound = errors.New("appointment row not found")

var rowPattern = regexp.MustCompile(`![A-Z]+(\d+)`)

// SheetsService keeps one row per appointment, keyed by the ID in column A.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	rowCache      map[string]int
	cacheMu       sync.RWMutex
}

func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID string) (*SheetsService, error) {
	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	return newWithService(srv, spreadsheetID), nil
}

func newWithService(srv *sheets.Service, spreadsheetID string) *SheetsService {
	return &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		rowCache:      make(map[string]int),
	}
}

// TestConnection reads the header cell of the sheet.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, sheetName+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// WarmUpCache indexes column A so status updates need no lookup.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, sheetName+"!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	cache := make(map[string]int, len(resp.Values))
	for i, row := range resp.Values {
		if id := cellID(row); id != "" {
			cache[id] = i + 1
		}
	}

	s.cacheMu.Lock()
	s.rowCache = cache
	s.cacheMu.Unlock()
	return nil
}

// AppendAppointment writes the appointment row, updating it in place when
// the ID is already on the sheet.
func (s *SheetsService) AppendAppointment(ctx context.Context, a *models.Appointment) error {
	if a == nil {
		return errors.New("appointment is nil")
	}

	if rowIdx, err := s.FindAppointmentRow(ctx, a.ID); err == nil {
		rangeData := fmt.Sprintf("%s!A%d:I%d", sheetName, rowIdx, rowIdx)
		_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, &sheets.ValueRange{
			Values: [][]interface{}{appointmentRowValues(a)},
		}).ValueInputOption("RAW").Context(ctx).Do()
		return err
	} else if !errors.Is(err, ErrRowNotFound) {
		return err
	}

	resp, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, sheetName+"!A:A", &sheets.ValueRange{
		Values: [][]interface{}{appointmentRowValues(a)},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return err
	}

	if resp.Updates != nil {
		if m := rowPattern.FindStringSubmatch(resp.Updates.UpdatedRange); m != nil {
			if row, err := strconv.Atoi(m[1]); err == nil {
				s.setCachedRow(a.ID, row)
			}
		}
	}
	return nil
}

// UpdateAppointmentStatus rewrites the status column (G) and the update
// timestamp (J).
func (s *SheetsService) UpdateAppointmentStatus(ctx context.Context, appointmentID string, status string) error {
	rowIdx, err := s.FindAppointmentRow(ctx, appointmentID)
	if err != nil {
		return err
	}

	data := []*sheets.ValueRange{
		{Range: fmt.Sprintf("%s!G%d", sheetName, rowIdx), Values: [][]interface{}{{status}}},
		{Range: fmt.Sprintf("%s!J%d", sheetName, rowIdx), Values: [][]interface{}{{time.Now().Format("2006-01-02 15:04:05")}}},
	}
	_, err = s.service.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	return err
}

// FindAppointmentRow returns the 1-based row of appointmentID.
func (s *SheetsService) FindAppointmentRow(ctx context.Context, appointmentID string) (int, error) {
	if appointmentID == "" {
		return 0, errors.New("appointment id is required")
	}
	if row, ok := s.getCachedRow(appointmentID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, sheetName+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for i, row := range resp.Values {
		if cellID(row) == appointmentID {
			s.setCachedRow(appointmentID, i+1)
			return i + 1, nil
		}
	}
	return 0, ErrRowNotFound
}

func (s *SheetsService) getCachedRow(id string) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id string, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

func cellID(row []interface{}) string {
	if len(row) == 0 {
		return ""
	}
	switch v := row[0].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func appointmentRowValues(a *models.Appointment) []interface{} {
	return []interface{}{
		a.ID,
		a.UserID,
		a.VehicleID,
		a.ServiceID,
		a.ScheduledDate,
		a.ScheduledTime,
		a.Status,
		a.Notes,
		a.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
