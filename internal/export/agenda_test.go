package export

import (
	"bytes"
	"testing"
	"time"

	"autoshop/internal/models"
	"autoshop/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestAgendaExporter_Write(t *testing.T) {
	phone := "11912345678"
	days := []service.AgendaDay{
		{
			Date: "2026-01-20",
			Entries: []service.AgendaEntry{
				{
					Appointment: &models.Appointment{ID: "a1", ScheduledDate: "2026-01-20", ScheduledTime: "09:00", Status: models.AppointmentConfirmed, Notes: "cliente aguarda"},
					Vehicle:     &models.Vehicle{Brand: "Honda", Model: "Civic", Plate: "ABC1D23"},
					Service:     &models.Service{Name: "Troca de Óleo"},
					Customer:    &models.Profile{FullName: "João Silva", Phone: &phone},
				},
				{
					Appointment: &models.Appointment{ID: "a9", ScheduledDate: "2026-01-20", ScheduledTime: "10:00", Status: models.AppointmentPending},
				},
			},
		},
	}

	logger := zerolog.Nop()
	var buf bytes.Buffer
	require.NoError(t, NewAgendaExporter(&logger).Write(&buf, days, time.Date(2026, 1, 19, 18, 30, 0, 0, time.UTC)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Agenda"}, f.GetSheetList())

	title, _ := f.GetCellValue(sheetName, "A1")
	assert.Equal(t, "Agenda - gerado em 19/01/2026 18:30", title)

	header, _ := f.GetCellValue(sheetName, "H2")
	assert.Equal(t, "Status", header)

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"20/01/2026", "09:00", "João Silva", phone, "Honda Civic", "ABC1D23", "Troca de Óleo", "Confirmado", "cliente aguarda"}, rows[2])
	assert.Equal(t, "Pendente", rows[3][7])
	assert.Equal(t, "", rows[3][2])
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "agenda_2026-01-19.xlsx", FileName(time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC)))
}
