package export

import (
	"fmt"
	"io"
	"time"

	"autoshop/internal/models"
	"autoshop/internal/service"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Agenda"

var headers = []string{"Data", "Horário", "Cliente", "Telefone", "Veículo", "Placa", "Serviço", "Status", "Observações"}

var statusLabels = map[string]string{
	models.AppointmentPending:    "Pendente",
	models.AppointmentConfirmed:  "Confirmado",
	models.AppointmentInProgress: "Em andamento",
	models.AppointmentCompleted:  "Concluído",
	models.AppointmentCancelled:  "Cancelado",
}

var statusColors = map[string]string{
	models.AppointmentPending:    "#FFEB9C",
	models.AppointmentConfirmed:  "#C6EFCE",
	models.AppointmentInProgress: "#DDEBF7",
	models.AppointmentCompleted:  "#EDEDED",
	models.AppointmentCancelled:  "#FFC7CE",
}

// AgendaExporter renders the admin agenda as an xlsx workbook.
type AgendaExporter struct {
	logger *zerolog.Logger
}

func NewAgendaExporter(logger *zerolog.Logger) *AgendaExporter {
	return &AgendaExporter{logger: logger}
}

// FileName is the download name for an export generated at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("agenda_%s.xlsx", t.Format("2006-01-02"))
}

// Write renders days into a workbook and streams it to w.
func (e *AgendaExporter) Write(w io.Writer, days []service.AgendaDay, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	lastCol, _ := excelize.ColumnNumberToName(len(headers))

	// Заголовок
	_ = f.SetCellValue(sheetName, "A1", "Agenda - gerado em "+generatedAt.Format("02/01/2006 15:04"))
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	_ = f.SetCellStyle(sheetName, "A2", lastCol+"2", headerStyle)

	styles := make(map[string]int)
	row := 3
	for _, day := range days {
		for _, entry := range day.Entries {
			if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", row), &[]interface{}{
				displayDate(day.Date),
				entry.Appointment.ScheduledTime,
				customerName(entry),
				customerPhone(entry),
				vehicleName(entry),
				vehiclePlate(entry),
				serviceName(entry),
				statusLabel(entry.Appointment.Status),
				entry.Appointment.Notes,
			}); err != nil {
				return fmt.Errorf("error writing row %d: %w", row, err)
			}

			if styleID, err := e.statusStyle(f, styles, entry.Appointment.Status); err == nil {
				cell := fmt.Sprintf("H%d", row)
				_ = f.SetCellStyle(sheetName, cell, cell, styleID)
			}
			row++
		}
	}

	_ = f.SetColWidth(sheetName, "A", "B", 12)
	_ = f.SetColWidth(sheetName, "C", "G", 22)
	_ = f.SetColWidth(sheetName, "H", "H", 16)
	_ = f.SetColWidth(sheetName, "I", "I", 40)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}

	e.logger.Info().Int("rows", row-3).Msg("Agenda exported")
	return nil
}

func (e *AgendaExporter) statusStyle(f *excelize.File, cache map[string]int, status string) (int, error) {
	if id, ok := cache[status]; ok {
		return id, nil
	}
	color, ok := statusColors[status]
	if !ok {
		color = "#FFFFFF"
	}
	id, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return 0, err
	}
	cache[status] = id
	return id, nil
}

func displayDate(date string) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("02/01/2006")
}

func statusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

func customerName(e service.AgendaEntry) string {
	if e.Customer == nil {
		return ""
	}
	return e.Customer.FullName
}

func customerPhone(e service.AgendaEntry) string {
	if e.Customer == nil || e.Customer.Phone == nil {
		return ""
	}
	return *e.Customer.Phone
}

func vehicleName(e service.AgendaEntry) string {
	if e.Vehicle == nil {
		return ""
	}
	return e.Vehicle.Brand + " " + e.Vehicle.Model
}

func vehiclePlate(e service.AgendaEntry) string {
	if e.Vehicle == nil {
		return ""
	}
	return e.Vehicle.Plate
}

func serviceName(e service.AgendaEntry) string {
	if e.Service == nil {
		return ""
	}
	return e.Service.Name
}
