package booking

import "autoshop/internal/models"

// View is what a client needs to render the current step.
type View struct {
	Step           Step                `json:"step"`
	StepNumber     int                 `json:"step_number"`
	TotalSteps     int                 `json:"total_steps"`
	CanProceed     bool                `json:"can_proceed"`
	Draft          models.BookingDraft `json:"draft"`
	Vehicle        *models.Vehicle     `json:"vehicle,omitempty"`
	Service        *models.Service     `json:"service,omitempty"`
	Vehicles       []*models.Vehicle   `json:"vehicles,omitempty"`
	Services       []*models.Service   `json:"services,omitempty"`
	AvailableDates []string            `json:"available_dates,omitempty"`
	TimeSlots      []string            `json:"time_slots,omitempty"`
}

func (w *Wizard) View() View {
	v := View{
		Step:       w.Step(),
		StepNumber: w.index() + 1,
		TotalSteps: len(steps),
		CanProceed: w.CanProceed(),
		Draft:      w.draft,
		Vehicle:    w.SelectedVehicle(),
		Service:    w.SelectedService(),
	}

	switch w.Step() {
	case StepVehicle:
		v.Vehicles = w.vehicles
	case StepService:
		v.Services = w.services
	case StepDateTime:
		for _, d := range AvailableDates(w.now()) {
			v.AvailableDates = append(v.AvailableDates, d.Format(models.DateLayout))
		}
		v.TimeSlots = TimeSlots()
	}
	return v
}
