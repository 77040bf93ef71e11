// Package booking implements the four step appointment wizard:
// vehicle, service, date and time, confirmation.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autoshop/internal/models"
	"autoshop/internal/navigation"
)

type Step string

const (
	StepVehicle  Step = "vehicle"
	StepService  Step = "service"
	StepDateTime Step = "datetime"
	StepConfirm  Step = "confirm"
)

var steps = []Step{StepVehicle, StepService, StepDateTime, StepConfirm}

// Number of calendar days after today offered for booking.
const windowDays = 14

var timeSlots = []string{"08:00", "09:00", "10:00", "11:00", "14:00", "15:00", "16:00", "17:00"}

var (
	ErrSelectionRequired = errors.New("current step needs a selection")
	ErrAtFirstStep       = errors.New("already at the first step")
	ErrWrongStep         = errors.New("not available at the current step")
	ErrUnknownVehicle    = errors.New("vehicle not found")
	ErrUnknownService    = errors.New("service not found or inactive")
	ErrDateUnavailable   = errors.New("date not available")
	ErrTimeUnavailable   = errors.New("time slot not available")
	ErrCompleted         = errors.New("booking already confirmed")
	ErrUnknownStep       = errors.New("unknown step")
)

// BookingSubmitError wraps a failure of the persistence collaborator. The
// draft is kept so the user can retry.
type BookingSubmitError struct {
	Err error
}

func (e *BookingSubmitError) Error() string {
	return fmt.Sprintf("submit booking: %v", e.Err)
}

func (e *BookingSubmitError) Unwrap() error { return e.Err }

// Submitter persists a confirmed draft.
type Submitter interface {
	SubmitBooking(ctx context.Context, userID string, draft models.BookingDraft) (*models.Appointment, error)
}

type Wizard struct {
	draft     models.BookingDraft
	vehicles  []*models.Vehicle
	services  []*models.Service
	completed bool
	now       func() time.Time
}

// New starts a wizard for userID. With exactly one vehicle on file it starts
// at the service step with that vehicle selected. serviceID, when it names an
// active service, is preselected without skipping the service step.
func New(userID string, vehicles []*models.Vehicle, services []*models.Service, serviceID string) *Wizard {
	w := &Wizard{
		draft:    models.BookingDraft{UserID: userID, Step: string(StepVehicle)},
		vehicles: vehicles,
		services: activeOnly(services),
		now:      time.Now,
	}

	if len(vehicles) == 1 {
		w.draft.VehicleID = vehicles[0].ID
		w.draft.Step = string(StepService)
	}
	if serviceID != "" && w.service(serviceID) != nil {
		w.draft.ServiceID = serviceID
	}
	return w
}

// Restore rebuilds a wizard from a stored draft as of now. Selections that no
// longer resolve are dropped and the step is kept, except that a draft whose
// date left the booking window goes back to the date and time step.
func Restore(draft models.BookingDraft, vehicles []*models.Vehicle, services []*models.Service, now time.Time) (*Wizard, error) {
	if !validStep(Step(draft.Step)) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, draft.Step)
	}
	w := &Wizard{
		draft:    draft,
		vehicles: vehicles,
		services: activeOnly(services),
		now:      func() time.Time { return now },
	}
	if draft.VehicleID != "" && w.vehicle(draft.VehicleID) == nil {
		w.draft.VehicleID = ""
	}
	if draft.ServiceID != "" && w.service(draft.ServiceID) == nil {
		w.draft.ServiceID = ""
	}
	if draft.Date != "" && !w.dateAvailable(draft.Date) {
		w.dropDate()
	}
	return w, nil
}

// State returns the serializable draft.
func (w *Wizard) State() models.BookingDraft {
	return w.draft
}

func (w *Wizard) Step() Step {
	return Step(w.draft.Step)
}

func (w *Wizard) Completed() bool {
	return w.completed
}

func (w *Wizard) SelectVehicle(id string) error {
	if err := w.at(StepVehicle); err != nil {
		return err
	}
	if w.vehicle(id) == nil {
		return ErrUnknownVehicle
	}
	w.draft.VehicleID = id
	w.draft.Step = string(StepService)
	return nil
}

func (w *Wizard) SelectService(id string) error {
	if err := w.at(StepService); err != nil {
		return err
	}
	if w.service(id) == nil {
		return ErrUnknownService
	}
	w.draft.ServiceID = id
	w.draft.Step = string(StepDateTime)
	return nil
}

// SelectDate takes a YYYY-MM-DD date out of AvailableDates.
func (w *Wizard) SelectDate(date string) error {
	if err := w.at(StepDateTime); err != nil {
		return err
	}
	if !w.dateAvailable(date) {
		return ErrDateUnavailable
	}
	w.draft.Date = date
	return nil
}

func (w *Wizard) SelectTime(slot string) error {
	if err := w.at(StepDateTime); err != nil {
		return err
	}
	for _, s := range timeSlots {
		if s == slot {
			w.draft.Time = slot
			return nil
		}
	}
	return ErrTimeUnavailable
}

// SetNotes is allowed at any step.
func (w *Wizard) SetNotes(notes string) error {
	if w.completed {
		return ErrCompleted
	}
	w.draft.Notes = notes
	return nil
}

// CanProceed reports whether the current step has its selection.
func (w *Wizard) CanProceed() bool {
	switch w.Step() {
	case StepVehicle:
		return w.draft.VehicleID != ""
	case StepService:
		return w.draft.ServiceID != ""
	case StepDateTime:
		return w.draft.Date != "" && w.draft.Time != ""
	default:
		return false
	}
}

func (w *Wizard) Next() error {
	if w.completed {
		return ErrCompleted
	}
	if w.Step() == StepConfirm {
		return ErrWrongStep
	}
	if !w.CanProceed() {
		return ErrSelectionRequired
	}
	w.draft.Step = string(steps[w.index()+1])
	return nil
}

// Back never clears selections.
func (w *Wizard) Back() error {
	if w.completed {
		return ErrCompleted
	}
	i := w.index()
	if i == 0 {
		return ErrAtFirstStep
	}
	w.draft.Step = string(steps[i-1])
	return nil
}

// Confirm hands the draft to submitter. On success the wizard is completed
// and the caller should navigate to the returned route.
func (w *Wizard) Confirm(ctx context.Context, submitter Submitter) (*models.Appointment, string, error) {
	if err := w.at(StepConfirm); err != nil {
		return nil, "", err
	}
	if !w.draft.Complete() {
		return nil, "", ErrSelectionRequired
	}
	// the day may have passed since the date was picked
	if !w.dateAvailable(w.draft.Date) {
		w.dropDate()
		return nil, "", ErrDateUnavailable
	}

	appointment, err := submitter.SubmitBooking(ctx, w.draft.UserID, w.draft)
	if err != nil {
		w.draft.LastError = err.Error()
		return nil, "", &BookingSubmitError{Err: err}
	}

	w.draft.LastError = ""
	w.completed = true
	return appointment, navigation.RouteBookingSuccess, nil
}

func (w *Wizard) SelectedVehicle() *models.Vehicle {
	return w.vehicle(w.draft.VehicleID)
}

func (w *Wizard) SelectedService() *models.Service {
	return w.service(w.draft.ServiceID)
}

// Services lists the services offered by the wizard.
func (w *Wizard) Services() []*models.Service {
	return w.services
}

func (w *Wizard) Vehicles() []*models.Vehicle {
	return w.vehicles
}

func (w *Wizard) at(step Step) error {
	if w.completed {
		return ErrCompleted
	}
	if w.Step() != step {
		return ErrWrongStep
	}
	return nil
}

func (w *Wizard) dateAvailable(date string) bool {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return false
	}
	for _, available := range AvailableDates(w.now()) {
		if available.Format(models.DateLayout) == d.Format(models.DateLayout) {
			return true
		}
	}
	return false
}

// dropDate clears a stale date and reopens the date and time step.
func (w *Wizard) dropDate() {
	w.draft.Date = ""
	if w.Step() == StepConfirm {
		w.draft.Step = string(StepDateTime)
	}
}

func (w *Wizard) index() int {
	for i, s := range steps {
		if s == w.Step() {
			return i
		}
	}
	return 0
}

func (w *Wizard) vehicle(id string) *models.Vehicle {
	for _, v := range w.vehicles {
		if v.ID == id {
			return v
		}
	}
	return nil
}

func (w *Wizard) service(id string) *models.Service {
	for _, s := range w.services {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func activeOnly(services []*models.Service) []*models.Service {
	out := make([]*models.Service, 0, len(services))
	for _, s := range services {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out
}

func validStep(s Step) bool {
	for _, step := range steps {
		if step == s {
			return true
		}
	}
	return false
}

// AvailableDates returns the weekdays among the 14 calendar days following
// from, at midnight in from's location.
func AvailableDates(from time.Time) []time.Time {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	dates := make([]time.Time, 0, windowDays)
	for i := 1; i <= windowDays; i++ {
		d := start.AddDate(0, 0, i)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// TimeSlots are the fixed hourly slots. Capacity is not checked.
func TimeSlots() []string {
	out := make([]string, len(timeSlots))
	copy(out, timeSlots)
	return out
}
