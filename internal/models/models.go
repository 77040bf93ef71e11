package models

// BookingDraft is the serialized form of an in-progress booking. It only ever
// lives in the record store; it is never written to the database.
type BookingDraft struct {
	UserID    string `json:"user_id"`
	Step      string `json:"step"`
	VehicleID string `json:"vehicle_id,omitempty"`
	ServiceID string `json:"service_id,omitempty"`
	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`
	Notes     string `json:"notes,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// Complete reports whether every selection needed to submit is present.
func (d *BookingDraft) Complete() bool {
	return d != nil && d.VehicleID != "" && d.ServiceID != "" && d.Date != "" && d.Time != ""
}
