package staff

import (
	"time"

	"github.com/google/uuid"
)

// Specializations recognized by the registry. Requests naming anything
// else are rejected.
var Specializations = map[string]bool{
	"general_medicine": true,
	"cardiology":       true,
	"dermatology":      true,
	"neurology":        true,
	"orthopedics":      true,
	"pediatrics":       true,
	"psychiatry":       true,
	"radiology":        true,
	"surgery":          true,
	"gynecology":       true,
	"ophthalmology":    true,
	"ent":              true,
}

// Shift is one working window on a weekday, stored as HH:MM strings.
type Shift struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WorkingHours maps a lowercase weekday name to its shifts.
type WorkingHours map[string][]Shift

type Professional struct {
	ID              uuid.UUID    `json:"id"`
	ProfessionalID  string       `json:"professional_id"`
	HospitalID      string       `json:"hospital_id"`
	Name            string       `json:"name"`
	Email           string       `json:"email,omitempty"`
	Phone           string       `json:"phone,omitempty"`
	Specialization  string       `json:"specialization"`
	LicenseNumber   string       `json:"license_number"`
	Department      string       `json:"department,omitempty"`
	WorkingHours    WorkingHours `json:"working_hours,omitempty"`
	ConsultationFee float64      `json:"consultation_fee"`
	Active          bool         `json:"active"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}
