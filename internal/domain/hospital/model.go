package hospital

import (
	"time"

	"github.com/google/uuid"
)

type Hospital struct {
	ID           uuid.UUID `json:"id"`
	HospitalID   string    `json:"hospital_id"`
	Name         string    `json:"name"`
	Address      string    `json:"address,omitempty"`
	City         string    `json:"city,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	TotalBeds    int       `json:"total_beds"`
	OccupiedBeds int       `json:"occupied_beds"`
	Departments  []string  `json:"departments,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// OccupancyRate is the fraction of beds in use, 0 when the hospital has
// no beds registered.
func (h *Hospital) OccupancyRate() float64 {
	if h.TotalBeds <= 0 {
		return 0
	}
	return float64(h.OccupiedBeds) / float64(h.TotalBeds)
}
