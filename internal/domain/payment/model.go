package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/auth"
)

// Status is the payment lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// transitions is the allowed status machine. Absent targets are invalid.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
	StatusFailed:     {StatusProcessing},
	StatusCompleted:  {StatusRefunded},
}

// CanTransition reports whether moving from one status to another is valid.
func CanTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a member of the closed status set.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// Payment maps to the payment table. Billing items, insurance and refund
// details live in JSONB sub-documents.
type Payment struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	PaymentID     string        `db:"payment_id" json:"payment_id"` // PAY000001
	PatientID     string        `db:"patient_id" json:"patient_id"`
	DoctorID      string        `db:"doctor_id" json:"doctor_id,omitempty"`
	HospitalID    string        `db:"hospital_id" json:"hospital_id"`
	AppointmentID *string       `db:"appointment_id" json:"appointment_id,omitempty"`
	Currency      string        `db:"currency" json:"currency"`
	Method        string        `db:"method" json:"method"` // cash, card, insurance, online
	Status        Status        `db:"status" json:"status"`
	Items         []BillingItem `db:"items" json:"items"`
	Subtotal      float64       `db:"subtotal" json:"subtotal"`
	Tax           float64       `db:"tax" json:"tax"`
	Discount      float64       `db:"discount" json:"discount"`
	Total         float64       `db:"total" json:"total"`
	Insurance     *Insurance    `db:"insurance" json:"insurance,omitempty"`
	Refund        *Refund       `db:"refund" json:"refund,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

type BillingItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}

type Insurance struct {
	Provider       string  `json:"provider"`
	PolicyNumber   string  `json:"policy_number"`
	CoverageAmount float64 `json:"coverage_amount,omitempty"`
	ClaimStatus    string  `json:"claim_status,omitempty"`
}

type Refund struct {
	Amount     float64   `json:"amount"`
	Reason     string    `json:"reason,omitempty"`
	RefundedBy string    `json:"refunded_by"`
	RefundedAt time.Time `json:"refunded_at"`
}

// Ownership returns the owning ids the policy evaluator checks against.
func (p *Payment) Ownership() auth.Ownership {
	return auth.Ownership{
		PatientID:  p.PatientID,
		DoctorID:   p.DoctorID,
		HospitalID: p.HospitalID,
	}
}

// ComputeTotal recomputes item amounts, the subtotal and the total. It must
// run after every line-item change so that total == subtotal + tax - discount
// always holds.
func (p *Payment) ComputeTotal() {
	var subtotal float64
	for i := range p.Items {
		p.Items[i].Amount = float64(p.Items[i].Quantity) * p.Items[i].UnitPrice
		subtotal += p.Items[i].Amount
	}
	p.Subtotal = subtotal
	p.Total = p.Subtotal + p.Tax - p.Discount
}
