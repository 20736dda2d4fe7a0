package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/events"
	"github.com/hms/hms/internal/platform/query"
	"github.com/hms/hms/internal/platform/respond"
)

type Service struct {
	repo Repository
	tx   db.TxRunner
	pub  events.Publisher
}

func NewService(repo Repository, tx db.TxRunner, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Service{repo: repo, tx: tx, pub: pub}
}

func (s *Service) Create(ctx context.Context, claims *auth.Claims, a *Appointment) error {
	var fields []respond.FieldError
	if a.PatientID == "" {
		fields = append(fields, respond.FieldError{Field: "patient_id", Message: "is required"})
	}
	if a.DoctorID == "" {
		fields = append(fields, respond.FieldError{Field: "doctor_id", Message: "is required"})
	}
	if a.HospitalID == "" {
		fields = append(fields, respond.FieldError{Field: "hospital_id", Message: "is required"})
	}
	if a.ScheduledAt.IsZero() {
		fields = append(fields, respond.FieldError{Field: "scheduled_at", Message: "is required"})
	}
	if a.DurationMinutes < 0 {
		fields = append(fields, respond.FieldError{Field: "duration_minutes", Message: "must not be negative"})
	}
	if len(fields) > 0 {
		return respond.Validation(fields...)
	}

	// Patients book for themselves.
	if claims != nil && claims.Role == auth.RolePatient {
		a.PatientID = claims.Subject
	}

	if d := auth.Authorize(claims, auth.KindAppointment, a.Ownership(), auth.ActionCreate); !d.Allowed() {
		return d.Err()
	}

	if a.DurationMinutes == 0 {
		a.DurationMinutes = 30
	}
	a.Status = StatusScheduled

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		appointmentID, err := s.repo.NextAppointmentID(ctx)
		if err != nil {
			return err
		}
		a.AppointmentID = appointmentID
		return s.repo.Create(ctx, a)
	})
	if err != nil {
		return respond.Internal(err)
	}

	_ = s.pub.Publish(ctx, events.Event{Type: "created", Topic: events.TopicAppointments, EntityID: a.AppointmentID})
	return nil
}

func (s *Service) Get(ctx context.Context, claims *auth.Claims, appointmentID string) (*Appointment, error) {
	a, err := s.find(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if d := auth.Authorize(claims, auth.KindAppointment, a.Ownership(), auth.ActionRead); !d.Allowed() {
		return nil, d.Err()
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, claims *auth.Claims, f *query.Filter) ([]*Appointment, int, error) {
	appointments, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, respond.Internal(err)
	}
	return appointments, total, nil
}

// Reschedule changes the scheduled time of an appointment that has not
// started yet.
func (s *Service) Reschedule(ctx context.Context, claims *auth.Claims, appointmentID string, at time.Time, durationMinutes int) (*Appointment, error) {
	if at.IsZero() {
		return nil, respond.Invalid("scheduled_at", "is required")
	}
	if durationMinutes < 0 {
		return nil, respond.Invalid("duration_minutes", "must not be negative")
	}

	a, err := s.find(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if d := auth.Authorize(claims, auth.KindAppointment, a.Ownership(), auth.ActionUpdate); !d.Allowed() {
		return nil, d.Err()
	}
	if a.Status != StatusScheduled && a.Status != StatusConfirmed {
		return nil, respond.Invalid("status", "only scheduled or confirmed appointments can be rescheduled")
	}

	a.ScheduledAt = at
	if durationMinutes > 0 {
		a.DurationMinutes = durationMinutes
	}
	a.Status = StatusScheduled

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, respond.Internal(err)
	}

	_ = s.pub.Publish(ctx, events.Event{Type: "rescheduled", Topic: events.TopicAppointments, EntityID: a.AppointmentID})
	return a, nil
}

// UpdateStatus moves the appointment through its status machine.
func (s *Service) UpdateStatus(ctx context.Context, claims *auth.Claims, appointmentID string, to Status, notes string) (*Appointment, error) {
	if !ValidStatus(to) {
		return nil, respond.Invalid("status", "invalid appointment status")
	}

	a, err := s.find(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if d := auth.Authorize(claims, auth.KindAppointment, a.Ownership(), auth.ActionUpdate); !d.Allowed() {
		return nil, d.Err()
	}
	if !CanTransition(a.Status, to) {
		return nil, respond.Invalid("status", "cannot transition from "+string(a.Status)+" to "+string(to))
	}

	a.Status = to
	if notes != "" {
		a.Notes = notes
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, respond.Internal(err)
	}

	_ = s.pub.Publish(ctx, events.Event{Type: "status_changed", Topic: events.TopicAppointments, EntityID: a.AppointmentID})
	return a, nil
}

func (s *Service) find(ctx context.Context, appointmentID string) (*Appointment, error) {
	a, err := s.repo.GetByAppointmentID(ctx, appointmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, respond.NotFound("appointment")
	}
	if err != nil {
		return nil, respond.Internal(err)
	}
	return a, nil
}
