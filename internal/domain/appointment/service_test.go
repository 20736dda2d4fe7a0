package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/events"
	"github.com/hms/hms/internal/platform/query"
	"github.com/hms/hms/internal/platform/respond"
)

type mockRepo struct {
	items map[string]*Appointment
	next  int
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[string]*Appointment)}
}

func (m *mockRepo) NextAppointmentID(_ context.Context) (string, error) {
	m.next++
	return db.FormatID("APT", int64(m.next)), nil
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	m.items[a.AppointmentID] = a
	return nil
}

func (m *mockRepo) GetByAppointmentID(_ context.Context, appointmentID string) (*Appointment, error) {
	a, ok := m.items[appointmentID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	m.items[a.AppointmentID] = a
	return nil
}

func (m *mockRepo) List(_ context.Context, _ *query.Filter) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.items {
		out = append(out, a)
	}
	return out, len(out), nil
}

func staffClaims() *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "STF000001"},
		Role:             auth.RoleStaff,
		HospitalID:       "HOS000001",
	}
}

func newTestService(repo Repository) *Service {
	return NewService(repo, db.NopTxRunner{}, events.NopPublisher{})
}

func baseAppointment() *Appointment {
	return &Appointment{
		PatientID:   "PAT000001",
		DoctorID:    "DOC000001",
		HospitalID:  "HOS000001",
		ScheduledAt: time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC),
		Reason:      "annual checkup",
	}
}

func TestCreateSchedulesWithDefaults(t *testing.T) {
	svc := newTestService(newMockRepo())

	a := baseAppointment()
	if err := svc.Create(context.Background(), staffClaims(), a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.AppointmentID != "APT000001" {
		t.Fatalf("appointment id = %q", a.AppointmentID)
	}
	if a.Status != StatusScheduled {
		t.Fatalf("status = %q, want scheduled", a.Status)
	}
	if a.DurationMinutes != 30 {
		t.Fatalf("duration = %d, want 30 default", a.DurationMinutes)
	}
}

func TestCreatePatientBooksForSelf(t *testing.T) {
	svc := newTestService(newMockRepo())

	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "PAT000007"},
		Role:             auth.RolePatient,
	}
	a := baseAppointment()
	a.PatientID = "PAT000001" // overridden by the caller's identity
	if err := svc.Create(context.Background(), claims, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.PatientID != "PAT000007" {
		t.Fatalf("patient id = %q, want the caller's own", a.PatientID)
	}
}

func TestStatusTransitions(t *testing.T) {
	if !CanTransition(StatusScheduled, StatusConfirmed) ||
		!CanTransition(StatusConfirmed, StatusInProgress) ||
		!CanTransition(StatusInProgress, StatusCompleted) ||
		!CanTransition(StatusScheduled, StatusNoShow) {
		t.Fatal("expected forward transitions rejected")
	}

	if CanTransition(StatusCompleted, StatusScheduled) ||
		CanTransition(StatusCancelled, StatusConfirmed) ||
		CanTransition(StatusNoShow, StatusInProgress) ||
		CanTransition(StatusScheduled, StatusCompleted) {
		t.Fatal("terminal or skipping transitions accepted")
	}
}

func TestUpdateStatusWalksTheMachine(t *testing.T) {
	svc := newTestService(newMockRepo())

	a := baseAppointment()
	if err := svc.Create(context.Background(), staffClaims(), a); err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, next := range []Status{StatusConfirmed, StatusInProgress, StatusCompleted} {
		updated, err := svc.UpdateStatus(context.Background(), staffClaims(), a.AppointmentID, next, "")
		if err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
		if updated.Status != next {
			t.Fatalf("status = %q, want %q", updated.Status, next)
		}
	}

	// Completed is terminal.
	_, err := svc.UpdateStatus(context.Background(), staffClaims(), a.AppointmentID, StatusCancelled, "")
	re, ok := err.(*respond.Error)
	if !ok || re.Kind != respond.KindValidation {
		t.Fatalf("got %v, want validation error on terminal transition", err)
	}
}

func TestRescheduleOnlyBeforeStart(t *testing.T) {
	svc := newTestService(newMockRepo())

	a := baseAppointment()
	if err := svc.Create(context.Background(), staffClaims(), a); err != nil {
		t.Fatalf("create: %v", err)
	}

	newTime := time.Date(2026, 9, 20, 14, 0, 0, 0, time.UTC)
	updated, err := svc.Reschedule(context.Background(), staffClaims(), a.AppointmentID, newTime, 45)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if !updated.ScheduledAt.Equal(newTime) || updated.DurationMinutes != 45 {
		t.Fatalf("rescheduled to %v/%d", updated.ScheduledAt, updated.DurationMinutes)
	}

	if _, err := svc.UpdateStatus(context.Background(), staffClaims(), a.AppointmentID, StatusConfirmed, ""); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), staffClaims(), a.AppointmentID, StatusInProgress, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.Reschedule(context.Background(), staffClaims(), a.AppointmentID, newTime, 0); err == nil {
		t.Fatal("rescheduling an in-progress appointment should be rejected")
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newMockRepo())

	err := svc.Create(context.Background(), staffClaims(), &Appointment{})
	re, ok := err.(*respond.Error)
	if !ok || re.Kind != respond.KindValidation {
		t.Fatalf("got %v, want validation error", err)
	}
	if len(re.Fields) != 4 {
		t.Fatalf("fields = %v, want patient, doctor, hospital and time", re.Fields)
	}
}
