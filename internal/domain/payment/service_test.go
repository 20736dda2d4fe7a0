package payment

import (
	"context"
	"fmt"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/events"
	"github.com/hms/hms/internal/platform/query"
	"github.com/hms/hms/internal/platform/respond"
)

// -- Mock repository --

type mockRepo struct {
	items map[string]*Payment
	next  int
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[string]*Payment)}
}

func (m *mockRepo) NextPaymentID(_ context.Context) (string, error) {
	m.next++
	return db.FormatID("PAY", int64(m.next)), nil
}

func (m *mockRepo) Create(_ context.Context, p *Payment) error {
	m.items[p.PaymentID] = p
	return nil
}

func (m *mockRepo) GetByPaymentID(_ context.Context, paymentID string) (*Payment, error) {
	p, ok := m.items[paymentID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, p *Payment) error {
	if _, ok := m.items[p.PaymentID]; !ok {
		return fmt.Errorf("missing payment %s", p.PaymentID)
	}
	m.items[p.PaymentID] = p
	return nil
}

func (m *mockRepo) List(_ context.Context, _ *query.Filter) ([]*Payment, int, error) {
	var out []*Payment
	for _, p := range m.items {
		out = append(out, p)
	}
	return out, len(out), nil
}

func managerClaims() *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "USR000001"},
		Role:             auth.RoleManager,
	}
}

func newTestService(repo Repository) *Service {
	return NewService(repo, db.NopTxRunner{}, events.NopPublisher{})
}

func basePayment() *Payment {
	return &Payment{
		PatientID:  "PAT000001",
		DoctorID:   "DOC000001",
		HospitalID: "HOS000001",
		Items:      []BillingItem{{Description: "Consultation", Quantity: 1, UnitPrice: 2000}},
	}
}

func TestCreateAssignsIDAndTotals(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	p := basePayment()
	if err := svc.Create(context.Background(), managerClaims(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	if p.PaymentID != "PAY000001" {
		t.Fatalf("payment id = %q, want PAY000001", p.PaymentID)
	}
	if p.Status != StatusPending {
		t.Fatalf("status = %q, want pending", p.Status)
	}
	if p.Currency != "USD" {
		t.Fatalf("currency = %q, want USD default", p.Currency)
	}
	if p.Total != 2000 {
		t.Fatalf("total = %v, want 2000", p.Total)
	}
}

func TestCreateValidationAggregatesFields(t *testing.T) {
	svc := newTestService(newMockRepo())

	err := svc.Create(context.Background(), managerClaims(), &Payment{Tax: -5})
	re, ok := err.(*respond.Error)
	if !ok || re.Kind != respond.KindValidation {
		t.Fatalf("got %v, want a validation error", err)
	}
	// patient_id, hospital_id, items and tax are all wrong at once.
	if len(re.Fields) != 4 {
		t.Fatalf("got %d field errors (%v), want 4", len(re.Fields), re.Fields)
	}
}

func TestCreateDeniedForPatientRole(t *testing.T) {
	svc := newTestService(newMockRepo())

	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "PAT000001"},
		Role:             auth.RolePatient,
	}
	err := svc.Create(context.Background(), claims, basePayment())
	re, ok := err.(*respond.Error)
	if !ok || re.Kind != respond.KindAccessDenied {
		t.Fatalf("got %v, want access denied", err)
	}
}

func TestSetItemsOnlyWhilePending(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	p := basePayment()
	if err := svc.Create(context.Background(), managerClaims(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	items := []BillingItem{{Description: "Surgery", Quantity: 1, UnitPrice: 50000}}
	updated, err := svc.SetItems(context.Background(), managerClaims(), p.PaymentID, items, 0, 0)
	if err != nil {
		t.Fatalf("set items: %v", err)
	}
	if updated.Total != 50000 {
		t.Fatalf("total = %v, want 50000", updated.Total)
	}

	if _, err := svc.UpdateStatus(context.Background(), managerClaims(), p.PaymentID, StatusProcessing); err != nil {
		t.Fatalf("to processing: %v", err)
	}
	_, err = svc.SetItems(context.Background(), managerClaims(), p.PaymentID, items, 0, 0)
	re, ok := err.(*respond.Error)
	if !ok || re.Kind != respond.KindValidation {
		t.Fatalf("set items on processing payment: got %v, want validation error", err)
	}
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	p := basePayment()
	if err := svc.Create(context.Background(), managerClaims(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), managerClaims(), p.PaymentID, StatusCompleted); err == nil {
		t.Fatal("pending -> completed should be rejected")
	}
	if _, err := svc.UpdateStatus(context.Background(), managerClaims(), p.PaymentID, "settled"); err == nil {
		t.Fatal("unknown status should be rejected")
	}
}

func TestRefundRules(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	p := basePayment()
	if err := svc.Create(context.Background(), managerClaims(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Not refundable before completion.
	if _, err := svc.RefundPayment(context.Background(), managerClaims(), p.PaymentID, 500, "duplicate"); err == nil {
		t.Fatal("refund of a pending payment should be rejected")
	}

	if _, err := svc.UpdateStatus(context.Background(), managerClaims(), p.PaymentID, StatusProcessing); err != nil {
		t.Fatalf("to processing: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), managerClaims(), p.PaymentID, StatusCompleted); err != nil {
		t.Fatalf("to completed: %v", err)
	}

	if _, err := svc.RefundPayment(context.Background(), managerClaims(), p.PaymentID, 5000, "overcharge"); err == nil {
		t.Fatal("refund above the total should be rejected")
	}

	refunded, err := svc.RefundPayment(context.Background(), managerClaims(), p.PaymentID, 2000, "cancelled visit")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refunded.Status != StatusRefunded {
		t.Fatalf("status = %q, want refunded", refunded.Status)
	}
	if refunded.Refund == nil || refunded.Refund.Amount != 2000 || refunded.Refund.RefundedBy != "USR000001" {
		t.Fatalf("refund record = %+v", refunded.Refund)
	}
}

func TestGetNotFound(t *testing.T) {
	svc := newTestService(newMockRepo())

	_, err := svc.Get(context.Background(), managerClaims(), "PAY999999")
	re, ok := err.(*respond.Error)
	if !ok || re.Kind != respond.KindNotFound {
		t.Fatalf("got %v, want not found", err)
	}
}
