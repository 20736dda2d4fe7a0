package payment

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

func (s *Service) Create(ctx context.Context, claims *auth.Claims, p *Payment) error {
	var fields []respond.FieldError
	if p.PatientID == "" {
		fields = append(fields, respond.FieldError{Field: "patient_id", Message: "is required"})
	}
	if p.HospitalID == "" {
		fields = append(fields, respond.FieldError{Field: "hospital_id", Message: "is required"})
	}
	if len(p.Items) == 0 {
		fields = append(fields, respond.FieldError{Field: "items", Message: "at least one billing item is required"})
	}
	for _, item := range p.Items {
		if item.Quantity < 1 || item.UnitPrice < 0 {
			fields = append(fields, respond.FieldError{Field: "items", Message: "quantity must be >= 1 and unit_price >= 0"})
			break
		}
	}
	if p.Tax < 0 || p.Discount < 0 {
		fields = append(fields, respond.FieldError{Field: "tax", Message: "tax and discount must not be negative"})
	}
	if len(fields) > 0 {
		return respond.Validation(fields...)
	}

	if d := auth.Authorize(claims, auth.KindPayment, p.Ownership(), auth.ActionCreate); !d.Allowed() {
		return d.Err()
	}

	if p.Currency == "" {
		p.Currency = "USD"
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	if !ValidStatus(p.Status) {
		return respond.Invalid("status", "invalid payment status")
	}
	p.ComputeTotal()

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		paymentID, err := s.repo.NextPaymentID(ctx)
		if err != nil {
			return err
		}
		p.PaymentID = paymentID
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return respond.Internal(err)
	}

	_ = s.pub.Publish(ctx, events.Event{Type: "created", Topic: events.TopicPayments, EntityID: p.PaymentID})
	return nil
}

func (s *Service) Get(ctx context.Context, claims *auth.Claims, paymentID string) (*Payment, error) {
	p, err := s.find(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if d := auth.Authorize(claims, auth.KindPayment, p.Ownership(), auth.ActionRead); !d.Allowed() {
		return nil, d.Err()
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, claims *auth.Claims, f *query.Filter) ([]*Payment, int, error) {
	payments, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, respond.Internal(err)
	}
	return payments, total, nil
}

// SetItems replaces the billing line items and recomputes the totals.
func (s *Service) SetItems(ctx context.Context, claims *auth.Claims, paymentID string, items []BillingItem, tax, discount float64) (*Payment, error) {
	if len(items) == 0 {
		return nil, respond.Invalid("items", "at least one billing item is required")
	}
	if tax < 0 || discount < 0 {
		return nil, respond.Invalid("tax", "tax and discount must not be negative")
	}

	p, err := s.find(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if d := auth.Authorize(claims, auth.KindPayment, p.Ownership(), auth.ActionUpdate); !d.Allowed() {
		return nil, d.Err()
	}
	if p.Status != StatusPending {
		return nil, respond.Invalid("status", "billing items can only change while the payment is pending")
	}

	p.Items = items
	p.Tax = tax
	p.Discount = discount
	p.ComputeTotal()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, respond.Internal(err)
	}
	return p, nil
}

// UpdateStatus moves the payment through its status machine.
func (s *Service) UpdateStatus(ctx context.Context, claims *auth.Claims, paymentID string, to Status) (*Payment, error) {
	if !ValidStatus(to) {
		return nil, respond.Invalid("status", "invalid payment status")
	}

	p, err := s.find(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if d := auth.Authorize(claims, auth.KindPayment, p.Ownership(), auth.ActionUpdate); !d.Allowed() {
		return nil, d.Err()
	}
	if !CanTransition(p.Status, to) {
		return nil, respond.Invalid("status", "cannot transition from "+string(p.Status)+" to "+string(to))
	}

	p.Status = to
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, respond.Internal(err)
	}

	_ = s.pub.Publish(ctx, events.Event{Type: "status_changed", Topic: events.TopicPayments, EntityID: p.PaymentID})
	return p, nil
}

// RefundPayment refunds a completed payment in full or in part.
func (s *Service) RefundPayment(ctx context.Context, claims *auth.Claims, paymentID string, amount float64, reason string) (*Payment, error) {
	p, err := s.find(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if d := auth.Authorize(claims, auth.KindPayment, p.Ownership(), auth.ActionUpdate); !d.Allowed() {
		return nil, d.Err()
	}
	if p.Status != StatusCompleted {
		return nil, respond.Invalid("status", "only completed payments can be refunded")
	}
	if amount <= 0 || amount > p.Total {
		return nil, respond.Invalid("amount", "refund amount must be positive and not exceed the payment total")
	}

	p.Refund = &Refund{
		Amount:     amount,
		Reason:     reason,
		RefundedBy: claims.Subject,
		RefundedAt: time.Now().UTC(),
	}
	p.Status = StatusRefunded

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, respond.Internal(err)
	}

	_ = s.pub.Publish(ctx, events.Event{Type: "refunded", Topic: events.TopicPayments, EntityID: p.PaymentID})
	return p, nil
}

func (s *Service) find(ctx context.Context, paymentID string) (*Payment, error) {
	p, err := s.repo.GetByPaymentID(ctx, paymentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, respond.NotFound("payment")
	}
	if err != nil {
		return nil, respond.Internal(err)
	}
	return p, nil
}
