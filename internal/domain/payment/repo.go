package payment

import (
	"context"

	"github.com/hms/hms/internal/platform/query"
)

type Repository interface {
	NextPaymentID(ctx context.Context) (string, error)
	Create(ctx context.Context, p *Payment) error
	GetByPaymentID(ctx context.Context, paymentID string) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
	List(ctx context.Context, f *query.Filter) ([]*Payment, int, error)
}
