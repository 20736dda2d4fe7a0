package hospital

import (
	"context"

	"github.com/hms/hms/pkg/pagination"
)

type Repository interface {
	NextHospitalID(ctx context.Context) (string, error)
	Create(ctx context.Context, h *Hospital) error
	GetByHospitalID(ctx context.Context, hospitalID string) (*Hospital, error)
	Update(ctx context.Context, h *Hospital) error
	SetActive(ctx context.Context, hospitalID string, active bool) error
	List(ctx context.Context, includeInactive bool, pg pagination.Params) ([]*Hospital, int, error)
}
