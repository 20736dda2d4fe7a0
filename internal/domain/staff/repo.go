package staff

import (
	"context"

	"github.com/hms/hms/pkg/pagination"
)

// ListFilter narrows the professional registry listing. Zero values
// leave the corresponding column unconstrained.
type ListFilter struct {
	HospitalID      string
	Specialization  string
	Department      string
	IncludeInactive bool
	Page            pagination.Params
}

type Repository interface {
	NextProfessionalID(ctx context.Context) (string, error)
	Create(ctx context.Context, p *Professional) error
	GetByProfessionalID(ctx context.Context, professionalID string) (*Professional, error)
	GetByLicenseNumber(ctx context.Context, license string) (*Professional, error)
	Update(ctx context.Context, p *Professional) error
	SetActive(ctx context.Context, professionalID string, active bool) error
	List(ctx context.Context, f ListFilter) ([]*Professional, int, error)
}
