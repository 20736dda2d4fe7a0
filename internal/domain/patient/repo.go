package patient

import (
	"context"

	"github.com/hms/hms/pkg/pagination"
)

type ListFilter struct {
	HospitalID      string
	Search          string
	IncludeInactive bool
	Page            pagination.Params
}

type Repository interface {
	NextPatientID(ctx context.Context) (string, error)
	Create(ctx context.Context, p *Patient) error
	GetByPatientID(ctx context.Context, patientID string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	SetActive(ctx context.Context, patientID string, active bool) error
	List(ctx context.Context, f ListFilter) ([]*Patient, int, error)
}
