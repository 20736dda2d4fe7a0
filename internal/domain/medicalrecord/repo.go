package medicalrecord

import (
	"context"

	"github.com/hms/hms/internal/platform/query"
)

type Repository interface {
	// NextRecordID issues the next MR business id from the store's
	// atomic sequence.
	NextRecordID(ctx context.Context) (string, error)
	Create(ctx context.Context, rec *MedicalRecord) error
	GetByRecordID(ctx context.Context, recordID string) (*MedicalRecord, error)
	Update(ctx context.Context, rec *MedicalRecord) error
	SetActive(ctx context.Context, recordID string, active bool) error
	// List returns active records matching the filter plus the total count.
	// Inactive (soft-deleted) records are excluded unless includeInactive.
	List(ctx context.Context, f *query.Filter, includeInactive bool) ([]*MedicalRecord, int, error)
}
