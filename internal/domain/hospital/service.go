package hospital

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/respond"
	"github.com/hms/hms/pkg/pagination"
)

type Service struct {
	repo Repository
	tx   db.TxRunner
}

func NewService(repo Repository, tx db.TxRunner) *Service {
	return &Service{repo: repo, tx: tx}
}

func (s *Service) Create(ctx context.Context, h *Hospital) error {
	var fields []respond.FieldError
	if h.Name == "" {
		fields = append(fields, respond.FieldError{Field: "name", Message: "is required"})
	}
	if h.TotalBeds < 0 {
		fields = append(fields, respond.FieldError{Field: "total_beds", Message: "must not be negative"})
	}
	if h.OccupiedBeds < 0 || h.OccupiedBeds > h.TotalBeds {
		fields = append(fields, respond.FieldError{Field: "occupied_beds", Message: "must be between 0 and total_beds"})
	}
	if len(fields) > 0 {
		return respond.Validation(fields...)
	}

	h.Active = true
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		hospitalID, err := s.repo.NextHospitalID(ctx)
		if err != nil {
			return err
		}
		h.HospitalID = hospitalID
		return s.repo.Create(ctx, h)
	})
	if err != nil {
		return respond.Internal(err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, hospitalID string) (*Hospital, error) {
	return s.find(ctx, hospitalID)
}

func (s *Service) List(ctx context.Context, includeInactive bool, pg pagination.Params) ([]*Hospital, int, error) {
	hospitals, total, err := s.repo.List(ctx, includeInactive, pg)
	if err != nil {
		return nil, 0, respond.Internal(err)
	}
	return hospitals, total, nil
}

func (s *Service) Update(ctx context.Context, hospitalID string, upd *Hospital) (*Hospital, error) {
	h, err := s.find(ctx, hospitalID)
	if err != nil {
		return nil, err
	}

	if upd.Name != "" {
		h.Name = upd.Name
	}
	if upd.Address != "" {
		h.Address = upd.Address
	}
	if upd.City != "" {
		h.City = upd.City
	}
	if upd.Phone != "" {
		h.Phone = upd.Phone
	}
	if upd.Email != "" {
		h.Email = upd.Email
	}
	if upd.Departments != nil {
		h.Departments = upd.Departments
	}

	if err := s.repo.Update(ctx, h); err != nil {
		return nil, respond.Internal(err)
	}
	return h, nil
}

// UpdateOccupancy adjusts the bed capacity counters feeding the occupancy
// analytics.
func (s *Service) UpdateOccupancy(ctx context.Context, hospitalID string, totalBeds, occupiedBeds int) (*Hospital, error) {
	if totalBeds < 0 {
		return nil, respond.Invalid("total_beds", "must not be negative")
	}
	if occupiedBeds < 0 || occupiedBeds > totalBeds {
		return nil, respond.Invalid("occupied_beds", "must be between 0 and total_beds")
	}

	h, err := s.find(ctx, hospitalID)
	if err != nil {
		return nil, err
	}

	h.TotalBeds = totalBeds
	h.OccupiedBeds = occupiedBeds
	if err := s.repo.Update(ctx, h); err != nil {
		return nil, respond.Internal(err)
	}
	return h, nil
}

func (s *Service) Deactivate(ctx context.Context, hospitalID string) error {
	err := s.repo.SetActive(ctx, hospitalID, false)
	if errors.Is(err, pgx.ErrNoRows) {
		return respond.NotFound("hospital")
	}
	if err != nil {
		return respond.Internal(err)
	}
	return nil
}

func (s *Service) find(ctx context.Context, hospitalID string) (*Hospital, error) {
	h, err := s.repo.GetByHospitalID(ctx, hospitalID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, respond.NotFound("hospital")
	}
	if err != nil {
		return nil, respond.Internal(err)
	}
	return h, nil
}
