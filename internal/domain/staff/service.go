package staff

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/respond"
)

type Service struct {
	repo Repository
	tx   db.TxRunner
}

func NewService(repo Repository, tx db.TxRunner) *Service {
	return &Service{repo: repo, tx: tx}
}

func (s *Service) Create(ctx context.Context, p *Professional) error {
	if err := validate(p); err != nil {
		return err
	}

	// License numbers are unique across the registry.
	existing, err := s.repo.GetByLicenseNumber(ctx, p.LicenseNumber)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return respond.Internal(err)
	}
	if existing != nil {
		return respond.Invalid("license_number", "license number is already registered")
	}

	p.Active = true
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		professionalID, err := s.repo.NextProfessionalID(ctx)
		if err != nil {
			return err
		}
		p.ProfessionalID = professionalID
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return respond.Internal(err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, professionalID string) (*Professional, error) {
	return s.find(ctx, professionalID)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Professional, int, error) {
	if f.Specialization != "" && !Specializations[f.Specialization] {
		return nil, 0, respond.Invalid("specialization", "unknown specialization")
	}
	pros, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, respond.Internal(err)
	}
	return pros, total, nil
}

// Update changes profile fields. The license number is immutable once
// registered.
func (s *Service) Update(ctx context.Context, professionalID string, upd *Professional) (*Professional, error) {
	p, err := s.find(ctx, professionalID)
	if err != nil {
		return nil, err
	}

	if upd.Name != "" {
		p.Name = upd.Name
	}
	if upd.Email != "" {
		p.Email = upd.Email
	}
	if upd.Phone != "" {
		p.Phone = upd.Phone
	}
	if upd.Specialization != "" {
		if !Specializations[upd.Specialization] {
			return nil, respond.Invalid("specialization", "unknown specialization")
		}
		p.Specialization = upd.Specialization
	}
	if upd.Department != "" {
		p.Department = upd.Department
	}
	if upd.WorkingHours != nil {
		p.WorkingHours = upd.WorkingHours
	}
	if upd.ConsultationFee > 0 {
		p.ConsultationFee = upd.ConsultationFee
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, respond.Internal(err)
	}
	return p, nil
}

func (s *Service) Deactivate(ctx context.Context, professionalID string) error {
	err := s.repo.SetActive(ctx, professionalID, false)
	if errors.Is(err, pgx.ErrNoRows) {
		return respond.NotFound("professional")
	}
	if err != nil {
		return respond.Internal(err)
	}
	return nil
}

func (s *Service) find(ctx context.Context, professionalID string) (*Professional, error) {
	p, err := s.repo.GetByProfessionalID(ctx, professionalID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, respond.NotFound("professional")
	}
	if err != nil {
		return nil, respond.Internal(err)
	}
	return p, nil
}

func validate(p *Professional) error {
	var fields []respond.FieldError
	if p.HospitalID == "" {
		fields = append(fields, respond.FieldError{Field: "hospital_id", Message: "is required"})
	}
	if p.Name == "" {
		fields = append(fields, respond.FieldError{Field: "name", Message: "is required"})
	}
	if p.LicenseNumber == "" {
		fields = append(fields, respond.FieldError{Field: "license_number", Message: "is required"})
	}
	if !Specializations[p.Specialization] {
		fields = append(fields, respond.FieldError{Field: "specialization", Message: "unknown specialization"})
	}
	if p.ConsultationFee < 0 {
		fields = append(fields, respond.FieldError{Field: "consultation_fee", Message: "must not be negative"})
	}
	if len(fields) > 0 {
		return respond.Validation(fields...)
	}
	return nil
}
