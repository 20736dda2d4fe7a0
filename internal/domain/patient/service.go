package patient

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/platform/auth"
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

func (s *Service) Register(ctx context.Context, p *Patient) error {
	var fields []respond.FieldError
	if p.HospitalID == "" {
		fields = append(fields, respond.FieldError{Field: "hospital_id", Message: "is required"})
	}
	if p.Name == "" {
		fields = append(fields, respond.FieldError{Field: "name", Message: "is required"})
	}
	if p.BloodGroup != "" && !ValidBloodGroup(p.BloodGroup) {
		fields = append(fields, respond.FieldError{Field: "blood_group", Message: "unknown blood group"})
	}
	if len(fields) > 0 {
		return respond.Validation(fields...)
	}

	p.Active = true
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		patientID, err := s.repo.NextPatientID(ctx)
		if err != nil {
			return err
		}
		p.PatientID = patientID
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return respond.Internal(err)
	}
	return nil
}

// Get returns a patient profile. Patients can only read their own.
func (s *Service) Get(ctx context.Context, claims *auth.Claims, patientID string) (*Patient, error) {
	if claims != nil && claims.Role == auth.RolePatient && claims.Subject != patientID {
		return nil, respond.Denied()
	}
	return s.find(ctx, patientID)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Patient, int, error) {
	patients, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, respond.Internal(err)
	}
	return patients, total, nil
}

func (s *Service) Update(ctx context.Context, claims *auth.Claims, patientID string, upd *Patient) (*Patient, error) {
	if claims != nil && claims.Role == auth.RolePatient && claims.Subject != patientID {
		return nil, respond.Denied()
	}

	p, err := s.find(ctx, patientID)
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
	if upd.DateOfBirth != nil {
		p.DateOfBirth = upd.DateOfBirth
	}
	if upd.Gender != "" {
		p.Gender = upd.Gender
	}
	if upd.BloodGroup != "" {
		if !ValidBloodGroup(upd.BloodGroup) {
			return nil, respond.Invalid("blood_group", "unknown blood group")
		}
		p.BloodGroup = upd.BloodGroup
	}
	if upd.Address != nil {
		p.Address = upd.Address
	}
	if upd.EmergencyContact != nil {
		p.EmergencyContact = upd.EmergencyContact
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, respond.Internal(err)
	}
	return p, nil
}

func (s *Service) Deactivate(ctx context.Context, patientID string) error {
	err := s.repo.SetActive(ctx, patientID, false)
	if errors.Is(err, pgx.ErrNoRows) {
		return respond.NotFound("patient")
	}
	if err != nil {
		return respond.Internal(err)
	}
	return nil
}

func (s *Service) find(ctx context.Context, patientID string) (*Patient, error) {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, respond.NotFound("patient")
	}
	if err != nil {
		return nil, respond.Internal(err)
	}
	return p, nil
}
