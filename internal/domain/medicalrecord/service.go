package medicalrecord

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/platform/audit"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/blobstore"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/events"
	"github.com/hms/hms/internal/platform/query"
	"github.com/hms/hms/internal/platform/respond"
	"github.com/hms/hms/pkg/pagination"
)

// Service owns the medical-record business rules: policy checks before
// every operation, exactly one audit entry per successful access, soft
// deletes, and atomic mutation+audit commits.
type Service struct {
	repo  Repository
	audit audit.Repository
	blobs blobstore.BlobStore
	tx    db.TxRunner
	pub   events.Publisher
}

func NewService(repo Repository, auditRepo audit.Repository, blobs blobstore.BlobStore, tx db.TxRunner, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Service{repo: repo, audit: auditRepo, blobs: blobs, tx: tx, pub: pub}
}

func (s *Service) Create(ctx context.Context, claims *auth.Claims, rec *MedicalRecord) error {
	var fields []respond.FieldError
	if rec.PatientID == "" {
		fields = append(fields, respond.FieldError{Field: "patient_id", Message: "is required"})
	}
	if rec.HospitalID == "" {
		fields = append(fields, respond.FieldError{Field: "hospital_id", Message: "is required"})
	}
	if rec.ChiefComplaint == "" {
		fields = append(fields, respond.FieldError{Field: "chief_complaint", Message: "is required"})
	}
	if len(fields) > 0 {
		return respond.Validation(fields...)
	}

	// The treating doctor documents their own visit.
	if claims != nil && claims.Role == auth.RoleDoctor {
		rec.DoctorID = claims.Subject
	}
	if rec.DoctorID == "" {
		return respond.Invalid("doctor_id", "is required")
	}
	if rec.VisitDate.IsZero() {
		rec.VisitDate = time.Now().UTC()
	}
	rec.Active = true

	if d := auth.Authorize(claims, auth.KindMedicalRecord, rec.Ownership(), auth.ActionCreate); !d.Allowed() {
		return d.Err()
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		recordID, err := s.repo.NextRecordID(ctx)
		if err != nil {
			return err
		}
		rec.RecordID = recordID
		if err := s.repo.Create(ctx, rec); err != nil {
			return err
		}
		return s.audit.Append(ctx, &audit.Entry{
			RecordID:   rec.RecordID,
			AccessedBy: claims.Subject,
			Action:     audit.ActionCreated,
		})
	})
	if err != nil {
		return respond.Internal(err)
	}

	_ = s.pub.Publish(ctx, events.Event{Type: "created", Topic: events.TopicMedicalRecords, EntityID: rec.RecordID})
	return nil
}

// Get returns a record by id and logs the view. Soft-deleted records stay
// retrievable by id for audit purposes.
func (s *Service) Get(ctx context.Context, claims *auth.Claims, recordID string) (*MedicalRecord, error) {
	return s.fetchLogged(ctx, claims, recordID, audit.ActionViewed)
}

// Export returns the record for export and logs the access as exported.
func (s *Service) Export(ctx context.Context, claims *auth.Claims, recordID string) (*MedicalRecord, error) {
	return s.fetchLogged(ctx, claims, recordID, audit.ActionExported)
}

// Print returns the record for printing and logs the access as printed.
func (s *Service) Print(ctx context.Context, claims *auth.Claims, recordID string) (*MedicalRecord, error) {
	return s.fetchLogged(ctx, claims, recordID, audit.ActionPrinted)
}

func (s *Service) fetchLogged(ctx context.Context, claims *auth.Claims, recordID string, action audit.Action) (*MedicalRecord, error) {
	rec, err := s.find(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if d := auth.Authorize(claims, auth.KindMedicalRecord, rec.Ownership(), auth.ActionRead); !d.Allowed() {
		return nil, d.Err()
	}
	// Each access is independently recorded; a failed append fails the
	// read, because audit completeness takes precedence over best effort.
	if err := s.audit.Append(ctx, &audit.Entry{
		RecordID:   rec.RecordID,
		AccessedBy: claims.Subject,
		Action:     action,
	}); err != nil {
		return nil, respond.Internal(err)
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, claims *auth.Claims, f *query.Filter) ([]*MedicalRecord, int, error) {
	records, total, err := s.repo.List(ctx, f, false)
	if err != nil {
		return nil, 0, respond.Internal(err)
	}
	return records, total, nil
}

func (s *Service) Update(ctx context.Context, claims *auth.Claims, recordID string, upd *ClinicalUpdate) (*MedicalRecord, error) {
	rec, err := s.find(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if d := auth.Authorize(claims, auth.KindMedicalRecord, rec.Ownership(), auth.ActionUpdate); !d.Allowed() {
		return nil, d.Err()
	}

	upd.Apply(rec)

	if err := s.persistEdit(ctx, claims, rec); err != nil {
		return nil, err
	}
	_ = s.pub.Publish(ctx, events.Event{Type: "updated", Topic: events.TopicMedicalRecords, EntityID: rec.RecordID})
	return rec, nil
}

// SoftDelete clears the active flag and appends a deleted audit entry. The
// record remains retrievable by id but disappears from default lists.
func (s *Service) SoftDelete(ctx context.Context, claims *auth.Claims, recordID string) error {
	rec, err := s.find(ctx, recordID)
	if err != nil {
		return err
	}
	if d := auth.Authorize(claims, auth.KindMedicalRecord, rec.Ownership(), auth.ActionDelete); !d.Allowed() {
		return d.Err()
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.SetActive(ctx, recordID, false); err != nil {
			return err
		}
		return s.audit.Append(ctx, &audit.Entry{
			RecordID:   recordID,
			AccessedBy: claims.Subject,
			Action:     audit.ActionDeleted,
		})
	})
	if err != nil {
		return respond.Internal(err)
	}

	_ = s.pub.Publish(ctx, events.Event{Type: "deleted", Topic: events.TopicMedicalRecords, EntityID: recordID})
	return nil
}

func (s *Service) AddProgressNote(ctx context.Context, claims *auth.Claims, recordID, note string) (*MedicalRecord, error) {
	if note == "" {
		return nil, respond.Invalid("note", "is required")
	}
	rec, err := s.find(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if d := auth.Authorize(claims, auth.KindMedicalRecord, rec.Ownership(), auth.ActionUpdate); !d.Allowed() {
		return nil, d.Err()
	}

	rec.ProgressNotes = append(rec.ProgressNotes, ProgressNote{
		ID:        uuid.New(),
		AuthorID:  claims.Subject,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	})

	if err := s.persistEdit(ctx, claims, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// AddAttachment uploads the file to the blob store and appends its metadata
// to the record.
func (s *Service) AddAttachment(ctx context.Context, claims *auth.Claims, recordID, fileName, contentType string, content io.Reader) (*MedicalRecord, error) {
	if fileName == "" {
		return nil, respond.Invalid("file", "is required")
	}
	rec, err := s.find(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if d := auth.Authorize(claims, auth.KindMedicalRecord, rec.Ownership(), auth.ActionUpdate); !d.Allowed() {
		return nil, d.Err()
	}

	meta, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
		FileName:    fileName,
		ContentType: contentType,
		RecordID:    recordID,
		CreatedBy:   claims.Subject,
	}, content)
	switch {
	case errors.Is(err, blobstore.ErrFileTooLarge),
		errors.Is(err, blobstore.ErrInvalidContentType),
		errors.Is(err, blobstore.ErrMissingFileName):
		return nil, respond.Invalid("file", err.Error())
	case err != nil:
		return nil, respond.Internal(err)
	}

	rec.Attachments = append(rec.Attachments, Attachment{
		ID:          meta.ID,
		FileName:    meta.FileName,
		ContentType: meta.ContentType,
		Size:        meta.Size,
		URL:         meta.URL,
		UploadedBy:  claims.Subject,
		UploadedAt:  meta.CreatedAt,
	})

	if err := s.persistEdit(ctx, claims, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// AccessLog returns the record's audit trail.
func (s *Service) AccessLog(ctx context.Context, claims *auth.Claims, recordID string, pg pagination.Params) ([]*audit.Entry, int, error) {
	if _, err := s.find(ctx, recordID); err != nil {
		return nil, 0, err
	}
	entries, total, err := s.audit.ListByRecord(ctx, recordID, pg.Limit, pg.Offset())
	if err != nil {
		return nil, 0, respond.Internal(err)
	}
	return entries, total, nil
}

func (s *Service) persistEdit(ctx context.Context, claims *auth.Claims, rec *MedicalRecord) error {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, rec); err != nil {
			return err
		}
		return s.audit.Append(ctx, &audit.Entry{
			RecordID:   rec.RecordID,
			AccessedBy: claims.Subject,
			Action:     audit.ActionEdited,
		})
	})
	if err != nil {
		return respond.Internal(err)
	}
	return nil
}

func (s *Service) find(ctx context.Context, recordID string) (*MedicalRecord, error) {
	rec, err := s.repo.GetByRecordID(ctx, recordID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, respond.NotFound("medical record")
	}
	if err != nil {
		return nil, respond.Internal(err)
	}
	return rec, nil
}
