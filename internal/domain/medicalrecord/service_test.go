package medicalrecord

import (
	"context"
	"fmt"
	"testing"

	"github.com/golang-jwt/jwt/v5"
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

// -- Mock repositories --

type mockRepo struct {
	items map[string]*MedicalRecord
	next  int
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[string]*MedicalRecord)}
}

func (m *mockRepo) NextRecordID(_ context.Context) (string, error) {
	m.next++
	return db.FormatID("MR", int64(m.next)), nil
}

func (m *mockRepo) Create(_ context.Context, rec *MedicalRecord) error {
	m.items[rec.RecordID] = rec
	return nil
}

func (m *mockRepo) GetByRecordID(_ context.Context, recordID string) (*MedicalRecord, error) {
	rec, ok := m.items[recordID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *rec
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, rec *MedicalRecord) error {
	if _, ok := m.items[rec.RecordID]; !ok {
		return fmt.Errorf("missing record %s", rec.RecordID)
	}
	m.items[rec.RecordID] = rec
	return nil
}

func (m *mockRepo) SetActive(_ context.Context, recordID string, active bool) error {
	rec, ok := m.items[recordID]
	if !ok {
		return pgx.ErrNoRows
	}
	rec.Active = active
	return nil
}

func (m *mockRepo) List(_ context.Context, _ *query.Filter, includeInactive bool) ([]*MedicalRecord, int, error) {
	var out []*MedicalRecord
	for _, rec := range m.items {
		if !rec.Active && !includeInactive {
			continue
		}
		out = append(out, rec)
	}
	return out, len(out), nil
}

type mockAudit struct {
	entries []*audit.Entry
	fail    bool
}

func (m *mockAudit) Append(_ context.Context, e *audit.Entry) error {
	if m.fail {
		return fmt.Errorf("audit store unavailable")
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockAudit) ListByRecord(_ context.Context, recordID string, limit, offset int) ([]*audit.Entry, int, error) {
	var out []*audit.Entry
	for _, e := range m.entries {
		if e.RecordID == recordID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func (m *mockAudit) byAction(action audit.Action) []*audit.Entry {
	var out []*audit.Entry
	for _, e := range m.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func doctorClaims(subject string) *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Role:             auth.RoleDoctor,
	}
}

func newTestService(repo Repository, auditRepo audit.Repository) *Service {
	return NewService(repo, auditRepo, blobstore.NewInMemoryBlobStore(1<<20), db.NopTxRunner{}, events.NopPublisher{})
}

func createRecord(t *testing.T, svc *Service, doctorID string) *MedicalRecord {
	t.Helper()
	rec := &MedicalRecord{
		PatientID:      "PAT000001",
		HospitalID:     "HOS000001",
		ChiefComplaint: "persistent cough",
	}
	if err := svc.Create(context.Background(), doctorClaims(doctorID), rec); err != nil {
		t.Fatalf("create record: %v", err)
	}
	return rec
}

func TestCreateAssignsSequentialIDsAndAudits(t *testing.T) {
	repo := newMockRepo()
	auditRepo := &mockAudit{}
	svc := newTestService(repo, auditRepo)

	first := createRecord(t, svc, "DOC000001")
	second := createRecord(t, svc, "DOC000001")

	if first.RecordID != "MR000001" || second.RecordID != "MR000002" {
		t.Fatalf("record ids = %q, %q", first.RecordID, second.RecordID)
	}
	if !first.Active {
		t.Fatal("new record should be active")
	}
	if first.DoctorID != "DOC000001" {
		t.Fatalf("doctor id = %q, want the creating doctor", first.DoctorID)
	}
	if got := auditRepo.byAction(audit.ActionCreated); len(got) != 2 {
		t.Fatalf("created audit entries = %d, want 2", len(got))
	}
}

func TestGetLogsEachViewIndependently(t *testing.T) {
	repo := newMockRepo()
	auditRepo := &mockAudit{}
	svc := newTestService(repo, auditRepo)
	rec := createRecord(t, svc, "DOC000001")

	for i := 0; i < 2; i++ {
		if _, err := svc.Get(context.Background(), doctorClaims("DOC000001"), rec.RecordID); err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
	}

	viewed := auditRepo.byAction(audit.ActionViewed)
	if len(viewed) != 2 {
		t.Fatalf("viewed entries = %d, want 2 (no dedup)", len(viewed))
	}
}

func TestGetFailsWhenAuditAppendFails(t *testing.T) {
	repo := newMockRepo()
	auditRepo := &mockAudit{}
	svc := newTestService(repo, auditRepo)
	rec := createRecord(t, svc, "DOC000001")

	auditRepo.fail = true
	_, err := svc.Get(context.Background(), doctorClaims("DOC000001"), rec.RecordID)
	re, ok := err.(*respond.Error)
	if !ok || re.Kind != respond.KindInternal {
		t.Fatalf("got %v, want internal error when the audit append fails", err)
	}
}

func TestExportAndPrintRecordDistinctActions(t *testing.T) {
	repo := newMockRepo()
	auditRepo := &mockAudit{}
	svc := newTestService(repo, auditRepo)
	rec := createRecord(t, svc, "DOC000001")

	if _, err := svc.Export(context.Background(), doctorClaims("DOC000001"), rec.RecordID); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := svc.Print(context.Background(), doctorClaims("DOC000001"), rec.RecordID); err != nil {
		t.Fatalf("print: %v", err)
	}

	if len(auditRepo.byAction(audit.ActionExported)) != 1 || len(auditRepo.byAction(audit.ActionPrinted)) != 1 {
		t.Fatalf("entries: %+v", auditRepo.entries)
	}
}

func TestGetDeniedForOtherDoctor(t *testing.T) {
	repo := newMockRepo()
	auditRepo := &mockAudit{}
	svc := newTestService(repo, auditRepo)
	rec := createRecord(t, svc, "DOC000001")

	_, err := svc.Get(context.Background(), doctorClaims("DOC000002"), rec.RecordID)
	re, ok := err.(*respond.Error)
	if !ok || re.Kind != respond.KindAccessDenied {
		t.Fatalf("got %v, want access denied", err)
	}
	// Denied reads are not logged.
	if len(auditRepo.byAction(audit.ActionViewed)) != 0 {
		t.Fatal("denied access must not append a viewed entry")
	}
}

func TestSoftDelete(t *testing.T) {
	repo := newMockRepo()
	auditRepo := &mockAudit{}
	svc := newTestService(repo, auditRepo)
	rec := createRecord(t, svc, "DOC000001")

	if err := svc.SoftDelete(context.Background(), doctorClaims("DOC000001"), rec.RecordID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if deleted := auditRepo.byAction(audit.ActionDeleted); len(deleted) != 1 {
		t.Fatalf("deleted entries = %d, want 1", len(deleted))
	}

	// Still retrievable by id.
	got, err := svc.Get(context.Background(), doctorClaims("DOC000001"), rec.RecordID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got.Active {
		t.Fatal("record should be inactive after soft delete")
	}

	// Excluded from default lists.
	records, total, err := svc.List(context.Background(), doctorClaims("DOC000001"), &query.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 || total != 0 {
		t.Fatalf("list after delete: %d records, total %d; want none", len(records), total)
	}
}

func TestAddProgressNote(t *testing.T) {
	repo := newMockRepo()
	auditRepo := &mockAudit{}
	svc := newTestService(repo, auditRepo)
	rec := createRecord(t, svc, "DOC000001")

	updated, err := svc.AddProgressNote(context.Background(), doctorClaims("DOC000001"), rec.RecordID, "responding to treatment")
	if err != nil {
		t.Fatalf("add note: %v", err)
	}
	if len(updated.ProgressNotes) != 1 || updated.ProgressNotes[0].AuthorID != "DOC000001" {
		t.Fatalf("notes = %+v", updated.ProgressNotes)
	}
	if len(auditRepo.byAction(audit.ActionEdited)) != 1 {
		t.Fatal("note append should audit one edit")
	}

	if _, err := svc.AddProgressNote(context.Background(), doctorClaims("DOC000001"), rec.RecordID, ""); err == nil {
		t.Fatal("empty note should be rejected")
	}
}

func TestAccessLogPagination(t *testing.T) {
	repo := newMockRepo()
	auditRepo := &mockAudit{}
	svc := newTestService(repo, auditRepo)
	rec := createRecord(t, svc, "DOC000001")

	for i := 0; i < 3; i++ {
		if _, err := svc.Get(context.Background(), doctorClaims("DOC000001"), rec.RecordID); err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
	}

	entries, total, err := svc.AccessLog(context.Background(), doctorClaims("DOC000001"), rec.RecordID, pagination.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("access log: %v", err)
	}
	// 1 created + 3 viewed.
	if total != 4 || len(entries) != 4 {
		t.Fatalf("access log: total=%d len=%d, want 4", total, len(entries))
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockAudit{})

	err := svc.Create(context.Background(), doctorClaims("DOC000001"), &MedicalRecord{})
	re, ok := err.(*respond.Error)
	if !ok || re.Kind != respond.KindValidation {
		t.Fatalf("got %v, want validation error", err)
	}
	if len(re.Fields) != 3 {
		t.Fatalf("fields = %v, want patient_id, hospital_id, chief_complaint", re.Fields)
	}
}
