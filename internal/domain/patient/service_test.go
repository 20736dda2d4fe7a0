package patient

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/respond"
)

type mockRepo struct {
	items map[string]*Patient
	next  int
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[string]*Patient)}
}

func (m *mockRepo) NextPatientID(_ context.Context) (string, error) {
	m.next++
	return db.FormatID("PAT", int64(m.next)), nil
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	m.items[p.PatientID] = p
	return nil
}

func (m *mockRepo) GetByPatientID(_ context.Context, patientID string) (*Patient, error) {
	p, ok := m.items[patientID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	m.items[p.PatientID] = p
	return nil
}

func (m *mockRepo) SetActive(_ context.Context, patientID string, active bool) error {
	p, ok := m.items[patientID]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Active = active
	return nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.items {
		if !f.IncludeInactive && !p.Active {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, db.NopTxRunner{})
}

func patientClaims(subject string) *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Role:             auth.RolePatient,
	}
}

func TestRegisterIssuesPatientID(t *testing.T) {
	svc := newTestService(newMockRepo())

	p := &Patient{HospitalID: "HOS000001", Name: "Maya Iyer", BloodGroup: "O+"}
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.PatientID != "PAT000001" {
		t.Fatalf("patient id = %q", p.PatientID)
	}
	if !p.Active {
		t.Fatal("new patient should be active")
	}
}

func TestRegisterValidatesBloodGroup(t *testing.T) {
	svc := newTestService(newMockRepo())

	err := svc.Register(context.Background(), &Patient{HospitalID: "HOS000001", Name: "X", BloodGroup: "Q+"})
	re, ok := err.(*respond.Error)
	if !ok || re.Kind != respond.KindValidation {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestPatientCanOnlyReadOwnProfile(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	p := &Patient{HospitalID: "HOS000001", Name: "Maya Iyer"}
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Get(context.Background(), patientClaims(p.PatientID), p.PatientID); err != nil {
		t.Fatalf("own profile: %v", err)
	}

	_, err := svc.Get(context.Background(), patientClaims("PAT000099"), p.PatientID)
	re, ok := err.(*respond.Error)
	if !ok || re.Kind != respond.KindAccessDenied {
		t.Fatalf("got %v, want access denied", err)
	}
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	p := &Patient{HospitalID: "HOS000001", Name: "Maya Iyer", Phone: "555-0100"}
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := svc.Update(context.Background(), nil, p.PatientID, &Patient{Phone: "555-0199"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Phone != "555-0199" || got.Name != "Maya Iyer" {
		t.Fatalf("after update: %+v", got)
	}
}
