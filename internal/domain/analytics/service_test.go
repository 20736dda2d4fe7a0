package analytics

import (
	"context"
	"testing"

	"github.com/hms/hms/internal/platform/respond"
)

type mockAnalyticsRepo struct {
	counts Counts
	trends []TrendPoint
	rows   []Row
}

func (m *mockAnalyticsRepo) Counts(_ context.Context, _ Scope) (*Counts, error) {
	c := m.counts
	return &c, nil
}

func (m *mockAnalyticsRepo) Trends(_ context.Context, _ EntityKind, _ string, _ Scope) ([]TrendPoint, error) {
	return m.trends, nil
}

func (m *mockAnalyticsRepo) ExportRaw(_ context.Context, _ EntityKind, _ Scope) ([]Row, error) {
	return m.rows, nil
}

func TestDashboardDerivesRates(t *testing.T) {
	svc := NewService(&mockAnalyticsRepo{counts: Counts{
		Appointments:         4,
		AppointmentsByStatus: map[string]int{"completed": 2},
	}})

	o, err := svc.Dashboard(context.Background(), Scope{})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if o.CompletionRate != 0.5 {
		t.Fatalf("completion rate = %v, want 0.5", o.CompletionRate)
	}
}

func TestTrendsValidation(t *testing.T) {
	svc := NewService(&mockAnalyticsRepo{})

	if _, err := svc.Trends(context.Background(), "users", GroupByDay, Scope{}); err == nil {
		t.Fatal("unknown entity kind accepted")
	}

	_, err := svc.Trends(context.Background(), KindAppointments, "hour", Scope{})
	re, ok := err.(*respond.Error)
	if !ok || re.Kind != respond.KindValidation {
		t.Fatalf("got %v, want validation error for group_by=hour", err)
	}

	// Empty group_by falls back to day.
	if _, err := svc.Trends(context.Background(), KindAppointments, "", Scope{}); err != nil {
		t.Fatalf("default group by: %v", err)
	}
}

func TestExportRawRejectsUnknownKind(t *testing.T) {
	svc := NewService(&mockAnalyticsRepo{})

	_, err := svc.ExportRaw(context.Background(), "medical_records", Scope{})
	re, ok := err.(*respond.Error)
	if !ok || re.Kind != respond.KindValidation {
		t.Fatalf("got %v, want validation error", err)
	}

	if _, err := svc.ExportRaw(context.Background(), KindPayments, Scope{}); err != nil {
		t.Fatalf("export payments: %v", err)
	}
}
