package analytics

import (
	"context"
	"time"
)

// EntityKind selects which table trend and export queries run against.
type EntityKind string

const (
	KindAppointments EntityKind = "appointments"
	KindPayments     EntityKind = "payments"
	KindPatients     EntityKind = "patients"
)

func ValidEntityKind(k EntityKind) bool {
	switch k {
	case KindAppointments, KindPayments, KindPatients:
		return true
	}
	return false
}

// GroupBy values accepted by trend queries; they map to date_trunc units.
const (
	GroupByDay   = "day"
	GroupByWeek  = "week"
	GroupByMonth = "month"
)

func ValidGroupBy(g string) bool {
	return g == GroupByDay || g == GroupByWeek || g == GroupByMonth
}

// Scope narrows aggregation queries. A zero HospitalID means all
// hospitals; nil dates leave the range unbounded on that side.
type Scope struct {
	HospitalID string
	DateFrom   *time.Time
	DateTo     *time.Time
}

// TrendPoint is one bucket of an ordered time series. Sum is only
// populated for payment trends.
type TrendPoint struct {
	Bucket time.Time `json:"bucket"`
	Count  int       `json:"count"`
	Sum    float64   `json:"sum"`
}

// Row is one unaggregated export record.
type Row map[string]interface{}

type Repository interface {
	Counts(ctx context.Context, scope Scope) (*Counts, error)
	Trends(ctx context.Context, kind EntityKind, groupBy string, scope Scope) ([]TrendPoint, error)
	ExportRaw(ctx context.Context, kind EntityKind, scope Scope) ([]Row, error)
}
