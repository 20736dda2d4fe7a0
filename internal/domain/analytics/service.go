package analytics

import (
	"context"

	"github.com/hms/hms/internal/platform/respond"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Dashboard gathers the raw counts for the scope and derives the
// overview rates.
func (s *Service) Dashboard(ctx context.Context, scope Scope) (*Overview, error) {
	counts, err := s.repo.Counts(ctx, scope)
	if err != nil {
		return nil, respond.Internal(err)
	}
	return BuildOverview(*counts), nil
}

// Trends returns an ordered time series of counts (and sums for
// payments) bucketed by day, week or month.
func (s *Service) Trends(ctx context.Context, kind EntityKind, groupBy string, scope Scope) ([]TrendPoint, error) {
	if !ValidEntityKind(kind) {
		return nil, respond.Invalid("entity", "must be one of appointments, payments, patients")
	}
	if groupBy == "" {
		groupBy = GroupByDay
	}
	if !ValidGroupBy(groupBy) {
		return nil, respond.Invalid("group_by", "must be one of day, week, month")
	}

	series, err := s.repo.Trends(ctx, kind, groupBy, scope)
	if err != nil {
		return nil, respond.Internal(err)
	}
	return series, nil
}

// ExportRaw returns the filtered unaggregated rows for the entity kind.
func (s *Service) ExportRaw(ctx context.Context, kind EntityKind, scope Scope) ([]Row, error) {
	if !ValidEntityKind(kind) {
		return nil, respond.Invalid("entity", "must be one of appointments, payments, patients")
	}
	rows, err := s.repo.ExportRaw(ctx, kind, scope)
	if err != nil {
		return nil, respond.Internal(err)
	}
	return rows, nil
}
