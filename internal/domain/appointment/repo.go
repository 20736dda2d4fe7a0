package appointment

import (
	"context"

	"github.com/hms/hms/internal/platform/query"
)

type Repository interface {
	NextAppointmentID(ctx context.Context) (string, error)
	Create(ctx context.Context, a *Appointment) error
	GetByAppointmentID(ctx context.Context, appointmentID string) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	List(ctx context.Context, f *query.Filter) ([]*Appointment, int, error)
}
