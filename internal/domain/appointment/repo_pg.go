package appointment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/query"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const aptCols = `id, appointment_id, patient_id, doctor_id, hospital_id,
	scheduled_at, duration_minutes, type, reason, status, notes,
	created_at, updated_at`

func (r *repoPG) NextAppointmentID(ctx context.Context) (string, error) {
	return db.NextID(ctx, r.conn(ctx), "APT", db.SeqAppointment)
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (
			id, appointment_id, patient_id, doctor_id, hospital_id,
			scheduled_at, duration_minutes, type, reason, status, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.AppointmentID, a.PatientID, a.DoctorID, a.HospitalID,
		a.ScheduledAt, a.DurationMinutes, a.Type, a.Reason, a.Status, a.Notes,
	)
	return err
}

func (r *repoPG) GetByAppointmentID(ctx context.Context, appointmentID string) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+aptCols+` FROM appointment WHERE appointment_id = $1`, appointmentID))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET
			scheduled_at=$2, duration_minutes=$3, type=$4, reason=$5,
			status=$6, notes=$7, updated_at=NOW()
		WHERE appointment_id = $1`,
		a.AppointmentID, a.ScheduledAt, a.DurationMinutes, a.Type, a.Reason,
		a.Status, a.Notes,
	)
	return err
}

func (r *repoPG) List(ctx context.Context, f *query.Filter) ([]*Appointment, int, error) {
	where := "WHERE 1=1"
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.PatientID != "" {
		where += " AND patient_id = " + arg(f.PatientID)
	}
	if f.DoctorID != "" {
		where += " AND doctor_id = " + arg(f.DoctorID)
	}
	if f.HospitalID != "" {
		where += " AND hospital_id = " + arg(f.HospitalID)
	}
	if f.DateFrom != nil {
		where += " AND scheduled_at >= " + arg(*f.DateFrom)
	}
	if f.DateTo != nil {
		where += " AND scheduled_at < " + arg(f.DateTo.AddDate(0, 0, 1))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := fmt.Sprintf(`SELECT %s FROM appointment %s ORDER BY %s LIMIT %s OFFSET %s`,
		aptCols, where, f.OrderClause(), arg(f.Page.Limit), arg(f.Page.Offset()))
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var appointments []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return appointments, total, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	a := &Appointment{}
	if err := row.Scan(
		&a.ID, &a.AppointmentID, &a.PatientID, &a.DoctorID, &a.HospitalID,
		&a.ScheduledAt, &a.DurationMinutes, &a.Type, &a.Reason, &a.Status, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return a, nil
}
