package analytics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
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

// tables maps an entity kind to its table and the timestamp column the
// date range applies to.
var tables = map[EntityKind]struct {
	name    string
	dateCol string
}{
	KindAppointments: {"appointment", "scheduled_at"},
	KindPayments:     {"payment", "created_at"},
	KindPatients:     {"patient", "created_at"},
}

// scopeWhere renders the WHERE clause for a scope against the given
// timestamp column, appending bind arguments to args.
func scopeWhere(scope Scope, dateCol string, args *[]interface{}) string {
	where := "WHERE 1=1"
	arg := func(v interface{}) string {
		*args = append(*args, v)
		return fmt.Sprintf("$%d", len(*args))
	}
	if scope.HospitalID != "" {
		where += " AND hospital_id = " + arg(scope.HospitalID)
	}
	if scope.DateFrom != nil {
		where += " AND " + dateCol + " >= " + arg(*scope.DateFrom)
	}
	if scope.DateTo != nil {
		where += " AND " + dateCol + " < " + arg(scope.DateTo.AddDate(0, 0, 1))
	}
	return where
}

func (r *repoPG) Counts(ctx context.Context, scope Scope) (*Counts, error) {
	c := &Counts{AppointmentsByStatus: map[string]int{}}
	q := r.conn(ctx)

	var args []interface{}
	where := scopeWhere(scope, "created_at", &args)
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM patient `+where+` AND active = TRUE`, args...).Scan(&c.Patients); err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}

	args = args[:0]
	where = scopeWhere(scope, "scheduled_at", &args)
	rows, err := q.Query(ctx,
		`SELECT status, COUNT(*) FROM appointment `+where+` GROUP BY status`, args...)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		c.AppointmentsByStatus[status] = n
		c.Appointments += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	args = args[:0]
	where = scopeWhere(scope, "created_at", &args)
	if err := q.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COALESCE(SUM(total) FILTER (WHERE status = 'completed'), 0)
		FROM payment `+where, args...).Scan(&c.Payments, &c.PendingPayments, &c.Revenue); err != nil {
		return nil, fmt.Errorf("count payments: %w", err)
	}

	// Doctor and bed counts reflect the current registry, not the date
	// range.
	staffArgs := []interface{}{}
	staffWhere := "WHERE 1=1"
	if scope.HospitalID != "" {
		staffArgs = append(staffArgs, scope.HospitalID)
		staffWhere += " AND hospital_id = $1"
	}
	if err := q.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE active = TRUE)
		FROM staff `+staffWhere, staffArgs...).Scan(&c.Doctors, &c.ActiveDoctors); err != nil {
		return nil, fmt.Errorf("count staff: %w", err)
	}

	hospArgs := []interface{}{}
	hospWhere := "WHERE active = TRUE"
	if scope.HospitalID != "" {
		hospArgs = append(hospArgs, scope.HospitalID)
		hospWhere += " AND hospital_id = $1"
	}
	if err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_beds), 0), COALESCE(SUM(occupied_beds), 0)
		FROM hospital `+hospWhere, hospArgs...).Scan(&c.TotalBeds, &c.OccupiedBeds); err != nil {
		return nil, fmt.Errorf("sum beds: %w", err)
	}

	return c, nil
}

func (r *repoPG) Trends(ctx context.Context, kind EntityKind, groupBy string, scope Scope) ([]TrendPoint, error) {
	t := tables[kind]

	var args []interface{}
	where := scopeWhere(scope, t.dateCol, &args)
	args = append(args, groupBy)
	bucket := fmt.Sprintf("date_trunc($%d, %s)", len(args), t.dateCol)

	sum := "0"
	if kind == KindPayments {
		sum = "COALESCE(SUM(total), 0)"
	}

	sql := fmt.Sprintf(`
		SELECT %s AS bucket, COUNT(*), %s
		FROM %s %s
		GROUP BY bucket ORDER BY bucket ASC`, bucket, sum, t.name, where)

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s trends: %w", kind, err)
	}
	defer rows.Close()

	var series []TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Bucket, &p.Count, &p.Sum); err != nil {
			return nil, err
		}
		series = append(series, p)
	}
	return series, rows.Err()
}

func (r *repoPG) ExportRaw(ctx context.Context, kind EntityKind, scope Scope) ([]Row, error) {
	t := tables[kind]

	var args []interface{}
	where := scopeWhere(scope, t.dateCol, &args)

	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT * FROM %s %s ORDER BY %s ASC`, t.name, where, t.dateCol), args...)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", kind, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(Row, len(fields))
		for i, fd := range fields {
			row[string(fd.Name)] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
