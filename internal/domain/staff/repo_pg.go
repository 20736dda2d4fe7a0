package staff

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

const staffCols = `id, professional_id, hospital_id, name, email, phone,
	specialization, license_number, department, working_hours,
	consultation_fee, active, created_at, updated_at`

func (r *repoPG) NextProfessionalID(ctx context.Context) (string, error) {
	return db.NextID(ctx, r.conn(ctx), "DOC", db.SeqProfessional)
}

func (r *repoPG) Create(ctx context.Context, p *Professional) error {
	p.ID = uuid.New()
	hours, err := marshalHours(p.WorkingHours)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO staff (
			id, professional_id, hospital_id, name, email, phone,
			specialization, license_number, department, working_hours,
			consultation_fee, active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.ProfessionalID, p.HospitalID, p.Name, p.Email, p.Phone,
		p.Specialization, p.LicenseNumber, p.Department, hours,
		p.ConsultationFee, p.Active,
	)
	return err
}

func (r *repoPG) GetByProfessionalID(ctx context.Context, professionalID string) (*Professional, error) {
	return scanProfessional(r.conn(ctx).QueryRow(ctx,
		`SELECT `+staffCols+` FROM staff WHERE professional_id = $1`, professionalID))
}

func (r *repoPG) GetByLicenseNumber(ctx context.Context, license string) (*Professional, error) {
	return scanProfessional(r.conn(ctx).QueryRow(ctx,
		`SELECT `+staffCols+` FROM staff WHERE license_number = $1`, license))
}

func (r *repoPG) Update(ctx context.Context, p *Professional) error {
	hours, err := marshalHours(p.WorkingHours)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE staff SET
			name=$2, email=$3, phone=$4, specialization=$5,
			department=$6, working_hours=$7, consultation_fee=$8,
			updated_at=NOW()
		WHERE professional_id = $1`,
		p.ProfessionalID, p.Name, p.Email, p.Phone, p.Specialization,
		p.Department, hours, p.ConsultationFee,
	)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, professionalID string, active bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE staff SET active=$2, updated_at=NOW() WHERE professional_id = $1`,
		professionalID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f ListFilter) ([]*Professional, int, error) {
	where := "WHERE 1=1"
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !f.IncludeInactive {
		where += " AND active = TRUE"
	}
	if f.HospitalID != "" {
		where += " AND hospital_id = " + arg(f.HospitalID)
	}
	if f.Specialization != "" {
		where += " AND specialization = " + arg(f.Specialization)
	}
	if f.Department != "" {
		where += " AND department = " + arg(f.Department)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM staff `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := fmt.Sprintf(`SELECT %s FROM staff %s ORDER BY name ASC LIMIT %s OFFSET %s`,
		staffCols, where, arg(f.Page.Limit), arg(f.Page.Offset()))
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var pros []*Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, 0, err
		}
		pros = append(pros, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return pros, total, nil
}

func marshalHours(h WorkingHours) ([]byte, error) {
	if h == nil {
		return nil, nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("marshal working_hours: %w", err)
	}
	return b, nil
}

func scanProfessional(row pgx.Row) (*Professional, error) {
	p := &Professional{}
	var hours []byte

	if err := row.Scan(
		&p.ID, &p.ProfessionalID, &p.HospitalID, &p.Name, &p.Email, &p.Phone,
		&p.Specialization, &p.LicenseNumber, &p.Department, &hours,
		&p.ConsultationFee, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &p.WorkingHours); err != nil {
			return nil, fmt.Errorf("unmarshal working_hours: %w", err)
		}
	}

	return p, nil
}
