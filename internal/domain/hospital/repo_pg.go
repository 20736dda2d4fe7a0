package hospital

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/pkg/pagination"
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

const hospitalCols = `id, hospital_id, name, address, city, phone, email,
	total_beds, occupied_beds, departments, active, created_at, updated_at`

func (r *repoPG) NextHospitalID(ctx context.Context) (string, error) {
	return db.NextID(ctx, r.conn(ctx), "HOS", db.SeqHospital)
}

func (r *repoPG) Create(ctx context.Context, h *Hospital) error {
	h.ID = uuid.New()
	departments, err := marshalDepartments(h.Departments)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO hospital (
			id, hospital_id, name, address, city, phone, email,
			total_beds, occupied_beds, departments, active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		h.ID, h.HospitalID, h.Name, h.Address, h.City, h.Phone, h.Email,
		h.TotalBeds, h.OccupiedBeds, departments, h.Active,
	)
	return err
}

func (r *repoPG) GetByHospitalID(ctx context.Context, hospitalID string) (*Hospital, error) {
	return scanHospital(r.conn(ctx).QueryRow(ctx,
		`SELECT `+hospitalCols+` FROM hospital WHERE hospital_id = $1`, hospitalID))
}

func (r *repoPG) Update(ctx context.Context, h *Hospital) error {
	departments, err := marshalDepartments(h.Departments)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE hospital SET
			name=$2, address=$3, city=$4, phone=$5, email=$6,
			total_beds=$7, occupied_beds=$8, departments=$9, updated_at=NOW()
		WHERE hospital_id = $1`,
		h.HospitalID, h.Name, h.Address, h.City, h.Phone, h.Email,
		h.TotalBeds, h.OccupiedBeds, departments,
	)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, hospitalID string, active bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE hospital SET active=$2, updated_at=NOW() WHERE hospital_id = $1`,
		hospitalID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, includeInactive bool, pg pagination.Params) ([]*Hospital, int, error) {
	where := "WHERE 1=1"
	if !includeInactive {
		where += " AND active = TRUE"
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM hospital `+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT %s FROM hospital %s ORDER BY name ASC LIMIT $1 OFFSET $2`,
		hospitalCols, where), pg.Limit, pg.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var hospitals []*Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, 0, err
		}
		hospitals = append(hospitals, h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return hospitals, total, nil
}

func marshalDepartments(d []string) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal departments: %w", err)
	}
	return b, nil
}

func scanHospital(row pgx.Row) (*Hospital, error) {
	h := &Hospital{}
	var departments []byte

	if err := row.Scan(
		&h.ID, &h.HospitalID, &h.Name, &h.Address, &h.City, &h.Phone, &h.Email,
		&h.TotalBeds, &h.OccupiedBeds, &departments, &h.Active,
		&h.CreatedAt, &h.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(departments) > 0 {
		if err := json.Unmarshal(departments, &h.Departments); err != nil {
			return nil, fmt.Errorf("unmarshal departments: %w", err)
		}
	}

	return h, nil
}
