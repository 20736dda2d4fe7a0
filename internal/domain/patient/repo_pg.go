package patient

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

const patientCols = `id, patient_id, hospital_id, name, email, phone,
	date_of_birth, gender, blood_group, address, emergency_contact,
	active, created_at, updated_at`

func (r *repoPG) NextPatientID(ctx context.Context) (string, error) {
	return db.NextID(ctx, r.conn(ctx), "PAT", db.SeqPatient)
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	address, contact, err := marshalPatient(p)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (
			id, patient_id, hospital_id, name, email, phone,
			date_of_birth, gender, blood_group, address, emergency_contact,
			active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.PatientID, p.HospitalID, p.Name, p.Email, p.Phone,
		p.DateOfBirth, p.Gender, p.BloodGroup, address, contact,
		p.Active,
	)
	return err
}

func (r *repoPG) GetByPatientID(ctx context.Context, patientID string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE patient_id = $1`, patientID))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	address, contact, err := marshalPatient(p)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE patient SET
			name=$2, email=$3, phone=$4, date_of_birth=$5, gender=$6,
			blood_group=$7, address=$8, emergency_contact=$9, updated_at=NOW()
		WHERE patient_id = $1`,
		p.PatientID, p.Name, p.Email, p.Phone, p.DateOfBirth, p.Gender,
		p.BloodGroup, address, contact,
	)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, patientID string, active bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patient SET active=$2, updated_at=NOW() WHERE patient_id = $1`,
		patientID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f ListFilter) ([]*Patient, int, error) {
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
	if f.Search != "" {
		where += " AND (name ILIKE " + arg("%"+f.Search+"%") + " OR patient_id = " + arg(f.Search) + ")"
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := fmt.Sprintf(`SELECT %s FROM patient %s ORDER BY name ASC LIMIT %s OFFSET %s`,
		patientCols, where, arg(f.Page.Limit), arg(f.Page.Offset()))
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return patients, total, nil
}

func marshalPatient(p *Patient) (address, contact []byte, err error) {
	if p.Address != nil {
		if address, err = json.Marshal(p.Address); err != nil {
			return nil, nil, fmt.Errorf("marshal address: %w", err)
		}
	}
	if p.EmergencyContact != nil {
		if contact, err = json.Marshal(p.EmergencyContact); err != nil {
			return nil, nil, fmt.Errorf("marshal emergency_contact: %w", err)
		}
	}
	return address, contact, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	p := &Patient{}
	var address, contact []byte

	if err := row.Scan(
		&p.ID, &p.PatientID, &p.HospitalID, &p.Name, &p.Email, &p.Phone,
		&p.DateOfBirth, &p.Gender, &p.BloodGroup, &address, &contact,
		&p.Active, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(address) > 0 {
		if err := json.Unmarshal(address, &p.Address); err != nil {
			return nil, fmt.Errorf("unmarshal address: %w", err)
		}
	}
	if len(contact) > 0 {
		if err := json.Unmarshal(contact, &p.EmergencyContact); err != nil {
			return nil, fmt.Errorf("unmarshal emergency_contact: %w", err)
		}
	}

	return p, nil
}
