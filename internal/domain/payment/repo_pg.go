package payment

import (
	"context"
	"encoding/json"
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

const payCols = `id, payment_id, patient_id, doctor_id, hospital_id, appointment_id,
	currency, method, status, items, subtotal, tax, discount, total,
	insurance, refund, created_at, updated_at`

func (r *repoPG) NextPaymentID(ctx context.Context) (string, error) {
	return db.NextID(ctx, r.conn(ctx), "PAY", db.SeqPayment)
}

func (r *repoPG) Create(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	items, insurance, refund, err := marshalPayment(p)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO payment (
			id, payment_id, patient_id, doctor_id, hospital_id, appointment_id,
			currency, method, status, items, subtotal, tax, discount, total,
			insurance, refund
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		p.ID, p.PaymentID, p.PatientID, p.DoctorID, p.HospitalID, p.AppointmentID,
		p.Currency, p.Method, p.Status, items, p.Subtotal, p.Tax, p.Discount, p.Total,
		insurance, refund,
	)
	return err
}

func (r *repoPG) GetByPaymentID(ctx context.Context, paymentID string) (*Payment, error) {
	return scanPayment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+payCols+` FROM payment WHERE payment_id = $1`, paymentID))
}

func (r *repoPG) Update(ctx context.Context, p *Payment) error {
	items, insurance, refund, err := marshalPayment(p)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE payment SET
			currency=$2, method=$3, status=$4, items=$5,
			subtotal=$6, tax=$7, discount=$8, total=$9,
			insurance=$10, refund=$11, updated_at=NOW()
		WHERE payment_id = $1`,
		p.PaymentID, p.Currency, p.Method, p.Status, items,
		p.Subtotal, p.Tax, p.Discount, p.Total,
		insurance, refund,
	)
	return err
}

func (r *repoPG) List(ctx context.Context, f *query.Filter) ([]*Payment, int, error) {
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
		where += " AND created_at >= " + arg(*f.DateFrom)
	}
	if f.DateTo != nil {
		where += " AND created_at < " + arg(f.DateTo.AddDate(0, 0, 1))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM payment `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := fmt.Sprintf(`SELECT %s FROM payment %s ORDER BY %s LIMIT %s OFFSET %s`,
		payCols, where, f.OrderClause(), arg(f.Page.Limit), arg(f.Page.Offset()))
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func marshalPayment(p *Payment) (items, insurance, refund []byte, err error) {
	if p.Items != nil {
		if items, err = json.Marshal(p.Items); err != nil {
			return nil, nil, nil, fmt.Errorf("marshal items: %w", err)
		}
	}
	if p.Insurance != nil {
		if insurance, err = json.Marshal(p.Insurance); err != nil {
			return nil, nil, nil, fmt.Errorf("marshal insurance: %w", err)
		}
	}
	if p.Refund != nil {
		if refund, err = json.Marshal(p.Refund); err != nil {
			return nil, nil, nil, fmt.Errorf("marshal refund: %w", err)
		}
	}
	return items, insurance, refund, nil
}

func scanPayment(row pgx.Row) (*Payment, error) {
	p := &Payment{}
	var items, insurance, refund []byte

	if err := row.Scan(
		&p.ID, &p.PaymentID, &p.PatientID, &p.DoctorID, &p.HospitalID, &p.AppointmentID,
		&p.Currency, &p.Method, &p.Status, &items, &p.Subtotal, &p.Tax, &p.Discount, &p.Total,
		&insurance, &refund, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(items) > 0 {
		if err := json.Unmarshal(items, &p.Items); err != nil {
			return nil, fmt.Errorf("unmarshal items: %w", err)
		}
	}
	if len(insurance) > 0 {
		if err := json.Unmarshal(insurance, &p.Insurance); err != nil {
			return nil, fmt.Errorf("unmarshal insurance: %w", err)
		}
	}
	if len(refund) > 0 {
		if err := json.Unmarshal(refund, &p.Refund); err != nil {
			return nil, fmt.Errorf("unmarshal refund: %w", err)
		}
	}

	return p, nil
}
