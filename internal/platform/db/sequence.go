package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx operations shared by pools, connections and
// transactions. Repositories accept it so that a caller can run them inside
// a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Sequence names backing human-readable business ids. They must match the
// sequences created by the migrations.
const (
	SeqMedicalRecord = "medical_record_seq"
	SeqProfessional  = "staff_seq"
	SeqPayment       = "payment_seq"
	SeqAppointment   = "appointment_seq"
	SeqPatient       = "patient_seq"
	SeqHospital      = "hospital_seq"
)

// NextID draws the next value from a Postgres sequence and formats it as a
// business id, e.g. NextID(ctx, q, "MR", SeqMedicalRecord) -> "MR000001".
// nextval is atomic, so ids issued by concurrent request handlers cannot
// collide.
func NextID(ctx context.Context, q Querier, prefix, sequence string) (string, error) {
	var n int64
	if err := q.QueryRow(ctx, `SELECT nextval($1)`, sequence).Scan(&n); err != nil {
		return "", fmt.Errorf("next value of %s: %w", sequence, err)
	}
	return FormatID(prefix, n), nil
}

// FormatID renders a sequence value as a zero-padded business id.
func FormatID(prefix string, n int64) string {
	return fmt.Sprintf("%s%06d", prefix, n)
}
