// Package audit is the record access log: an append-only trail of who
// touched a medical record and how. Entries live in their own table keyed
// by record id, so record documents stay bounded no matter how often they
// are read.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

// Action is the closed set of access kinds recorded in the audit trail.
type Action string

const (
	ActionViewed   Action = "viewed"
	ActionEdited   Action = "edited"
	ActionPrinted  Action = "printed"
	ActionExported Action = "exported"
	ActionCreated  Action = "created"
	ActionDeleted  Action = "deleted"
)

var validActions = map[Action]bool{
	ActionViewed:   true,
	ActionEdited:   true,
	ActionPrinted:  true,
	ActionExported: true,
	ActionCreated:  true,
	ActionDeleted:  true,
}

// Entry is a single audit trail row.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	RecordID   string    `json:"record_id"`
	AccessedBy string    `json:"accessed_by"`
	Action     Action    `json:"action"`
	AccessedAt time.Time `json:"accessed_at"`
}

// Repository persists audit entries. Append joins the transaction carried
// by the context when one is present, so a record mutation and its audit
// entry commit atomically and there is no lost-audit window.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	ListByRecord(ctx context.Context, recordID string, limit, offset int) ([]*Entry, int, error)
}

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

func (r *repoPG) Append(ctx context.Context, e *Entry) error {
	if !validActions[e.Action] {
		return fmt.Errorf("invalid audit action: %s", e.Action)
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.AccessedAt.IsZero() {
		e.AccessedAt = time.Now().UTC()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO record_access_log (id, record_id, accessed_by, action, accessed_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.RecordID, e.AccessedBy, e.Action, e.AccessedAt,
	)
	return err
}

func (r *repoPG) ListByRecord(ctx context.Context, recordID string, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM record_access_log WHERE record_id = $1`, recordID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, record_id, accessed_by, action, accessed_at
		FROM record_access_log
		WHERE record_id = $1
		ORDER BY accessed_at ASC
		LIMIT $2 OFFSET $3`, recordID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.RecordID, &e.AccessedBy, &e.Action, &e.AccessedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
