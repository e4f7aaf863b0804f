package journal

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Store persists journal entries.
type Store interface {
	Insert(ctx context.Context, e Entry) error
	ListBySlot(ctx context.Context, slotID int64, limit int) ([]Entry, error)
}

// PostgresStore is the sqlx-backed Store. Schema lives in migrations/.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const insertEntry = `
INSERT INTO lending_journal
	(id, seq, operation, posting, order_id, slot_id, classification, amount, state, committed_at)
VALUES
	(:id, :seq, :operation, :posting, :order_id, :slot_id, :classification, :amount, :state, :committed_at)`

// Insert appends e to the journal.
func (s *PostgresStore) Insert(ctx context.Context, e Entry) error {
	if _, err := s.db.NamedExecContext(ctx, insertEntry, e); err != nil {
		return fmt.Errorf("journal: insert %s: %w", e.ID, err)
	}
	return nil
}

const selectBySlot = `
SELECT id, seq, operation, posting, order_id, slot_id, classification, amount, state, committed_at
FROM lending_journal
WHERE slot_id = $1
ORDER BY committed_at DESC, seq DESC
LIMIT $2`

// ListBySlot returns the latest entries of a slot, newest first.
func (s *PostgresStore) ListBySlot(ctx context.Context, slotID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []Entry
	if err := s.db.SelectContext(ctx, &out, selectBySlot, slotID, limit); err != nil {
		return nil, fmt.Errorf("journal: list slot %d: %w", slotID, err)
	}
	return out, nil
}
