// Package journal keeps an append-only audit trail of committed lending
// commands in PostgreSQL. The trail is never replayed into the book.
package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/m3rciful/lendbot/lending"
	"github.com/shopspring/decimal"
)

// Entry is one committed command.
type Entry struct {
	ID             string          `db:"id"`
	Seq            int64           `db:"seq"`
	Operation      string          `db:"operation"`
	Posting        string          `db:"posting"`
	OrderID        string          `db:"order_id"`
	SlotID         int64           `db:"slot_id"`
	Classification string          `db:"classification"`
	Amount         decimal.Decimal `db:"amount"`
	State          string          `db:"state"`
	CommittedAt    time.Time       `db:"committed_at"`
}

// EntryFromCommit converts a book commit into a journal row.
func EntryFromCommit(c lending.Commit) Entry {
	e := Entry{
		ID:             uuid.NewString(),
		Seq:            int64(c.Seq),
		Operation:      string(c.Op),
		OrderID:        c.Order.ID,
		SlotID:         int64(c.Order.Slot),
		Classification: c.Order.Classification.String(),
		Amount:         decimal.Zero,
		State:          string(c.Order.State),
		CommittedAt:    c.At.UTC(),
	}
	if c.Posting != nil {
		e.Posting = string(c.Posting.Kind)
		e.Amount = c.Posting.Amount
	}
	return e
}
