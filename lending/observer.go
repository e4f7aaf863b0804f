package lending

import (
	"context"
	"time"
)

// Commit describes a command applied to the book.
type Commit struct {
	// Seq orders commits; observers may receive them out of order.
	Seq uint64
	Op  Operation
	// Order is the order state right after the command.
	Order Order
	// Posting is nil for transitions without ledger effect.
	Posting *Posting
	At      time.Time
	// Global is the global ledger right after the command.
	Global       Ledger
	ActiveOrders int
}

// Observer is notified after the book lock is released. Implementations must
// not block for long; slow sinks should queue.
type Observer interface {
	Committed(ctx context.Context, c Commit)
	Rejected(ctx context.Context, op Operation, slot SlotID, err error)
}
