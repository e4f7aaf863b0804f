package lending

import (
	"time"

	"github.com/shopspring/decimal"
)

// SlotID identifies the binding slot (a chat) that owns at most one active order.
type SlotID int64

// Order is a lending order tracked through its lifecycle.
// Values handed out by Book are snapshots; mutating them has no effect on the book.
type Order struct {
	ID             string
	Classification ClassificationID
	Slot           SlotID
	CreatedAt      time.Time
	Weekday        string
	Kind           CustomerKind
	// Principal only decreases, through principal reductions.
	Principal decimal.Decimal
	// Recovered accumulates breach payments; it is not capped by Principal.
	Recovered decimal.Decimal
	State     State
}

// Outstanding is the principal minus breach recoveries; negative when overpaid.
func (o Order) Outstanding() decimal.Decimal {
	return o.Principal.Sub(o.Recovered)
}
