package lending

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/lendbot/core/logger"
)

const logComponent = "service.lending"

// Book owns every piece of mutable lending state: the slot registry, the
// ledgers and the order id counter. Each command runs validate, mutate and
// post under one write lock, so a posting is observed completely or not at all.
type Book struct {
	mu        sync.RWMutex
	registry  *Registry
	agg       *Aggregator
	seq       uint64
	now       func() time.Time
	observers []Observer
}

// Option configures a Book.
type Option func(*bookOptions)

type bookOptions struct {
	loc       *time.Location
	now       func() time.Time
	observers []Observer
}

// WithLocation sets the time zone used for weekday labels.
func WithLocation(loc *time.Location) Option {
	return func(o *bookOptions) { o.loc = loc }
}

// WithClock overrides the clock stamping commits other than creation.
func WithClock(now func() time.Time) Option {
	return func(o *bookOptions) { o.now = now }
}

// WithObserver registers an observer of commits and rejections.
func WithObserver(obs Observer) Option {
	return func(o *bookOptions) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// NewBook returns an empty book.
func NewBook(opts ...Option) *Book {
	o := bookOptions{loc: time.Local, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Book{
		registry:  NewRegistry(o.loc),
		agg:       NewAggregator(),
		now:       o.now,
		observers: o.observers,
	}
}

// CreateOrder opens a NORMAL order on slot and posts OrderCreated.
func (b *Book) CreateOrder(ctx context.Context, slot SlotID, classification, kindCode, amountText string, now time.Time) (Order, error) {
	b.mu.Lock()
	var c Commit
	o, err := b.registry.create(slot, classification, kindCode, amountText, now)
	if err == nil {
		p := OrderCreated(o.Principal, o.Kind)
		b.agg.Post(o.Classification, p)
		c = b.commitLocked(OpCreate, *o, &p, now)
	}
	b.mu.Unlock()

	if err != nil {
		b.reject(ctx, OpCreate, slot, err)
		return Order{}, err
	}
	b.publish(ctx, c)
	return c.Order, nil
}

// MarkOverdue moves a NORMAL order to OVERDUE.
func (b *Book) MarkOverdue(ctx context.Context, slot SlotID) (Order, error) {
	return b.mutate(ctx, OpMarkOverdue, slot, noPosting)
}

// MarkNormal moves an OVERDUE order back to NORMAL.
func (b *Book) MarkNormal(ctx context.Context, slot SlotID) (Order, error) {
	return b.mutate(ctx, OpMarkNormal, slot, noPosting)
}

// MarkEnded completes a NORMAL or OVERDUE order and frees the slot.
func (b *Book) MarkEnded(ctx context.Context, slot SlotID) (Order, error) {
	return b.mutate(ctx, OpMarkEnded, slot, func(o *Order) (*Posting, error) {
		p := OrderCompleted(o.Principal)
		return &p, nil
	})
}

// MarkBreach moves an OVERDUE order to BREACH.
func (b *Book) MarkBreach(ctx context.Context, slot SlotID) (Order, error) {
	return b.mutate(ctx, OpMarkBreach, slot, func(o *Order) (*Posting, error) {
		p := OrderBreached(o.Principal)
		return &p, nil
	})
}

// MarkBreachEnded settles a BREACH order and frees the slot.
func (b *Book) MarkBreachEnded(ctx context.Context, slot SlotID) (Order, error) {
	return b.mutate(ctx, OpMarkBreachEnded, slot, func(*Order) (*Posting, error) {
		p := BreachSettled()
		return &p, nil
	})
}

// ApplyPrincipalReduction lowers the principal of a NORMAL or OVERDUE order.
// The amount must not exceed the remaining principal.
func (b *Book) ApplyPrincipalReduction(ctx context.Context, slot SlotID, amountText string) (Order, error) {
	return b.mutate(ctx, OpPrincipalReduction, slot, func(o *Order) (*Posting, error) {
		a, err := ParseAmount(amountText)
		if err != nil {
			return nil, err
		}
		if a.GreaterThan(o.Principal) {
			return nil, fmt.Errorf("%w: %s exceeds remaining principal %s", ErrInvalidAmount, a, o.Principal.StringFixed(2))
		}
		o.Principal = o.Principal.Sub(a)
		p := PrincipalReduced(a)
		return &p, nil
	})
}

// ApplyBreachPayment records a negotiated payment on a BREACH order.
// The amount is not capped by the remaining principal.
func (b *Book) ApplyBreachPayment(ctx context.Context, slot SlotID, amountText string) (Order, error) {
	return b.mutate(ctx, OpBreachPayment, slot, func(o *Order) (*Posting, error) {
		a, err := ParseAmount(amountText)
		if err != nil {
			return nil, err
		}
		o.Recovered = o.Recovered.Add(a)
		p := BreachPaymentRecorded(a)
		return &p, nil
	})
}

// ApplyInterest records a flat interest inflow on a NORMAL or OVERDUE order.
func (b *Book) ApplyInterest(ctx context.Context, slot SlotID, amountText string) (Order, error) {
	return b.mutate(ctx, OpInterest, slot, func(*Order) (*Posting, error) {
		a, err := ParseAmount(amountText)
		if err != nil {
			return nil, err
		}
		p := InterestRecorded(a)
		return &p, nil
	})
}

// ActiveOrder returns a snapshot of the order bound to slot.
func (b *Book) ActiveOrder(slot SlotID) (Order, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, err := b.registry.get(slot)
	if err != nil {
		return Order{}, err
	}
	return *o, nil
}

// GlobalLedger returns a snapshot of the global ledger.
func (b *Book) GlobalLedger() Ledger {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.agg.Global()
}

// ClassificationLedger returns a snapshot of the ledger of a classification.
func (b *Book) ClassificationLedger(classification string) (ClassificationID, Ledger, error) {
	id, err := ParseClassificationID(classification)
	if err != nil {
		// a malformed id can never have been posted to
		return "", Ledger{}, fmt.Errorf("%w: %q", ErrUnknownClassification, strings.TrimSpace(classification))
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	l, ok := b.agg.Classification(id)
	if !ok {
		return id, Ledger{}, fmt.Errorf("%w: %s", ErrUnknownClassification, id)
	}
	return id, l, nil
}

// Classifications lists every classification posted to so far.
func (b *Book) Classifications() []ClassificationID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.agg.Classifications()
}

// ActiveOrders reports how many slots hold an order.
func (b *Book) ActiveOrders() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.registry.Len()
}

// Balanced verifies the global/classification sum invariant.
func (b *Book) Balanced() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.agg.Balanced()
}

func noPosting(*Order) (*Posting, error) { return nil, nil }

// mutate runs op on the order of slot. fn must validate before touching the order.
func (b *Book) mutate(ctx context.Context, op Operation, slot SlotID, fn func(o *Order) (*Posting, error)) (Order, error) {
	b.mu.Lock()
	c, err := b.mutateLocked(op, slot, fn)
	b.mu.Unlock()

	if err != nil {
		b.reject(ctx, op, slot, err)
		return Order{}, err
	}
	b.publish(ctx, c)
	return c.Order, nil
}

func (b *Book) mutateLocked(op Operation, slot SlotID, fn func(o *Order) (*Posting, error)) (Commit, error) {
	o, err := b.registry.get(slot)
	if err != nil {
		return Commit{}, err
	}
	next, err := nextState(op, o.State)
	if err != nil {
		return Commit{}, err
	}
	p, err := fn(o)
	if err != nil {
		return Commit{}, err
	}
	o.State = next
	if p != nil {
		b.agg.Post(o.Classification, *p)
	}
	if next.Terminal() {
		b.registry.remove(slot)
	}
	return b.commitLocked(op, *o, p, b.now()), nil
}

func (b *Book) commitLocked(op Operation, o Order, p *Posting, at time.Time) Commit {
	b.seq++
	return Commit{
		Seq:          b.seq,
		Op:           op,
		Order:        o,
		Posting:      p,
		At:           at,
		Global:       b.agg.Global(),
		ActiveOrders: b.registry.Len(),
	}
}

func (b *Book) publish(ctx context.Context, c Commit) {
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("operation", string(c.Op)),
		slog.Int64("slot_id", int64(c.Order.Slot)),
		slog.String("order_id", c.Order.ID),
		slog.String("classification", c.Order.Classification.String()),
		slog.String("state", string(c.Order.State)),
		slog.Uint64("seq", c.Seq),
	}
	if c.Posting != nil {
		attrs = append(attrs,
			slog.String("posting", string(c.Posting.Kind)),
			slog.String("amount", c.Posting.Amount.StringFixed(2)),
		)
	}
	logger.Info(ctx, logComponent, "order.committed", attrs...)

	for _, obs := range b.observers {
		obs.Committed(ctx, c)
	}
}

func (b *Book) reject(ctx context.Context, op Operation, slot SlotID, err error) {
	logger.Info(ctx, logComponent, "order.rejected",
		slog.String("status", "fail"),
		slog.String("operation", string(op)),
		slog.Int64("slot_id", int64(slot)),
		slog.String("err", err.Error()),
		slog.String("err_code", ErrorCode(err)),
	)
	for _, obs := range b.observers {
		obs.Rejected(ctx, op, slot, err)
	}
}
