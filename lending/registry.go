package lending

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Registry maps binding slots to their single active order.
// It is not safe for concurrent use; Book serializes access.
type Registry struct {
	active map[SlotID]*Order
	ids    OrderIDGenerator
	loc    *time.Location
}

// NewRegistry returns an empty registry labelling weekdays in loc.
func NewRegistry(loc *time.Location) *Registry {
	return &Registry{active: make(map[SlotID]*Order), loc: loc}
}

// create validates the request and stores a new NORMAL order for slot.
func (r *Registry) create(slot SlotID, classText, kindCode, amountText string, now time.Time) (*Order, error) {
	if _, ok := r.active[slot]; ok {
		return nil, fmt.Errorf("%w: slot %d", ErrSlotOccupied, slot)
	}
	class, err := ParseClassificationID(classText)
	if err != nil {
		return nil, err
	}
	kind, err := ParseCustomerKind(kindCode)
	if err != nil {
		return nil, err
	}
	principal, err := ParseAmount(amountText)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:             r.ids.Next(),
		Classification: class,
		Slot:           slot,
		CreatedAt:      now,
		Weekday:        WeekdayLabel(now, r.loc),
		Kind:           kind,
		Principal:      principal,
		Recovered:      decimal.Zero,
		State:          StateNormal,
	}
	r.active[slot] = o
	return o, nil
}

// get returns the active order of slot.
func (r *Registry) get(slot SlotID) (*Order, error) {
	o, ok := r.active[slot]
	if !ok {
		return nil, fmt.Errorf("%w: slot %d", ErrUnknownSlot, slot)
	}
	return o, nil
}

// remove detaches the order of slot once it reached a terminal state.
func (r *Registry) remove(slot SlotID) {
	delete(r.active, slot)
}

// Len reports the number of active orders.
func (r *Registry) Len() int { return len(r.active) }
