package lending

import (
	"fmt"
	"sort"
)

// Aggregator owns the global ledger and the per-classification ledgers.
// It is the only code that mutates a Ledger. It is not safe for concurrent
// use; Book serializes access.
type Aggregator struct {
	global Ledger
	shards map[ClassificationID]*Ledger
}

// NewAggregator returns an aggregator with a zero global ledger and no shards.
func NewAggregator() *Aggregator {
	return &Aggregator{shards: make(map[ClassificationID]*Ledger)}
}

// shard returns the ledger for id, registering a zero ledger on first access.
func (a *Aggregator) shard(id ClassificationID) *Ledger {
	l, ok := a.shards[id]
	if !ok {
		l = &Ledger{}
		a.shards[id] = l
	}
	return l
}

// Post applies p to the global ledger and to the ledger of id.
func (a *Aggregator) Post(id ClassificationID, p Posting) {
	a.global.apply(p.Delta, true)
	a.shard(id).apply(p.Delta, false)
}

// Global returns a snapshot of the global ledger.
func (a *Aggregator) Global() Ledger { return a.global }

// Classification returns a snapshot of the ledger of id, if it was ever posted to.
func (a *Aggregator) Classification(id ClassificationID) (Ledger, bool) {
	l, ok := a.shards[id]
	if !ok {
		return Ledger{}, false
	}
	return *l, true
}

// Classifications lists the known classification ids in sorted order.
func (a *Aggregator) Classifications() []ClassificationID {
	ids := make([]ClassificationID, 0, len(a.shards))
	for id := range a.shards {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Balanced checks that every shared field of the global ledger equals the sum
// over the classification ledgers.
func (a *Aggregator) Balanced() error {
	var sum Ledger
	for _, l := range a.shards {
		sum.apply(*l, false)
	}
	if !sum.equalShared(a.global) {
		return fmt.Errorf("lending: global ledger %+v differs from classification sum %+v", a.global, sum)
	}
	return nil
}
