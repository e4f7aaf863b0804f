package lending

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertAmount(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

type recordingObserver struct {
	mu       sync.Mutex
	commits  []Commit
	rejected []error
}

func (r *recordingObserver) Committed(_ context.Context, c Commit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, c)
}

func (r *recordingObserver) Rejected(_ context.Context, _ Operation, _ SlotID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, err)
}

func TestBookLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	b := NewBook(WithLocation(time.UTC), WithObserver(obs))
	const slot SlotID = -100123

	o, err := b.CreateOrder(ctx, slot, "S01", "A", "1000.00", testNow)
	require.NoError(t, err)
	assert.Equal(t, "0001", o.ID)
	assert.Equal(t, StateNormal, o.State)
	assert.Equal(t, "Wed", o.Weekday)
	assert.Equal(t, KindNew, o.Kind)

	g := b.GlobalLedger()
	assert.Equal(t, int64(1), g.ValidOrders)
	assertAmount(t, "1000", g.ValidAmount, "validAmount")
	assertAmount(t, "-1000", g.LiquidFunds, "liquidFunds")
	assert.Equal(t, int64(1), g.NewClients)
	assertAmount(t, "1000", g.NewClientsAmount, "newClientsAmount")

	_, s01, err := b.ClassificationLedger("S01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), s01.ValidOrders)
	assertAmount(t, "1000", s01.ValidAmount, "shard validAmount")
	assertAmount(t, "0", s01.LiquidFunds, "shard liquidFunds")

	o, err = b.ApplyPrincipalReduction(ctx, slot, "300.00")
	require.NoError(t, err)
	assertAmount(t, "700", o.Principal, "principal")
	g = b.GlobalLedger()
	assertAmount(t, "700", g.ValidAmount, "validAmount")
	assertAmount(t, "300", g.CompletedAmount, "completedAmount")
	assertAmount(t, "-700", g.LiquidFunds, "liquidFunds")

	_, err = b.MarkOverdue(ctx, slot)
	require.NoError(t, err)
	o, err = b.MarkBreach(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, StateBreach, o.State)
	g = b.GlobalLedger()
	assert.Equal(t, int64(0), g.ValidOrders)
	assert.Equal(t, int64(1), g.BreachOrders)
	assertAmount(t, "700", g.BreachAmount, "breachAmount")

	before := b.GlobalLedger()
	_, err = b.ApplyPrincipalReduction(ctx, slot, "10")
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.Equal(t, before, b.GlobalLedger())

	o, err = b.ApplyBreachPayment(ctx, slot, "700.00")
	require.NoError(t, err)
	assertAmount(t, "700", o.Recovered, "recovered")
	o, err = b.MarkBreachEnded(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, StateBreachEnded, o.State)

	g = b.GlobalLedger()
	assertAmount(t, "700", g.BreachEndAmount, "breachEndAmount")
	assert.Equal(t, int64(1), g.BreachEndOrders)
	assertAmount(t, "0", g.LiquidFunds, "liquidFunds")

	_, err = b.ActiveOrder(slot)
	assert.ErrorIs(t, err, ErrUnknownSlot)
	require.NoError(t, b.Balanced())

	o, err = b.CreateOrder(ctx, slot, "S02", "B", "50", testNow)
	require.NoError(t, err)
	assert.Equal(t, "0002", o.ID)

	assert.Len(t, obs.commits, 7)
	assert.Len(t, obs.rejected, 1)
	for i, c := range obs.commits {
		assert.Equal(t, uint64(i+1), c.Seq)
	}
}

func TestBookCreateValidation(t *testing.T) {
	ctx := context.Background()
	b := NewBook()

	_, err := b.CreateOrder(ctx, 1, "S1", "A", "10", testNow)
	assert.ErrorIs(t, err, ErrInvalidClassificationID)
	_, err = b.CreateOrder(ctx, 1, "S01", "X", "10", testNow)
	assert.ErrorIs(t, err, ErrInvalidCustomerKind)
	_, err = b.CreateOrder(ctx, 1, "S01", "A", "0", testNow)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = b.CreateOrder(ctx, 1, "S01", "A", "ten", testNow)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	assert.Equal(t, Ledger{}, b.GlobalLedger())
	assert.Empty(t, b.Classifications())

	_, err = b.CreateOrder(ctx, 1, "S01", "A", "10", testNow)
	require.NoError(t, err)
	_, err = b.CreateOrder(ctx, 1, "S02", "B", "20", testNow)
	assert.ErrorIs(t, err, ErrSlotOccupied)

	o, err := b.CreateOrder(ctx, 2, "S02", "B", "20", testNow)
	require.NoError(t, err)
	assert.Equal(t, "0002", o.ID, "failed creations must not consume ids")
}

func TestBookClassificationCaseIsKept(t *testing.T) {
	ctx := context.Background()
	b := NewBook()
	_, err := b.CreateOrder(ctx, 1, "s01", "A", "10", testNow)
	require.NoError(t, err)
	_, err = b.CreateOrder(ctx, 2, "S01", "A", "20", testNow)
	require.NoError(t, err)

	assert.Equal(t, []ClassificationID{"S01", "s01"}, b.Classifications())
	_, lower, err := b.ClassificationLedger("s01")
	require.NoError(t, err)
	assertAmount(t, "10", lower.ValidAmount, "s01 validAmount")
	_, upper, err := b.ClassificationLedger("S01")
	require.NoError(t, err)
	assertAmount(t, "20", upper.ValidAmount, "S01 validAmount")
	require.NoError(t, b.Balanced())
}

func TestBookPrincipalReductionBounds(t *testing.T) {
	ctx := context.Background()
	b := NewBook()
	_, err := b.CreateOrder(ctx, 7, "A10", "B", "100", testNow)
	require.NoError(t, err)

	before := b.GlobalLedger()
	_, err = b.ApplyPrincipalReduction(ctx, 7, "100.01")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = b.ApplyPrincipalReduction(ctx, 7, "-1")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, before, b.GlobalLedger())

	o, err := b.ActiveOrder(7)
	require.NoError(t, err)
	assertAmount(t, "100", o.Principal, "principal")

	o, err = b.ApplyPrincipalReduction(ctx, 7, "100")
	require.NoError(t, err)
	assertAmount(t, "0", o.Principal, "principal")
	assert.Equal(t, StateNormal, o.State)

	o, err = b.MarkEnded(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, StateEnded, o.State)
	g := b.GlobalLedger()
	assert.Equal(t, int64(1), g.CompletedOrders)
	assertAmount(t, "100", g.CompletedAmount, "completedAmount")
	assertAmount(t, "0", g.ValidAmount, "validAmount")
	assertAmount(t, "0", g.LiquidFunds, "liquidFunds")
}

func TestBookBreachPaymentIsNotCapped(t *testing.T) {
	ctx := context.Background()
	b := NewBook()
	_, err := b.CreateOrder(ctx, 3, "B07", "A", "100", testNow)
	require.NoError(t, err)
	_, err = b.MarkOverdue(ctx, 3)
	require.NoError(t, err)
	_, err = b.MarkBreach(ctx, 3)
	require.NoError(t, err)

	o, err := b.ApplyBreachPayment(ctx, 3, "250")
	require.NoError(t, err)
	assertAmount(t, "100", o.Principal, "principal")
	assertAmount(t, "-150", o.Outstanding(), "outstanding")
	assertAmount(t, "250", b.GlobalLedger().BreachEndAmount, "breachEndAmount")

	_, err = b.ApplyInterest(ctx, 3, "5")
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestBookInterestAndOverdueRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := NewBook()
	_, err := b.CreateOrder(ctx, 4, "C11", "A", "500", testNow)
	require.NoError(t, err)

	_, err = b.MarkNormal(ctx, 4)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	_, err = b.MarkBreach(ctx, 4)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	_, err = b.ApplyInterest(ctx, 4, "20")
	require.NoError(t, err)
	_, err = b.MarkOverdue(ctx, 4)
	require.NoError(t, err)
	_, err = b.ApplyInterest(ctx, 4, "30")
	require.NoError(t, err)
	o, err := b.MarkNormal(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, StateNormal, o.State)

	g := b.GlobalLedger()
	assertAmount(t, "50", g.Interest, "interest")
	assertAmount(t, "-450", g.LiquidFunds, "liquidFunds")
	_, c11, err := b.ClassificationLedger("C11")
	require.NoError(t, err)
	assertAmount(t, "50", c11.Interest, "shard interest")
}

func TestBookUnknownSlotAndClassification(t *testing.T) {
	ctx := context.Background()
	b := NewBook()
	_, err := b.MarkOverdue(ctx, 99)
	assert.ErrorIs(t, err, ErrUnknownSlot)
	_, err = b.ApplyInterest(ctx, 99, "1")
	assert.ErrorIs(t, err, ErrUnknownSlot)

	_, _, err = b.ClassificationLedger("Z99")
	assert.ErrorIs(t, err, ErrUnknownClassification)
	_, _, err = b.ClassificationLedger("bad")
	assert.ErrorIs(t, err, ErrUnknownClassification)
	assert.NotErrorIs(t, err, ErrInvalidClassificationID)
}

func TestBookRandomSequencesStayBalanced(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	b := NewBook()
	classes := []string{"S01", "S02", "T10"}
	amounts := []string{"1", "25.5", "100", "999.99", "0", "abc"}

	lastID := ""
	for i := 0; i < 2000; i++ {
		slot := SlotID(rng.Intn(5))
		amount := amounts[rng.Intn(len(amounts))]
		var (
			o   Order
			err error
		)
		switch rng.Intn(9) {
		case 0:
			o, err = b.CreateOrder(ctx, slot, classes[rng.Intn(len(classes))], []string{"A", "B"}[rng.Intn(2)], amount, testNow)
			if err == nil {
				assert.Greater(t, o.ID, lastID)
				lastID = o.ID
			}
		case 1:
			o, err = b.MarkOverdue(ctx, slot)
		case 2:
			o, err = b.MarkNormal(ctx, slot)
		case 3:
			o, err = b.MarkEnded(ctx, slot)
		case 4:
			o, err = b.MarkBreach(ctx, slot)
		case 5:
			o, err = b.MarkBreachEnded(ctx, slot)
		case 6:
			o, err = b.ApplyPrincipalReduction(ctx, slot, amount)
		case 7:
			o, err = b.ApplyBreachPayment(ctx, slot, amount)
		case 8:
			o, err = b.ApplyInterest(ctx, slot, amount)
		}
		if err == nil {
			assert.False(t, o.Principal.IsNegative(), "principal went negative")
		}
		require.NoError(t, b.Balanced(), "step %d", i)
	}
}

func TestBookConcurrentSlots(t *testing.T) {
	ctx := context.Background()
	b := NewBook()
	const workers = 16
	const rounds = 50

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(slot SlotID) {
			defer wg.Done()
			class := fmt.Sprintf("K%02d", int(slot)%3)
			for i := 0; i < rounds; i++ {
				if _, err := b.CreateOrder(ctx, slot, class, "A", "10", testNow); err != nil {
					t.Errorf("create: %v", err)
					return
				}
				if _, err := b.ApplyInterest(ctx, slot, "1"); err != nil {
					t.Errorf("interest: %v", err)
					return
				}
				if _, err := b.MarkEnded(ctx, slot); err != nil {
					t.Errorf("end: %v", err)
					return
				}
			}
		}(SlotID(w))
	}
	wg.Wait()

	require.NoError(t, b.Balanced())
	g := b.GlobalLedger()
	assert.Equal(t, int64(workers*rounds), g.CompletedOrders)
	assert.Equal(t, int64(0), g.ValidOrders)
	assertAmount(t, fmt.Sprint(workers*rounds), g.Interest, "interest")
	assert.Equal(t, 0, b.ActiveOrders())
}
