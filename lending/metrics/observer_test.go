package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/lendbot/lending"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserverTracksBook(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewObserver(reg)
	require.NoError(t, err)

	ctx := context.Background()
	book := lending.NewBook(lending.WithObserver(obs))
	_, err = book.CreateOrder(ctx, 1, "S01", "A", "1000", time.Now())
	require.NoError(t, err)
	_, err = book.ApplyPrincipalReduction(ctx, 1, "300")
	require.NoError(t, err)
	_, err = book.ApplyPrincipalReduction(ctx, 1, "5000")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(obs.postings.WithLabelValues("order_created")))
	assert.Equal(t, 300.0, testutil.ToFloat64(obs.postedAmount.WithLabelValues("principal_reduced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.rejections.WithLabelValues("principal_reduction", "INVALID_AMOUNT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.activeOrders))
	assert.Equal(t, -700.0, testutil.ToFloat64(obs.liquidFunds))
}

func TestNewObserverRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewObserver(reg)
	require.NoError(t, err)
	_, err = NewObserver(reg)
	assert.Error(t, err)
}

// gateObserver holds the first commit it sees until release is closed.
type gateObserver struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gateObserver) Committed(context.Context, lending.Commit) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
}

func (g *gateObserver) Rejected(context.Context, lending.Operation, lending.SlotID, error) {}

func TestObserverGaugesIgnoreLateCommits(t *testing.T) {
	obs, err := NewObserver(prometheus.NewRegistry())
	require.NoError(t, err)
	gate := &gateObserver{entered: make(chan struct{}), release: make(chan struct{})}
	book := lending.NewBook(lending.WithObserver(gate), lending.WithObserver(obs))

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		_, err := book.CreateOrder(ctx, 1, "S01", "A", "10", time.Now())
		done <- err
	}()
	<-gate.entered

	_, err = book.CreateOrder(ctx, 2, "S01", "A", "20", time.Now())
	require.NoError(t, err)
	close(gate.release)
	require.NoError(t, <-done)

	assert.Equal(t, 2.0, testutil.ToFloat64(obs.activeOrders))
	assert.Equal(t, -30.0, testutil.ToFloat64(obs.liquidFunds))
	assert.Equal(t, 2.0, testutil.ToFloat64(obs.postings.WithLabelValues("order_created")))
}

func TestObserverGaugesKeepNewestSeq(t *testing.T) {
	obs, err := NewObserver(prometheus.NewRegistry())
	require.NoError(t, err)

	newer := lending.Commit{Seq: 2, ActiveOrders: 2, Global: lending.Ledger{LiquidFunds: decimal.NewFromInt(-30)}}
	older := lending.Commit{Seq: 1, ActiveOrders: 1, Global: lending.Ledger{LiquidFunds: decimal.NewFromInt(-10)}}
	obs.Committed(context.Background(), newer)
	obs.Committed(context.Background(), older)

	assert.Equal(t, 2.0, testutil.ToFloat64(obs.activeOrders))
	assert.Equal(t, -30.0, testutil.ToFloat64(obs.liquidFunds))
}
