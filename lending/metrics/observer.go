// Package metrics exports lending activity as prometheus collectors.
package metrics

import (
	"context"
	"sync"

	"github.com/m3rciful/lendbot/lending"
	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "lendbot_"

// Observer is a lending.Observer feeding prometheus collectors.
type Observer struct {
	postings     *prometheus.CounterVec
	postedAmount *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	activeOrders prometheus.Gauge
	liquidFunds  prometheus.Gauge

	// gaugeMu guards gaugeSeq, the commit the gauges currently reflect.
	gaugeMu  sync.Mutex
	gaugeSeq uint64
}

// NewObserver creates the collectors and registers them on reg.
func NewObserver(reg prometheus.Registerer) (*Observer, error) {
	o := &Observer{
		postings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "postings_total",
				Help: "Committed ledger postings by kind",
			},
			[]string{"posting"},
		),
		postedAmount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "posted_amount_total",
				Help: "Sum of posting amounts by kind",
			},
			[]string{"posting"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rejections_total",
				Help: "Rejected commands by operation and error code",
			},
			[]string{"operation", "code"},
		),
		activeOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "active_orders",
			Help: "Slots currently holding an order",
		}),
		liquidFunds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "liquid_funds",
			Help: "Global liquid funds position",
		}),
	}
	for _, c := range []prometheus.Collector{o.postings, o.postedAmount, o.rejections, o.activeOrders, o.liquidFunds} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Committed records the posting and refreshes the gauges. Commits arrive
// after the book lock is released, so a commit older than the one already
// shown leaves the gauges alone.
func (o *Observer) Committed(_ context.Context, c lending.Commit) {
	if c.Posting != nil {
		kind := string(c.Posting.Kind)
		o.postings.WithLabelValues(kind).Inc()
		amount, _ := c.Posting.Amount.Float64()
		o.postedAmount.WithLabelValues(kind).Add(amount)
	}

	o.gaugeMu.Lock()
	defer o.gaugeMu.Unlock()
	if c.Seq <= o.gaugeSeq {
		return
	}
	o.gaugeSeq = c.Seq
	o.activeOrders.Set(float64(c.ActiveOrders))
	liquid, _ := c.Global.LiquidFunds.Float64()
	o.liquidFunds.Set(liquid)
}

// Rejected counts the rejection by its error code.
func (o *Observer) Rejected(_ context.Context, op lending.Operation, _ lending.SlotID, err error) {
	code := lending.ErrorCode(err)
	if code == "" {
		code = "UNKNOWN"
	}
	o.rejections.WithLabelValues(string(op), code).Inc()
}
