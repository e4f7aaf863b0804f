// Package metrics exposes bot-level prometheus collectors and the scrape endpoint.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "tgbot_"

var (
	registerOnce sync.Once

	handlerTotal   *prometheus.CounterVec
	handlerLatency *prometheus.HistogramVec
	messagesSent   *prometheus.CounterVec
)

// Init registers the collectors on the default registry. Safe to call repeatedly.
func Init() {
	registerOnce.Do(func() {
		handlerTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "handler_total",
				Help: "Handled updates by handler and outcome",
			},
			[]string{"handler", "outcome"},
		)
		handlerLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "handler_latency_seconds",
				Help:    "Handler latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"handler"},
		)
		messagesSent = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "messages_sent_total",
				Help: "Replies sent by handlers, split by keyboard presence",
			},
			[]string{"kb"},
		)
		prometheus.MustRegister(handlerTotal, handlerLatency, messagesSent)
	})
}

// ObserveHandler records one handled update.
func ObserveHandler(handler, outcome string, elapsed time.Duration, messages int, kb bool) {
	if handlerTotal == nil {
		return
	}
	handlerTotal.WithLabelValues(handler, outcome).Inc()
	handlerLatency.WithLabelValues(handler).Observe(elapsed.Seconds())
	if messages > 0 {
		label := "false"
		if kb {
			label = "true"
		}
		messagesSent.WithLabelValues(label).Add(float64(messages))
	}
}
