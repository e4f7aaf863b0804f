package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/lendbot/core/bootstrap"
	coreconfig "github.com/m3rciful/lendbot/core/config"
	coretelegram "github.com/m3rciful/lendbot/core/telegram"
)

func testConfig() *Config {
	return &Config{
		Config: coreconfig.Config{
			Telegram: coreconfig.TelegramConfig{Token: "123:abc", AdminIDs: []int64{42}},
		},
		Lending: LendingConfig{Timezone: "UTC"},
	}
}

func noDatabase(bootstrap.Options) (*bootstrap.Result, error) {
	return &bootstrap.Result{}, nil
}

func TestBootstrapWithoutDatabase(t *testing.T) {
	a, err := BootstrapWith(testConfig(), Deps{Bootstrap: noDatabase, Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	assert.Nil(t, a.journal)
	assert.Nil(t, a.metrics)

	_, err = a.Book().CreateOrder(context.Background(), 1, "A01", "A", "10", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, a.Book().ActiveOrders())
	assert.NoError(t, a.Close())
	assert.NoError(t, a.Close())
}

func TestBootstrapPropagatesInfraError(t *testing.T) {
	boom := errors.New("db down")
	_, err := BootstrapWith(testConfig(), Deps{
		Bootstrap:  func(bootstrap.Options) (*bootstrap.Result, error) { return nil, boom },
		Registerer: prometheus.NewRegistry(),
	})
	assert.ErrorIs(t, err, boom)
}

func TestTelegramRunOptionsRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Listen = "127.0.0.1:0"
	cfg.Metrics.Path = "/metrics"
	reg := prometheus.NewRegistry()
	a, err := BootstrapWith(cfg, Deps{Bootstrap: noDatabase, Registerer: reg, Gatherer: reg})
	require.NoError(t, err)
	require.NotNil(t, a.metrics)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	assert.Same(t, &cfg.Config, opts.Config)
	assert.Len(t, opts.Registry.Commands(), 10)

	endpoints := map[any]bool{}
	for _, r := range opts.Routes {
		endpoints[r.Endpoint] = true
	}
	for _, ep := range []any{"/create", "/report", "/breach_end", tele.OnText, tele.OnCallback} {
		assert.True(t, endpoints[ep], "missing route %v", ep)
	}

	require.NoError(t, opts.OnStart(context.Background(), coretelegram.Runtime{}))
	require.NoError(t, opts.OnStop(context.Background(), coretelegram.Runtime{}))
	assert.NoError(t, a.Close())
}
