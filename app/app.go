// Package app wires configuration, infrastructure and the lending book into a
// runnable Telegram bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/m3rciful/lendbot/core/bootstrap"
	"github.com/m3rciful/lendbot/core/logger"
	coremetrics "github.com/m3rciful/lendbot/core/metrics"
	coretelegram "github.com/m3rciful/lendbot/core/telegram"
	"github.com/m3rciful/lendbot/core/telegram/router"
	"github.com/m3rciful/lendbot/lending"
	"github.com/m3rciful/lendbot/lending/bot"
	"github.com/m3rciful/lendbot/lending/journal"
	lendmetrics "github.com/m3rciful/lendbot/lending/metrics"
	"github.com/m3rciful/lendbot/migrations"
)

const shutdownTimeout = 5 * time.Second

// App owns the book and the infrastructure around it.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	book     *lending.Book
	journal  *journal.Writer
	metrics  *coremetrics.Server
	handlers *bot.Handlers

	closeOnce sync.Once
	closeErr  error
}

// Deps overrides infrastructure in tests.
type Deps struct {
	Bootstrap  func(bootstrap.Options) (*bootstrap.Result, error)
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// Bootstrap initializes logging and the optional database, then builds the book
// with its metrics and journal observers.
func Bootstrap(cfg *Config) (*App, error) {
	return BootstrapWith(cfg, Deps{})
}

// BootstrapWith is Bootstrap with injectable dependencies.
func BootstrapWith(cfg *Config, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}
	run := deps.Bootstrap
	if run == nil {
		run = bootstrap.Run
	}
	reg := deps.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	res, err := run(bootstrap.Options{Config: &cfg.Config, Database: cfg.Database, Migrations: migrations.FS})
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Lending.Location()
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	coremetrics.Init()
	obs, err := lendmetrics.NewObserver(reg)
	if err != nil {
		return nil, fmt.Errorf("app: metrics observer: %w", err)
	}

	a := &App{cfg: cfg, db: res.DB}
	bookOpts := []lending.Option{lending.WithLocation(loc), lending.WithObserver(obs)}
	var handlerOpts []bot.Option
	if res.DB != nil {
		store := journal.NewPostgresStore(res.DB)
		a.journal = journal.NewWriter(store, journal.WriterOptions{QueueSize: cfg.Lending.JournalQueue})
		bookOpts = append(bookOpts, lending.WithObserver(a.journal))
		handlerOpts = append(handlerOpts, bot.WithHistory(store))
	}
	a.book = lending.NewBook(bookOpts...)
	a.handlers = bot.NewHandlers(a.book, handlerOpts...)

	if cfg.Metrics.Listen != "" {
		a.metrics = coremetrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path, gatherer)
	}

	logger.Info(context.Background(), "app", "app.bootstrap",
		slog.String("status", "ok"),
		slog.String("timezone", loc.String()),
		slog.Bool("journal", a.journal != nil),
		slog.Bool("metrics", a.metrics != nil),
		slog.Int("admins", len(cfg.Telegram.AdminIDs)),
	)
	return a, nil
}

// Book exposes the order book.
func (a *App) Book() *lending.Book { return a.book }

// TelegramRunOptions registers the lending handlers and composes the routes.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	if err := a.handlers.Register(reg); err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("app: register handlers: %w", err)
	}

	admins := a.cfg.Telegram.AdminIDs
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminIDs:        admins,
		OnAdminReject:   bot.RejectAdmin,
		OnPrivateReject: bot.RejectPrivate,
	})
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{AdminIDs: admins})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{
		AdminIDs:      admins,
		OnAdminReject: bot.RejectCallback,
	}))

	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, nil),
		Routes:      routes,
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

func (a *App) start(context.Context, coretelegram.Runtime) error {
	if a.metrics == nil {
		return nil
	}
	return a.metrics.Start()
}

func (a *App) stop(context.Context, coretelegram.Runtime) error {
	return a.Close()
}

// Close shuts down the metrics server, drains the journal and closes the database.
// Calls after the first return the first result.
func (a *App) Close() error {
	a.closeOnce.Do(func() { a.closeErr = a.close() })
	return a.closeErr
}

func (a *App) close() error {
	var errs []error
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("app: metrics shutdown: %w", err))
		}
		cancel()
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("app: journal close: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("app: db close: %w", err))
		}
	}
	return errors.Join(errs...)
}
