// Package logger provides the structured slog setup shared by the bot:
// one flat line per event with a stable key order, plus request context helpers.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/lendbot/core/buildinfo"
	coreconfig "github.com/m3rciful/lendbot/core/config"
)

const defaultSampleDen = 50

var (
	stateMu     sync.Mutex
	initialized bool
	closed      bool

	sink  *asyncWriter
	files []io.Closer

	levelVar     slog.LevelVar
	debugSampler = newRatioSampler(1, defaultSampleDen)
	traceAll     bool

	// L is the base logger; component loggers below derive from it.
	L *slog.Logger

	// DB logs database connection events.
	DB *slog.Logger
	// TG logs Telegram transport events.
	TG *slog.Logger
	// MIG logs database migration events.
	MIG *slog.Logger
	// TWire logs Telegram wiring steps.
	TWire *slog.Logger
)

// Until InitLogger runs, every logger discards its records so packages can log
// from tests and early bootstrap without nil checks.
func init() {
	setBase(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1})))
}

func setBase(base *slog.Logger) {
	L = base
	DB = base.With("component", "db")
	TG = base.With("component", "tg")
	MIG = base.With("component", "db.migrate")
	TWire = base.With("component", "tg.wire")
}

// settings is the logging section of the config resolved to concrete values.
type settings struct {
	format    logFormat
	keyOrder  []string
	level     slog.Level
	sampleNum int
	sampleDen int
	profile   string
	filePath  string
}

func resolveSettings(cfg *coreconfig.Config) settings {
	s := settings{
		format:    formatJSON,
		keyOrder:  append([]string(nil), defaultKeyOrder...),
		level:     slog.LevelInfo,
		sampleNum: 1,
		sampleDen: defaultSampleDen,
		profile:   "prod",
	}
	if cfg == nil {
		return s
	}
	lc := cfg.Logging

	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		s.profile = p
	}
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		s.format = formatKV
	case "json":
	default:
		if s.profile == "debug" || s.profile == "dev" {
			s.format = formatKV
		}
	}

	if order := splitKeys(lc.KeysOrder); len(order) > 0 {
		s.keyOrder = order
	}

	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "debug":
		s.level = slog.LevelDebug
	case "warn", "warning":
		s.level = slog.LevelWarn
	case "error":
		s.level = slog.LevelError
	}

	if spec := strings.TrimSpace(lc.DebugSample); spec != "" {
		s.sampleNum, s.sampleDen = parseRatioSpec(spec)
	}

	dir, file := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.BotFile)
	if dir != "" && file != "" {
		s.filePath = filepath.Join(dir, file)
	}
	return s
}

// splitKeys parses a comma separated key order; "default" or empty yields nil.
func splitKeys(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// InitLogger configures the global structured logger. Calls after the first are no-ops.
func InitLogger(cfg *coreconfig.Config) error {
	stateMu.Lock()
	defer stateMu.Unlock()
	if initialized {
		return nil
	}
	initialized = true

	s := resolveSettings(cfg)
	levelVar.Set(s.level)
	debugSampler.Set(s.sampleNum, s.sampleDen)
	traceAll = isTruthy(os.Getenv("TRACE")) || isTruthy(os.Getenv("LOG_TRACE"))

	outputs := []io.Writer{os.Stdout}
	if s.filePath != "" {
		if f, err := openLogFile(s.filePath); err != nil {
			// Stdout keeps working; a broken log dir must not stop the bot.
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		} else {
			outputs = append(outputs, f)
			files = append(files, f)
		}
	}
	sink = newAsyncWriter(outputs, 64*1024)

	base := slog.New(newStructuredHandler(handlerConfig{
		level:    &levelVar,
		writer:   sink,
		format:   s.format,
		keyOrder: s.keyOrder,
	}))
	setBase(base)
	slog.SetDefault(base)

	base.LogAttrs(context.Background(), slog.LevelInfo, "startup",
		slog.String("component", "app"),
		slog.String("event", "startup"),
		slog.String("go_version", runtime.Version()),
		slog.String("build_version", buildinfo.Version),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
		slog.String("cfg_profile", s.profile),
	)
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// Shutdown flushes buffered log output and closes opened sinks.
func Shutdown() error {
	stateMu.Lock()
	defer stateMu.Unlock()
	if closed {
		return nil
	}
	closed = true

	var errs []error
	if sink != nil {
		errs = append(errs, sink.Flush(), sink.Close())
	}
	for _, f := range files {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}

// Background returns context.Background(); it marks log calls made outside any update.
func Background() context.Context {
	return context.Background()
}

// LogEvent logs attrs with the event attribute first. A nil logg falls back to
// the context logger, then to L.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(orBackground(ctx), level, "", attrs...)
}

// Component returns L scoped to the given component name.
func Component(name string) *slog.Logger {
	if name = strings.TrimSpace(name); name != "" {
		return L.With("component", name)
	}
	return L
}

// Event logs an event for component at level.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), level, event, attrs...)
}

// Debug logs a debug-level event for the given component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event for the given component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event for the given component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event for the given component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ShouldSampleDebug reports whether a high-volume debug line should be written.
// TRACE=1 or LOG_TRACE=1 lets every line through.
func ShouldSampleDebug() bool {
	return traceAll || debugSampler.Allow()
}
