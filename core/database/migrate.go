package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/m3rciful/lendbot/core/logger"
)

// RunMigrations applies all up migrations. Files come from cfg.MigrationsDir
// when it is set, otherwise from embedded.
func RunMigrations(cfg Config, embedded fs.FS) error {
	src, origin := embedded, "embedded"
	if cfg.MigrationsDir != "" {
		src, origin = os.DirFS(cfg.MigrationsDir), cfg.MigrationsDir
	}
	if src == nil {
		return fmt.Errorf("migrations: no source configured")
	}

	dsn := cfg.URL()
	if err := WaitForPostgres(dsn, 30*time.Second); err != nil {
		migrateFailed("db.migrate", err)
		return fmt.Errorf("database not ready: %w", err)
	}

	files := listMigrationFiles(src)
	logFiles("migrations resolved", "resolve", files, slog.String("source", origin))

	driver, err := iofs.New(src, ".")
	if err != nil {
		migrateFailed("db.migrate", err)
		return fmt.Errorf("open migrations source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", driver, dsn)
	if err != nil {
		migrateFailed("db.migrate", err)
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	fromVer, _, _ := m.Version()
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		migrateFailed("apply", err, slog.Duration("duration", logger.RoundMS(time.Since(start))))
		return fmt.Errorf("migration execution failed: %w", err)
	}
	toVer, _, _ := m.Version()

	applied := selectApplied(files, uint64(fromVer), uint64(toVer))
	if len(applied) > 0 {
		logFiles("applied files", "apply", applied)
	}
	logger.MIG.Info("migrations summary",
		slog.String("event", "summary"),
		slog.Uint64("from_ver", uint64(fromVer)),
		slog.Uint64("to_ver", uint64(toVer)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

func migrateFailed(event string, err error, extra ...any) {
	args := append([]any{
		slog.String("event", event),
		slog.String("status", "fail"),
		slog.String("err", err.Error()),
	}, extra...)
	logger.MIG.Error("migration step failed", args...)
}

func logFiles(msg, event string, files []string, extra ...any) {
	preview, truncated := logger.SummarizeStrings(files, 6)
	args := append([]any{
		slog.String("event", event),
		slog.Int("files_total", len(files)),
	}, extra...)
	if preview != "" {
		args = append(args, slog.String("files_preview", preview))
	}
	if truncated {
		args = append(args, slog.Bool("files_truncated", true))
	}
	logger.MIG.Debug(msg, args...)
}

// listMigrationFiles returns the sorted up-migration names at the root of src.
func listMigrationFiles(src fs.FS) []string {
	entries, err := fs.ReadDir(src, ".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func parseVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

// selectApplied returns files whose version lies in (from, to].
func selectApplied(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
