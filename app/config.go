package app

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	coreconfig "github.com/m3rciful/lendbot/core/config"
	coredatabase "github.com/m3rciful/lendbot/core/database"
)

// LendingConfig holds order book settings.
type LendingConfig struct {
	// Timezone names the IANA zone used for weekday labels; "Local" uses the host zone.
	Timezone string `yaml:"timezone" envconfig:"LENDING_TIMEZONE"`
	// JournalQueue bounds the number of commits waiting to be written to the journal.
	JournalQueue int `yaml:"journal_queue" envconfig:"LENDING_JOURNAL_QUEUE"`
}

// Config is the full bot configuration: the reusable core plus database and lending sections.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Lending  LendingConfig       `yaml:"lending"`
}

// CoreConfig exposes the embedded core configuration to the runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Location resolves the configured time zone.
func (l LendingConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(l.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid lending.timezone %q: %w", l.Timezone, err)
	}
	return loc, nil
}

// Load reads the YAML file at path, overlays environment variables and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	if len(cfg.Telegram.AdminIDs) == 0 {
		return fmt.Errorf("telegram.admin_ids must list at least one user id")
	}
	cfg.Database.Normalize()
	if _, err := cfg.Lending.Location(); err != nil {
		return err
	}
	if cfg.Lending.JournalQueue < 0 {
		return fmt.Errorf("lending.journal_queue must be >= 0")
	}
	return nil
}
