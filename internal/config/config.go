// Package config loads the inkwell configuration file and resolves the
// on-disk layout (database, journal, and backup locations).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration.
type Config struct {
	Storage  Storage  `yaml:"storage"`
	Search   Search   `yaml:"search"`
	Autosave Autosave `yaml:"autosave"`
}

// Storage configures the database and trash retention.
type Storage struct {
	// Path is the SQLite database file. Empty resolves to
	// <data>/notes.db.
	Path string `yaml:"path"`
	// WALAutocheckpoint is the WAL frame count before an automatic
	// checkpoint.
	WALAutocheckpoint int `yaml:"wal_autocheckpoint"`
	// RetentionDays is the trash purge window; 0 disables automatic
	// purging.
	RetentionDays int `yaml:"retention_days"`
	// BackupOnExit copies the database on clean shutdown.
	BackupOnExit bool `yaml:"backup_on_exit"`
	// BackupDir is where shutdown backups go. Empty resolves to
	// <data>/backups.
	BackupDir string `yaml:"backup_dir"`
}

// Search configures query processing.
type Search struct {
	// FuzzyThreshold in [0,1] controls fuzzy expansion aggressiveness;
	// 0 disables fuzzy variants.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
	// ResultLimit is the default result count, sized to a viewport.
	ResultLimit int `yaml:"result_limit"`
}

// Autosave configures the crash-recovery journal.
type Autosave struct {
	// DebounceMS is the idle delay before an automatic snapshot.
	DebounceMS int `yaml:"debounce_ms"`
	// SnapshotRetentionHours ages out superseded snapshots; live drafts
	// are kept until restored or discarded. 0 disables automatic pruning.
	SnapshotRetentionHours int `yaml:"snapshot_retention_hours"`
	// JournalDir is the snapshot directory. Empty resolves to
	// <data>/journal.
	JournalDir string `yaml:"journal_dir"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Storage: Storage{
			WALAutocheckpoint: 1000,
			RetentionDays:     30,
			BackupOnExit:      true,
		},
		Search: Search{
			FuzzyThreshold: 0.4,
			ResultLimit:    20,
		},
		Autosave: Autosave{
			DebounceMS:             800,
			SnapshotRetentionHours: 24 * 7,
		},
	}
}

// Paths is the resolved on-disk layout.
type Paths struct {
	ConfigFile string
	DataDir    string
	Database   string
	JournalDir string
	BackupDir  string
}

// Resolve determines the config file and data directory, honoring the
// INKWELL_CONFIG and INKWELL_DATA environment overrides and falling back
// to the user config/data dirs.
func Resolve() (Paths, error) {
	configFile := os.Getenv("INKWELL_CONFIG")
	if configFile == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Paths{}, fmt.Errorf("resolve config dir: %w", err)
		}
		configFile = filepath.Join(base, "inkwell", "config.yaml")
	}

	dataDir := os.Getenv("INKWELL_DATA")
	if dataDir == "" {
		base, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("resolve data dir: %w", err)
		}
		dataDir = filepath.Join(base, ".local", "share", "inkwell")
	}

	return Paths{
		ConfigFile: configFile,
		DataDir:    dataDir,
		Database:   filepath.Join(dataDir, "notes.db"),
		JournalDir: filepath.Join(dataDir, "journal"),
		BackupDir:  filepath.Join(dataDir, "backups"),
	}, nil
}

// Load reads the config file, writing one with defaults on first run.
// Unset path options are resolved against paths; out-of-range values are
// clamped rather than rejected so a hand-edited file cannot brick startup.
func Load(paths Paths) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(paths.ConfigFile)
	switch {
	case os.IsNotExist(err):
		if writeErr := writeDefault(paths.ConfigFile, cfg); writeErr != nil {
			return Config{}, writeErr
		}
	case err != nil:
		return Config{}, fmt.Errorf("reading config %s: %w", paths.ConfigFile, err)
	default:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", paths.ConfigFile, err)
		}
	}

	cfg.normalize(paths)
	return cfg, nil
}

func (c *Config) normalize(paths Paths) {
	if c.Storage.Path == "" {
		c.Storage.Path = paths.Database
	}
	if c.Storage.BackupDir == "" {
		c.Storage.BackupDir = paths.BackupDir
	}
	if c.Autosave.JournalDir == "" {
		c.Autosave.JournalDir = paths.JournalDir
	}
	if c.Storage.WALAutocheckpoint <= 0 {
		c.Storage.WALAutocheckpoint = 1000
	}
	if c.Storage.RetentionDays < 0 {
		c.Storage.RetentionDays = 0
	}
	if c.Search.FuzzyThreshold < 0 {
		c.Search.FuzzyThreshold = 0
	}
	if c.Search.FuzzyThreshold > 1 {
		c.Search.FuzzyThreshold = 1
	}
	if c.Search.ResultLimit <= 0 {
		c.Search.ResultLimit = 20
	}
	if c.Autosave.DebounceMS < 0 {
		c.Autosave.DebounceMS = 0
	}
	if c.Autosave.SnapshotRetentionHours < 0 {
		c.Autosave.SnapshotRetentionHours = 0
	}
}

func writeDefault(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("serializing default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
