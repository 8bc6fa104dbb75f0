package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds driver configuration. Everything here is explicit run
// input: the runner never reads ambient environment state itself.
type Config struct {
	// SortMeRNABin is the name or path of the aligner binary.
	SortMeRNABin string `toml:"sortmerna_bin"`
	// DefaultDB is the reference database archive used when --db is not given.
	DefaultDB string `toml:"default_db"`
	// TempFolder is the parent directory for per-run staging directories.
	TempFolder string `toml:"temp_folder"`
	// JournalPath is the run journal database path. Empty disables the journal.
	JournalPath string `toml:"journal_path"`
	// AWSRegion overrides the SDK's region resolution when set.
	AWSRegion string `toml:"aws_region"`
}

// DefaultJournalPath returns the default journal path using XDG_CACHE_HOME.
func DefaultJournalPath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "sortmerna", "runs.db")
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "sortmerna", "config.toml")
}

// Defaults returns the built-in configuration. The database default
// matches the archive shipped in the container image.
func Defaults() *Config {
	return &Config{
		SortMeRNABin: "sortmerna",
		DefaultDB:    "/usr/sortmerna/sortmerna-2.1b/rRNA_databases/all_rRNA-db.tar.gz",
		TempFolder:   "/share",
		JournalPath:  DefaultJournalPath(),
	}
}

// Load builds a Config from defaults, an optional TOML file, and
// SORTMERNA_* environment overrides, in that order. When path is empty
// the default config file is read if it exists; an explicit path that
// cannot be read is an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// Env overrides
	if bin := os.Getenv("SORTMERNA_BIN"); bin != "" {
		cfg.SortMeRNABin = bin
	}
	if db := os.Getenv("SORTMERNA_DB"); db != "" {
		cfg.DefaultDB = db
	}
	if tmp := os.Getenv("SORTMERNA_TEMP_FOLDER"); tmp != "" {
		cfg.TempFolder = tmp
	}
	if journal := os.Getenv("SORTMERNA_JOURNAL"); journal != "" {
		cfg.JournalPath = journal
	}
	if region := os.Getenv("SORTMERNA_AWS_REGION"); region != "" {
		cfg.AWSRegion = region
	}

	return cfg, nil
}
