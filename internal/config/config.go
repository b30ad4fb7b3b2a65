package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/rafabd1/vipmanager/internal/member"
	"github.com/rafabd1/vipmanager/internal/store"
)

// Package config handles loading, validation, and access to application configuration.

// Config holds the application configuration.
type Config struct {
	Storage struct {
		DataDir  string `yaml:"data_dir"`  // where the member file lives; ~ expands to home
		FileName string `yaml:"file_name"` // e.g., members.json
		Rollback string `yaml:"rollback"`  // create | all
	} `yaml:"storage"`

	Log struct {
		Level string `yaml:"level,omitempty"` // e.g., debug, info, warn, error
		File  string `yaml:"file,omitempty"`  // TUI log file; defaults to <data_dir>/vipmanager.log
	} `yaml:"log,omitempty"`

	Display struct {
		Locale      string `yaml:"locale,omitempty"`       // BCP 47 tag used to collate store names
		DefaultSort string `yaml:"default_sort,omitempty"` // name | balance | date; empty keeps store order
	} `yaml:"display,omitempty"`

	// Source is the file the configuration was read from, empty for defaults.
	Source string `yaml:"-"`
}

const (
	defaultConfigDirName  = ".vipmanager"
	defaultConfigFileName = "config.yaml"
	localConfigFileName   = "vipmanager.yaml"
	defaultDataFileName   = "members.json"
	defaultLogFileName    = "vipmanager.log"
	defaultLogLevel       = "info"
	defaultLocale         = "en"
	envPrefix             = "VIPMANAGER"
)

// userHomeDir is replaced in tests.
var userHomeDir = os.UserHomeDir

// envOverrides are read from VIPMANAGER_* variables, after a .env file is loaded.
type envOverrides struct {
	DataDir     string `envconfig:"DATA_DIR"`
	FileName    string `envconfig:"FILE_NAME"`
	Rollback    string `envconfig:"ROLLBACK"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	LogFile     string `envconfig:"LOG_FILE"`
	Locale      string `envconfig:"LOCALE"`
	DefaultSort string `envconfig:"DEFAULT_SORT"`
}

// Load tries to load configuration from standard locations, then applies
// environment overrides.
// Priority: ./vipmanager.yaml, ~/.vipmanager/config.yaml, defaults.
func Load() (*Config, error) {
	homeDir, err := userHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "could not get user home directory")
	}
	return LoadFrom(localConfigFileName, filepath.Join(homeDir, defaultConfigDirName, defaultConfigFileName))
}

// LoadFrom uses the first readable file among paths. Missing files are skipped;
// unreadable or malformed ones are errors.
func LoadFrom(paths ...string) (*Config, error) {
	cfg := &Config{}
	for _, p := range paths {
		loaded, err := loadFromFile(p)
		if err == nil {
			cfg = loaded
			cfg.Source = p
			break
		}
		if !os.IsNotExist(errors.Cause(err)) {
			return nil, errors.Wrapf(err, "error reading config from %s", p)
		}
	}
	if cfg.Source == "" {
		logrus.Debug("no config file found; using defaults")
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := applyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err // Propagate error (including os.IsNotExist)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config yaml %s", filePath)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("could not read .env file")
	}

	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return errors.Wrap(err, "read environment overrides")
	}
	override(&cfg.Storage.DataDir, env.DataDir)
	override(&cfg.Storage.FileName, env.FileName)
	override(&cfg.Storage.Rollback, env.Rollback)
	override(&cfg.Log.Level, env.LogLevel)
	override(&cfg.Log.File, env.LogFile)
	override(&cfg.Display.Locale, env.Locale)
	override(&cfg.Display.DefaultSort, env.DefaultSort)
	return nil
}

func override(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

// applyDefaults ensures essential fields have default values if not set.
func applyDefaults(cfg *Config) error {
	homeDir, err := userHomeDir()
	if err != nil {
		return errors.Wrap(err, "could not get user home directory")
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = filepath.Join(homeDir, defaultConfigDirName)
	}
	cfg.Storage.DataDir = expandHome(cfg.Storage.DataDir, homeDir)
	if cfg.Storage.FileName == "" {
		cfg.Storage.FileName = defaultDataFileName
	}
	if cfg.Storage.Rollback == "" {
		cfg.Storage.Rollback = string(store.RollbackCreate)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.Storage.DataDir, defaultLogFileName)
	}
	cfg.Log.File = expandHome(cfg.Log.File, homeDir)
	if cfg.Display.Locale == "" {
		cfg.Display.Locale = defaultLocale
	}
	return nil
}

func expandHome(path, homeDir string) string {
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// Validate rejects values the application cannot act on.
func (c *Config) Validate() error {
	if _, err := store.ParseRollbackPolicy(c.Storage.Rollback); err != nil {
		return errors.Wrap(err, "storage.rollback")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	if _, err := language.Parse(c.Display.Locale); err != nil {
		return errors.Wrapf(err, "display.locale %q", c.Display.Locale)
	}
	if c.Display.DefaultSort != "" {
		if _, err := member.ParseSortKey(c.Display.DefaultSort); err != nil {
			return errors.Wrap(err, "display.default_sort")
		}
	}
	if strings.ContainsRune(c.Storage.FileName, os.PathSeparator) {
		return errors.Errorf("storage.file_name %q must not contain a path separator", c.Storage.FileName)
	}
	return nil
}

// DataFile is the full path of the member file.
func (c *Config) DataFile() string {
	return filepath.Join(c.Storage.DataDir, c.Storage.FileName)
}

// RollbackPolicy returns the validated storage.rollback value.
func (c *Config) RollbackPolicy() store.RollbackPolicy {
	p, _ := store.ParseRollbackPolicy(c.Storage.Rollback)
	return p
}

// LogLevel returns the validated log level.
func (c *Config) LogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// LocaleTag returns the language used for name collation.
func (c *Config) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Display.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// SortKey returns the default list ordering; ok is false for store order.
func (c *Config) SortKey() (key member.SortKey, ok bool) {
	if c.Display.DefaultSort == "" {
		return "", false
	}
	k, err := member.ParseSortKey(c.Display.DefaultSort)
	if err != nil {
		return "", false
	}
	return k, true
}
