// Package config loads lockin settings from config.yaml and LOCKIN_* variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const appName = "lockin"

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // empty means <data_dir>/lockin.log
}

type StorageConfig struct {
	Document     bool          `mapstructure:"document"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

type Config struct {
	DataDir string        `mapstructure:"data_dir"`
	Theme   string        `mapstructure:"theme"` // overrides the stored theme when set
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Sound   struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"sound"`
	Notify struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"notify"`

	path string
}

func Default() Config {
	var c Config
	c.Log.Level = "info"
	c.Storage.Document = true
	c.Storage.ProbeTimeout = 2 * time.Second
	c.Sound.Enabled = true
	c.Notify.Enabled = true
	return c
}

// Dir is the lockin directory under the user config directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(base, appName), nil
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	dir, err := Dir()
	if err != nil {
		return cfg, err
	}
	if path == "" {
		path = filepath.Join(dir, "config.yaml")
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetEnvPrefix("LOCKIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", dir)
	v.SetDefault("theme", "")
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", "")
	v.SetDefault("storage.document", cfg.Storage.Document)
	v.SetDefault("storage.probe_timeout", cfg.Storage.ProbeTimeout)
	v.SetDefault("sound.enabled", cfg.Sound.Enabled)
	v.SetDefault("notify.enabled", cfg.Notify.Enabled)

	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config unmarshal: %w", err)
	}
	cfg.path = path
	return cfg, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	return errors.Is(err, os.ErrNotExist)
}

// Path is the config file Load looked at.
func (c Config) Path() string { return c.path }

func (c Config) KVPath() string    { return filepath.Join(c.DataDir, "kv.json") }
func (c Config) NotesPath() string { return filepath.Join(c.DataDir, "lockin.db") }
func (c Config) DaysPath() string  { return filepath.Join(c.DataDir, "days.db") }
func (c Config) ExportDir() string { return filepath.Join(c.DataDir, "exports") }

// LogPath is log.file, or lockin.log in the data directory when unset.
func (c Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.DataDir, appName+".log")
}

func (c Config) LogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
