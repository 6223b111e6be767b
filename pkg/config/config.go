// Package config loads daybook settings from defaults, the data directory's
// config.yaml, and DAYBOOK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/stefanpenner/daybook/pkg/progress"
	"github.com/stefanpenner/daybook/pkg/store"
)

// FileName is the optional config file inside the data directory.
const FileName = "config.yaml"

// EnvDataDir overrides the data directory when --dir is not given.
const EnvDataDir = "DAYBOOK_DIR"

// Config is the full set of settings.
type Config struct {
	DataDir  string         `mapstructure:"data_dir"`
	Log      LogConfig      `mapstructure:"log"`
	Runner   RunnerConfig   `mapstructure:"runner"`
	Watcher  WatcherConfig  `mapstructure:"watcher"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Progress ProgressConfig `mapstructure:"progress"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// File defaults to daybook.log in the data directory.
	File string `mapstructure:"file"`
}

type RunnerConfig struct {
	LinkPacing    time.Duration `mapstructure:"link_pacing"`
	KeysPacing    time.Duration `mapstructure:"keys_pacing"`
	DelayFallback time.Duration `mapstructure:"delay_fallback"`
	// OpenLinks launches http links in the system browser. When false they
	// are only narrated.
	OpenLinks bool `mapstructure:"open_links"`
}

type WatcherConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval"`
	Probability float64       `mapstructure:"probability"`
}

type NotifyConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type ProgressConfig struct {
	KeyScheme string `mapstructure:"key_scheme"`
}

// ResolveDataDir picks the data directory: the flag value, then
// $DAYBOOK_DIR, then the per-OS default.
func ResolveDataDir(flag string) string {
	if flag != "" {
		return flag
	}
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	return store.DefaultDataDir()
}

func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("DAYBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("runner.link_pacing", "800ms")
	v.SetDefault("runner.keys_pacing", "500ms")
	v.SetDefault("runner.delay_fallback", "1s")
	v.SetDefault("runner.open_links", true)

	v.SetDefault("watcher.enabled", true)
	v.SetDefault("watcher.interval", "15s")
	v.SetDefault("watcher.probability", 0.3)

	v.SetDefault("notify.ttl", "4s")

	v.SetDefault("progress.key_scheme", string(progress.SchemeTaskID))
}

// Default returns the built-in settings for dataDir.
func Default(dataDir string) *Config {
	cfg, err := unmarshal(newViperInstance(), dataDir)
	if err != nil {
		panic(fmt.Sprintf("config defaults do not decode: %v", err))
	}
	return cfg
}

// Load reads config.yaml from dataDir if it exists, applies environment
// overrides, and validates the result. A missing file is not an error.
func Load(dataDir string) (*Config, error) {
	v := newViperInstance()

	path := filepath.Join(dataDir, FileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading %s: %w", path, err)
			}
		}
	}

	cfg, err := unmarshal(v, dataDir)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func unmarshal(v *viper.Viper, dataDir string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.DataDir = dataDir
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(dataDir, "daybook.log")
	}
	return &cfg, nil
}

func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}

// Validate rejects settings the runner or watcher cannot use.
func Validate(cfg *Config) error {
	var errs []error
	for name, d := range map[string]time.Duration{
		"runner.link_pacing":    cfg.Runner.LinkPacing,
		"runner.keys_pacing":    cfg.Runner.KeysPacing,
		"runner.delay_fallback": cfg.Runner.DelayFallback,
		"watcher.interval":      cfg.Watcher.Interval,
		"notify.ttl":            cfg.Notify.TTL,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", name, d))
		}
	}
	if cfg.Watcher.Probability < 0 || cfg.Watcher.Probability > 1 {
		errs = append(errs, fmt.Errorf("watcher.probability must be between 0 and 1, got %g", cfg.Watcher.Probability))
	}
	if _, err := progress.ParseScheme(cfg.Progress.KeyScheme); err != nil {
		errs = append(errs, fmt.Errorf("progress.key_scheme: %w", err))
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn, or error, got %q", cfg.Log.Level))
	}
	return errors.Join(errs...)
}

// Scheme is the validated progress key scheme.
func (c *Config) Scheme() progress.Scheme {
	s, err := progress.ParseScheme(c.Progress.KeyScheme)
	if err != nil {
		return progress.SchemeTaskID
	}
	return s
}
