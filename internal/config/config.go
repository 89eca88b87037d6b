package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all waypoint configuration.
// Precedence: defaults, then the YAML file, then WAYPOINT_* env vars.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Weight  WeightConfig  `yaml:"weight"`
	Decay   DecayConfig   `yaml:"decay"`
	Journal JournalConfig `yaml:"journal"`
	Log     LogConfig     `yaml:"log"`
}

type DataConfig struct {
	Path     string `yaml:"path"`
	FoldCase bool   `yaml:"fold_case"`
}

// WeightConfig holds the frecency update constants. The defaults are
// arbitrary tuning values.
type WeightConfig struct {
	Initial  float64 `yaml:"initial"`
	Scale    float64 `yaml:"scale"`    // k in sqrt(w² + (amount·k)²)
	Increase float64 `yaml:"increase"` // default amount per visit
	Decrease float64 `yaml:"decrease"`
}

type DecayConfig struct {
	Threshold float64 `yaml:"threshold"`
	Factor    float64 `yaml:"factor"`
}

type JournalConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Path      string   `yaml:"path"` // empty: journal.db next to the data file
	Retention Duration `yaml:"retention"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Duration is a time.Duration that reads YAML strings like "72h".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Default returns a Config with sensible defaults.
func Default() Config {
	dataDir := DefaultDataDir()
	return Config{
		Data: DataConfig{
			Path:     filepath.Join(dataDir, "waypoint.txt"),
			FoldCase: runtime.GOOS == "windows" || runtime.GOOS == "darwin",
		},
		Weight: WeightConfig{
			Initial:  10,
			Scale:    1,
			Increase: 10,
			Decrease: 15,
		},
		Decay: DecayConfig{
			Threshold: 10000,
			Factor:    0.9,
		},
		Journal: JournalConfig{
			Enabled:   true,
			Retention: Duration(90 * 24 * time.Hour),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// DefaultDataDir returns $XDG_DATA_HOME/waypoint, falling back to
// ~/.local/share/waypoint (%APPDATA%\waypoint on windows).
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "waypoint")
	}
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("APPDATA"); dir != "" {
			return filepath.Join(dir, "waypoint")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".waypoint")
	}
	return filepath.Join(home, ".local", "share", "waypoint")
}

// DefaultPath returns the config file location: $WAYPOINT_CONFIG, else
// the user config dir (~/.config/waypoint/config.yaml on linux).
func DefaultPath() string {
	if p := os.Getenv("WAYPOINT_CONFIG"); p != "" {
		return p
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "waypoint", "config.yaml")
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "waypoint", "config.yaml")
}

// Load reads the config file at path (DefaultPath when empty), applies
// environment overrides and validates. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()

	if path != "" {
		if err := loadYAMLFile(&cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnvOverrides(&cfg)
	cfg.expandPaths()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile loads configuration from a file that must exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	applyEnvOverrides(&cfg)
	cfg.expandPaths()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies WAYPOINT_* variables. Unparseable values are
// ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WAYPOINT_DATA"); v != "" {
		cfg.Data.Path = v
	}
	if v := os.Getenv("WAYPOINT_FOLD_CASE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Data.FoldCase = b
		}
	}

	setFloat("WAYPOINT_INITIAL_WEIGHT", &cfg.Weight.Initial)
	setFloat("WAYPOINT_WEIGHT_SCALE", &cfg.Weight.Scale)
	setFloat("WAYPOINT_INCREASE", &cfg.Weight.Increase)
	setFloat("WAYPOINT_DECREASE", &cfg.Weight.Decrease)
	setFloat("WAYPOINT_DECAY_THRESHOLD", &cfg.Decay.Threshold)
	setFloat("WAYPOINT_DECAY_FACTOR", &cfg.Decay.Factor)

	if v := os.Getenv("WAYPOINT_JOURNAL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Journal.Enabled = b
		}
	}
	if v := os.Getenv("WAYPOINT_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv("WAYPOINT_JOURNAL_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Journal.Retention = Duration(d)
		}
	}

	if v := os.Getenv("WAYPOINT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("WAYPOINT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func setFloat(key string, dst *float64) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = f
	}
}

func (c *Config) expandPaths() {
	c.Data.Path = ExpandHome(c.Data.Path)
	c.Journal.Path = ExpandHome(c.Journal.Path)
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

func (c *Config) validate() error {
	if c.Data.Path == "" {
		return errors.New("data.path is required")
	}
	if !(c.Weight.Scale > 0) || math.IsInf(c.Weight.Scale, 0) {
		return fmt.Errorf("weight.scale must be a finite number > 0, got %v", c.Weight.Scale)
	}
	if !(c.Weight.Initial >= 0) || math.IsInf(c.Weight.Initial, 0) {
		return fmt.Errorf("weight.initial must be a finite number >= 0, got %v", c.Weight.Initial)
	}
	if !(c.Weight.Increase >= 0) || math.IsInf(c.Weight.Increase, 0) ||
		!(c.Weight.Decrease >= 0) || math.IsInf(c.Weight.Decrease, 0) {
		return errors.New("weight.increase and weight.decrease must be finite numbers >= 0")
	}
	if !(c.Decay.Factor > 0 && c.Decay.Factor < 1) {
		return fmt.Errorf("decay.factor must be in (0, 1), got %v", c.Decay.Factor)
	}
	if !(c.Decay.Threshold >= 0) || math.IsInf(c.Decay.Threshold, 0) {
		return fmt.Errorf("decay.threshold must be a finite number >= 0, got %v", c.Decay.Threshold)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
