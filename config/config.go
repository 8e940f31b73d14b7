package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/soocke/pixel-rcs-go/domain/input"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	fileName  = "pixel-rcs"
	envPrefix = "PIXELRCS"
)

// Config holds runtime configuration for capture, actuation and display.
// Values come from defaults, a YAML or JSON file, PIXELRCS_* environment
// variables and command-line flags, in increasing precedence.
type Config struct {
	Debug     bool   `mapstructure:"debug" yaml:"debug" json:"debug"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" json:"log_format"`
	Window    bool   `mapstructure:"window" yaml:"window" json:"window"`
	DarkTheme bool   `mapstructure:"dark_theme" yaml:"dark_theme" json:"dark_theme"`
	DryRun    bool   `mapstructure:"dry_run" yaml:"dry_run" json:"dry_run"`

	// Capture. Zero width/height capture the full output; otherwise the
	// top-left region of that size, which must fit the output.
	CaptureWidth     int `mapstructure:"capture_width" yaml:"capture_width" json:"capture_width"`
	CaptureHeight    int `mapstructure:"capture_height" yaml:"capture_height" json:"capture_height"`
	AcquireTimeoutMs int `mapstructure:"acquire_timeout_ms" yaml:"acquire_timeout_ms" json:"acquire_timeout_ms"`
	MaxRebuilds      int `mapstructure:"max_rebuilds" yaml:"max_rebuilds" json:"max_rebuilds"`
	IdleSleepMs      int `mapstructure:"idle_sleep_ms" yaml:"idle_sleep_ms" json:"idle_sleep_ms"`
	ActiveSleepMs    int `mapstructure:"active_sleep_ms" yaml:"active_sleep_ms" json:"active_sleep_ms"`

	// RebuildResetFrames restores the rebuild budget after this many frames;
	// 0 makes max_rebuilds a budget for the whole run.
	RebuildResetFrames int `mapstructure:"rebuild_reset_frames" yaml:"rebuild_reset_frames" json:"rebuild_reset_frames"`

	// Actuation
	ActuationIntervalMs int `mapstructure:"actuation_interval_ms" yaml:"actuation_interval_ms" json:"actuation_interval_ms"`
	ActuationDX         int `mapstructure:"actuation_dx" yaml:"actuation_dx" json:"actuation_dx"`
	ActuationDY         int `mapstructure:"actuation_dy" yaml:"actuation_dy" json:"actuation_dy"`

	// Frame rate reporting
	FPSReportIntervalMs int `mapstructure:"fps_report_interval_ms" yaml:"fps_report_interval_ms" json:"fps_report_interval_ms"`
	FPSHistory          int `mapstructure:"fps_history" yaml:"fps_history" json:"fps_history"`

	// Key bindings, parsed with input.ParseVK
	TriggerKey   string `mapstructure:"trigger_key" yaml:"trigger_key" json:"trigger_key"`
	ToggleKey    string `mapstructure:"toggle_key" yaml:"toggle_key" json:"toggle_key"`
	FPSKey       string `mapstructure:"fps_key" yaml:"fps_key" json:"fps_key"`
	StartEnabled bool   `mapstructure:"start_enabled" yaml:"start_enabled" json:"start_enabled"`
	ShowFPS      bool   `mapstructure:"show_fps" yaml:"show_fps" json:"show_fps"`
	// HoldTrigger treats the trigger as always held where no key state is
	// available.
	HoldTrigger bool `mapstructure:"hold_trigger" yaml:"hold_trigger" json:"hold_trigger"`

	source string
}

// Default returns a Config populated with standard defaults.
func Default() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		AcquireTimeoutMs:    0,
		MaxRebuilds:         3,
		RebuildResetFrames:  600,
		IdleSleepMs:         16,
		ActiveSleepMs:       0,
		ActuationIntervalMs: 20,
		ActuationDX:         0,
		ActuationDY:         1,
		FPSReportIntervalMs: 1000,
		FPSHistory:          5,
		TriggerKey:          "LBUTTON",
		ToggleKey:           "R",
		FPSKey:              "F",
		StartEnabled:        true,
		ShowFPS:             true,
	}
}

func (c *Config) values() map[string]any {
	return map[string]any{
		"debug":                  c.Debug,
		"log_level":              c.LogLevel,
		"log_format":             c.LogFormat,
		"window":                 c.Window,
		"dark_theme":             c.DarkTheme,
		"dry_run":                c.DryRun,
		"capture_width":          c.CaptureWidth,
		"capture_height":         c.CaptureHeight,
		"acquire_timeout_ms":     c.AcquireTimeoutMs,
		"max_rebuilds":           c.MaxRebuilds,
		"rebuild_reset_frames":   c.RebuildResetFrames,
		"idle_sleep_ms":          c.IdleSleepMs,
		"active_sleep_ms":        c.ActiveSleepMs,
		"actuation_interval_ms":  c.ActuationIntervalMs,
		"actuation_dx":           c.ActuationDX,
		"actuation_dy":           c.ActuationDY,
		"fps_report_interval_ms": c.FPSReportIntervalMs,
		"fps_history":            c.FPSHistory,
		"trigger_key":            c.TriggerKey,
		"toggle_key":             c.ToggleKey,
		"fps_key":                c.FPSKey,
		"start_enabled":          c.StartEnabled,
		"show_fps":               c.ShowFPS,
		"hold_trigger":           c.HoldTrigger,
	}
}

// Validate clamps numeric values to safe ranges and checks key names.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = "info"
	}
	if c.LogFormat != "json" {
		c.LogFormat = "text"
	}
	if c.CaptureWidth < 0 || c.CaptureHeight < 0 || (c.CaptureWidth == 0) != (c.CaptureHeight == 0) {
		c.CaptureWidth, c.CaptureHeight = 0, 0
	}
	if c.AcquireTimeoutMs < 0 {
		c.AcquireTimeoutMs = 0
	}
	if c.MaxRebuilds < 0 {
		c.MaxRebuilds = 0
	}
	if c.RebuildResetFrames < 0 {
		c.RebuildResetFrames = 0
	}
	if c.IdleSleepMs < 0 {
		c.IdleSleepMs = 16
	}
	if c.ActiveSleepMs < 0 {
		c.ActiveSleepMs = 0
	}
	if c.ActuationIntervalMs < 1 {
		c.ActuationIntervalMs = 20
	}
	if c.FPSReportIntervalMs < 1 {
		c.FPSReportIntervalMs = 1000
	}
	if c.FPSHistory < 1 {
		c.FPSHistory = 5
	}
	if _, err := c.Bindings(); err != nil {
		return err
	}
	return nil
}

// Bindings resolves the configured key names.
func (c *Config) Bindings() (input.Bindings, error) {
	return input.ParseBindings(c.TriggerKey, c.ToggleKey, c.FPSKey)
}

func (c *Config) AcquireTimeout() time.Duration {
	return time.Duration(c.AcquireTimeoutMs) * time.Millisecond
}

func (c *Config) ActuationInterval() time.Duration {
	return time.Duration(c.ActuationIntervalMs) * time.Millisecond
}

func (c *Config) FPSReportInterval() time.Duration {
	return time.Duration(c.FPSReportIntervalMs) * time.Millisecond
}

func (c *Config) IdleSleep() time.Duration {
	return time.Duration(c.IdleSleepMs) * time.Millisecond
}

func (c *Config) ActiveSleep() time.Duration {
	return time.Duration(c.ActiveSleepMs) * time.Millisecond
}

// Source is the config file that was read, empty when none was found.
func (c *Config) Source() string { return c.source }

// RegisterFlags defines the command-line overrides on flags.
func RegisterFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.Bool("debug", d.Debug, "log runtime diagnostics")
	flags.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	flags.String("log-format", d.LogFormat, "log format: text or json")
	flags.Bool("window", d.Window, "show the status window")
	flags.Bool("dark-theme", d.DarkTheme, "dark status window")
	flags.Bool("dry-run", d.DryRun, "record actuation instead of moving the pointer")
	flags.Bool("hold-trigger", d.HoldTrigger, "treat the trigger key as held")
	flags.Int("acquire-timeout-ms", d.AcquireTimeoutMs, "frame acquisition wait in ms (0 polls)")
	flags.Int("max-rebuilds", d.MaxRebuilds, "capture stack rebuilds before giving up")
	flags.Int("rebuild-reset-frames", d.RebuildResetFrames, "frames after which the rebuild budget is restored (0 never)")
	flags.Int("actuation-interval-ms", d.ActuationIntervalMs, "delay between actuation events in ms")
	flags.Int("actuation-dx", d.ActuationDX, "horizontal displacement per event")
	flags.Int("actuation-dy", d.ActuationDY, "vertical displacement per event")
	flags.String("trigger-key", d.TriggerKey, "key held to actuate")
	flags.String("toggle-key", d.ToggleKey, "key toggling actuation")
	flags.String("fps-key", d.FPSKey, "key toggling the frame-rate display")
}

// Load reads configuration from path, or from pixel-rcs.{yaml,json} in the
// working and user config directories when path is empty. A missing file
// yields defaults. Flags in flags that were set on the command line override
// everything else.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	defaults := Default().values()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(fileName)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, fileName))
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, known := defaults[key]; known {
				bindErr = errors.Join(bindErr, v.BindPFlag(key, f))
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.source = v.ConfigFileUsed()
	if cfg.source != "" {
		if _, err := os.Stat(cfg.source); err != nil {
			cfg.source = ""
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the configuration to path as JSON when the extension is .json
// and YAML otherwise.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = c.YAML()
	}
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
