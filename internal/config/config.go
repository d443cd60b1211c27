// Package config loads and persists the timeaudit configuration file.
//
// The configuration is a typed struct rather than a free-form map: the
// file is YAML, unknown keys are ignored, and missing keys fall back to
// defaults. Dot-path access for the `config` CLI command is an explicit
// mapping over known keys, not reflection.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrUnknownKey = errors.New("config: unknown key")

// Config is the full application configuration.
type Config struct {
	General          General          `yaml:"general"`
	ProcessDetection ProcessDetection `yaml:"process_detection"`
	IdleDetection    IdleDetection    `yaml:"idle_detection"`
	Notifications    Notifications    `yaml:"notifications"`
	API              API              `yaml:"api"`
	Advanced         Advanced         `yaml:"advanced"`

	path string
}

type General struct {
	// DataDir holds the CSV collections. "~" expands to the home
	// directory on load.
	DataDir    string `yaml:"data_dir"`
	WeekStart  string `yaml:"week_start"`
	DateFormat string `yaml:"date_format"`
}

type ProcessDetection struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSeconds int  `yaml:"interval"`
	AutoSwitch      bool `yaml:"auto_switch"`
	LearnPatterns   bool `yaml:"learn_patterns"`
}

type IdleDetection struct {
	Enabled          bool   `yaml:"enabled"`
	ThresholdSeconds int    `yaml:"threshold"`
	Action           string `yaml:"action"`
	MarkAsIdle       bool   `yaml:"mark_as_idle"`
}

type Notifications struct {
	Enabled                 bool   `yaml:"enabled"`
	SummaryTime             string `yaml:"summary_time"`
	ReminderIntervalSeconds int    `yaml:"reminder_interval"`
}

type API struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	AuthEnabled bool     `yaml:"auth_enabled"`
	Token       string   `yaml:"token"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type Advanced struct {
	BackupOnStart       bool `yaml:"backup_on_start"`
	BackupRetentionDays int  `yaml:"backup_retention_days"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		General: General{
			DataDir:    "~/.timeaudit/data",
			WeekStart:  "monday",
			DateFormat: "2006-01-02",
		},
		ProcessDetection: ProcessDetection{
			IntervalSeconds: 10,
			LearnPatterns:   true,
		},
		IdleDetection: IdleDetection{
			ThresholdSeconds: 300,
			Action:           "prompt",
			MarkAsIdle:       true,
		},
		Notifications: Notifications{
			SummaryTime:             "18:00",
			ReminderIntervalSeconds: 3600,
		},
		API: API{
			Host:        "localhost",
			Port:        8722,
			AuthEnabled: true,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Advanced: Advanced{
			BackupOnStart:       true,
			BackupRetentionDays: 30,
		},
	}
}

// DefaultPath returns ~/.timeaudit/config.yml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".timeaudit", "config.yml")
	}
	return filepath.Join(home, ".timeaudit", "config.yml")
}

// Load reads the config at path, layering the file over the defaults. A
// missing file writes the defaults to disk and returns them.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := cfg.Save(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration back to its path.
func (c *Config) Save() error {
	if c.path == "" {
		c.path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("config: create config dir: %w", err)
	}
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(c.path, raw, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", c.path, err)
	}
	return nil
}

// Validate checks range and enum constraints.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.General.DataDir) == "" {
		return errors.New("config: general.data_dir is required")
	}
	if c.General.WeekStart != "monday" && c.General.WeekStart != "sunday" {
		return fmt.Errorf("config: general.week_start must be monday or sunday, got %q", c.General.WeekStart)
	}
	if c.ProcessDetection.IntervalSeconds < 1 || c.ProcessDetection.IntervalSeconds > 300 {
		return fmt.Errorf("config: process_detection.interval must be in [1, 300], got %d", c.ProcessDetection.IntervalSeconds)
	}
	if c.IdleDetection.ThresholdSeconds < 30 || c.IdleDetection.ThresholdSeconds > 3600 {
		return fmt.Errorf("config: idle_detection.threshold must be in [30, 3600], got %d", c.IdleDetection.ThresholdSeconds)
	}
	switch c.IdleDetection.Action {
	case "prompt", "auto_stop", "continue":
	default:
		return fmt.Errorf("config: idle_detection.action must be prompt, auto_stop, or continue, got %q", c.IdleDetection.Action)
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("config: api.port must be in [1, 65535], got %d", c.API.Port)
	}
	if c.Notifications.ReminderIntervalSeconds < 0 {
		return fmt.Errorf("config: notifications.reminder_interval must not be negative, got %d", c.Notifications.ReminderIntervalSeconds)
	}
	if c.Advanced.BackupRetentionDays < 0 {
		return fmt.Errorf("config: advanced.backup_retention_days must not be negative, got %d", c.Advanced.BackupRetentionDays)
	}
	return nil
}

// DataDir returns the data directory with a leading "~" expanded.
func (c *Config) DataDir() string {
	dir := c.General.DataDir
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	return dir
}

// EnsureAPIToken returns the API bearer token, generating and persisting
// a random one on first use.
func (c *Config) EnsureAPIToken() (string, error) {
	if c.API.Token != "" {
		return c.API.Token, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("config: generate api token: %w", err)
	}
	c.API.Token = base64.RawURLEncoding.EncodeToString(buf)
	if err := c.Save(); err != nil {
		return "", err
	}
	return c.API.Token, nil
}

// Keys lists the dot-path keys usable with Get and Set.
func Keys() []string {
	return []string{
		"general.data_dir",
		"general.week_start",
		"general.date_format",
		"process_detection.enabled",
		"process_detection.interval",
		"process_detection.auto_switch",
		"process_detection.learn_patterns",
		"idle_detection.enabled",
		"idle_detection.threshold",
		"idle_detection.action",
		"idle_detection.mark_as_idle",
		"notifications.enabled",
		"notifications.summary_time",
		"notifications.reminder_interval",
		"api.host",
		"api.port",
		"api.auth_enabled",
		"advanced.backup_on_start",
		"advanced.backup_retention_days",
	}
}

// Get returns the value at a dot-path key as a display string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "general.data_dir":
		return c.General.DataDir, nil
	case "general.week_start":
		return c.General.WeekStart, nil
	case "general.date_format":
		return c.General.DateFormat, nil
	case "process_detection.enabled":
		return strconv.FormatBool(c.ProcessDetection.Enabled), nil
	case "process_detection.interval":
		return strconv.Itoa(c.ProcessDetection.IntervalSeconds), nil
	case "process_detection.auto_switch":
		return strconv.FormatBool(c.ProcessDetection.AutoSwitch), nil
	case "process_detection.learn_patterns":
		return strconv.FormatBool(c.ProcessDetection.LearnPatterns), nil
	case "idle_detection.enabled":
		return strconv.FormatBool(c.IdleDetection.Enabled), nil
	case "idle_detection.threshold":
		return strconv.Itoa(c.IdleDetection.ThresholdSeconds), nil
	case "idle_detection.action":
		return c.IdleDetection.Action, nil
	case "idle_detection.mark_as_idle":
		return strconv.FormatBool(c.IdleDetection.MarkAsIdle), nil
	case "notifications.enabled":
		return strconv.FormatBool(c.Notifications.Enabled), nil
	case "notifications.summary_time":
		return c.Notifications.SummaryTime, nil
	case "notifications.reminder_interval":
		return strconv.Itoa(c.Notifications.ReminderIntervalSeconds), nil
	case "api.host":
		return c.API.Host, nil
	case "api.port":
		return strconv.Itoa(c.API.Port), nil
	case "api.auth_enabled":
		return strconv.FormatBool(c.API.AuthEnabled), nil
	case "advanced.backup_on_start":
		return strconv.FormatBool(c.Advanced.BackupOnStart), nil
	case "advanced.backup_retention_days":
		return strconv.Itoa(c.Advanced.BackupRetentionDays), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

// Set parses value for the dot-path key, validates the resulting
// configuration, and persists it. An invalid value leaves the stored
// configuration untouched.
func (c *Config) Set(key, value string) error {
	previous := *c
	if err := c.apply(key, value); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		*c = previous
		return err
	}
	return c.Save()
}

func (c *Config) apply(key, value string) error {
	switch key {
	case "general.data_dir":
		c.General.DataDir = value
	case "general.week_start":
		c.General.WeekStart = value
	case "general.date_format":
		c.General.DateFormat = value
	case "idle_detection.action":
		c.IdleDetection.Action = value
	case "notifications.summary_time":
		c.Notifications.SummaryTime = value
	case "api.host":
		c.API.Host = value
	case "process_detection.enabled":
		return setBool(&c.ProcessDetection.Enabled, key, value)
	case "process_detection.auto_switch":
		return setBool(&c.ProcessDetection.AutoSwitch, key, value)
	case "process_detection.learn_patterns":
		return setBool(&c.ProcessDetection.LearnPatterns, key, value)
	case "idle_detection.enabled":
		return setBool(&c.IdleDetection.Enabled, key, value)
	case "idle_detection.mark_as_idle":
		return setBool(&c.IdleDetection.MarkAsIdle, key, value)
	case "notifications.enabled":
		return setBool(&c.Notifications.Enabled, key, value)
	case "api.auth_enabled":
		return setBool(&c.API.AuthEnabled, key, value)
	case "advanced.backup_on_start":
		return setBool(&c.Advanced.BackupOnStart, key, value)
	case "process_detection.interval":
		return setInt(&c.ProcessDetection.IntervalSeconds, key, value)
	case "idle_detection.threshold":
		return setInt(&c.IdleDetection.ThresholdSeconds, key, value)
	case "notifications.reminder_interval":
		return setInt(&c.Notifications.ReminderIntervalSeconds, key, value)
	case "api.port":
		return setInt(&c.API.Port, key, value)
	case "advanced.backup_retention_days":
		return setInt(&c.Advanced.BackupRetentionDays, key, value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

func setBool(target *bool, key, value string) error {
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("config: %s: %q is not a boolean", key, value)
	}
	*target = parsed
	return nil
}

func setInt(target *int, key, value string) error {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("config: %s: %q is not an integer", key, value)
	}
	*target = parsed
	return nil
}
