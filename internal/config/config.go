package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for tclock, stored in ~/.tclock/config.yaml.
type Config struct {
	// Employee is the name recorded by in/out when --employee is not given.
	Employee string `yaml:"employee"`
	// Timezone is the IANA zone that decides calendar days. Empty = local time.
	Timezone string `yaml:"timezone"`
	// DataDir overrides the directory holding the day files.
	DataDir string        `yaml:"data_dir"`
	Report  ReportConfig  `yaml:"report"`
	Outlook OutlookConfig `yaml:"outlook"`
}

// ReportConfig controls shift reconstruction for shifts and report.
type ReportConfig struct {
	// SynthesizeOpenEnd closes a still-open shift at the current time.
	SynthesizeOpenEnd bool `yaml:"synthesize_open_end"`
	// Workers bounds how many employees are reconstructed concurrently.
	Workers int `yaml:"workers"`
}

// OutlookConfig holds Microsoft Graph / Outlook calendar sync settings.
type OutlookConfig struct {
	// TenantID is the Azure AD tenant. Use "common" for personal/multi-tenant accounts.
	TenantID string `yaml:"tenant_id"`
	// ClientID is the Azure app (client) ID for the OAuth2 device code flow.
	ClientID string `yaml:"client_id"`
	// Timezone is the IANA timezone for event times (e.g. "Europe/Berlin"). Empty = UTC.
	Timezone string `yaml:"timezone"`
}

const (
	// DefaultTenantID is the Microsoft "common" tenant (supports personal and
	// multi-tenant organisational accounts without additional registration).
	DefaultTenantID = "common"
	// DefaultClientID is the well-known public Azure CLI app ID.
	// It supports device code flow without a client secret and requires no
	// app registration.
	DefaultClientID = "04b07795-8542-4c4a-95af-30b2c573d5ab"
	DefaultWorkers  = 4
)

// Environment variables that take precedence over the file.
const (
	EnvEmployee = "TCLOCK_EMPLOYEE"
	EnvTimezone = "TCLOCK_TIMEZONE"
	EnvDataDir  = "TCLOCK_DATA_DIR"
)

// Default returns a Config pre-filled with the built-in defaults.
func Default() *Config {
	return &Config{
		Report: ReportConfig{
			SynthesizeOpenEnd: true,
			Workers:           DefaultWorkers,
		},
		Outlook: OutlookConfig{
			TenantID: DefaultTenantID,
			ClientID: DefaultClientID,
		},
	}
}

// configTemplate is the annotated config written on first run.
const configTemplate = `# tclock configuration - ~/.tclock/config.yaml
#
# All settings are optional. Environment variables TCLOCK_EMPLOYEE,
# TCLOCK_TIMEZONE and TCLOCK_DATA_DIR override the values below.

# Name recorded by "tclock in" / "tclock out". Overridden by --employee.
employee: ""

# IANA timezone deciding which calendar day a swipe belongs to,
# e.g. "Europe/Berlin". Leave empty to use the system time zone.
timezone: ""

# Directory holding the YYYY/MM/DD.json day files. Empty = ~/.tclock
data_dir: ""

report:
  # Close a shift that is still open at the current time, flagged virtual.
  # When false the open shift is left out of shifts and reports.
  synthesize_open_end: true
  # Employees reconstructed in parallel by "tclock report".
  workers: 4

# Microsoft Graph / Outlook calendar sync
outlook:
  # Azure AD tenant ID.
  #   "common" - personal Microsoft accounts and any organisation (default)
  #   or your organisation's tenant GUID
  tenant_id: common
  # Azure application (client) ID used for the OAuth2 device code flow.
  # The built-in value is the public Azure CLI app, no registration needed.
  client_id: 04b07795-8542-4c4a-95af-30b2c573d5ab
  # IANA timezone for interpreting calendar event times. Empty = UTC.
  timezone: ""
`

// DefaultPath returns the path to ~/.tclock/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".tclock", "config.yaml"), nil
}

// Load reads the config at path, creating it with the annotated template
// on first run. An empty path means DefaultPath. Fields missing from the
// file keep their defaults and environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Default(), err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}
	cfg.backfill()
	cfg.applyEnvOverrides()
	return cfg, nil
}

// backfill restores defaults for fields the user explicitly emptied.
func (c *Config) backfill() {
	if c.Outlook.TenantID == "" {
		c.Outlook.TenantID = DefaultTenantID
	}
	if c.Outlook.ClientID == "" {
		c.Outlook.ClientID = DefaultClientID
	}
	if c.Report.Workers <= 0 {
		c.Report.Workers = DefaultWorkers
	}
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(EnvEmployee)); v != "" {
		c.Employee = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimezone)); v != "" {
		c.Timezone = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		c.DataDir = v
	}
}

// Location resolves Timezone. An empty value is the system zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// OutlookLocation resolves Outlook.Timezone. An empty value is UTC.
func (c *Config) OutlookLocation() (*time.Location, error) {
	if c.Outlook.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Outlook.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid outlook timezone %q: %w", c.Outlook.Timezone, err)
	}
	return loc, nil
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
