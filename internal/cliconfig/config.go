package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/appcommands/pkg/command"
	"github.com/bft-labs/appcommands/pkg/healthcheck"
	"github.com/bft-labs/appcommands/pkg/log"
)

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "APPCOMMANDS_"

// Flag names. They double as keys of the changed map.
const (
	FlagHealthcheck     = "healthcheck"
	FlagHealthcheckPath = "healthcheck-path"
	FlagLifespan        = "lifespan"
	FlagLogLevel        = "log-level"
	FlagShutdownTimeout = "shutdown-timeout"
	FlagCheckTimeout    = "check-timeout"
)

// Config holds the resolved options of one command invocation.
type Config struct {
	// HealthcheckPort is the probe port. Zero disables health checks.
	HealthcheckPort int
	HealthcheckPath string

	// Lifespan enables the startup/shutdown handshake with the hosted app.
	Lifespan bool

	LogLevel        string
	ShutdownTimeout time.Duration
	CheckTimeout    time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		HealthcheckPath: healthcheck.DefaultPath,
		LogLevel:        "info",
		ShutdownTimeout: command.DefaultShutdownTimeout,
		CheckTimeout:    healthcheck.DefaultCheckTimeout,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.HealthcheckPort < 0 || c.HealthcheckPort > 65535 {
		return fmt.Errorf("healthcheck port %d out of range (0 disables, max 65535)", c.HealthcheckPort)
	}
	if !strings.HasPrefix(c.HealthcheckPath, "/") {
		return fmt.Errorf("healthcheck path %q must start with /", c.HealthcheckPath)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	if c.CheckTimeout < 0 {
		return fmt.Errorf("check timeout must not be negative")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// CommandOverrides are per-command values. They come from a command
// definition or from a [commands.<name>] table of the config file.
type CommandOverrides struct {
	HealthcheckPort *int   `toml:"healthcheck_port"`
	HealthcheckPath string `toml:"healthcheck_path"`
	Lifespan        *bool  `toml:"lifespan"`
}

// ApplyCommandOverrides applies o to cfg, skipping explicitly set flags.
func ApplyCommandOverrides(cfg *Config, o CommandOverrides, changed map[string]bool) {
	s := newConfigSetter(changed)

	s.setIntPtr(FlagHealthcheck, o.HealthcheckPort, &cfg.HealthcheckPort)
	s.setString(FlagHealthcheckPath, o.HealthcheckPath, &cfg.HealthcheckPath)
	s.setBool(FlagLifespan, o.Lifespan, &cfg.Lifespan)
}

// configSetter applies values unless the corresponding flag was set
// explicitly on the command line.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int from a pointer; nil means unset, zero is a value.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses an environment value. Zero is a valid value.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setBoolFromString accepts anything strconv.ParseBool does.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = b
	return nil
}
