package cliconfig

import (
	"bytes"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	HealthcheckPort *int   `toml:"healthcheck_port"`
	HealthcheckPath string `toml:"healthcheck_path"`
	Lifespan        *bool  `toml:"lifespan"`
	LogLevel        string `toml:"log_level"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	CheckTimeout    string `toml:"check_timeout"`

	Commands map[string]CommandOverrides `toml:"commands"`
}

// LoadFileConfig reads and parses a TOML config file. Unknown keys are an
// error so that typos do not go unnoticed.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.appcommands/config.toml, or "" when the home
// directory cannot be determined.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".appcommands", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies the global section and then the table for the
// named command. It respects flags that have been explicitly set.
func ApplyFileConfig(cfg *Config, fc FileConfig, name string, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setIntPtr(FlagHealthcheck, fc.HealthcheckPort, &cfg.HealthcheckPort)
	s.setString(FlagHealthcheckPath, fc.HealthcheckPath, &cfg.HealthcheckPath)
	s.setBool(FlagLifespan, fc.Lifespan, &cfg.Lifespan)
	s.setString(FlagLogLevel, fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration(FlagShutdownTimeout, fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := s.setDuration(FlagCheckTimeout, fc.CheckTimeout, &cfg.CheckTimeout); err != nil {
		return err
	}

	if o, ok := fc.Commands[name]; ok {
		ApplyCommandOverrides(cfg, o, changed)
	}
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
