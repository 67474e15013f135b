package cliconfig

import "os"

// ApplyEnvConfig applies APPCOMMANDS_* environment variables. It respects
// flags that have been explicitly set and fails on malformed values.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	if err := s.setIntFromString(FlagHealthcheck, os.Getenv(EnvPrefix+"HEALTHCHECK"), &cfg.HealthcheckPort); err != nil {
		return err
	}
	s.setString(FlagHealthcheckPath, os.Getenv(EnvPrefix+"HEALTHCHECK_PATH"), &cfg.HealthcheckPath)
	if err := s.setBoolFromString(FlagLifespan, os.Getenv(EnvPrefix+"LIFESPAN"), &cfg.Lifespan); err != nil {
		return err
	}
	s.setString(FlagLogLevel, os.Getenv(EnvPrefix+"LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration(FlagShutdownTimeout, os.Getenv(EnvPrefix+"SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := s.setDuration(FlagCheckTimeout, os.Getenv(EnvPrefix+"CHECK_TIMEOUT"), &cfg.CheckTimeout); err != nil {
		return err
	}
	return nil
}
