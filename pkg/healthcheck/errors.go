package healthcheck

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is matched by every ConfigError.
	ErrConfig = errors.New("healthcheck: configuration error")

	// ErrDuplicateCheck is returned when a check name is registered twice.
	ErrDuplicateCheck = errors.New("healthcheck: duplicate check name")

	// ErrInvalidCheck is returned for an empty name or a nil check.
	ErrInvalidCheck = errors.New("healthcheck: invalid check")
)

// ConfigError reports that health checks were requested but a required
// capability is not available.
type ConfigError struct {
	Missing string
	Reason  string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("healthcheck: requires %s", e.Missing)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is reports whether target is ErrConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
