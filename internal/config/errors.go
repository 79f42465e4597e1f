package config

import (
	"fmt"
)

// ValidationError occurs when a configuration value is out of range.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration (field: %s): %s", e.Field, e.Message)
}

// WatchError occurs when the configuration file cannot be watched.
type WatchError struct {
	Path string
	Err  error
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("failed to watch config file '%s': %v", e.Path, e.Err)
}

func (e *WatchError) Unwrap() error {
	return e.Err
}
