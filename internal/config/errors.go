package config

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Find when no config file exists.
var ErrNotFound = errors.New("no config file found")

// ConfigError reports a configuration that cannot be turned into a
// FilterConfig. It is returned before any traversal starts.
type ConfigError struct {
	Path string
	Key  string
	Err  error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Key != "" && e.Path != "":
		return fmt.Sprintf("invalid config %s: %s: %v", e.Path, e.Key, e.Err)
	case e.Key != "":
		return fmt.Sprintf("invalid config: %s: %v", e.Key, e.Err)
	case e.Path != "":
		return fmt.Sprintf("invalid config %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("invalid config: %v", e.Err)
	}
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
