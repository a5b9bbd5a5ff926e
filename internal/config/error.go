package config

import (
	"errors"
	"strings"
)

var (
	ErrNotFound = errors.New("config not found")
	ErrExists   = errors.New("config already exists")
)

// ConfigError reports everything wrong with a config file at once:
// unresolved ${VAR} references and failed validation checks.
type ConfigError struct {
	Path    string
	Missing []string
	Errors  []string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("invalid config")
	if e.Path != "" {
		b.WriteString(" " + e.Path)
	}
	if len(e.Missing) > 0 {
		b.WriteString("\n  unset environment variables: " + strings.Join(e.Missing, ", "))
	}
	for _, msg := range e.Errors {
		b.WriteString("\n  " + msg)
	}
	return b.String()
}

// HasErrors reports whether the file should be rejected.
func (e *ConfigError) HasErrors() bool {
	return len(e.Missing) > 0 || len(e.Errors) > 0
}
