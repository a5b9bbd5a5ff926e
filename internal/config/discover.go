package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// EnvConfig names the environment variable that pins the config path.
const EnvConfig = "VODGATE_CONFIG"

// DefaultPath is the per-user config location,
// $XDG_CONFIG_HOME/vodgate/config.toml on Linux.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, "vodgate", "config.toml")
}

// SearchPaths lists the locations Discover tries, in order.
func SearchPaths() []string {
	return []string{"config.toml", DefaultPath(), "/etc/vodgate/config.toml"}
}

// Discover returns the config file to use. $VODGATE_CONFIG wins when set
// and must exist; otherwise the first existing entry of SearchPaths.
func Discover() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvConfig, p, err)
		}
		return p, nil
	}

	paths := SearchPaths()
	if p, ok := lo.Find(paths, fileExists); ok {
		return p, nil
	}
	return "", fmt.Errorf("%w (tried %s)", ErrNotFound, strings.Join(paths, ", "))
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
