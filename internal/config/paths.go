package config

import (
	"os"
	"path/filepath"
)

// DefaultConfigPath is used when neither --config nor $TASKGEN_CONFIG is set.
const DefaultConfigPath = "/etc/taskgen/taskgen.conf"

// ConfigPath returns the path to the taskgen config file.
// It uses $TASKGEN_CONFIG if set, otherwise DefaultConfigPath.
func ConfigPath() string {
	if v := os.Getenv("TASKGEN_CONFIG"); v != "" {
		return v
	}
	return DefaultConfigPath
}

// DotenvPath returns the .env file that sits next to configPath.
func DotenvPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), ".env")
}
