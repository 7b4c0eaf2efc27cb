// Package config loads taskgen's settings.
package config

import (
	"github.com/dohr-michael/taskgen/internal/systemctl"
	"github.com/dohr-michael/taskgen/internal/units"
)

// Config keys, as they appear in the config file. Each can be overridden by
// the environment variable TASKGEN_<KEY in upper case>.
const (
	KeyDBFile      = "db_file"
	KeyDBFormat    = "db_format"
	KeyUnitDir     = "systemd_unit_dir"
	KeySystemctl   = "systemctl"
	KeyJournalFile = "journal_file"
)

// Default values.
const (
	DefaultDBFile      = "/var/lib/taskgen-db.json"
	DefaultJournalFile = "/var/lib/taskgen/journal.jsonl"
)

// Config is taskgen's runtime configuration.
type Config struct {
	DBFile      string // task db location
	DBFormat    string // json, text or sqlite; empty infers from DBFile
	UnitDir     string // where unit files are written
	Systemctl   string // systemctl binary
	JournalFile string // operation journal; empty disables it
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DBFile:      DefaultDBFile,
		UnitDir:     units.DefaultDir,
		Systemctl:   systemctl.DefaultBinary,
		JournalFile: DefaultJournalFile,
	}
}
