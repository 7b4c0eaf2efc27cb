package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/tailscale/hujson"
	"gopkg.in/ini.v1"
)

// Load reads the config file at path and layers it over the defaults.
// Environment variables TASKGEN_<KEY> override file values. A missing file
// is not an error.
//
// Files ending in .json or .jsonc are JSON with comments; anything else is
// read as INI key/value pairs from the default section.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := readInto(v, path, data); err != nil {
				return nil, err
			}
		}
	}

	return &Config{
		DBFile:      v.GetString(KeyDBFile),
		DBFormat:    v.GetString(KeyDBFormat),
		UnitDir:     v.GetString(KeyUnitDir),
		Systemctl:   v.GetString(KeySystemctl),
		JournalFile: v.GetString(KeyJournalFile),
	}, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	def := Default()
	v.SetDefault(KeyDBFile, def.DBFile)
	v.SetDefault(KeyDBFormat, def.DBFormat)
	v.SetDefault(KeyUnitDir, def.UnitDir)
	v.SetDefault(KeySystemctl, def.Systemctl)
	v.SetDefault(KeyJournalFile, def.JournalFile)

	v.SetEnvPrefix("TASKGEN")
	v.AutomaticEnv()
	return v
}

func readInto(v *viper.Viper, path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		std, err := hujson.Standardize(data)
		if err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
		v.SetConfigType("json")
		if err := v.ReadConfig(bytes.NewReader(std)); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
	default:
		values, err := iniValues(data)
		if err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := v.MergeConfigMap(values); err != nil {
			return fmt.Errorf("merge config: %w", err)
		}
	}
	return nil
}

// iniValues flattens an INI document for viper. Keys of the default section
// land at the top level; keys of other sections are nested under the
// lower-cased section name.
func iniValues(data []byte) (map[string]any, error) {
	f, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, data)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any)
	for _, sec := range f.Sections() {
		values := make(map[string]any, len(sec.Keys()))
		for _, k := range sec.Keys() {
			values[k.Name()] = k.Value()
		}
		if strings.EqualFold(sec.Name(), ini.DefaultSection) {
			for k, v := range values {
				out[k] = v
			}
			continue
		}
		out[sec.Name()] = values
	}
	return out, nil
}
