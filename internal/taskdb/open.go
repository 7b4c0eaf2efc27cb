package taskdb

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format selects a store backend.
type Format string

const (
	FormatJSON   Format = "json"
	FormatText   Format = "text"
	FormatSQLite Format = "sqlite"
)

// InferFormat picks a backend from the file extension. Anything unknown is JSON.
func InferFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".list":
		return FormatText
	case ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatJSON
	}
}

// Open returns the store for path. An empty format is inferred from path.
func Open(path string, format Format) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("task db path is empty")
	}
	if format == "" {
		format = InferFormat(path)
	}

	switch format {
	case FormatJSON:
		return NewJSONStore(path), nil
	case FormatText:
		return NewTextStore(path), nil
	case FormatSQLite:
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unknown task db format %q", format)
	}
}
