// Package taskdb persists the list of tasks taskgen has created.
//
// Three backends share one contract: a JSON document, a colon-delimited text
// file, and a SQLite table. Load never fails; a store that cannot be read is
// reported through LoadResult.Recovered instead of an error, so callers can
// tell an empty database from a corrupt one.
package taskdb

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
)

// TaskRecord is one managed service/timer pair.
type TaskRecord struct {
	// Name matches the systemd service and timer name.
	Name string `json:"name" yaml:"name"`
	// Command is what the service runs: one command, several joined with
	// " && ", or the path of a generated wrapper script.
	Command string `json:"command" yaml:"command"`
	// Frequency is the OnCalendar expression; empty means no calendar trigger.
	Frequency string `json:"frequency" yaml:"frequency"`
	// TimerOptions is a comma-separated list of raw [Timer] directives.
	TimerOptions string `json:"timer_options" yaml:"timer_options"`
}

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_.@-]+$`)

// ErrInvalidName is returned for names that are not safe unit names.
var ErrInvalidName = errors.New("invalid task name")

// ValidateName checks that name can be used as a unit file name.
func ValidateName(name string) error {
	if name == "." || name == ".." || !nameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// LoadResult is the outcome of reading a store.
type LoadResult struct {
	Records []TaskRecord
	// Recovered is set when the store existed but could not be read and
	// was treated as empty.
	Recovered bool
	// Reason explains why the store was recovered.
	Reason string
	// Dropped counts malformed lines skipped by the text backend.
	Dropped int
}

// Store is a whole-list record store.
type Store interface {
	// Load reads every record in order. It never returns an error.
	Load(ctx context.Context) LoadResult
	// Save overwrites the store with records.
	Save(ctx context.Context, records []TaskRecord) error
	// Path returns the backing file.
	Path() string
}

func recovered(reason string) LoadResult {
	return LoadResult{Recovered: true, Reason: reason}
}

// Upsert replaces the record with the same name in place, or appends it.
// Existing duplicates of the name are collapsed into the first position.
func Upsert(ctx context.Context, s Store, rec TaskRecord) error {
	res := s.Load(ctx)

	out := make([]TaskRecord, 0, len(res.Records)+1)
	replaced := false
	for _, r := range res.Records {
		if r.Name != rec.Name {
			out = append(out, r)
			continue
		}
		if !replaced {
			out = append(out, rec)
			replaced = true
		}
	}
	if !replaced {
		out = append(out, rec)
	}

	return s.Save(ctx, out)
}

// Remove drops every record whose name equals name exactly and returns how
// many were removed. The store is rewritten even when nothing matched.
func Remove(ctx context.Context, s Store, name string) (int, error) {
	res := s.Load(ctx)

	out := make([]TaskRecord, 0, len(res.Records))
	for _, r := range res.Records {
		if r.Name != name {
			out = append(out, r)
		}
	}

	if err := s.Save(ctx, out); err != nil {
		return 0, err
	}
	return len(res.Records) - len(out), nil
}

// Filter returns the records whose name matches the glob pattern.
// An empty pattern matches everything.
func Filter(records []TaskRecord, pattern string) ([]TaskRecord, error) {
	if pattern == "" {
		return records, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	var out []TaskRecord
	for _, r := range records {
		ok, err := doublestar.Match(pattern, r.Name)
		if err != nil {
			return nil, fmt.Errorf("match %q: %w", pattern, err)
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}
