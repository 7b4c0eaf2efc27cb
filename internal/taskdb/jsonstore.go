package taskdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dohr-michael/taskgen/internal/storage"
)

// JSONStore keeps the records as one pretty-printed JSON array.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSONStore backed by path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file.
func (s *JSONStore) Path() string { return s.path }

// jsonRecord uses pointers so missing fields can be told apart from empty ones.
type jsonRecord struct {
	Name         *string `json:"name"`
	Command      *string `json:"command"`
	Frequency    *string `json:"frequency"`
	TimerOptions *string `json:"timer_options"`
}

// Load reads the JSON array. A record with a missing or unknown field makes
// the whole document unreadable.
func (s *JSONStore) Load(_ context.Context) LoadResult {
	data, err := storage.ReadFileContent(s.path)
	if err != nil {
		slog.Warn("task db unreadable, treating as empty", "path", s.path, "error", err)
		return recovered(err.Error())
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return LoadResult{}
	}

	records, err := decodeJSONRecords(data)
	if err != nil {
		slog.Warn("task db corrupt, treating as empty", "path", s.path, "error", err)
		return recovered(err.Error())
	}
	return LoadResult{Records: records}
}

func decodeJSONRecords(data []byte) ([]TaskRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var raw []jsonRecord
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode task db: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode task db: trailing data after array")
	}

	records := make([]TaskRecord, 0, len(raw))
	for i, r := range raw {
		if r.Name == nil || r.Command == nil || r.Frequency == nil || r.TimerOptions == nil {
			return nil, fmt.Errorf("decode task db: record %d is missing fields", i)
		}
		records = append(records, TaskRecord{
			Name:         *r.Name,
			Command:      *r.Command,
			Frequency:    *r.Frequency,
			TimerOptions: *r.TimerOptions,
		})
	}
	return records, nil
}

// Save overwrites the file with records.
func (s *JSONStore) Save(_ context.Context, records []TaskRecord) error {
	if records == nil {
		records = []TaskRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal task db: %w", err)
	}
	if err := storage.WriteFileAtomic(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write task db: %w", err)
	}
	return nil
}

var _ Store = (*JSONStore)(nil)
