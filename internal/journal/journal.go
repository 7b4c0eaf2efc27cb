// Package journal keeps an append-only history of taskgen operations as JSONL.
package journal

import (
	"time"

	"github.com/google/uuid"

	"github.com/dohr-michael/taskgen/internal/manager"
	"github.com/dohr-michael/taskgen/internal/storage"
)

// StepEntry is the journaled form of a manager.Step.
type StepEntry struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	BestEffort bool   `json:"best_effort,omitempty"`
}

// Entry is one journaled operation.
type Entry struct {
	ID        string      `json:"id"`
	Time      time.Time   `json:"time"`
	Operation string      `json:"operation"`
	Task      string      `json:"task,omitempty"`
	Completed bool        `json:"completed"`
	Error     string      `json:"error,omitempty"`
	Steps     []StepEntry `json:"steps"`
}

// Journal appends entries to a JSONL file. A Journal with an empty path
// records nothing.
type Journal struct {
	path string
}

// New creates a Journal writing to path.
func New(path string) *Journal {
	return &Journal{path: path}
}

// Enabled reports whether the journal has a backing file.
func (j *Journal) Enabled() bool { return j.path != "" }

// Path returns the backing file.
func (j *Journal) Path() string { return j.path }

// NewEntry converts a report into a journal entry with a fresh ID.
func NewEntry(r *manager.Report) Entry {
	e := Entry{
		ID:        "op_" + uuid.New().String(),
		Time:      r.StartedAt,
		Operation: r.Operation,
		Task:      r.Task,
		Completed: r.Completed(),
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	for _, s := range r.Steps {
		se := StepEntry{Name: s.Name, Status: string(s.Status), BestEffort: s.BestEffort}
		if s.Err != nil {
			se.Error = s.Err.Error()
		}
		e.Steps = append(e.Steps, se)
	}
	return e
}

// Record appends the report and returns the entry written.
func (j *Journal) Record(r *manager.Report) (Entry, error) {
	e := NewEntry(r)
	if !j.Enabled() {
		return e, nil
	}
	return e, storage.AppendJSONL(j.path, e)
}

// Tail returns the last n entries, oldest first. n <= 0 returns all of them.
func (j *Journal) Tail(n int) ([]Entry, error) {
	if !j.Enabled() {
		return nil, nil
	}
	entries, err := storage.LoadJSONL[Entry](j.path)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}
