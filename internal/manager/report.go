package manager

import (
	"fmt"
	"time"
)

// StepStatus is the outcome of one step of an operation.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepDone    StepStatus = "done"
	StepFailed  StepStatus = "failed"
)

// Step is one named stage of an operation.
type Step struct {
	Name   string
	Status StepStatus
	Err    error
	// BestEffort steps may fail without aborting the operation.
	BestEffort bool
}

// Report records how far an operation got. Steps after the aborting one
// stay pending; nothing is rolled back.
type Report struct {
	Operation string
	Task      string
	StartedAt time.Time
	Steps     []*Step
	// Err is the error that aborted the operation, nil if it completed.
	Err error
}

// Completed reports whether every non-best-effort step succeeded.
func (r *Report) Completed() bool {
	return r.Err == nil
}

// Failed returns the step that aborted the operation, or nil.
func (r *Report) Failed() *Step {
	for _, s := range r.Steps {
		if s.Status == StepFailed && !s.BestEffort {
			return s
		}
	}
	return nil
}

// Warnings returns best-effort steps that failed.
func (r *Report) Warnings() []*Step {
	var out []*Step
	for _, s := range r.Steps {
		if s.Status == StepFailed && s.BestEffort {
			out = append(out, s)
		}
	}
	return out
}

// Done returns the names of the steps that completed.
func (r *Report) Done() []string {
	var out []string
	for _, s := range r.Steps {
		if s.Status == StepDone {
			out = append(out, s.Name)
		}
	}
	return out
}

// Step returns the step called name, or nil.
func (r *Report) Step(name string) *Step {
	for _, s := range r.Steps {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Summary describes where the operation stopped.
func (r *Report) Summary() string {
	if f := r.Failed(); f != nil {
		return fmt.Sprintf("%s %s stopped at step %q after %d of %d steps", r.Operation, r.Task, f.Name, len(r.Done()), len(r.Steps))
	}
	return fmt.Sprintf("%s %s completed %d steps", r.Operation, r.Task, len(r.Done()))
}
