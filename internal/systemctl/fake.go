package systemctl

import (
	"context"
	"strings"
	"sync"
)

// FakeRunner is an in-memory CommandRunner. It records every call and fails
// the calls whose argument line was scripted with Fail or FailLaunch.
type FakeRunner struct {
	mu     sync.Mutex
	calls  []string
	exit   map[string]int
	launch map[string]error
}

// NewFakeRunner creates a FakeRunner where every call succeeds.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		exit:   make(map[string]int),
		launch: make(map[string]error),
	}
}

// Fail makes calls whose arguments equal args exit with code.
// For example Fail(1, "enable", "job.timer").
func (f *FakeRunner) Fail(code int, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exit[strings.Join(args, " ")] = code
}

// FailLaunch makes calls whose arguments equal args fail to launch.
func (f *FakeRunner) FailLaunch(err error, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launch[strings.Join(args, " ")] = err
}

// Run records the call and returns the scripted outcome.
func (f *FakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.Join(args, " ")
	line := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, key)

	if err, ok := f.launch[key]; ok {
		return &LaunchError{Command: line, Err: err}
	}
	if code, ok := f.exit[key]; ok {
		return &ExitError{Command: line, Code: code}
	}
	return nil
}

// Calls returns the argument lines of every call so far, without the binary.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var _ CommandRunner = (*FakeRunner)(nil)
