// Package manager sequences unit rendering, unit file IO, systemctl calls
// and task db updates into the create, delete and control operations.
//
// Every operation is an ordered list of named steps. Execution stops at the
// first failing step unless the step is best-effort; earlier steps are never
// undone. The returned Report shows exactly which steps ran.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dohr-michael/taskgen/internal/systemctl"
	"github.com/dohr-michael/taskgen/internal/taskdb"
	"github.com/dohr-michael/taskgen/internal/units"
)

// Step names.
const (
	StepValidate      = "validate"
	StepWriteScript   = "write-script"
	StepWriteService  = "write-service"
	StepWriteTimer    = "write-timer"
	StepDaemonReload  = "daemon-reload"
	StepEnable        = "enable"
	StepStart         = "start"
	StepSaveRecord    = "save-record"
	StepStop          = "stop"
	StepDisable       = "disable"
	StepRemoveService = "remove-service"
	StepRemoveTimer   = "remove-timer"
	StepRemoveRecord  = "remove-record"
)

// CommandSeparator joins several commands in a task record.
const CommandSeparator = " && "

// ErrNoCommands is returned by Create when no command is given.
var ErrNoCommands = errors.New("at least one command is required")

// Manager runs task operations.
type Manager struct {
	store  taskdb.Store
	units  *units.Dir
	driver *systemctl.Driver
	now    func() time.Time
}

// New creates a Manager.
func New(store taskdb.Store, unitDir *units.Dir, driver *systemctl.Driver) *Manager {
	return &Manager{store: store, units: unitDir, driver: driver, now: time.Now}
}

// CreateRequest describes a task to create.
type CreateRequest struct {
	Name         string
	Commands     []string
	Frequency    string
	TimerOptions string
	// ScriptPath, when set, receives a wrapper script running all commands,
	// and the service runs that script instead.
	ScriptPath string
}

type stepFunc struct {
	name       string
	bestEffort bool
	run        func(ctx context.Context) error
}

func (m *Manager) newReport(op, task string, steps []stepFunc) *Report {
	r := &Report{Operation: op, Task: task, StartedAt: m.now()}
	for _, s := range steps {
		r.Steps = append(r.Steps, &Step{Name: s.name, Status: StepPending, BestEffort: s.bestEffort})
	}
	return r
}

// execute runs steps in order and fills in r.
func (m *Manager) execute(ctx context.Context, r *Report, steps []stepFunc) {
	for i, s := range steps {
		st := r.Steps[i]
		if err := s.run(ctx); err != nil {
			st.Status = StepFailed
			st.Err = err
			if s.bestEffort {
				slog.Warn("step failed, continuing", "operation", r.Operation, "task", r.Task, "step", s.name, "error", err)
				continue
			}
			r.Err = fmt.Errorf("%s: %w", s.name, err)
			slog.Debug("operation aborted", "operation", r.Operation, "task", r.Task, "step", s.name, "error", err)
			return
		}
		st.Status = StepDone
		slog.Debug("step done", "operation", r.Operation, "task", r.Task, "step", s.name)
	}
}

// Create writes the units, enables and starts the timer, then records the
// task. Re-creating an existing name replaces its record in place.
func (m *Manager) Create(ctx context.Context, req CreateRequest) *Report {
	timer := systemctl.UnitName(req.Name, systemctl.KindTimer)

	var (
		execSpec []string
		command  string
		script   string
	)

	steps := []stepFunc{
		{name: StepValidate, run: func(context.Context) error {
			var err error
			execSpec, command, script, err = m.prepareCreate(&req)
			return err
		}},
	}
	if req.ScriptPath != "" {
		steps = append(steps, stepFunc{name: StepWriteScript, run: func(context.Context) error {
			return units.WriteScript(req.ScriptPath, script)
		}})
	}
	steps = append(steps,
		stepFunc{name: StepWriteService, run: func(context.Context) error {
			return m.units.WriteService(req.Name, units.RenderService(req.Name, execSpec))
		}},
		stepFunc{name: StepWriteTimer, run: func(context.Context) error {
			return m.units.WriteTimer(req.Name, units.RenderTimer(req.Name, req.Frequency, req.TimerOptions))
		}},
		stepFunc{name: StepDaemonReload, run: m.driver.DaemonReload},
		stepFunc{name: StepEnable, run: func(ctx context.Context) error {
			return m.driver.Run(ctx, systemctl.VerbEnable, timer)
		}},
		stepFunc{name: StepStart, run: func(ctx context.Context) error {
			return m.driver.Run(ctx, systemctl.VerbStart, timer)
		}},
		stepFunc{name: StepSaveRecord, run: func(ctx context.Context) error {
			return taskdb.Upsert(ctx, m.store, taskdb.TaskRecord{
				Name:         req.Name,
				Command:      command,
				Frequency:    req.Frequency,
				TimerOptions: req.TimerOptions,
			})
		}},
	)

	r := m.newReport("create", req.Name, steps)
	m.execute(ctx, r, steps)
	return r
}

// prepareCreate validates req and computes the ExecStart lines, the command
// string to record and the wrapper script. It has no side effects.
func (m *Manager) prepareCreate(req *CreateRequest) (execSpec []string, command, script string, err error) {
	if err := taskdb.ValidateName(req.Name); err != nil {
		return nil, "", "", err
	}
	if len(req.Commands) == 0 {
		return nil, "", "", ErrNoCommands
	}
	for _, c := range req.Commands {
		if err := units.CheckCommand(c); err != nil {
			return nil, "", "", err
		}
	}

	if req.ScriptPath == "" {
		for _, c := range req.Commands {
			if err := units.CheckExecLine(c); err != nil {
				return nil, "", "", err
			}
		}
		return req.Commands, strings.Join(req.Commands, CommandSeparator), "", nil
	}

	path, err := filepath.Abs(req.ScriptPath)
	if err != nil {
		return nil, "", "", fmt.Errorf("resolve script path: %w", err)
	}
	req.ScriptPath = path

	script, err = units.RenderScript(req.Commands)
	if err != nil {
		return nil, "", "", err
	}
	return []string{path}, path, script, nil
}

// Delete stops and disables the timer, removes both unit files, reloads
// systemd and drops the record. Unit file removal is best-effort.
func (m *Manager) Delete(ctx context.Context, name string) *Report {
	timer := systemctl.UnitName(name, systemctl.KindTimer)

	steps := []stepFunc{
		{name: StepValidate, run: func(context.Context) error {
			return taskdb.ValidateName(name)
		}},
		{name: StepStop, run: func(ctx context.Context) error {
			return m.driver.Run(ctx, systemctl.VerbStop, timer)
		}},
		{name: StepDisable, run: func(ctx context.Context) error {
			return m.driver.Run(ctx, systemctl.VerbDisable, timer)
		}},
		{name: StepRemoveService, bestEffort: true, run: func(context.Context) error {
			return m.units.RemoveService(name)
		}},
		{name: StepRemoveTimer, bestEffort: true, run: func(context.Context) error {
			return m.units.RemoveTimer(name)
		}},
		{name: StepDaemonReload, run: m.driver.DaemonReload},
		{name: StepRemoveRecord, run: func(ctx context.Context) error {
			n, err := taskdb.Remove(ctx, m.store, name)
			if err != nil {
				return err
			}
			if n == 0 {
				slog.Warn("task was not in the task db", "task", name, "db", m.store.Path())
			}
			return nil
		}},
	}

	r := m.newReport("delete", name, steps)
	m.execute(ctx, r, steps)
	return r
}

// Control runs an allow-listed systemctl verb on the task's service or
// timer. daemon-reload ignores the task.
func (m *Manager) Control(ctx context.Context, verb, name, kind string) *Report {
	var (
		v    systemctl.Verb
		unit string
	)

	steps := []stepFunc{
		{name: StepValidate, run: func(context.Context) error {
			var err error
			if v, err = systemctl.ParseVerb(verb); err != nil {
				return err
			}
			if !v.TakesUnit() {
				return nil
			}
			k, err := systemctl.ParseKind(kind)
			if err != nil {
				return err
			}
			if err := taskdb.ValidateName(name); err != nil {
				return err
			}
			unit = systemctl.UnitName(name, k)
			return nil
		}},
		{name: verb, run: func(ctx context.Context) error {
			return m.driver.Run(ctx, v, unit)
		}},
	}

	r := m.newReport(verb, name, steps)
	m.execute(ctx, r, steps)
	return r
}

// List returns the stored tasks whose name matches pattern (all when empty).
// It never writes.
func (m *Manager) List(ctx context.Context, pattern string) (taskdb.LoadResult, error) {
	res := m.store.Load(ctx)
	filtered, err := taskdb.Filter(res.Records, pattern)
	if err != nil {
		return taskdb.LoadResult{}, err
	}
	res.Records = filtered
	return res, nil
}
