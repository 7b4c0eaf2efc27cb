package manager

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dohr-michael/taskgen/internal/systemctl"
	"github.com/dohr-michael/taskgen/internal/taskdb"
	"github.com/dohr-michael/taskgen/internal/units"
)

type fixture struct {
	mgr   *Manager
	fake  *systemctl.FakeRunner
	store taskdb.Store
	units *units.Dir
	dir   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	unitDir := filepath.Join(dir, "system")
	require.NoError(t, os.MkdirAll(unitDir, 0o755))

	f := &fixture{
		fake:  systemctl.NewFakeRunner(),
		store: taskdb.NewJSONStore(filepath.Join(dir, "db.json")),
		units: units.NewDir(unitDir),
		dir:   dir,
	}
	f.mgr = New(f.store, f.units, systemctl.NewDriver(f.fake, ""))
	return f
}

func (f *fixture) records(t *testing.T) []taskdb.TaskRecord {
	t.Helper()
	return f.store.Load(context.Background()).Records
}

func statuses(r *Report) map[string]StepStatus {
	out := make(map[string]StepStatus, len(r.Steps))
	for _, s := range r.Steps {
		out[s.Name] = s.Status
	}
	return out
}

func TestCreate_Success(t *testing.T) {
	f := newFixture(t)

	r := f.mgr.Create(context.Background(), CreateRequest{
		Name:         "backup",
		Commands:     []string{"/usr/bin/rsync -a /home /mnt", "/bin/sync"},
		Frequency:    "daily",
		TimerOptions: "RandomizedDelaySec=30",
	})
	require.NoError(t, r.Err)
	assert.True(t, r.Completed())
	assert.Equal(t, []string{StepValidate, StepWriteService, StepWriteTimer, StepDaemonReload, StepEnable, StepStart, StepSaveRecord}, r.Done())

	assert.Equal(t, []string{"daemon-reload", "enable backup.timer", "start backup.timer"}, f.fake.Calls())

	svc, err := os.ReadFile(f.units.ServicePath("backup"))
	require.NoError(t, err)
	assert.Equal(t, units.RenderService("backup", []string{"/usr/bin/rsync -a /home /mnt", "/bin/sync"}), string(svc))

	tmr, err := os.ReadFile(f.units.TimerPath("backup"))
	require.NoError(t, err)
	assert.Equal(t, units.RenderTimer("backup", "daily", "RandomizedDelaySec=30"), string(tmr))

	assert.Equal(t, []taskdb.TaskRecord{{
		Name:         "backup",
		Command:      "/usr/bin/rsync -a /home /mnt && /bin/sync",
		Frequency:    "daily",
		TimerOptions: "RandomizedDelaySec=30",
	}}, f.records(t))
}

func TestCreate_EmptyCommandsHasNoSideEffects(t *testing.T) {
	f := newFixture(t)

	r := f.mgr.Create(context.Background(), CreateRequest{Name: "job", Frequency: "daily"})
	assert.ErrorIs(t, r.Err, ErrNoCommands)
	assert.Equal(t, StepValidate, r.Failed().Name)
	assert.Empty(t, r.Done())

	assert.Empty(t, f.fake.Calls())
	_, err := os.Stat(f.units.ServicePath("job"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(f.store.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	cases := map[string]CreateRequest{
		"bad name":       {Name: "../escape", Commands: []string{"echo hi"}},
		"bad syntax":     {Name: "job", Commands: []string{"echo 'oops"}},
		"blank command":  {Name: "job", Commands: []string{"  "}},
		"multiline exec": {Name: "job", Commands: []string{"echo a\necho b"}},
	}

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			r := f.mgr.Create(context.Background(), req)
			require.Error(t, r.Err)
			assert.Equal(t, StepValidate, r.Failed().Name)
			assert.Empty(t, f.fake.Calls())

			entries, err := os.ReadDir(f.units.Path())
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestCreate_WithScript(t *testing.T) {
	f := newFixture(t)
	script := filepath.Join(f.dir, "scripts", "job.sh")

	r := f.mgr.Create(context.Background(), CreateRequest{
		Name:       "job",
		Commands:   []string{"echo a", "echo b"},
		Frequency:  "hourly",
		ScriptPath: script,
	})
	require.NoError(t, r.Err)
	assert.Equal(t, StepDone, r.Step(StepWriteScript).Status)

	data, err := os.ReadFile(script)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\necho a\necho b\n", string(data))

	info, err := os.Stat(script)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	svc, err := os.ReadFile(f.units.ServicePath("job"))
	require.NoError(t, err)
	assert.Contains(t, string(svc), "ExecStart="+script+"\n")
	assert.NotContains(t, string(svc), "ExecStart=echo")

	assert.Equal(t, script, f.records(t)[0].Command)
}

func TestCreate_AbortsOnEnableFailure(t *testing.T) {
	f := newFixture(t)
	f.fake.Fail(1, "enable", "job.timer")

	r := f.mgr.Create(context.Background(), CreateRequest{Name: "job", Commands: []string{"echo hi"}})

	var exitErr *systemctl.ExitError
	require.ErrorAs(t, r.Err, &exitErr)
	assert.Equal(t, StepEnable, r.Failed().Name)
	assert.Equal(t, map[string]StepStatus{
		StepValidate:     StepDone,
		StepWriteService: StepDone,
		StepWriteTimer:   StepDone,
		StepDaemonReload: StepDone,
		StepEnable:       StepFailed,
		StepStart:        StepPending,
		StepSaveRecord:   StepPending,
	}, statuses(r))

	// Unit files stay behind, the task is not recorded.
	assert.FileExists(t, f.units.ServicePath("job"))
	assert.FileExists(t, f.units.TimerPath("job"))
	assert.Empty(t, f.records(t))
	assert.Equal(t, []string{"daemon-reload", "enable job.timer"}, f.fake.Calls())
}

func TestCreate_LaunchFailureIsDistinct(t *testing.T) {
	f := newFixture(t)
	f.fake.FailLaunch(exec.ErrNotFound, "daemon-reload")

	r := f.mgr.Create(context.Background(), CreateRequest{Name: "job", Commands: []string{"echo hi"}})

	var launchErr *systemctl.LaunchError
	require.ErrorAs(t, r.Err, &launchErr)
	var exitErr *systemctl.ExitError
	assert.False(t, errors.As(r.Err, &exitErr))
	assert.Equal(t, StepDaemonReload, r.Failed().Name)
}

func TestCreate_WriteFailureAborts(t *testing.T) {
	f := newFixture(t)
	// A directory where the timer file should go makes the rename fail.
	require.NoError(t, os.MkdirAll(filepath.Join(f.units.TimerPath("job"), "blocker"), 0o755))

	r := f.mgr.Create(context.Background(), CreateRequest{Name: "job", Commands: []string{"echo hi"}})
	require.Error(t, r.Err)
	assert.Equal(t, StepWriteTimer, r.Failed().Name)
	assert.FileExists(t, f.units.ServicePath("job"), "no rollback of the service file")
	assert.Empty(t, f.fake.Calls())
}

func TestCreate_RecreateUpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.mgr.Create(ctx, CreateRequest{Name: "a", Commands: []string{"echo 1"}}).Err)
	require.NoError(t, f.mgr.Create(ctx, CreateRequest{Name: "b", Commands: []string{"echo 2"}}).Err)
	require.NoError(t, f.mgr.Create(ctx, CreateRequest{Name: "a", Commands: []string{"echo 3"}, Frequency: "weekly"}).Err)

	assert.Equal(t, []taskdb.TaskRecord{
		{Name: "a", Command: "echo 3", Frequency: "weekly"},
		{Name: "b", Command: "echo 2"},
	}, f.records(t))
}

func TestDelete_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.mgr.Create(ctx, CreateRequest{Name: "job", Commands: []string{"echo 1"}}).Err)
	require.NoError(t, f.mgr.Create(ctx, CreateRequest{Name: "job2", Commands: []string{"echo 2"}}).Err)

	r := f.mgr.Delete(ctx, "job")
	require.NoError(t, r.Err)
	assert.Empty(t, r.Warnings())

	assert.NoFileExists(t, f.units.ServicePath("job"))
	assert.NoFileExists(t, f.units.TimerPath("job"))
	assert.FileExists(t, f.units.TimerPath("job2"))
	assert.Equal(t, []taskdb.TaskRecord{{Name: "job2", Command: "echo 2"}}, f.records(t))

	calls := f.fake.Calls()
	assert.Equal(t, []string{"stop job.timer", "disable job.timer", "daemon-reload"}, calls[len(calls)-3:])
}

func TestDelete_AbortsOnStopFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.mgr.Create(ctx, CreateRequest{Name: "job", Commands: []string{"echo 1"}}).Err)
	f.fake.Fail(5, "stop", "job.timer")

	r := f.mgr.Delete(ctx, "job")
	require.Error(t, r.Err)
	assert.Equal(t, StepStop, r.Failed().Name)
	assert.Equal(t, StepPending, r.Step(StepRemoveService).Status)

	assert.FileExists(t, f.units.ServicePath("job"))
	assert.Len(t, f.records(t), 1)
}

func TestDelete_FileRemovalIsBestEffort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.mgr.Create(ctx, CreateRequest{Name: "job", Commands: []string{"echo 1"}}).Err)
	require.NoError(t, os.Remove(f.units.ServicePath("job")))

	r := f.mgr.Delete(ctx, "job")
	require.NoError(t, r.Err)
	require.Len(t, r.Warnings(), 1)
	assert.Equal(t, StepRemoveService, r.Warnings()[0].Name)
	assert.Equal(t, StepDone, r.Step(StepRemoveTimer).Status)
	assert.Equal(t, StepDone, r.Step(StepRemoveRecord).Status)
	assert.Empty(t, f.records(t))
}

func TestDelete_ReloadFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.mgr.Create(ctx, CreateRequest{Name: "job", Commands: []string{"echo 1"}}).Err)
	f.fake.Fail(1, "daemon-reload")

	r := f.mgr.Delete(ctx, "job")
	require.Error(t, r.Err)
	assert.Equal(t, StepDaemonReload, r.Failed().Name)
	assert.NoFileExists(t, f.units.TimerPath("job"))
	assert.Len(t, f.records(t), 1, "store and filesystem now disagree")
}

func TestDelete_PrefixNamesSurvive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, []taskdb.TaskRecord{
		{Name: "job"}, {Name: "job2"}, {Name: "myjob"},
	}))

	require.NoError(t, f.mgr.Delete(ctx, "job").Err)
	assert.Equal(t, []taskdb.TaskRecord{{Name: "job2"}, {Name: "myjob"}}, f.records(t))
}

func TestControl(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.mgr.Control(ctx, "restart", "job", "service").Err)
	require.NoError(t, f.mgr.Control(ctx, "status", "job", "").Err)
	require.NoError(t, f.mgr.Control(ctx, "daemon-reload", "", "").Err)

	assert.Equal(t, []string{"restart job.service", "status job.timer", "daemon-reload"}, f.fake.Calls())
}

func TestControl_RejectsWithoutSpawning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.mgr.Control(ctx, "mask", "job", "timer")
	assert.ErrorIs(t, r.Err, systemctl.ErrUnsupportedVerb)
	assert.Equal(t, StepValidate, r.Failed().Name)

	r = f.mgr.Control(ctx, "start", "job", "socket")
	assert.ErrorIs(t, r.Err, systemctl.ErrUnsupportedKind)

	assert.Empty(t, f.fake.Calls())
}

func TestControl_NonZeroExit(t *testing.T) {
	f := newFixture(t)
	f.fake.Fail(3, "status", "job.timer")

	r := f.mgr.Control(context.Background(), "status", "job", "timer")
	var exitErr *systemctl.ExitError
	require.ErrorAs(t, r.Err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, []taskdb.TaskRecord{
		{Name: "backup-home"}, {Name: "backup-db"}, {Name: "cleanup"},
	}))

	res, err := f.mgr.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, res.Records, 3)

	res, err = f.mgr.List(ctx, "backup-*")
	require.NoError(t, err)
	assert.Equal(t, []taskdb.TaskRecord{{Name: "backup-home"}, {Name: "backup-db"}}, res.Records)

	_, err = f.mgr.List(ctx, "[")
	assert.Error(t, err)
	assert.Empty(t, f.fake.Calls())
}

func TestList_ReportsRecovery(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.store.Path(), []byte("{ invalid"), 0o644))

	res, err := f.mgr.List(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, res.Recovered)
	assert.Empty(t, res.Records)
}

func TestReport_Summary(t *testing.T) {
	f := newFixture(t)
	f.fake.Fail(1, "start", "job.timer")

	r := f.mgr.Create(context.Background(), CreateRequest{Name: "job", Commands: []string{"echo hi"}})
	assert.Equal(t, `create job stopped at step "start" after 5 of 7 steps`, r.Summary())

	ok := f.mgr.Control(context.Background(), "stop", "job", "timer")
	assert.Equal(t, "stop job completed 2 steps", ok.Summary())
}
