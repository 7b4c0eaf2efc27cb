package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/taskgen/internal/config"
	"github.com/dohr-michael/taskgen/internal/journal"
	"github.com/dohr-michael/taskgen/internal/manager"
	"github.com/dohr-michael/taskgen/internal/systemctl"
	"github.com/dohr-michael/taskgen/internal/taskdb"
	"github.com/dohr-michael/taskgen/internal/units"
)

// app holds everything one invocation needs.
type app struct {
	cfg     *config.Config
	mgr     *manager.Manager
	journal *journal.Journal
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	style   styler
}

func writers(cmd *cli.Command) (io.Reader, io.Writer, io.Writer) {
	root := cmd.Root()
	var (
		in     io.Reader = os.Stdin
		out    io.Writer = os.Stdout
		errOut io.Writer = os.Stderr
	)
	if root.Reader != nil {
		in = root.Reader
	}
	if root.Writer != nil {
		out = root.Writer
	}
	if root.ErrWriter != nil {
		errOut = root.ErrWriter
	}
	return in, out, errOut
}

func setupLogging(cmd *cli.Command, errOut io.Writer) {
	level := slog.LevelWarn
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level})))
}

// loadConfig reads the .env next to the config file, then the config itself.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	if err := config.LoadDotenv(config.DotenvPath(path)); err != nil {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("config loaded", "path", path, "db_file", cfg.DBFile, "unit_dir", cfg.UnitDir)
	return cfg, nil
}

func newApp(_ context.Context, cmd *cli.Command, runners RunnerFactory) (*app, error) {
	in, out, errOut := writers(cmd)
	setupLogging(cmd, errOut)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	store, err := taskdb.Open(cfg.DBFile, taskdb.Format(cfg.DBFormat))
	if err != nil {
		return nil, fmt.Errorf("open task db: %w", err)
	}

	driver := systemctl.NewDriver(runners(out, errOut), cfg.Systemctl)

	return &app{
		cfg:     cfg,
		mgr:     manager.New(store, units.NewDir(cfg.UnitDir), driver),
		journal: journal.New(cfg.JournalFile),
		in:      in,
		out:     out,
		errOut:  errOut,
		style:   newStyler(out),
	}, nil
}

// finish journals the report, prints its outcome and turns a failed
// operation into an error wrapping ErrOperationFailed. Operations rejected
// at validation touched nothing and are not journaled.
func (a *app) finish(r *manager.Report, success string) error {
	if f := r.Failed(); f != nil && f.Name == manager.StepValidate {
		slog.Debug("rejected operation not journaled", "operation", r.Operation, "task", r.Task)
	} else if e, err := a.journal.Record(r); err != nil {
		slog.Warn("failed to write journal", "path", a.journal.Path(), "error", err)
	} else {
		slog.Debug("operation journaled", "id", e.ID, "operation", r.Operation, "task", r.Task)
	}

	for _, w := range r.Warnings() {
		fmt.Fprintln(a.errOut, a.style.warn(fmt.Sprintf("warning: %s: %v", w.Name, w.Err)))
	}

	if r.Completed() {
		fmt.Fprintln(a.out, a.style.ok(success))
		return nil
	}

	printReport(a.errOut, a.style, r)
	return fmt.Errorf("%w: %s %s: %w", ErrOperationFailed, r.Operation, r.Task, r.Err)
}
