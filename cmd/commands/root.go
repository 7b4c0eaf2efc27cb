package commands

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/taskgen/internal/config"
	"github.com/dohr-michael/taskgen/internal/systemctl"
)

// ErrShowedHelp is returned after printing help because no flags were given.
var ErrShowedHelp = errors.New("no arguments given")

// ErrOperationFailed wraps errors of operations whose report was already
// printed.
var ErrOperationFailed = errors.New("operation failed")

// RunnerFactory builds the CommandRunner used to reach systemctl.
type RunnerFactory func(stdout, stderr io.Writer) systemctl.CommandRunner

func execRunner(stdout, stderr io.Writer) systemctl.CommandRunner {
	r := systemctl.NewExecRunner()
	if stdout != nil {
		r.Stdout = stdout
	}
	if stderr != nil {
		r.Stderr = stderr
	}
	return r
}

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return newRootCommand(execRunner)
}

func newRootCommand(runners RunnerFactory) *cli.Command {
	verbs := make([]string, 0, len(systemctl.Verbs))
	for _, v := range systemctl.Verbs {
		verbs = append(verbs, string(v))
	}

	return &cli.Command{
		Name:    "taskgen",
		Usage:   "Manages systemd timers and services",
		Version: "0.1",

		// Commands may contain commas.
		DisableSliceFlagSeparator: true,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Name of the systemd service and timer",
			},
			&cli.StringSliceFlag{
				Name:    "command",
				Aliases: []string{"c"},
				Usage:   "Command that the service will execute (repeat for multiple commands)",
			},
			&cli.StringFlag{
				Name:    "create-script",
				Aliases: []string{"s"},
				Usage:   "Create a shell script with the provided commands and use it for ExecStart",
			},
			&cli.StringFlag{
				Name:    "frequency",
				Aliases: []string{"f"},
				Usage:   "OnCalendar frequency of the timer (e.g. daily)",
			},
			&cli.StringFlag{
				Name:    "operation",
				Aliases: []string{"o"},
				Usage:   "Operation to perform: create, delete or one of " + strings.Join(verbs, ", "),
				Value:   "create",
			},
			&cli.StringFlag{
				Name:    "unit",
				Aliases: []string{"u"},
				Usage:   "Target unit type for systemctl operations: service or timer",
				Value:   string(systemctl.KindTimer),
			},
			&cli.StringFlag{
				Name:    "timer-options",
				Aliases: []string{"t"},
				Usage:   "Additional comma-separated [Timer] directives",
			},
			&cli.BoolFlag{
				Name:    "list",
				Aliases: []string{"l"},
				Usage:   "List all created timers and services",
			},
			&cli.StringFlag{
				Name:  "match",
				Usage: "Only list tasks whose name matches this glob",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "List format: text, table, json or yaml",
				Value: formatText,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to config file",
				Value: config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runRoot(ctx, cmd, runners)
		},
		Commands: []*cli.Command{
			NewHistoryCommand(),
		},
	}
}
