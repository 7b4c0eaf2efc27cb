package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/taskgen/internal/manager"
	"github.com/dohr-michael/taskgen/internal/systemctl"
)

var rootFlagNames = []string{
	"name", "command", "create-script", "frequency", "operation", "unit",
	"timer-options", "list", "match", "output", "config", "debug",
}

func anyFlagSet(cmd *cli.Command) bool {
	for _, name := range rootFlagNames {
		if cmd.IsSet(name) {
			return true
		}
	}
	return false
}

func runRoot(ctx context.Context, cmd *cli.Command, runners RunnerFactory) error {
	if !anyFlagSet(cmd) {
		_ = cli.ShowRootCommandHelp(cmd)
		return ErrShowedHelp
	}

	a, err := newApp(ctx, cmd, runners)
	if err != nil {
		return err
	}

	if cmd.Bool("list") {
		return a.list(ctx, cmd.String("match"), cmd.String("output"))
	}

	name := cmd.String("name")
	if name == "" {
		return fmt.Errorf("--name is required unless --list is given")
	}

	switch op := cmd.String("operation"); op {
	case "create":
		commands := cmd.StringSlice("command")
		if len(commands) == 0 {
			if commands, err = readCommands(a.in, a.out, isTerminal(a.in)); err != nil {
				return fmt.Errorf("read commands: %w", err)
			}
		}
		r := a.mgr.Create(ctx, manager.CreateRequest{
			Name:         name,
			Commands:     commands,
			Frequency:    cmd.String("frequency"),
			TimerOptions: cmd.String("timer-options"),
			ScriptPath:   cmd.String("create-script"),
		})
		return a.finish(r, fmt.Sprintf("Service and timer for %s created and started successfully.", name))

	case "delete":
		r := a.mgr.Delete(ctx, name)
		return a.finish(r, fmt.Sprintf("Service and timer for %s deleted successfully.", name))

	default:
		if _, err := systemctl.ParseVerb(op); err != nil {
			return err
		}
		unit := cmd.String("unit")
		r := a.mgr.Control(ctx, op, name, unit)
		return a.finish(r, controlMessage(op, name, unit))
	}
}

func controlMessage(op, name, unit string) string {
	if op == string(systemctl.VerbDaemonReload) {
		return "systemctl daemon-reload executed"
	}
	kind, _ := systemctl.ParseKind(unit)
	return fmt.Sprintf("systemctl %s %s executed", op, systemctl.UnitName(name, kind))
}
