package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/taskgen/internal/journal"
)

// NewHistoryCommand returns the history subcommand.
func NewHistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent create, delete and systemctl operations",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of entries to show",
				Value: 20,
			},
		},
		Action: runHistory,
	}
}

func runHistory(_ context.Context, cmd *cli.Command) error {
	_, out, errOut := writers(cmd)
	setupLogging(cmd, errOut)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	j := journal.New(cfg.JournalFile)
	if !j.Enabled() {
		fmt.Fprintln(out, "The operation journal is disabled.")
		return nil
	}

	entries, err := j.Tail(int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No history found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tOPERATION\tTASK\tRESULT")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Time.Format("2006-01-02 15:04:05"),
			e.Operation, dash(e.Task), result(e))
	}
	return w.Flush()
}

// result names the step an operation stopped at, if any.
func result(e journal.Entry) string {
	if e.Completed {
		return "ok"
	}
	for _, s := range e.Steps {
		if s.Status == "failed" && !s.BestEffort {
			return "failed at " + s.Name
		}
	}
	return "failed"
}
