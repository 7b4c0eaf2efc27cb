package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"github.com/dohr-michael/taskgen/cmd/commands"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd := commands.NewRootCommand()
	if err := cmd.Run(ctx, os.Args); err != nil {
		if errors.Is(err, commands.ErrShowedHelp) {
			os.Exit(2)
		}
		if errors.Is(err, commands.ErrOperationFailed) {
			os.Exit(1)
		}
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
