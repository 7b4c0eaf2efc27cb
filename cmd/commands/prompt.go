package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// readCommands reads one command per line until an empty line or EOF. With
// interactive set, it prompts on out first.
func readCommands(in io.Reader, out io.Writer, interactive bool) ([]string, error) {
	if interactive {
		fmt.Fprintln(out, "Enter commands to execute, one per line. Leave empty line to finish:")
	}

	var commands []string
	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		commands = append(commands, line)
	}
	return commands, scanner.Err()
}
