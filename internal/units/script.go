package units

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Shebang heads every generated wrapper script.
const Shebang = "#!/bin/sh"

// ErrInvalidCommand is returned for commands that cannot be used.
var ErrInvalidCommand = errors.New("invalid command")

func newParser() *syntax.Parser {
	return syntax.NewParser(syntax.Variant(syntax.LangPOSIX), syntax.KeepComments(true))
}

// CheckCommand rejects blank commands and commands that are not valid POSIX
// shell syntax.
func CheckCommand(cmd string) error {
	if strings.TrimSpace(cmd) == "" {
		return fmt.Errorf("%w: command is empty", ErrInvalidCommand)
	}
	if _, err := newParser().Parse(strings.NewReader(cmd), ""); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidCommand, cmd, err)
	}
	return nil
}

// CheckExecLine rejects commands that cannot sit on a single ExecStart= line.
func CheckExecLine(cmd string) error {
	if strings.ContainsAny(cmd, "\r\n") {
		return fmt.Errorf("%w: %q spans several lines, use a wrapper script", ErrInvalidCommand, cmd)
	}
	return nil
}

// RenderScript returns a /bin/sh wrapper running commands in order. The
// commands are parsed and printed back in canonical form.
func RenderScript(commands []string) (string, error) {
	if len(commands) == 0 {
		return "", fmt.Errorf("%w: no commands", ErrInvalidCommand)
	}

	f, err := newParser().Parse(strings.NewReader(strings.Join(commands, "\n")), "script")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}

	var buf bytes.Buffer
	buf.WriteString(Shebang + "\n")
	if err := syntax.NewPrinter().Print(&buf, f); err != nil {
		return "", fmt.Errorf("print script: %w", err)
	}
	return buf.String(), nil
}
