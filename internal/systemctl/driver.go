package systemctl

import (
	"context"
	"fmt"
)

// DefaultBinary is the systemctl executable looked up in PATH.
const DefaultBinary = "systemctl"

// Driver issues lifecycle verbs against systemd units.
type Driver struct {
	runner CommandRunner
	binary string
}

// NewDriver creates a Driver. An empty binary means DefaultBinary.
func NewDriver(runner CommandRunner, binary string) *Driver {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Driver{runner: runner, binary: binary}
}

// Run invokes "systemctl <verb> <unit>". Verbs that take no unit, such as
// daemon-reload, are invoked without it.
func (d *Driver) Run(ctx context.Context, verb Verb, unit string) error {
	if _, err := ParseVerb(string(verb)); err != nil {
		return err
	}
	if !verb.TakesUnit() {
		return d.DaemonReload(ctx)
	}
	if unit == "" {
		return fmt.Errorf("systemctl %s: unit is required", verb)
	}
	return d.runner.Run(ctx, d.binary, string(verb), unit)
}

// DaemonReload invokes "systemctl daemon-reload".
func (d *Driver) DaemonReload(ctx context.Context) error {
	return d.runner.Run(ctx, d.binary, string(VerbDaemonReload))
}
