// Package systemctl drives the systemd service manager through the
// systemctl binary.
package systemctl

import (
	"errors"
	"fmt"
	"slices"
)

// Verb is a systemctl operation taskgen is allowed to run.
type Verb string

const (
	VerbStart        Verb = "start"
	VerbStop         Verb = "stop"
	VerbRestart      Verb = "restart"
	VerbReload       Verb = "reload"
	VerbEnable       Verb = "enable"
	VerbDisable      Verb = "disable"
	VerbStatus       Verb = "status"
	VerbDaemonReload Verb = "daemon-reload"
)

// Verbs is the allow-list, in help-text order.
var Verbs = []Verb{
	VerbStart, VerbStop, VerbRestart, VerbReload,
	VerbEnable, VerbDisable, VerbStatus, VerbDaemonReload,
}

// ErrUnsupportedVerb is returned for verbs outside the allow-list.
var ErrUnsupportedVerb = errors.New("unsupported systemctl operation")

// ParseVerb returns s as a Verb if it is allow-listed.
func ParseVerb(s string) (Verb, error) {
	v := Verb(s)
	if !slices.Contains(Verbs, v) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedVerb, s)
	}
	return v, nil
}

// TakesUnit reports whether the verb operates on a unit.
func (v Verb) TakesUnit() bool {
	return v != VerbDaemonReload
}

// Kind is the unit type a task owns.
type Kind string

const (
	KindService Kind = "service"
	KindTimer   Kind = "timer"
)

// ErrUnsupportedKind is returned for unit types other than service and timer.
var ErrUnsupportedKind = errors.New("unsupported unit type")

// ParseKind returns s as a Kind. Empty means timer.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindTimer:
		return KindTimer, nil
	case KindService:
		return KindService, nil
	default:
		return "", fmt.Errorf("%w: %q (want service or timer)", ErrUnsupportedKind, s)
	}
}

// UnitName returns the fully-qualified unit name, e.g. "backup.timer".
func UnitName(name string, kind Kind) string {
	return name + "." + string(kind)
}
