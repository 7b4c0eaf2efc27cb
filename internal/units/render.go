// Package units renders and writes the systemd unit files for a task.
package units

import (
	"strings"
)

// RenderService returns a oneshot service unit with one ExecStart line per
// entry in execSpec.
func RenderService(name string, execSpec []string) string {
	var b strings.Builder
	b.WriteString("[Unit]\n")
	b.WriteString("Description=Service for " + name + "\n")
	b.WriteString("\n[Service]\n")
	b.WriteString("Type=oneshot\n")
	for _, cmd := range execSpec {
		b.WriteString("ExecStart=" + cmd + "\n")
	}
	return b.String()
}

// RenderTimer returns the timer unit. OnCalendar is emitted only for a
// non-empty frequency. Each comma-separated entry of timerOptions becomes one
// [Timer] line, unvalidated. Persistent=true and the install section are
// always appended, even if timerOptions already sets Persistent.
func RenderTimer(name, frequency, timerOptions string) string {
	var b strings.Builder
	b.WriteString("[Unit]\n")
	b.WriteString("Description=Timer for " + name + "\n")
	b.WriteString("\n[Timer]\n")
	if frequency != "" {
		b.WriteString("OnCalendar=" + frequency + "\n")
	}
	for _, opt := range SplitTimerOptions(timerOptions) {
		b.WriteString(opt + "\n")
	}
	b.WriteString("Persistent=true\n")
	b.WriteString("\n[Install]\n")
	b.WriteString("WantedBy=timers.target\n")
	return b.String()
}

// SplitTimerOptions splits the comma-separated option list, skipping empty entries.
func SplitTimerOptions(timerOptions string) []string {
	var out []string
	for _, opt := range strings.Split(timerOptions, ",") {
		if opt == "" {
			continue
		}
		out = append(out, opt)
	}
	return out
}
