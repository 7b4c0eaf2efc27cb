package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"charm.land/lipgloss/v2"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/dohr-michael/taskgen/internal/manager"
	"github.com/dohr-michael/taskgen/internal/taskdb"
)

// List output formats.
const (
	formatText  = "text"
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// styler colors output only when it goes to a terminal.
type styler struct {
	enabled bool
}

func newStyler(w io.Writer) styler {
	return styler{enabled: isTerminal(w)}
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (s styler) render(st lipgloss.Style, str string) string {
	if !s.enabled {
		return str
	}
	return st.Render(str)
}

func (s styler) ok(str string) string   { return s.render(okStyle, str) }
func (s styler) err(str string) string  { return s.render(errStyle, str) }
func (s styler) warn(str string) string { return s.render(warnStyle, str) }
func (s styler) dim(str string) string  { return s.render(dimStyle, str) }

// printReport shows every step of a failed operation.
func printReport(w io.Writer, s styler, r *manager.Report) {
	fmt.Fprintln(w, s.err("error: "+r.Summary()))
	for _, st := range r.Steps {
		line := fmt.Sprintf("  %-8s %s", st.Status, st.Name)
		if st.Err != nil {
			line += ": " + st.Err.Error()
		}
		switch st.Status {
		case manager.StepFailed:
			line = s.err(line)
		case manager.StepPending:
			line = s.dim(line)
		}
		fmt.Fprintln(w, line)
	}
}

func (a *app) list(ctx context.Context, pattern, format string) error {
	res, err := a.mgr.List(ctx, pattern)
	if err != nil {
		return err
	}

	if res.Recovered {
		fmt.Fprintln(a.errOut, a.style.warn(fmt.Sprintf("warning: task db could not be read (%s), showing it as empty", res.Reason)))
	}
	if res.Dropped > 0 {
		fmt.Fprintln(a.errOut, a.style.warn(fmt.Sprintf("warning: skipped %d malformed task db lines", res.Dropped)))
	}

	return writeRecords(a.out, format, pattern, res.Records)
}

func writeRecords(w io.Writer, format, pattern string, records []taskdb.TaskRecord) error {
	if records == nil {
		records = []taskdb.TaskRecord{}
	}

	switch format {
	case formatText, "":
		fmt.Fprintln(w, "List of systemd timers and services created by taskgen:")
		if len(records) == 0 {
			if pattern != "" {
				fmt.Fprintf(w, "No tasks match %q.\n", pattern)
			} else {
				fmt.Fprintln(w, "No tasks have been created yet.")
			}
			return nil
		}
		for _, r := range records {
			fmt.Fprintln(w, strings.Join([]string{r.Name, r.Command, r.Frequency, r.TimerOptions}, ":"))
		}
		return nil

	case formatTable:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tFREQUENCY\tTIMER OPTIONS\tCOMMAND")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, dash(r.Frequency), dash(r.TimerOptions), r.Command)
		}
		return tw.Flush()

	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)

	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()

	default:
		return fmt.Errorf("unknown output format %q (want text, table, json or yaml)", format)
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
