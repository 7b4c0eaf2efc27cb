package taskdb

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dohr-michael/taskgen/internal/storage"
)

// TextStore keeps one record per line as name:command:frequency:timer_options.
// Backslashes, colons and line breaks inside fields are escaped.
type TextStore struct {
	path string
}

// NewTextStore creates a TextStore backed by path.
func NewTextStore(path string) *TextStore {
	return &TextStore{path: path}
}

// Path returns the backing file.
func (s *TextStore) Path() string { return s.path }

const textFields = 4

// Load parses every line. Malformed lines are dropped and counted.
func (s *TextStore) Load(_ context.Context) LoadResult {
	data, err := storage.ReadFileContent(s.path)
	if err != nil {
		slog.Warn("task db unreadable, treating as empty", "path", s.path, "error", err)
		return recovered(err.Error())
	}

	var res LoadResult
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, ok := ParseTextLine(line)
		if !ok {
			res.Dropped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	if res.Dropped > 0 {
		slog.Debug("dropped malformed task db lines", "path", s.path, "count", res.Dropped)
	}
	return res
}

// Save overwrites the file with one line per record.
func (s *TextStore) Save(_ context.Context, records []TaskRecord) error {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(FormatTextLine(r))
		b.WriteByte('\n')
	}
	if err := storage.WriteFileAtomic(s.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write task db: %w", err)
	}
	return nil
}

// FormatTextLine renders a record as one escaped, colon-delimited line.
func FormatTextLine(r TaskRecord) string {
	return strings.Join([]string{
		escapeField(r.Name),
		escapeField(r.Command),
		escapeField(r.Frequency),
		escapeField(r.TimerOptions),
	}, ":")
}

// ParseTextLine splits line on unescaped colons. It reports false unless
// exactly four well-formed fields are found.
func ParseTextLine(line string) (TaskRecord, bool) {
	fields := make([]string, 0, textFields)
	var cur strings.Builder

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch c {
		case '\\':
			if i+1 >= len(line) {
				return TaskRecord{}, false
			}
			i++
			switch line[i] {
			case '\\':
				cur.WriteByte('\\')
			case ':':
				cur.WriteByte(':')
			case 'n':
				cur.WriteByte('\n')
			case 'r':
				cur.WriteByte('\r')
			default:
				return TaskRecord{}, false
			}
		case ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	fields = append(fields, cur.String())

	if len(fields) != textFields || fields[0] == "" {
		return TaskRecord{}, false
	}
	return TaskRecord{
		Name:         fields[0],
		Command:      fields[1],
		Frequency:    fields[2],
		TimerOptions: fields[3],
	}, true
}

var fieldEscaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`, "\n", `\n`, "\r", `\r`)

func escapeField(s string) string {
	return fieldEscaper.Replace(s)
}

var _ Store = (*TextStore)(nil)
