package units

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dohr-michael/taskgen/internal/storage"
)

// DefaultDir is where systemd picks up administrator units.
const DefaultDir = "/etc/systemd/system"

// Dir is a directory of unit files.
type Dir struct {
	path string
}

// NewDir returns a Dir rooted at path, or DefaultDir when path is empty.
func NewDir(path string) *Dir {
	if path == "" {
		path = DefaultDir
	}
	return &Dir{path: path}
}

// Path returns the directory.
func (d *Dir) Path() string { return d.path }

// ServicePath returns the path of name's service unit.
func (d *Dir) ServicePath(name string) string {
	return filepath.Join(d.path, name+".service")
}

// TimerPath returns the path of name's timer unit.
func (d *Dir) TimerPath(name string) string {
	return filepath.Join(d.path, name+".timer")
}

// WriteService writes name's service unit.
func (d *Dir) WriteService(name, content string) error {
	if err := storage.WriteFileAtomic(d.ServicePath(name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write service file: %w", err)
	}
	return nil
}

// WriteTimer writes name's timer unit.
func (d *Dir) WriteTimer(name, content string) error {
	if err := storage.WriteFileAtomic(d.TimerPath(name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write timer file: %w", err)
	}
	return nil
}

// RemoveService deletes name's service unit.
func (d *Dir) RemoveService(name string) error {
	if err := os.Remove(d.ServicePath(name)); err != nil {
		return fmt.Errorf("remove service file: %w", err)
	}
	return nil
}

// RemoveTimer deletes name's timer unit.
func (d *Dir) RemoveTimer(name string) error {
	if err := os.Remove(d.TimerPath(name)); err != nil {
		return fmt.Errorf("remove timer file: %w", err)
	}
	return nil
}

// WriteScript writes an executable wrapper script to path.
func WriteScript(path, content string) error {
	if err := storage.WriteFileAtomic(path, []byte(content), 0o755); err != nil {
		return fmt.Errorf("write script file: %w", err)
	}
	// WriteFile is subject to the umask.
	if err := os.Chmod(path, 0o755); err != nil {
		return fmt.Errorf("set script permissions: %w", err)
	}
	return nil
}
