package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotenv(t *testing.T) {
	content := `# taskgen overrides
TASKGEN_DB_FILE=/srv/tasks.json
export TASKGEN_SYSTEMCTL=/usr/bin/systemctl

# Quoted values keep their hashes
TASKGEN_DB_FORMAT="json # not a comment"
TASKGEN_JOURNAL_FILE='/var/log/taskgen.jsonl'

# Spaces around = and trailing comment
TASKGEN_SYSTEMD_UNIT_DIR = /run/systemd/system # runtime units
`
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	keys := []string{"TASKGEN_DB_FILE", "TASKGEN_SYSTEMCTL", "TASKGEN_DB_FORMAT", "TASKGEN_JOURNAL_FILE", "TASKGEN_SYSTEMD_UNIT_DIR"}
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	require.NoError(t, LoadDotenv(path))

	assert.Equal(t, "/srv/tasks.json", os.Getenv("TASKGEN_DB_FILE"))
	assert.Equal(t, "/usr/bin/systemctl", os.Getenv("TASKGEN_SYSTEMCTL"))
	assert.Equal(t, "json # not a comment", os.Getenv("TASKGEN_DB_FORMAT"))
	assert.Equal(t, "/var/log/taskgen.jsonl", os.Getenv("TASKGEN_JOURNAL_FILE"))
	assert.Equal(t, "/run/systemd/system", os.Getenv("TASKGEN_SYSTEMD_UNIT_DIR"))
}

func TestLoadDotenv_NoOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TASKGEN_TEST_EXISTING=from_file\n"), 0o644))

	t.Setenv("TASKGEN_TEST_EXISTING", "original")
	require.NoError(t, LoadDotenv(path))

	assert.Equal(t, "original", os.Getenv("TASKGEN_TEST_EXISTING"))
}

func TestLoadDotenv_MissingFile(t *testing.T) {
	assert.NoError(t, LoadDotenv("/nonexistent/.env"))
}

func TestParseDotenv_SkipsJunk(t *testing.T) {
	vars, err := parseDotenv(strings.NewReader("no equals sign\n=novalue\nA=1\n"))
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"A", "1"}}, vars)
}
