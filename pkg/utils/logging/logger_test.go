package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger, path, err := New(Options{Env: "test", Dir: dir, Console: &console})
	require.NoError(t, err)

	logger.Info("Validation complete")
	logger.Debug("Running check")
	require.NoError(t, logger.Sync())

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "test_"))

	assert.Contains(t, console.String(), "Validation complete")
	assert.NotContains(t, console.String(), "Running check")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "Running check", entry["msg"])
	assert.Equal(t, "test", entry["env"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_VerboseConsole(t *testing.T) {
	var console bytes.Buffer

	logger, _, err := New(Options{Env: "dev", Dir: t.TempDir(), Console: &console, Verbose: true})
	require.NoError(t, err)

	logger.Debug("Running check")
	require.NoError(t, logger.Sync())

	assert.Contains(t, console.String(), "Running check")
}
