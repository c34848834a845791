package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerWritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer

	require.NoError(t, SetupLogger(Options{Dir: dir, Level: "debug", Writer: &buf}))
	Info("location %d created", 7)

	assert.Contains(t, buf.String(), "location 7 created")

	data, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02")+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "location 7 created")
}

func TestSetupLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetupLogger(Options{Level: "warn", Writer: &buf}))

	Info("hidden")
	Warning("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
