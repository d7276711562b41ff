package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, "prober", WARN)

	logger.Info("hidden")
	logger.Warn("probe %s failed", "https://h/a")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] [SERVICE] [prober] logger_test.go:")
	assert.True(t, strings.HasSuffix(out, "- probe https://h/a failed\n"), "got %q", out)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel(" Debug "))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestCategorizedLoggerWritesProbeFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(logDirEnvVar, dir)
	sinksMu.Lock()
	delete(sinks, LogCategoryProbe)
	sinksMu.Unlock()
	t.Cleanup(func() {
		sinksMu.Lock()
		delete(sinks, LogCategoryProbe)
		sinksMu.Unlock()
	})

	logger := NewCategorizedLogger(LogCategoryProbe, "probe")
	logger.SetLevel(INFO)
	logger.Debug("dropped")
	logger.Info("resolved %d", 3)

	data, err := os.ReadFile(filepath.Join(dir, "collapsible-probe.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] [PROBE] [probe]")
	assert.Contains(t, string(data), "resolved 3")
	assert.NotContains(t, string(data), "dropped")
}
