package logging

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type lineRecorder struct {
	lines []string
}

func (r *lineRecorder) record(level, format string, args ...any) {
	r.lines = append(r.lines, level+" "+fmt.Sprintf(format, args...))
}

func (r *lineRecorder) Debug(format string, args ...any) { r.record("DEBUG", format, args...) }
func (r *lineRecorder) Info(format string, args ...any)  { r.record("INFO", format, args...) }
func (r *lineRecorder) Warn(format string, args ...any)  { r.record("WARN", format, args...) }
func (r *lineRecorder) Error(format string, args ...any) { r.record("ERROR", format, args...) }

func TestOrNopHandlesTypedNil(t *testing.T) {
	var rec *lineRecorder
	assert.True(t, IsNil(rec))
	assert.NotPanics(t, func() { OrNop(rec).Warn("ignored %d", 1) })
}

func TestWithScopeNests(t *testing.T) {
	rec := &lineRecorder{}
	logger := WithScope(WithScope(rec, "panel-1"), "sequencer")
	logger.Info("resolving %d attachment(s)", 2)
	WithScope(rec, "p%d").Warn("ready")

	assert.Equal(t, []string{
		"INFO [panel-1] [sequencer] resolving 2 attachment(s)",
		"WARN [p%d] ready",
	}, rec.lines)
}

func TestWithScopeKeepsNopAndBlankScopes(t *testing.T) {
	assert.Equal(t, Nop(), WithScope(nil, "x"))
	rec := &lineRecorder{}
	assert.Same(t, rec, WithScope(rec, " ").(*lineRecorder))
}
