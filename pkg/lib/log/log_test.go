package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevelSpec(t *testing.T) {
	def, comps := parseLevelSpec("core/bus=debug, core/transport=warn ,error")

	assert.Equal(t, slog.LevelError, def)
	assert.Equal(t, slog.LevelDebug, comps["core/bus"])
	assert.Equal(t, slog.LevelWarn, comps["core/transport"])
}

func TestParseLevelSpec_IgnoresUnknown(t *testing.T) {
	def, comps := parseLevelSpec("core/bus=loud,verbose")

	assert.Equal(t, slog.LevelInfo, def)
	assert.Empty(t, comps)
}

func TestLevelFor_LongestPrefix(t *testing.T) {
	SetLevelSpec("core/transport=warn,core/transport/shm=debug,info")
	defer SetLevelSpec("info")

	assert.Equal(t, slog.LevelWarn, levels.levelFor("core/transport/tcp"))
	assert.Equal(t, slog.LevelDebug, levels.levelFor("core/transport/shm"))
	assert.Equal(t, slog.LevelInfo, levels.levelFor("core/bus"))
	assert.Equal(t, slog.LevelInfo, levels.levelFor("core/transportx"))
}

func TestLazyLogger_Filtering(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	SetOutput(&buf, false)
	defer slog.SetDefault(prev)

	SetLevelSpec("test/quiet=error,debug")
	defer SetLevelSpec("info")

	Logger("test/quiet").Warn("hidden")
	Logger("test/loud").Debug("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "component=test/loud")
	assert.False(t, Logger("test/quiet").Enabled(slog.LevelWarn))
}
