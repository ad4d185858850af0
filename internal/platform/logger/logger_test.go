package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AylerH/DB-GPT/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestNew_LevelIsAdjustable(t *testing.T) {
	log, level := New(Config{Level: "warn", Format: "console"})
	require.NotNil(t, log)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))

	level.SetLevel(zapcore.DebugLevel)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serve.log")
	log, _ := New(Config{Level: "info", Format: "json", File: path, MaxSizeMB: 1})

	log.Info("probe succeeded", zap.String("model", "qwen2"))
	_ = log.Sync() // stdout may not support fsync

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"probe succeeded"`)
	assert.Contains(t, string(data), `"model":"qwen2"`)
}

func TestFromConfig(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	cfg := FromConfig(config.LogConfig{Level: "debug", Format: "console", Color: true, File: "x.log"})
	assert.False(t, cfg.EnableColor)
	assert.Equal(t, "x.log", cfg.File)
}
