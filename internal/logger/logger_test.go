package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFileLevels(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{level: "error", expected: []string{"ERROR"}, excluded: []string{"WARN", "INFO"}},
		{level: "warn", expected: []string{"ERROR", "WARN"}, excluded: []string{"INFO"}},
		{level: "info", expected: []string{"ERROR", "WARN", "INFO"}, excluded: []string{"DEBUG"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			path := filepath.Join(dir, tt.level+".log")
			log := New(tt.level, FileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 1}, false)

			log.Debug("debug message")
			log.Info("info message", zap.Int("tick", 3))
			log.Warn("warn message")
			log.Error("error message")
			require.NoError(t, log.Sync())

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			content := string(raw)
			for _, want := range tt.expected {
				assert.Contains(t, content, `"level":"`+want+`"`)
			}
			for _, skip := range tt.excluded {
				assert.NotContains(t, content, `"level":"`+skip+`"`)
			}
		})
	}
}

func TestNewWithoutSinksIsNop(t *testing.T) {
	log := New("debug", FileConfig{}, false)
	assert.False(t, log.Core().Enabled(zapcore.ErrorLevel))
}

func TestGlobalDefaultsToNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Named("test").Info("dropped")
		Info("dropped")
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("bogus"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/terrasim.log")
	assert.Equal(t, "/tmp/terrasim.log", cfg.Path)
	assert.True(t, cfg.Compress)
	assert.True(t, strings.HasSuffix(cfg.Path, ".log"))
}
