package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger, path, err := New("test", Options{Dir: dir, ConsoleLevel: zapcore.InfoLevel, Console: zapcore.AddSync(&console)})
	require.NoError(t, err)

	logger.Debug("debug only", zap.String("worker", "w1"))
	logger.Info("roster approved")
	require.NoError(t, logger.Sync())

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "test_"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"debug only"`)
	assert.Contains(t, string(data), `"worker":"w1"`)
	assert.Contains(t, string(data), `"msg":"roster approved"`)

	assert.NotContains(t, console.String(), "debug only")
	assert.Contains(t, console.String(), "roster approved")
}

func TestNew_DefaultsDir(t *testing.T) {
	t.Chdir(t.TempDir())

	_, path, err := New("dev", Options{ConsoleLevel: zapcore.ErrorLevel, Console: zapcore.AddSync(&bytes.Buffer{})})
	require.NoError(t, err)
	assert.Equal(t, DefaultDir, filepath.Dir(path))
}
