package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesToRotatedFile(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{ServiceName: "test", Level: "debug", Dir: dir}

	log := New(cfg)
	log.Infow("refresh complete", "cycle", "abc")
	require.NoError(t, log.Sync())

	b, err := os.ReadFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "refresh complete")
	assert.Contains(t, string(b), "[🔵 INFO]")
}

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	log := New(Config{ServiceName: "bad", Level: "loud", Dir: t.TempDir()})
	assert.False(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))
}

func TestConfigureLogrusSharesFile(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{ServiceName: "shared", Level: "warn", Dir: dir}
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })

	ConfigureLogrus(cfg)
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())

	logrus.WithField("probe", "vpn").Warn("scan failed")
	logrus.Info("suppressed")

	b, err := os.ReadFile(filepath.Join(dir, "shared.log"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "scan failed"))
	assert.False(t, strings.Contains(string(b), "suppressed"))
}

func TestGetIcon(t *testing.T) {
	assert.Equal(t, "🔴 ", getIcon(zapcore.ErrorLevel))
	assert.Equal(t, "", getIcon(zapcore.Level(42)))
}
