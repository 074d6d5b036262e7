package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	var console bytes.Buffer

	log, err := newWithConsole(&Config{LogFile: path, MaxSize: 1}, &console)
	require.NoError(t, err)

	log.Named("pool").Info("pool created", zap.String("component", "pool"))
	log.Debug("hidden at info level")
	require.NoError(t, log.Logger.Sync())

	assert.Contains(t, console.String(), "pool created")
	assert.NotContains(t, console.String(), "hidden at info level")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "pool created", entry["msg"])
	assert.Equal(t, "pool", entry["component"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Contains(t, entry, "timestamp")
}

func TestDevelopmentLevel(t *testing.T) {
	var console bytes.Buffer
	log, err := newWithConsole(&Config{Development: true}, &console)
	require.NoError(t, err)

	done := log.TrackOperation("deposit")
	done(nil)

	out := console.String()
	assert.Contains(t, out, "Starting operation")
	assert.Contains(t, out, "Operation completed")
	assert.Contains(t, out, "correlation_id")
}

func TestTrackOperationFailure(t *testing.T) {
	var console bytes.Buffer
	log, err := newWithConsole(&Config{}, &console)
	require.NoError(t, err)

	done := log.TrackOperation("create-order")
	done(assert.AnError)

	out := console.String()
	assert.NotContains(t, out, "Starting operation")
	assert.Contains(t, out, "Operation failed")
	assert.Contains(t, out, assert.AnError.Error())
}

func TestContextHelpers(t *testing.T) {
	var console bytes.Buffer
	log, err := newWithConsole(&Config{}, &console)
	require.NoError(t, err)

	pool := solana.NewWallet().PublicKey()
	sig := solana.Signature{1, 2, 3}
	log.WithPool(pool).Info("pool")
	log.WithSignature(sig).Info("sent")

	out := console.String()
	assert.Contains(t, out, pool.String())
	assert.Contains(t, out, sig.String())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "bonfida-bot.log", cfg.LogFile)
	assert.False(t, cfg.Development)
}
