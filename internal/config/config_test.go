package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/bonfida-bot/pkg/bonfidabot"
)

const testProgramID = "srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
rpc_list:
  - https://api.mainnet-beta.solana.com
program_id: `+testProgramID+`
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://api.mainnet-beta.solana.com"}, cfg.RPCList)
	assert.Equal(t, bonfidabot.SerumDexV3ProgramID, cfg.DexProgramID)
	assert.Equal(t, DefaultCommitment, cfg.Commitment)
	assert.Equal(t, rpc.CommitmentConfirmed, cfg.CommitmentType())
	assert.Equal(t, DefaultRetries, cfg.Retries)
	assert.Equal(t, DefaultConfirmTimeout, cfg.ConfirmTimeout)
	assert.Equal(t, DefaultConfirmInterval, cfg.ConfirmInterval)
	assert.Equal(t, DefaultMaxElapsed, cfg.MaxElapsed)
	assert.Equal(t, DefaultRetryInterval, cfg.RetryInterval)
	assert.Zero(t, cfg.ComputeUnits)
	assert.Equal(t, DefaultLogFile, cfg.LogFile)
	assert.Equal(t, testProgramID, cfg.Program().String())
	assert.Equal(t, bonfidabot.DefaultPrograms(), cfg.Programs())
}

func TestLoadConfigFileValues(t *testing.T) {
	path := writeConfig(t, `
rpc_list: ["http://localhost:8899"]
program_id: `+testProgramID+`
commitment: finalized
retries: 5
confirm_timeout: 90s
confirm_interval: 2s
max_elapsed: 1m
compute_units: 300000
priority_fee: 5000
skip_preflight: true
debug_logging: true
metrics_file: /var/lib/node_exporter/bonfida_bot.prom
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, rpc.CommitmentFinalized, cfg.CommitmentType())
	assert.Equal(t, 5, cfg.Retries)
	assert.Equal(t, 90*time.Second, cfg.ConfirmTimeout)
	assert.Equal(t, 2*time.Second, cfg.ConfirmInterval)
	assert.Equal(t, time.Minute, cfg.MaxElapsed)
	assert.Equal(t, uint32(300000), cfg.ComputeUnits)
	assert.Equal(t, uint64(5000), cfg.PriorityFee)
	assert.True(t, cfg.SkipPreflight)
	assert.True(t, cfg.DebugLogging)
	assert.Equal(t, "/var/lib/node_exporter/bonfida_bot.prom", cfg.MetricsFile)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("BONFIDA_BOT_RPC_LIST", "https://a.example.com, https://b.example.com,")
	t.Setenv("BONFIDA_BOT_PROGRAM_ID", testProgramID)
	t.Setenv("BONFIDA_BOT_RETRIES", "7")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.RPCList)
	assert.Equal(t, 7, cfg.Retries)
}

func TestLoadConfigValidation(t *testing.T) {
	base := "program_id: " + testProgramID + "\n"
	rpcs := "rpc_list: [\"https://rpc.example.com\"]\n"

	tests := []struct {
		name string
		body string
		err  string
	}{
		{"no rpc", base, "rpc_list is empty"},
		{"bad rpc scheme", base + "rpc_list: [\"ws://rpc.example.com\"]\n", "invalid rpc url"},
		{"missing program", rpcs, "invalid program_id"},
		{"bad dex", base + rpcs + "dex_program_id: nope\n", "invalid dex_program_id"},
		{"bad commitment", base + rpcs + "commitment: instant\n", "unknown commitment"},
		{"negative retries", base + rpcs + "retries: -1\n", "invalid retries"},
		{"zero timeout", base + rpcs + "confirm_timeout: 0s\n", "invalid confirm_timeout"},
		{"interval above timeout", base + rpcs + "confirm_timeout: 1s\nconfirm_interval: 2s\n", "confirm_interval exceeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
