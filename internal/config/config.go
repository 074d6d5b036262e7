// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"

	"github.com/rovshanmuradov/bonfida-bot/pkg/bonfidabot"
)

type Config struct {
	RPCList         []string      `mapstructure:"rpc_list"`
	ProgramID       string        `mapstructure:"program_id"`
	DexProgramID    string        `mapstructure:"dex_program_id"`
	Commitment      string        `mapstructure:"commitment"`
	SkipPreflight   bool          `mapstructure:"skip_preflight"`
	Retries         int           `mapstructure:"retries"`
	ConfirmTimeout  time.Duration `mapstructure:"confirm_timeout"`
	ConfirmInterval time.Duration `mapstructure:"confirm_interval"`
	MaxElapsed      time.Duration `mapstructure:"max_elapsed"`
	RetryInterval   time.Duration `mapstructure:"retry_interval"`
	ComputeUnits    uint32        `mapstructure:"compute_units"`
	PriorityFee     uint64        `mapstructure:"priority_fee"`
	DebugLogging    bool          `mapstructure:"debug_logging"`
	LogFile         string        `mapstructure:"log_file"`
	PrivateKey      string        `mapstructure:"private_key"`
	KeypairPath     string        `mapstructure:"keypair_path"`
	// MetricsFile receives the prometheus text format after each command.
	MetricsFile string `mapstructure:"metrics_file"`
}

const (
	DefaultCommitment      = "confirmed"
	DefaultRetries         = 3
	DefaultConfirmTimeout  = 60 * time.Second
	DefaultConfirmInterval = 500 * time.Millisecond
	DefaultMaxElapsed      = 30 * time.Second
	DefaultRetryInterval   = 500 * time.Millisecond
	DefaultLogFile         = "bonfida-bot.log"

	envPrefix = "BONFIDA_BOT"
)

var commitments = map[string]rpc.CommitmentType{
	"processed": rpc.CommitmentProcessed,
	"confirmed": rpc.CommitmentConfirmed,
	"finalized": rpc.CommitmentFinalized,
}

// LoadConfig reads the file at path, applies defaults and BONFIDA_BOT_*
// environment overrides, then validates the result. An empty path loads
// defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	defaults := map[string]interface{}{
		"dex_program_id":   bonfidabot.SerumDexV3ProgramID,
		"commitment":       DefaultCommitment,
		"skip_preflight":   false,
		"retries":          DefaultRetries,
		"confirm_timeout":  DefaultConfirmTimeout,
		"confirm_interval": DefaultConfirmInterval,
		"max_elapsed":      DefaultMaxElapsed,
		"retry_interval":   DefaultRetryInterval,
		"compute_units":    0,
		"priority_fee":     0,
		"log_file":         DefaultLogFile,
		"rpc_list":         []string{},
		"program_id":       "",
		"private_key":      "",
		"keypair_path":     "",
		"debug_logging":    false,
		"metrics_file":     "",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	loadEnvironmentVariables(&cfg)

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURL(rpcURL, "http"); err != nil {
			return fmt.Errorf("invalid rpc url %q: %w", rpcURL, err)
		}
	}
	if _, err := solana.PublicKeyFromBase58(cfg.ProgramID); err != nil {
		return fmt.Errorf("invalid program_id: %w", err)
	}
	if _, err := solana.PublicKeyFromBase58(cfg.DexProgramID); err != nil {
		return fmt.Errorf("invalid dex_program_id: %w", err)
	}
	if _, ok := commitments[cfg.Commitment]; !ok {
		return fmt.Errorf("unknown commitment %q", cfg.Commitment)
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	if cfg.ConfirmTimeout <= 0 {
		return errors.New("invalid confirm_timeout")
	}
	if cfg.ConfirmInterval <= 0 {
		return errors.New("invalid confirm_interval")
	}
	if cfg.ConfirmInterval > cfg.ConfirmTimeout {
		return errors.New("confirm_interval exceeds confirm_timeout")
	}
	if cfg.MaxElapsed <= 0 {
		return errors.New("invalid max_elapsed")
	}
	if cfg.RetryInterval <= 0 {
		return errors.New("invalid retry_interval")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) || parsed.Host == "" {
		return errors.New("invalid URL protocol")
	}
	return nil
}

// loadEnvironmentVariables cleans the rpc list. BONFIDA_BOT_RPC_LIST is
// split on commas by the decode hook, entries may carry spaces.
func loadEnvironmentVariables(cfg *Config) {
	var cleanRPCs []string
	for _, rpc := range cfg.RPCList {
		if clean := strings.TrimSpace(rpc); clean != "" {
			cleanRPCs = append(cleanRPCs, clean)
		}
	}
	cfg.RPCList = cleanRPCs
}

// Program returns the bonfida-bot program id.
func (c *Config) Program() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(c.ProgramID)
}

// Programs returns the well-known ids with the configured dex.
func (c *Config) Programs() bonfidabot.Programs {
	programs := bonfidabot.DefaultPrograms()
	programs.Dex = solana.MustPublicKeyFromBase58(c.DexProgramID)
	return programs
}

// CommitmentType maps the configured commitment name.
func (c *Config) CommitmentType() rpc.CommitmentType {
	return commitments[c.Commitment]
}
