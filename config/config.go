package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"btclend/crypto"
	"btclend/native/lending"
)

type Config struct {
	RPCAddress     string   `toml:"RPCAddress"`
	MetricsAddress string   `toml:"MetricsAddress"`
	DataDir        string   `toml:"DataDir"`
	Environment    string   `toml:"Environment"`
	OwnerAddress   string   `toml:"OwnerAddress"`
	Operators      []string `toml:"Operators"`
	RPCRatePerMin  int      `toml:"RPCRatePerMin"`
	RPCRateBurst   int      `toml:"RPCRateBurst"`

	Lending LendingConfig `toml:"lending"`
}

// LendingConfig carries the risk parameter overrides for the ledger engine.
// Zero values fall back to protocol defaults.
type LendingConfig struct {
	MaxLTV               uint64 `toml:"MaxLTV"`
	LiquidationThreshold uint64 `toml:"LiquidationThreshold"`
	MinCollateralRatio   uint64 `toml:"MinCollateralRatio"`
	LiquidationPenalty   uint64 `toml:"LiquidationPenalty"`
	FreshnessWindow      uint64 `toml:"FreshnessWindow"`
	ReserveRatioBps      uint64 `toml:"ReserveRatioBps"`
}

// RiskParameters converts the configuration section into engine parameters,
// filling unset fields with defaults.
func (c LendingConfig) RiskParameters() lending.RiskParameters {
	params := lending.RiskParameters{
		MaxLTV:               c.MaxLTV,
		LiquidationThreshold: c.LiquidationThreshold,
		MinCollateralRatio:   c.MinCollateralRatio,
		LiquidationPenalty:   c.LiquidationPenalty,
		FreshnessWindow:      c.FreshnessWindow,
		ReserveRatioBps:      c.ReserveRatioBps,
	}
	params.EnsureDefaults()
	return params
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the configuration is internally consistent.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		return fmt.Errorf("RPCAddress is required")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("DataDir is required")
	}
	owner := strings.TrimSpace(cfg.OwnerAddress)
	if owner == "" {
		return fmt.Errorf("OwnerAddress is required")
	}
	if _, err := crypto.DecodeAddress(owner); err != nil {
		return fmt.Errorf("invalid OwnerAddress: %w", err)
	}
	for _, operator := range cfg.Operators {
		if _, err := crypto.DecodeAddress(strings.TrimSpace(operator)); err != nil {
			return fmt.Errorf("invalid operator address %q: %w", operator, err)
		}
	}
	if cfg.RPCRatePerMin < 0 || cfg.RPCRateBurst < 0 {
		return fmt.Errorf("rate limit settings must be non-negative")
	}
	raw := lending.RiskParameters{
		MaxLTV:               cfg.Lending.MaxLTV,
		LiquidationThreshold: cfg.Lending.LiquidationThreshold,
		MinCollateralRatio:   cfg.Lending.MinCollateralRatio,
		LiquidationPenalty:   cfg.Lending.LiquidationPenalty,
		FreshnessWindow:      cfg.Lending.FreshnessWindow,
		ReserveRatioBps:      cfg.Lending.ReserveRatioBps,
	}
	if err := raw.Validate(); err != nil {
		return fmt.Errorf("invalid [lending] section: %w", err)
	}
	return nil
}

// Owner returns the decoded owner address. Validate must have succeeded.
func (cfg *Config) Owner() (crypto.Address, error) {
	return crypto.DecodeAddress(strings.TrimSpace(cfg.OwnerAddress))
}

// OperatorAddresses returns the decoded operator allow-list.
func (cfg *Config) OperatorAddresses() ([]crypto.Address, error) {
	operators := make([]crypto.Address, 0, len(cfg.Operators))
	for _, raw := range cfg.Operators {
		addr, err := crypto.DecodeAddress(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		operators = append(operators, addr)
	}
	return operators, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:     "127.0.0.1:8545",
		MetricsAddress: "127.0.0.1:9090",
		DataDir:        "./data",
		Environment:    "dev",
		RPCRatePerMin:  120,
		RPCRateBurst:   20,
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, fmt.Errorf("wrote default config to %s; set OwnerAddress before starting", path)
}
