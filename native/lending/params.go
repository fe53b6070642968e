package lending

import (
	"fmt"
	"math/big"
)

// Fixed-point scale shared by health factors and ratio arithmetic. A health
// factor at or above precision means the position is solvent.
const precisionUnits = 1_000_000

var (
	precision = big.NewInt(precisionUnits)
	hundred   = big.NewInt(100)

	basisPoints = big.NewInt(10_000)

	// healthInfinity is the cached health value for debt-free positions. It
	// is a fixed constant so zero-debt positions never hit the division path.
	healthInfinity = mustBigInt("18446744073709551615")
)

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

// RiskParameters groups the safety limits governing lending activity. All
// percentage values are expressed as whole percent (150 == 150%).
type RiskParameters struct {
	// MaxLTV specifies the maximum loan-to-value ratio permitted for new
	// borrows, in percent.
	MaxLTV uint64
	// LiquidationThreshold is the ratio below which positions become
	// eligible for liquidation, in percent.
	LiquidationThreshold uint64
	// MinCollateralRatio is the floor applied to bridge withdrawal requests
	// from accounts that carry debt, in percent.
	MinCollateralRatio uint64
	// LiquidationPenalty scales the collateral seized during liquidation;
	// 110 means 10% on top of the debt-equivalent base, in percent.
	LiquidationPenalty uint64
	// FreshnessWindow is the maximum age, in logical ticks, of the last
	// price update tolerated by debt- and risk-affecting operations.
	FreshnessWindow uint64
	// ReserveRatioBps is the share of minted or burned debt skimmed into the
	// protocol reserve, in basis points.
	ReserveRatioBps uint64
}

// DefaultRiskParameters returns the protocol defaults applied when the
// configuration does not override them.
func DefaultRiskParameters() RiskParameters {
	return RiskParameters{
		MaxLTV:               80,
		LiquidationThreshold: 150,
		MinCollateralRatio:   120,
		LiquidationPenalty:   110,
		FreshnessWindow:      144,
		ReserveRatioBps:      200,
	}
}

// EnsureDefaults replaces zero-valued or out-of-range fields with the
// protocol defaults so a partially or wrongly specified configuration can
// never put the engine arithmetic in an unsafe regime. In particular the
// penalty must stay at or above 100: the seizure formula subtracts 100 from
// it, and an unsigned value below that would wrap.
func (p *RiskParameters) EnsureDefaults() {
	defaults := DefaultRiskParameters()
	if p.MaxLTV == 0 || p.MaxLTV > 100 {
		p.MaxLTV = defaults.MaxLTV
	}
	if p.LiquidationThreshold < 100 {
		p.LiquidationThreshold = defaults.LiquidationThreshold
	}
	if p.MinCollateralRatio < 100 {
		p.MinCollateralRatio = defaults.MinCollateralRatio
	}
	if p.LiquidationPenalty < 100 {
		p.LiquidationPenalty = defaults.LiquidationPenalty
	}
	if p.FreshnessWindow == 0 {
		p.FreshnessWindow = defaults.FreshnessWindow
	}
	if p.ReserveRatioBps == 0 || p.ReserveRatioBps > 10_000 {
		p.ReserveRatioBps = defaults.ReserveRatioBps
	}
}

// Validate rejects explicitly set values outside the supported ranges. Unset
// (zero) fields are allowed; they fall back to defaults via EnsureDefaults.
func (p RiskParameters) Validate() error {
	if p.MaxLTV > 100 {
		return fmt.Errorf("MaxLTV must be at most 100 percent, got %d", p.MaxLTV)
	}
	if p.LiquidationThreshold != 0 && p.LiquidationThreshold < 100 {
		return fmt.Errorf("LiquidationThreshold must be at least 100 percent, got %d", p.LiquidationThreshold)
	}
	if p.MinCollateralRatio != 0 && p.MinCollateralRatio < 100 {
		return fmt.Errorf("MinCollateralRatio must be at least 100 percent, got %d", p.MinCollateralRatio)
	}
	if p.LiquidationPenalty != 0 && p.LiquidationPenalty < 100 {
		return fmt.Errorf("LiquidationPenalty must be at least 100 percent, got %d", p.LiquidationPenalty)
	}
	if p.ReserveRatioBps > 10_000 {
		return fmt.Errorf("ReserveRatioBps must be at most 10000, got %d", p.ReserveRatioBps)
	}
	return nil
}
