package lending

import "math/big"

// The calculator functions are pure: they convert (collateral, debt, price)
// into solvency metrics without touching ledger state. Products are computed
// before any division so precision is never lost to intermediate truncation.

// HealthFactor returns the scaled solvency ratio for a position. Debt-free
// positions report the infinite sentinel without entering the division path.
// A result at or above the precision scale means the position is solvent.
func HealthFactor(collateral, debt, price *big.Int, params RiskParameters) *big.Int {
	if debt == nil || debt.Sign() == 0 {
		return new(big.Int).Set(healthInfinity)
	}
	if collateral == nil || price == nil {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(collateral, price)
	num.Mul(num, precision)
	den := new(big.Int).Mul(debt, new(big.Int).SetUint64(params.LiquidationThreshold))
	if den.Sign() == 0 {
		return new(big.Int).Set(healthInfinity)
	}
	return num.Quo(num, den)
}

// LiquidationPrice returns the collateral price at which the position crosses
// the liquidation threshold. Collateral-free positions report zero.
func LiquidationPrice(collateral, debt *big.Int, params RiskParameters) *big.Int {
	if collateral == nil || collateral.Sign() == 0 {
		return big.NewInt(0)
	}
	if debt == nil || debt.Sign() == 0 {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(debt, new(big.Int).SetUint64(params.LiquidationThreshold))
	den := new(big.Int).Mul(collateral, precision)
	return num.Quo(num, den)
}

// CollateralizationRatio expresses collateral value over debt value as a
// whole percentage. Debt-free positions report the infinite sentinel.
func CollateralizationRatio(collateral, debt, price *big.Int) *big.Int {
	if debt == nil || debt.Sign() == 0 {
		return new(big.Int).Set(healthInfinity)
	}
	if collateral == nil || price == nil {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(collateral, price)
	num.Mul(num, hundred)
	den := new(big.Int).Mul(debt, precision)
	return num.Quo(num, den)
}

// MaxBorrowable estimates the additional debt the position could take on
// while staying within the maximum loan-to-value bound. Returns zero when the
// position is already at or past the bound.
func MaxBorrowable(collateral, debt, price *big.Int, params RiskParameters) *big.Int {
	if collateral == nil || price == nil {
		return big.NewInt(0)
	}
	maxValue := new(big.Int).Mul(collateral, price)
	maxValue.Mul(maxValue, new(big.Int).SetUint64(params.MaxLTV))
	maxValue.Quo(maxValue, hundred)
	if debt != nil && debt.Sign() > 0 {
		borrowed := new(big.Int).Mul(debt, precision)
		maxValue.Sub(maxValue, borrowed)
	}
	if maxValue.Sign() <= 0 {
		return big.NewInt(0)
	}
	return maxValue.Quo(maxValue, precision)
}
