package lending

import (
	"math/big"

	"btclend/crypto"
	nativecommon "btclend/native/common"
)

// LiquidationResult is the payload of a successful liquidation.
type LiquidationResult struct {
	ID               uint64
	CollateralSeized *big.Int
	DebtRepaid       *big.Int
	Penalty          *big.Int
}

// Liquidate lets a third party repay part or all of an undercollateralized
// position's debt in exchange for a penalty-adjusted share of its collateral.
// Partial liquidation is explicit: repayAmount may be less than the full
// debt, leaving a smaller position behind. Every call appends one row to the
// liquidation audit log with a strictly increasing id.
func (e *Engine) Liquidate(liquidator, owner crypto.Address, repayAmount *big.Int) (*LiquidationResult, error) {
	state, err := e.loadState()
	if err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(state, moduleName); err != nil {
		return nil, err
	}
	if err := e.requireFreshPrice(state); err != nil {
		return nil, err
	}

	position, err := e.lookupPosition(owner)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrPositionNotFound
	}

	health := HealthFactor(position.Collateral, position.Debt, state.Price, e.params)
	if health.Cmp(precision) >= 0 {
		return nil, ErrNotLiquidatable
	}

	if repayAmount == nil || repayAmount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if repayAmount.Cmp(position.Debt) > 0 {
		return nil, ErrInvalidAmount
	}

	// Seizure is the debt-equivalent collateral plus the liquidation
	// incentive on top of it.
	baseSeize := new(big.Int).Mul(repayAmount, precision)
	baseSeize.Quo(baseSeize, state.Price)
	penalty := new(big.Int).Mul(baseSeize, new(big.Int).SetUint64(e.params.LiquidationPenalty-100))
	penalty.Quo(penalty, hundred)
	totalSeized := new(big.Int).Add(baseSeize, penalty)

	if totalSeized.Cmp(position.Collateral) > 0 {
		return nil, ErrInsufficientCollateral
	}

	if e.custody != nil {
		if err := e.custody.Transfer(owner, liquidator, totalSeized); err != nil {
			return nil, err
		}
	}

	position.Collateral = new(big.Int).Sub(position.Collateral, totalSeized)
	position.Debt = new(big.Int).Sub(position.Debt, repayAmount)
	state.TotalCollateral = new(big.Int).Sub(state.TotalCollateral, totalSeized)
	state.TotalDebt = new(big.Int).Sub(state.TotalDebt, repayAmount)
	e.refreshPosition(position, state)

	state.LiquidationCounter++
	record := &LiquidationRecord{
		ID:               state.LiquidationCounter,
		Owner:            owner,
		Liquidator:       liquidator,
		CollateralSeized: new(big.Int).Set(totalSeized),
		DebtRepaid:       new(big.Int).Set(repayAmount),
		Clock:            state.Clock,
	}

	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	if err := e.state.PutLiquidationRecord(record); err != nil {
		return nil, err
	}
	if err := e.state.PutProtocolState(state); err != nil {
		return nil, err
	}
	return &LiquidationResult{
		ID:               record.ID,
		CollateralSeized: totalSeized,
		DebtRepaid:       new(big.Int).Set(repayAmount),
		Penalty:          penalty,
	}, nil
}
