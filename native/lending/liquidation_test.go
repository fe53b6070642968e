package lending

import (
	"errors"
	"math/big"
	"testing"

	"btclend/crypto"
)

// newUnderwaterPosition builds a position that was solvent when opened and
// crossed the liquidation threshold after a price drop: 1,000,000 collateral
// against 20,000,000 debt, priced first at 60,000 and then at 2,000.
func newUnderwaterPosition(t *testing.T) (*Engine, *mockEngineState, crypto.Address, crypto.Address, crypto.Address) {
	t.Helper()
	owner := makeAddress(crypto.LendPrefix, 0x01)
	borrower := makeAddress(crypto.LendPrefix, 0x02)
	liquidator := makeAddress(crypto.LendPrefix, 0x03)
	engine, state := newTestEngine(t, owner)

	if _, err := engine.DepositCollateral(borrower, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := engine.Borrow(borrower, big.NewInt(20_000_000)); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if _, err := engine.SetPrice(owner, big.NewInt(2_000)); err != nil {
		t.Fatalf("drop price: %v", err)
	}

	liquidatable, err := engine.Liquidatable(borrower)
	if err != nil {
		t.Fatalf("liquidatable: %v", err)
	}
	if !liquidatable {
		t.Fatal("expected underwater position")
	}
	return engine, state, owner, borrower, liquidator
}

func TestLiquidatePartialSeizesWithPenalty(t *testing.T) {
	engine, state, _, borrower, liquidator := newUnderwaterPosition(t)
	custody := NewRecordingCustody()
	engine.SetCustody(custody)

	result, err := engine.Liquidate(liquidator, borrower, big.NewInt(1_000))
	if err != nil {
		t.Fatalf("liquidate: %v", err)
	}
	// base = 1,000*1e6/2,000 = 500,000; plus 10% penalty.
	if result.CollateralSeized.Cmp(big.NewInt(550_000)) != 0 {
		t.Fatalf("unexpected seizure: %s", result.CollateralSeized)
	}
	if result.Penalty.Cmp(big.NewInt(50_000)) != 0 {
		t.Fatalf("unexpected penalty: %s", result.Penalty)
	}
	if result.DebtRepaid.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("unexpected repaid debt: %s", result.DebtRepaid)
	}

	position, err := engine.Position(borrower)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if position.Collateral.Cmp(big.NewInt(450_000)) != 0 {
		t.Fatalf("unexpected remaining collateral: %s", position.Collateral)
	}
	if position.Debt.Cmp(big.NewInt(19_999_000)) != 0 {
		t.Fatalf("unexpected remaining debt: %s", position.Debt)
	}
	if state.protocol.TotalCollateral.Cmp(big.NewInt(450_000)) != 0 {
		t.Fatalf("unexpected total collateral: %s", state.protocol.TotalCollateral)
	}
	if state.protocol.TotalDebt.Cmp(big.NewInt(19_999_000)) != 0 {
		t.Fatalf("unexpected total debt: %s", state.protocol.TotalDebt)
	}

	ops := custody.Operations()
	if len(ops) != 1 {
		t.Fatalf("expected one custody op, got %d", len(ops))
	}
	if ops[0].Kind != "transfer" || !ops[0].From.Equal(borrower) || !ops[0].To.Equal(liquidator) {
		t.Fatalf("unexpected custody op: %+v", ops[0])
	}
	if ops[0].Amount.Cmp(big.NewInt(550_000)) != 0 {
		t.Fatalf("unexpected transferred amount: %s", ops[0].Amount)
	}
}

func TestLiquidateRejectsSolventPosition(t *testing.T) {
	owner := makeAddress(crypto.LendPrefix, 0x01)
	borrower := makeAddress(crypto.LendPrefix, 0x02)
	liquidator := makeAddress(crypto.LendPrefix, 0x03)
	engine, _ := newTestEngine(t, owner)

	if _, err := engine.DepositCollateral(borrower, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := engine.Borrow(borrower, big.NewInt(20_000_000)); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	if _, err := engine.Liquidate(liquidator, borrower, big.NewInt(1_000)); !errors.Is(err, ErrNotLiquidatable) {
		t.Fatalf("expected ErrNotLiquidatable, got %v", err)
	}
}

func TestLiquidateRepayBounds(t *testing.T) {
	engine, _, _, borrower, liquidator := newUnderwaterPosition(t)

	if _, err := engine.Liquidate(liquidator, borrower, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero repay, got %v", err)
	}
	if _, err := engine.Liquidate(liquidator, borrower, big.NewInt(20_000_001)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for repay above debt, got %v", err)
	}
}

func TestLiquidateSeizureCannotExceedCollateral(t *testing.T) {
	engine, state, _, borrower, liquidator := newUnderwaterPosition(t)

	// Repaying 2,000 would seize 1,100,000, more than the 1,000,000 held.
	if _, err := engine.Liquidate(liquidator, borrower, big.NewInt(2_000)); !errors.Is(err, ErrInsufficientCollateral) {
		t.Fatalf("expected ErrInsufficientCollateral, got %v", err)
	}
	if state.protocol.TotalCollateral.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("expected totals untouched, got %s", state.protocol.TotalCollateral)
	}
}

func TestLiquidatePenaltyBelowFloorFallsBackToDefault(t *testing.T) {
	owner := makeAddress(crypto.LendPrefix, 0x01)
	borrower := makeAddress(crypto.LendPrefix, 0x02)
	liquidator := makeAddress(crypto.LendPrefix, 0x03)

	// A penalty under 100 would wrap the unsigned seizure multiplier;
	// construction must normalize it to the default instead.
	engine := NewEngine(owner, RiskParameters{LiquidationPenalty: 50})
	engine.SetState(newMockEngineState())
	if engine.Params().LiquidationPenalty != 110 {
		t.Fatalf("expected penalty normalized to 110, got %d", engine.Params().LiquidationPenalty)
	}

	if _, err := engine.SetPrice(owner, big.NewInt(60_000)); err != nil {
		t.Fatalf("set price: %v", err)
	}
	if _, err := engine.DepositCollateral(borrower, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := engine.Borrow(borrower, big.NewInt(20_000_000)); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if _, err := engine.SetPrice(owner, big.NewInt(2_000)); err != nil {
		t.Fatalf("drop price: %v", err)
	}

	result, err := engine.Liquidate(liquidator, borrower, big.NewInt(100))
	if err != nil {
		t.Fatalf("liquidate: %v", err)
	}
	// base = 100*1e6/2,000 = 50,000 with the default 10% on top.
	if result.CollateralSeized.Cmp(big.NewInt(55_000)) != 0 {
		t.Fatalf("unexpected seizure: %s", result.CollateralSeized)
	}
	if result.Penalty.Cmp(big.NewInt(5_000)) != 0 {
		t.Fatalf("unexpected penalty: %s", result.Penalty)
	}
}

func TestLiquidationRecordsAreAppendOnly(t *testing.T) {
	engine, _, _, borrower, liquidator := newUnderwaterPosition(t)

	first, err := engine.Liquidate(liquidator, borrower, big.NewInt(1_000))
	if err != nil {
		t.Fatalf("first liquidation: %v", err)
	}
	second, err := engine.Liquidate(liquidator, borrower, big.NewInt(500))
	if err != nil {
		t.Fatalf("second liquidation: %v", err)
	}
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected record ids 1 and 2, got %d and %d", first.ID, second.ID)
	}

	record, err := engine.LiquidationRecordByID(second.ID)
	if err != nil {
		t.Fatalf("record lookup: %v", err)
	}
	if record.DebtRepaid.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("unexpected recorded repay: %s", record.DebtRepaid)
	}
	if record.CollateralSeized.Cmp(big.NewInt(275_000)) != 0 {
		t.Fatalf("unexpected recorded seizure: %s", record.CollateralSeized)
	}
	if !record.Owner.Equal(borrower) || !record.Liquidator.Equal(liquidator) {
		t.Fatalf("unexpected record parties: %+v", record)
	}

	stats, err := engine.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.LiquidationCount != 2 {
		t.Fatalf("expected liquidation count 2, got %d", stats.LiquidationCount)
	}
}
