package lending

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"btclend/crypto"
	nativecommon "btclend/native/common"
)

type mockEngineState struct {
	protocol     *ProtocolState
	positions    map[string]*Position
	requests     map[string]*BridgeRequest
	liquidations map[uint64]*LiquidationRecord
}

func newMockEngineState() *mockEngineState {
	return &mockEngineState{
		positions:    make(map[string]*Position),
		requests:     make(map[string]*BridgeRequest),
		liquidations: make(map[uint64]*LiquidationRecord),
	}
}

func (m *mockEngineState) key(addr crypto.Address) string {
	return string(addr.Bytes())
}

func (m *mockEngineState) requestKey(kind RequestKind, id uint64) string {
	return fmt.Sprintf("%d/%d", kind, id)
}

func (m *mockEngineState) ProtocolState() (*ProtocolState, error) {
	if m.protocol == nil {
		return nil, nil
	}
	return m.protocol.Clone(), nil
}

func (m *mockEngineState) PutProtocolState(state *ProtocolState) error {
	m.protocol = state.Clone()
	return nil
}

func (m *mockEngineState) GetPosition(addr crypto.Address) (*Position, error) {
	if position, ok := m.positions[m.key(addr)]; ok {
		return position.Clone(), nil
	}
	return nil, nil
}

func (m *mockEngineState) PutPosition(position *Position) error {
	m.positions[m.key(position.Owner)] = position.Clone()
	return nil
}

func (m *mockEngineState) GetBridgeRequest(kind RequestKind, id uint64) (*BridgeRequest, error) {
	if request, ok := m.requests[m.requestKey(kind, id)]; ok {
		return request.Clone(), nil
	}
	return nil, nil
}

func (m *mockEngineState) PutBridgeRequest(request *BridgeRequest) error {
	m.requests[m.requestKey(request.Kind, request.ID)] = request.Clone()
	return nil
}

func (m *mockEngineState) GetLiquidationRecord(id uint64) (*LiquidationRecord, error) {
	if record, ok := m.liquidations[id]; ok {
		return record.Clone(), nil
	}
	return nil, nil
}

func (m *mockEngineState) PutLiquidationRecord(record *LiquidationRecord) error {
	m.liquidations[record.ID] = record.Clone()
	return nil
}

func makeAddress(prefix crypto.AddressPrefix, suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.NewAddress(prefix, raw)
}

// newTestEngine wires an engine with default risk parameters, a fresh mock
// state, and a price of 60,000 pushed at clock zero.
func newTestEngine(t *testing.T, owner crypto.Address) (*Engine, *mockEngineState) {
	t.Helper()
	engine := NewEngine(owner, RiskParameters{})
	state := newMockEngineState()
	engine.SetState(state)
	if _, err := engine.SetPrice(owner, big.NewInt(60_000)); err != nil {
		t.Fatalf("set price: %v", err)
	}
	return engine, state
}

func TestDepositCreatesPosition(t *testing.T) {
	owner := makeAddress(crypto.LendPrefix, 0x01)
	user := makeAddress(crypto.LendPrefix, 0x02)
	engine, _ := newTestEngine(t, owner)

	result, err := engine.DepositCollateral(user, big.NewInt(1_000))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if result.Deposited.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("unexpected deposited amount: %s", result.Deposited)
	}
	if result.TotalCollateral.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("unexpected total collateral: %s", result.TotalCollateral)
	}

	position, err := engine.Position(user)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if position.Collateral.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("unexpected collateral: %s", position.Collateral)
	}
	if position.Debt.Sign() != 0 {
		t.Fatalf("expected zero debt, got %s", position.Debt)
	}
	if position.HealthFactor.Cmp(healthInfinity) != 0 {
		t.Fatalf("expected debt-free sentinel health, got %s", position.HealthFactor)
	}
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	owner := makeAddress(crypto.LendPrefix, 0x01)
	user := makeAddress(crypto.LendPrefix, 0x02)
	engine, _ := newTestEngine(t, owner)

	if _, err := engine.DepositCollateral(user, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}
	if _, err := engine.DepositCollateral(user, big.NewInt(-5)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative, got %v", err)
	}
	if _, err := engine.DepositCollateral(user, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for nil, got %v", err)
	}
}

func TestPauseGuardBlocksMutations(t *testing.T) {
	owner := makeAddress(crypto.LendPrefix, 0x01)
	user := makeAddress(crypto.LendPrefix, 0x02)
	engine, state := newTestEngine(t, owner)

	if _, err := engine.DepositCollateral(user, big.NewInt(1_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := engine.SetPaused(owner, true); err != nil {
		t.Fatalf("pause: %v", err)
	}

	if _, err := engine.DepositCollateral(user, big.NewInt(100)); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused on deposit, got %v", err)
	}
	if _, err := engine.WithdrawCollateral(user, big.NewInt(100)); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused on withdraw, got %v", err)
	}
	if _, err := engine.Borrow(user, big.NewInt(100)); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused on borrow, got %v", err)
	}
	if _, err := engine.Repay(user, big.NewInt(100)); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused on repay, got %v", err)
	}

	if state.protocol.TotalCollateral.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("expected totals untouched while paused, got %s", state.protocol.TotalCollateral)
	}

	if _, err := engine.SetPaused(owner, false); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if _, err := engine.DepositCollateral(user, big.NewInt(100)); err != nil {
		t.Fatalf("deposit after unpause: %v", err)
	}
}

func TestBorrowAgainstSolventPosition(t *testing.T) {
	owner := makeAddress(crypto.LendPrefix, 0x01)
	user := makeAddress(crypto.LendPrefix, 0x02)
	engine, _ := newTestEngine(t, owner)

	if _, err := engine.DepositCollateral(user, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	result, err := engine.Borrow(user, big.NewInt(20_000_000))
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if result.HealthFactor.Cmp(big.NewInt(20_000_000)) != 0 {
		t.Fatalf("unexpected health factor: %s", result.HealthFactor)
	}
	if result.TotalDebt.Cmp(big.NewInt(20_000_000)) != 0 {
		t.Fatalf("unexpected total debt: %s", result.TotalDebt)
	}
}

func TestBorrowRejectsUndercollateralized(t *testing.T) {
	owner := makeAddress(crypto.LendPrefix, 0x01)
	user := makeAddress(crypto.LendPrefix, 0x02)
	engine, state := newTestEngine(t, owner)

	if _, err := engine.DepositCollateral(user, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := engine.Borrow(user, big.NewInt(20_000_000)); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	// Debt above collateral*price/threshold crosses below the solvency
	// scale: 1,000,000*60,000/150 = 400,000,000 is the ceiling.
	if _, err := engine.Borrow(user, big.NewInt(400_000_000)); !errors.Is(err, ErrInsufficientCollateral) {
		t.Fatalf("expected ErrInsufficientCollateral, got %v", err)
	}
	if state.protocol.TotalDebt.Cmp(big.NewInt(20_000_000)) != 0 {
		t.Fatalf("expected debt untouched after failed borrow, got %s", state.protocol.TotalDebt)
	}
}

func TestBorrowRequiresExistingPosition(t *testing.T) {
	owner := makeAddress(crypto.LendPrefix, 0x01)
	stranger := makeAddress(crypto.LendPrefix, 0x05)
	engine, _ := newTestEngine(t, owner)

	if _, err := engine.Borrow(stranger, big.NewInt(10)); !errors.Is(err, ErrPositionNotFound) {
		t.Fatalf("expected ErrPositionNotFound, got %v", err)
	}
}

func TestWithdrawGuardsSolvencyAndBalance(t *testing.T) {
	owner := makeAddress(crypto.LendPrefix, 0x01)
	user := makeAddress(crypto.LendPrefix, 0x02)
	engine, _ := newTestEngine(t, owner)

	if _, err := engine.WithdrawCollateral(user, big.NewInt(1)); !errors.Is(err, ErrPositionNotFound) {
		t.Fatalf("expected ErrPositionNotFound, got %v", err)
	}

	if _, err := engine.DepositCollateral(user, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := engine.WithdrawCollateral(user, big.NewInt(2_000_000)); !errors.Is(err, ErrInsufficientCollateral) {
		t.Fatalf("expected ErrInsufficientCollateral, got %v", err)
	}

	if _, err := engine.Borrow(user, big.NewInt(300_000_000)); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	// Remaining 200,000 collateral covers only 80,000,000 debt at the
	// threshold; the withdrawal must not go through.
	if _, err := engine.WithdrawCollateral(user, big.NewInt(800_000)); !errors.Is(err, ErrUnhealthyPosition) {
		t.Fatalf("expected ErrUnhealthyPosition, got %v", err)
	}

	result, err := engine.WithdrawCollateral(user, big.NewInt(100_000))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if result.RemainingCollateral.Cmp(big.NewInt(900_000)) != 0 {
		t.Fatalf("unexpected remaining collateral: %s", result.RemainingCollateral)
	}
}

// frozenEngineState rejects every write, proving that an operation routed
// through it never touched the store.
type frozenEngineState struct {
	*mockEngineState
}

func (f *frozenEngineState) PutPosition(*Position) error {
	return errors.New("unexpected position write")
}

func (f *frozenEngineState) PutProtocolState(*ProtocolState) error {
	return errors.New("unexpected protocol state write")
}

func TestWithdrawZeroSkipsWrites(t *testing.T) {
	owner := makeAddress(crypto.LendPrefix, 0x01)
	user := makeAddress(crypto.LendPrefix, 0x02)
	engine, state := newTestEngine(t, owner)

	if _, err := engine.DepositCollateral(user, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	engine.SetState(&frozenEngineState{mockEngineState: state})
	result, err := engine.WithdrawCollateral(user, big.NewInt(0))
	if err != nil {
		t.Fatalf("zero withdraw: %v", err)
	}
	if result.Withdrawn.Sign() != 0 {
		t.Fatalf("unexpected withdrawn amount: %s", result.Withdrawn)
	}
	if result.RemainingCollateral.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("unexpected remaining collateral: %s", result.RemainingCollateral)
	}
}

func TestStalePriceBlocksRiskOperationsOnly(t *testing.T) {
	owner := makeAddress(crypto.LendPrefix, 0x01)
	user := makeAddress(crypto.LendPrefix, 0x02)
	engine, _ := newTestEngine(t, owner)

	if _, err := engine.DepositCollateral(user, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	// Price was pushed at clock 0; the default freshness window is 144
	// ticks, so tick 144 is the first stale one.
	if err := engine.SetClock(144); err != nil {
		t.Fatalf("set clock: %v", err)
	}

	if _, err := engine.WithdrawCollateral(user, big.NewInt(100)); !errors.Is(err, ErrPriceStale) {
		t.Fatalf("expected ErrPriceStale on withdraw, got %v", err)
	}
	if _, err := engine.Borrow(user, big.NewInt(100)); !errors.Is(err, ErrPriceStale) {
		t.Fatalf("expected ErrPriceStale on borrow, got %v", err)
	}
	if _, err := engine.DepositCollateral(user, big.NewInt(100)); err != nil {
		t.Fatalf("deposit with stale price: %v", err)
	}

	// A fresh push unblocks withdrawal again.
	if _, err := engine.SetPrice(owner, big.NewInt(60_000)); err != nil {
		t.Fatalf("refresh price: %v", err)
	}
	if _, err := engine.WithdrawCollateral(user, big.NewInt(100)); err != nil {
		t.Fatalf("withdraw after refresh: %v", err)
	}
}

func TestRepayClampsToOutstandingDebt(t *testing.T) {
	owner := makeAddress(crypto.LendPrefix, 0x01)
	user := makeAddress(crypto.LendPrefix, 0x02)
	engine, state := newTestEngine(t, owner)

	if _, err := engine.DepositCollateral(user, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := engine.Borrow(user, big.NewInt(100)); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	result, err := engine.Repay(user, big.NewInt(250))
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if result.Repaid.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected repay clamped to 100, got %s", result.Repaid)
	}
	if result.RemainingDebt.Sign() != 0 {
		t.Fatalf("expected zero remaining debt, got %s", result.RemainingDebt)
	}
	if state.protocol.TotalDebt.Sign() != 0 {
		t.Fatalf("expected zero total debt, got %s", state.protocol.TotalDebt)
	}

	if _, err := engine.Repay(user, big.NewInt(10)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount on debt-free repay, got %v", err)
	}
}

func TestSetPriceOwnerOnly(t *testing.T) {
	owner := makeAddress(crypto.LendPrefix, 0x01)
	stranger := makeAddress(crypto.LendPrefix, 0x09)
	engine, state := newTestEngine(t, owner)

	if _, err := engine.SetPrice(stranger, big.NewInt(70_000)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := engine.SetPrice(owner, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero price, got %v", err)
	}

	if err := engine.SetClock(10); err != nil {
		t.Fatalf("set clock: %v", err)
	}
	if _, err := engine.SetPrice(owner, big.NewInt(70_000)); err != nil {
		t.Fatalf("set price: %v", err)
	}
	if state.protocol.PriceUpdatedClock != 10 {
		t.Fatalf("expected price stamped at clock 10, got %d", state.protocol.PriceUpdatedClock)
	}
}

func TestSetClockNeverRegresses(t *testing.T) {
	owner := makeAddress(crypto.LendPrefix, 0x01)
	engine, state := newTestEngine(t, owner)

	if err := engine.SetClock(50); err != nil {
		t.Fatalf("set clock: %v", err)
	}
	if err := engine.SetClock(20); err != nil {
		t.Fatalf("set clock regression: %v", err)
	}
	if state.protocol.Clock != 50 {
		t.Fatalf("expected clock held at 50, got %d", state.protocol.Clock)
	}
}

func TestViewsReportSolvencyMetrics(t *testing.T) {
	owner := makeAddress(crypto.LendPrefix, 0x01)
	user := makeAddress(crypto.LendPrefix, 0x02)
	engine, _ := newTestEngine(t, owner)

	if _, err := engine.DepositCollateral(user, big.NewInt(1_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := engine.Borrow(user, big.NewInt(30)); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	health, err := engine.PositionHealth(user)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	// 1,000*60,000*1e6 / (30*150)
	if health.Cmp(big.NewInt(13_333_333_333)) != 0 {
		t.Fatalf("unexpected health factor: %s", health)
	}

	ratio, err := engine.PositionRatio(user)
	if err != nil {
		t.Fatalf("ratio: %v", err)
	}
	// 1,000*60,000*100 / (30*1e6) = 200%
	if ratio.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("unexpected ratio: %s", ratio)
	}

	liquidatable, err := engine.Liquidatable(user)
	if err != nil {
		t.Fatalf("liquidatable: %v", err)
	}
	if liquidatable {
		t.Fatal("expected solvent position")
	}

	max, err := engine.MaxBorrowableFor(user)
	if err != nil {
		t.Fatalf("max borrowable: %v", err)
	}
	// 1,000*60,000*80/100 = 48,000,000 value cap minus 30,000,000 borrowed.
	if max.Cmp(big.NewInt(18)) != 0 {
		t.Fatalf("unexpected max borrowable: %s", max)
	}

	stats, err := engine.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !stats.PriceFresh {
		t.Fatal("expected fresh price")
	}
	if stats.TotalCollateral.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("unexpected total collateral: %s", stats.TotalCollateral)
	}
	if stats.TotalDebt.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("unexpected total debt: %s", stats.TotalDebt)
	}
}
