package lending

import (
	"math/big"

	"btclend/crypto"
	nativecommon "btclend/native/common"
)

const moduleName = "lending"

// engineState abstracts the persistence layer the engine mutates. The
// in-memory mock used by tests and the RLP-backed store in package state both
// satisfy it.
type engineState interface {
	ProtocolState() (*ProtocolState, error)
	PutProtocolState(state *ProtocolState) error
	GetPosition(addr crypto.Address) (*Position, error)
	PutPosition(position *Position) error
	GetBridgeRequest(kind RequestKind, id uint64) (*BridgeRequest, error)
	PutBridgeRequest(request *BridgeRequest) error
	GetLiquidationRecord(id uint64) (*LiquidationRecord, error)
	PutLiquidationRecord(record *LiquidationRecord) error
}

// Engine orchestrates the state transitions of the lending ledger. Every
// public operation is atomic: all preconditions are checked before any state
// write, and a failure leaves the ledger untouched.
type Engine struct {
	state   engineState
	owner   crypto.Address
	params  RiskParameters
	custody TokenCustody
}

// NewEngine constructs a lending engine gated on the given owner identity.
// Zero-valued risk parameters fall back to protocol defaults, and the custody
// port starts as a recording adapter until a real one is wired.
func NewEngine(owner crypto.Address, params RiskParameters) *Engine {
	params.EnsureDefaults()
	return &Engine{
		owner:   owner,
		params:  params,
		custody: NewRecordingCustody(),
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetCustody swaps the token custody capability used for debt-asset issuance
// and collateral movement.
func (e *Engine) SetCustody(custody TokenCustody) {
	if e == nil {
		return
	}
	e.custody = custody
}

// Params returns the risk parameters the engine was configured with.
func (e *Engine) Params() RiskParameters {
	if e == nil {
		return DefaultRiskParameters()
	}
	return e.params
}

// SetClock records the externally advanced logical tick. The engine never
// advances the clock itself; the hosting runtime drives it between
// operations. Regressions are ignored.
func (e *Engine) SetClock(clock uint64) error {
	state, err := e.loadState()
	if err != nil {
		return err
	}
	if clock <= state.Clock {
		return nil
	}
	state.Clock = clock
	return e.state.PutProtocolState(state)
}

// DepositResult is the payload of a successful collateral deposit.
type DepositResult struct {
	Deposited       *big.Int
	TotalCollateral *big.Int
}

// WithdrawResult is the payload of a successful collateral withdrawal.
type WithdrawResult struct {
	Withdrawn           *big.Int
	RemainingCollateral *big.Int
}

// BorrowResult is the payload of a successful borrow.
type BorrowResult struct {
	Borrowed     *big.Int
	TotalDebt    *big.Int
	HealthFactor *big.Int
}

// RepayResult is the payload of a successful repay.
type RepayResult struct {
	Repaid        *big.Int
	RemainingDebt *big.Int
}

// DepositCollateral credits collateral to the owner's position, creating it
// on first use. Deposits are exempt from the price freshness gate: the cached
// health fields are recomputed with whatever price is on record.
func (e *Engine) DepositCollateral(owner crypto.Address, amount *big.Int) (*DepositResult, error) {
	state, err := e.loadState()
	if err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(state, moduleName); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	position, err := e.lookupPosition(owner)
	if err != nil {
		return nil, err
	}
	if position == nil {
		position = e.newPosition(owner)
	}

	position.Collateral = new(big.Int).Add(position.Collateral, amount)
	state.TotalCollateral = new(big.Int).Add(state.TotalCollateral, amount)
	e.refreshPosition(position, state)

	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	if err := e.state.PutProtocolState(state); err != nil {
		return nil, err
	}
	return &DepositResult{
		Deposited:       new(big.Int).Set(amount),
		TotalCollateral: new(big.Int).Set(state.TotalCollateral),
	}, nil
}

// WithdrawCollateral releases collateral back to the owner while ensuring the
// remaining position stays solvent at the current fresh price.
func (e *Engine) WithdrawCollateral(owner crypto.Address, amount *big.Int) (*WithdrawResult, error) {
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
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}

	position, err := e.lookupPosition(owner)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrPositionNotFound
	}
	if position.Collateral.Cmp(amount) < 0 {
		return nil, ErrInsufficientCollateral
	}

	remaining := new(big.Int).Sub(position.Collateral, amount)
	health := HealthFactor(remaining, position.Debt, state.Price, e.params)
	if health.Cmp(precision) < 0 {
		return nil, ErrUnhealthyPosition
	}

	// Zero is permitted but changes nothing; skip the write cycle.
	if amount.Sign() == 0 {
		return &WithdrawResult{
			Withdrawn:           big.NewInt(0),
			RemainingCollateral: new(big.Int).Set(position.Collateral),
		}, nil
	}

	position.Collateral = remaining
	state.TotalCollateral = new(big.Int).Sub(state.TotalCollateral, amount)
	e.refreshPosition(position, state)

	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	if err := e.state.PutProtocolState(state); err != nil {
		return nil, err
	}
	return &WithdrawResult{
		Withdrawn:           new(big.Int).Set(amount),
		RemainingCollateral: new(big.Int).Set(position.Collateral),
	}, nil
}

// Borrow increases the owner's debt after verifying the projected position
// stays solvent. The new health factor is returned to the caller.
func (e *Engine) Borrow(owner crypto.Address, amount *big.Int) (*BorrowResult, error) {
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
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	projectedDebt := new(big.Int).Add(position.Debt, amount)
	health := HealthFactor(position.Collateral, projectedDebt, state.Price, e.params)
	if health.Cmp(precision) < 0 {
		return nil, ErrInsufficientCollateral
	}

	position.Debt = projectedDebt
	state.TotalDebt = new(big.Int).Add(state.TotalDebt, amount)
	e.refreshPosition(position, state)

	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	if err := e.state.PutProtocolState(state); err != nil {
		return nil, err
	}
	return &BorrowResult{
		Borrowed:     new(big.Int).Set(amount),
		TotalDebt:    new(big.Int).Set(state.TotalDebt),
		HealthFactor: health,
	}, nil
}

// Repay reduces the owner's debt by at most the outstanding amount. Debt
// never goes below zero; the clamped amount actually repaid is returned.
func (e *Engine) Repay(owner crypto.Address, amount *big.Int) (*RepayResult, error) {
	state, err := e.loadState()
	if err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(state, moduleName); err != nil {
		return nil, err
	}

	position, err := e.lookupPosition(owner)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrPositionNotFound
	}

	repayAmount := big.NewInt(0)
	if amount != nil && amount.Sign() > 0 {
		repayAmount.Set(amount)
	}
	if repayAmount.Cmp(position.Debt) > 0 {
		repayAmount.Set(position.Debt)
	}
	if repayAmount.Sign() == 0 {
		return nil, ErrInvalidAmount
	}

	position.Debt = new(big.Int).Sub(position.Debt, repayAmount)
	state.TotalDebt = new(big.Int).Sub(state.TotalDebt, repayAmount)
	e.refreshPosition(position, state)

	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	if err := e.state.PutProtocolState(state); err != nil {
		return nil, err
	}
	return &RepayResult{
		Repaid:        repayAmount,
		RemainingDebt: new(big.Int).Set(position.Debt),
	}, nil
}

// --- Admin/pause controller ---

// SetPrice records a pushed collateral price, stamping it with the current
// logical clock. Owner-only.
func (e *Engine) SetPrice(caller crypto.Address, price *big.Int) (*big.Int, error) {
	state, err := e.loadState()
	if err != nil {
		return nil, err
	}
	if !caller.Equal(e.owner) {
		return nil, ErrUnauthorized
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	state.Price = new(big.Int).Set(price)
	state.PriceUpdatedClock = state.Clock
	if err := e.state.PutProtocolState(state); err != nil {
		return nil, err
	}
	return new(big.Int).Set(price), nil
}

// SetPaused toggles the protocol pause flag. Owner-only.
func (e *Engine) SetPaused(caller crypto.Address, paused bool) (bool, error) {
	state, err := e.loadState()
	if err != nil {
		return false, err
	}
	if !caller.Equal(e.owner) {
		return false, ErrUnauthorized
	}
	state.Paused = paused
	if err := e.state.PutProtocolState(state); err != nil {
		return false, err
	}
	return paused, nil
}

// AddOperator adds an identity to the bridge operator allow-list. Owner-only.
func (e *Engine) AddOperator(caller, operator crypto.Address) error {
	state, err := e.loadState()
	if err != nil {
		return err
	}
	if !caller.Equal(e.owner) {
		return ErrUnauthorized
	}
	if state.HasOperator(operator) {
		return nil
	}
	state.Operators = append(state.Operators, append([]byte(nil), operator.Bytes()...))
	return e.state.PutProtocolState(state)
}

// RemoveOperator removes an identity from the bridge operator allow-list.
// Owner-only.
func (e *Engine) RemoveOperator(caller, operator crypto.Address) error {
	state, err := e.loadState()
	if err != nil {
		return err
	}
	if !caller.Equal(e.owner) {
		return ErrUnauthorized
	}
	kept := state.Operators[:0]
	for _, raw := range state.Operators {
		if string(raw) != string(operator.Bytes()) {
			kept = append(kept, raw)
		}
	}
	state.Operators = kept
	return e.state.PutProtocolState(state)
}

// --- Read-only views ---

// ProtocolStats is the read-only snapshot of the global ledger accounting.
type ProtocolStats struct {
	Paused            bool
	TotalCollateral   *big.Int
	TotalDebt         *big.Int
	Price             *big.Int
	PriceUpdatedClock uint64
	Clock             uint64
	PriceFresh        bool
	ReservePool       *big.Int
	LiquidationCount  uint64
}

// Position returns a copy of the owner's position.
func (e *Engine) Position(owner crypto.Address) (*Position, error) {
	position, err := e.lookupPosition(owner)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrPositionNotFound
	}
	return position.Clone(), nil
}

// PositionHealth recomputes the owner's health factor at the current price.
func (e *Engine) PositionHealth(owner crypto.Address) (*big.Int, error) {
	state, err := e.loadState()
	if err != nil {
		return nil, err
	}
	position, err := e.lookupPosition(owner)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrPositionNotFound
	}
	return HealthFactor(position.Collateral, position.Debt, state.Price, e.params), nil
}

// PositionRatio recomputes the owner's collateralization ratio in percent.
func (e *Engine) PositionRatio(owner crypto.Address) (*big.Int, error) {
	state, err := e.loadState()
	if err != nil {
		return nil, err
	}
	position, err := e.lookupPosition(owner)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrPositionNotFound
	}
	return CollateralizationRatio(position.Collateral, position.Debt, state.Price), nil
}

// Liquidatable reports whether the owner's position can be liquidated at the
// current price.
func (e *Engine) Liquidatable(owner crypto.Address) (bool, error) {
	health, err := e.PositionHealth(owner)
	if err != nil {
		return false, err
	}
	return health.Cmp(precision) < 0, nil
}

// MaxBorrowableFor estimates how much additional debt the owner could take on.
func (e *Engine) MaxBorrowableFor(owner crypto.Address) (*big.Int, error) {
	state, err := e.loadState()
	if err != nil {
		return nil, err
	}
	position, err := e.lookupPosition(owner)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrPositionNotFound
	}
	return MaxBorrowable(position.Collateral, position.Debt, state.Price, e.params), nil
}

// Stats returns a snapshot of the protocol-wide accounting.
func (e *Engine) Stats() (*ProtocolStats, error) {
	state, err := e.loadState()
	if err != nil {
		return nil, err
	}
	return &ProtocolStats{
		Paused:            state.Paused,
		TotalCollateral:   new(big.Int).Set(state.TotalCollateral),
		TotalDebt:         new(big.Int).Set(state.TotalDebt),
		Price:             new(big.Int).Set(state.Price),
		PriceUpdatedClock: state.PriceUpdatedClock,
		Clock:             state.Clock,
		PriceFresh:        priceFresh(state, e.params.FreshnessWindow),
		ReservePool:       new(big.Int).Set(state.ReservePool),
		LiquidationCount:  state.LiquidationCounter,
	}, nil
}

// BridgeRequestByID returns a copy of the request for the given kind and id.
func (e *Engine) BridgeRequestByID(kind RequestKind, id uint64) (*BridgeRequest, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	request, err := e.state.GetBridgeRequest(kind, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrRequestNotFound
	}
	return request.Clone(), nil
}

// LiquidationRecordByID returns a copy of one audit log row.
func (e *Engine) LiquidationRecordByID(id uint64) (*LiquidationRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, err := e.state.GetLiquidationRecord(id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRequestNotFound
	}
	return record.Clone(), nil
}

// --- internal helpers ---

func (e *Engine) loadState() (*ProtocolState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	state, err := e.state.ProtocolState()
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &ProtocolState{}
	}
	if state.TotalCollateral == nil {
		state.TotalCollateral = big.NewInt(0)
	}
	if state.TotalDebt == nil {
		state.TotalDebt = big.NewInt(0)
	}
	if state.Price == nil {
		state.Price = big.NewInt(0)
	}
	if state.ReservePool == nil {
		state.ReservePool = big.NewInt(0)
	}
	return state, nil
}

func (e *Engine) lookupPosition(owner crypto.Address) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	position, err := e.state.GetPosition(owner)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, nil
	}
	if position.Collateral == nil {
		position.Collateral = big.NewInt(0)
	}
	if position.Debt == nil {
		position.Debt = big.NewInt(0)
	}
	return position, nil
}

func (e *Engine) newPosition(owner crypto.Address) *Position {
	return &Position{
		Owner:        owner,
		Collateral:   big.NewInt(0),
		Debt:         big.NewInt(0),
		HealthFactor: new(big.Int).Set(healthInfinity),
	}
}

// refreshPosition recomputes the cached health fields after a mutation and
// stamps the position with the current clock.
func (e *Engine) refreshPosition(position *Position, state *ProtocolState) {
	position.HealthFactor = HealthFactor(position.Collateral, position.Debt, state.Price, e.params)
	position.LiquidationPrice = LiquidationPrice(position.Collateral, position.Debt, e.params)
	position.LastUpdateClock = state.Clock
}
