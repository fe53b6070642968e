package lending

import (
	"math/big"

	"btclend/crypto"
	nativecommon "btclend/native/common"
)

// The bridge gateway reconciles off-ledger custody events against on-ledger
// balances with a two-phase protocol: the owning user files a request, and a
// trusted operator terminal-transitions it exactly once after the custodial
// event settles. Request ids are monotonic per kind and allocated from the
// protocol state so they commit atomically with the request itself.

// RequestDeposit files a pending deposit request. The ledger is not touched
// until an operator confirms the custodial deposit.
func (e *Engine) RequestDeposit(owner crypto.Address, amount *big.Int, externalAddress string) (uint64, error) {
	state, err := e.loadState()
	if err != nil {
		return 0, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	if err := crypto.ValidateExternalAddress(externalAddress); err != nil {
		return 0, ErrInvalidAddress
	}

	state.DepositRequestCounter++
	request := &BridgeRequest{
		ID:              state.DepositRequestCounter,
		Kind:            RequestDeposit,
		Owner:           owner,
		Amount:          new(big.Int).Set(amount),
		ExternalAddress: externalAddress,
		Status:          StatusPending,
		CreatedAtClock:  state.Clock,
	}

	if err := e.state.PutBridgeRequest(request); err != nil {
		return 0, err
	}
	if err := e.state.PutProtocolState(state); err != nil {
		return 0, err
	}
	return request.ID, nil
}

// ConfirmDeposit credits the request's owner once an authorized operator has
// verified the custodial deposit. A second confirm on the same id fails
// because the status is no longer pending.
func (e *Engine) ConfirmDeposit(caller crypto.Address, requestID uint64) error {
	state, err := e.loadState()
	if err != nil {
		return err
	}
	if !state.HasOperator(caller) {
		return ErrUnauthorized
	}

	request, err := e.state.GetBridgeRequest(RequestDeposit, requestID)
	if err != nil {
		return err
	}
	if request == nil || request.Status != StatusPending {
		return ErrRequestNotFound
	}

	position, err := e.lookupPosition(request.Owner)
	if err != nil {
		return err
	}
	if position == nil {
		position = e.newPosition(request.Owner)
	}

	position.Collateral = new(big.Int).Add(position.Collateral, request.Amount)
	state.TotalCollateral = new(big.Int).Add(state.TotalCollateral, request.Amount)
	e.refreshPosition(position, state)
	request.Status = StatusConfirmed

	if err := e.state.PutPosition(position); err != nil {
		return err
	}
	if err := e.state.PutBridgeRequest(request); err != nil {
		return err
	}
	return e.state.PutProtocolState(state)
}

// RequestWithdrawal files a pending withdrawal request after validating it
// against the current ledger balances. The requested amount is not reserved
// or locked: concurrent pending requests are each validated independently
// against the same unreserved collateral.
func (e *Engine) RequestWithdrawal(owner crypto.Address, amount *big.Int, externalAddress string) (uint64, error) {
	state, err := e.loadState()
	if err != nil {
		return 0, err
	}
	if err := nativecommon.Guard(state, moduleName); err != nil {
		return 0, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	if err := crypto.ValidateExternalAddress(externalAddress); err != nil {
		return 0, ErrInvalidAddress
	}

	position, err := e.lookupPosition(owner)
	if err != nil {
		return 0, err
	}
	if position == nil || position.Collateral.Cmp(amount) < 0 {
		return 0, ErrInsufficientCollateral
	}

	if position.Debt.Sign() > 0 {
		remaining := new(big.Int).Sub(position.Collateral, amount)
		ratio := CollateralizationRatio(remaining, position.Debt, state.Price)
		if ratio.Cmp(new(big.Int).SetUint64(e.params.MinCollateralRatio)) < 0 {
			return 0, ErrCollateralRatioTooLow
		}
	}

	state.WithdrawalRequestCounter++
	request := &BridgeRequest{
		ID:              state.WithdrawalRequestCounter,
		Kind:            RequestWithdrawal,
		Owner:           owner,
		Amount:          new(big.Int).Set(amount),
		ExternalAddress: externalAddress,
		Status:          StatusPending,
		CreatedAtClock:  state.Clock,
	}

	if err := e.state.PutBridgeRequest(request); err != nil {
		return 0, err
	}
	if err := e.state.PutProtocolState(state); err != nil {
		return 0, err
	}
	return request.ID, nil
}

// ProcessWithdrawal debits the request's owner once an authorized operator
// has released the custodial funds. The debit is checked again at process
// time: collateral must not underflow even when several pending requests were
// validated against the same balance.
func (e *Engine) ProcessWithdrawal(caller crypto.Address, requestID uint64) error {
	state, err := e.loadState()
	if err != nil {
		return err
	}
	if !state.HasOperator(caller) {
		return ErrUnauthorized
	}

	request, err := e.state.GetBridgeRequest(RequestWithdrawal, requestID)
	if err != nil {
		return err
	}
	if request == nil || request.Status != StatusPending {
		return ErrRequestNotFound
	}

	position, err := e.lookupPosition(request.Owner)
	if err != nil {
		return err
	}
	if position == nil {
		return ErrPositionNotFound
	}
	if position.Collateral.Cmp(request.Amount) < 0 {
		return ErrInsufficientCollateral
	}

	position.Collateral = new(big.Int).Sub(position.Collateral, request.Amount)
	state.TotalCollateral = new(big.Int).Sub(state.TotalCollateral, request.Amount)
	e.refreshPosition(position, state)
	request.Status = StatusProcessed

	if err := e.state.PutPosition(position); err != nil {
		return err
	}
	if err := e.state.PutBridgeRequest(request); err != nil {
		return err
	}
	return e.state.PutProtocolState(state)
}

// MintDebtAsset issues debt asset to the owner through the custody
// capability, gated on the same solvency check as borrowing. A reserve skim
// of amount*ReserveRatioBps/10000 accrues to the protocol reserve.
func (e *Engine) MintDebtAsset(owner crypto.Address, amount *big.Int) (*BorrowResult, error) {
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
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if e.custody == nil {
		return nil, errCustodyNotConfigured
	}

	position, err := e.lookupPosition(owner)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrPositionNotFound
	}

	projectedDebt := new(big.Int).Add(position.Debt, amount)
	health := HealthFactor(position.Collateral, projectedDebt, state.Price, e.params)
	if health.Cmp(precision) < 0 {
		return nil, ErrInsufficientCollateral
	}

	if err := e.custody.Mint(owner, amount); err != nil {
		return nil, err
	}

	skim := reserveSkim(amount, e.params.ReserveRatioBps)
	position.Debt = projectedDebt
	state.TotalDebt = new(big.Int).Add(state.TotalDebt, amount)
	state.ReservePool = new(big.Int).Add(state.ReservePool, skim)
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

// BurnDebtAsset retires debt asset through the custody capability. Like
// repay, the amount is clamped to the outstanding debt; the same reserve skim
// accrues on the burned amount.
func (e *Engine) BurnDebtAsset(owner crypto.Address, amount *big.Int) (*RepayResult, error) {
	state, err := e.loadState()
	if err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(state, moduleName); err != nil {
		return nil, err
	}
	if e.custody == nil {
		return nil, errCustodyNotConfigured
	}

	position, err := e.lookupPosition(owner)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrPositionNotFound
	}

	burnAmount := big.NewInt(0)
	if amount != nil && amount.Sign() > 0 {
		burnAmount.Set(amount)
	}
	if burnAmount.Cmp(position.Debt) > 0 {
		burnAmount.Set(position.Debt)
	}
	if burnAmount.Sign() == 0 {
		return nil, ErrInvalidAmount
	}

	if err := e.custody.Burn(owner, burnAmount); err != nil {
		return nil, err
	}

	skim := reserveSkim(burnAmount, e.params.ReserveRatioBps)
	position.Debt = new(big.Int).Sub(position.Debt, burnAmount)
	state.TotalDebt = new(big.Int).Sub(state.TotalDebt, burnAmount)
	state.ReservePool = new(big.Int).Add(state.ReservePool, skim)
	e.refreshPosition(position, state)

	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	if err := e.state.PutProtocolState(state); err != nil {
		return nil, err
	}
	return &RepayResult{
		Repaid:        burnAmount,
		RemainingDebt: new(big.Int).Set(position.Debt),
	}, nil
}

func reserveSkim(amount *big.Int, bps uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 || bps == 0 {
		return big.NewInt(0)
	}
	skim := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return skim.Quo(skim, basisPoints)
}
