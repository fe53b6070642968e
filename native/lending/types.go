package lending

import (
	"math/big"

	"btclend/crypto"
)

// Position maintains the collateral and debt state for a single ledger
// account. Amount values are unsigned and expressed as big integers so
// intermediate products of collateral, price and the fixed-point scale never
// overflow.
type Position struct {
	// Owner is the unique account identifier on the ledger.
	Owner crypto.Address
	// Collateral records the on-ledger Bitcoin collateral in satoshi.
	Collateral *big.Int
	// Debt stores the outstanding debt-asset principal.
	Debt *big.Int
	// LastUpdateClock records the logical tick of the last mutation.
	LastUpdateClock uint64
	// HealthFactor caches the most recently computed health value.
	HealthFactor *big.Int
	// LiquidationPrice caches the price below which the position becomes
	// liquidatable.
	LiquidationPrice *big.Int
}

// Clone returns a deep copy of the position so callers can mutate the copy
// without affecting the stored instance.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Collateral != nil {
		clone.Collateral = new(big.Int).Set(p.Collateral)
	}
	if p.Debt != nil {
		clone.Debt = new(big.Int).Set(p.Debt)
	}
	if p.HealthFactor != nil {
		clone.HealthFactor = new(big.Int).Set(p.HealthFactor)
	}
	if p.LiquidationPrice != nil {
		clone.LiquidationPrice = new(big.Int).Set(p.LiquidationPrice)
	}
	return &clone
}

// ProtocolState captures the process-wide accounting for the lending ledger.
// A single instance is threaded through every operation; totals are updated
// atomically with each position mutation.
type ProtocolState struct {
	// Paused halts every ledger-mutating flow when set.
	Paused bool
	// TotalCollateral equals the sum of all positions' collateral.
	TotalCollateral *big.Int
	// TotalDebt tracks the outstanding debt across all positions.
	TotalDebt *big.Int
	// Price is the latest pushed collateral price.
	Price *big.Int
	// PriceUpdatedClock records the logical tick of the last price push.
	PriceUpdatedClock uint64
	// Clock is the externally advanced logical tick counter.
	Clock uint64
	// ReservePool accumulates the reserve skim taken on debt-asset
	// mint/burn flows.
	ReservePool *big.Int
	// DepositRequestCounter allocates monotonic deposit request ids.
	DepositRequestCounter uint64
	// WithdrawalRequestCounter allocates monotonic withdrawal request ids.
	WithdrawalRequestCounter uint64
	// LiquidationCounter allocates monotonic liquidation record ids.
	LiquidationCounter uint64
	// Operators holds the raw bytes of identities allowed to confirm and
	// process bridge requests.
	Operators [][]byte
}

// IsPaused satisfies the common.PauseView interface so engine operations can
// guard on the protocol pause flag.
func (s *ProtocolState) IsPaused(string) bool {
	return s != nil && s.Paused
}

// HasOperator reports whether the address is in the operator allow-list.
func (s *ProtocolState) HasOperator(addr crypto.Address) bool {
	if s == nil {
		return false
	}
	for _, raw := range s.Operators {
		if string(raw) == string(addr.Bytes()) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the protocol state.
func (s *ProtocolState) Clone() *ProtocolState {
	if s == nil {
		return nil
	}
	clone := *s
	if s.TotalCollateral != nil {
		clone.TotalCollateral = new(big.Int).Set(s.TotalCollateral)
	}
	if s.TotalDebt != nil {
		clone.TotalDebt = new(big.Int).Set(s.TotalDebt)
	}
	if s.Price != nil {
		clone.Price = new(big.Int).Set(s.Price)
	}
	if s.ReservePool != nil {
		clone.ReservePool = new(big.Int).Set(s.ReservePool)
	}
	if s.Operators != nil {
		clone.Operators = make([][]byte, len(s.Operators))
		for i, raw := range s.Operators {
			clone.Operators[i] = append([]byte(nil), raw...)
		}
	}
	return &clone
}

// RequestKind distinguishes the two bridge request flows.
type RequestKind uint8

const (
	RequestDeposit RequestKind = iota
	RequestWithdrawal
)

// RequestStatus represents the lifecycle states of a bridge request.
type RequestStatus uint8

const (
	StatusPending RequestStatus = iota
	StatusConfirmed
	StatusProcessed
)

// Valid reports whether the status value is within the supported range.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessed:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status can no longer transition.
func (s RequestStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusProcessed
}

// BridgeRequest reconciles an off-ledger custody event with on-ledger
// balances. Requests are created by the owning user and terminal-transitioned
// exactly once by an authorized operator; a terminal request is never
// reopened.
type BridgeRequest struct {
	ID              uint64
	Kind            RequestKind
	Owner           crypto.Address
	Amount          *big.Int
	ExternalAddress string
	Status          RequestStatus
	CreatedAtClock  uint64
}

// Clone returns a deep copy of the bridge request.
func (r *BridgeRequest) Clone() *BridgeRequest {
	if r == nil {
		return nil
	}
	clone := *r
	if r.Amount != nil {
		clone.Amount = new(big.Int).Set(r.Amount)
	}
	return &clone
}

// LiquidationRecord is one row of the append-only liquidation audit log.
type LiquidationRecord struct {
	ID               uint64
	Owner            crypto.Address
	Liquidator       crypto.Address
	CollateralSeized *big.Int
	DebtRepaid       *big.Int
	Clock            uint64
}

// Clone returns a deep copy of the liquidation record.
func (r *LiquidationRecord) Clone() *LiquidationRecord {
	if r == nil {
		return nil
	}
	clone := *r
	if r.CollateralSeized != nil {
		clone.CollateralSeized = new(big.Int).Set(r.CollateralSeized)
	}
	if r.DebtRepaid != nil {
		clone.DebtRepaid = new(big.Int).Set(r.DebtRepaid)
	}
	return &clone
}

// TokenCustody is the external capability that performs the actual issuance
// and movement of the debt and collateral assets. The engine only records the
// intended amounts and owners; test doubles substitute an in-memory ledger.
type TokenCustody interface {
	Mint(recipient crypto.Address, amount *big.Int) error
	Burn(owner crypto.Address, amount *big.Int) error
	Transfer(from, to crypto.Address, amount *big.Int) error
}
