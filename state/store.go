package state

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"btclend/crypto"
	"btclend/native/lending"
	"btclend/storage"
)

// Store persists the lending ledger over a generic key-value database using
// RLP-encoded records. It backs the engine's persistence interface in the
// daemon; tests run it over storage.MemDB.
type Store struct {
	db storage.Database
}

// New creates a ledger store backed by the provided database.
func New(db storage.Database) *Store {
	return &Store{db: db}
}

type storedPosition struct {
	Owner            []byte
	Collateral       *big.Int
	Debt             *big.Int
	LastUpdateClock  uint64
	HealthFactor     *big.Int
	LiquidationPrice *big.Int
}

type storedProtocolState struct {
	Paused                   bool
	TotalCollateral          *big.Int
	TotalDebt                *big.Int
	Price                    *big.Int
	PriceUpdatedClock        uint64
	Clock                    uint64
	ReservePool              *big.Int
	DepositRequestCounter    uint64
	WithdrawalRequestCounter uint64
	LiquidationCounter       uint64
	Operators                [][]byte
}

type storedBridgeRequest struct {
	ID              uint64
	Kind            uint8
	Owner           []byte
	Amount          *big.Int
	ExternalAddress string
	Status          uint8
	CreatedAtClock  uint64
}

type storedLiquidationRecord struct {
	ID               uint64
	Owner            []byte
	Liquidator       []byte
	CollateralSeized *big.Int
	DebtRepaid       *big.Int
	Clock            uint64
}

// ProtocolState loads the process-wide ledger accounting. A store that has
// never been written returns nil so the engine can start from defaults.
func (s *Store) ProtocolState() (*lending.ProtocolState, error) {
	raw, err := s.db.Get(protocolStateKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedProtocolState
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, err
	}
	return &lending.ProtocolState{
		Paused:                   stored.Paused,
		TotalCollateral:          orZero(stored.TotalCollateral),
		TotalDebt:                orZero(stored.TotalDebt),
		Price:                    orZero(stored.Price),
		PriceUpdatedClock:        stored.PriceUpdatedClock,
		Clock:                    stored.Clock,
		ReservePool:              orZero(stored.ReservePool),
		DepositRequestCounter:    stored.DepositRequestCounter,
		WithdrawalRequestCounter: stored.WithdrawalRequestCounter,
		LiquidationCounter:       stored.LiquidationCounter,
		Operators:                stored.Operators,
	}, nil
}

// PutProtocolState persists the process-wide ledger accounting.
func (s *Store) PutProtocolState(state *lending.ProtocolState) error {
	if state == nil {
		return errors.New("ledger store: nil protocol state")
	}
	encoded, err := rlp.EncodeToBytes(&storedProtocolState{
		Paused:                   state.Paused,
		TotalCollateral:          orZero(state.TotalCollateral),
		TotalDebt:                orZero(state.TotalDebt),
		Price:                    orZero(state.Price),
		PriceUpdatedClock:        state.PriceUpdatedClock,
		Clock:                    state.Clock,
		ReservePool:              orZero(state.ReservePool),
		DepositRequestCounter:    state.DepositRequestCounter,
		WithdrawalRequestCounter: state.WithdrawalRequestCounter,
		LiquidationCounter:       state.LiquidationCounter,
		Operators:                state.Operators,
	})
	if err != nil {
		return err
	}
	return s.db.Put(protocolStateKey, encoded)
}

// GetPosition loads the position for the given owner, or nil when the owner
// has never deposited.
func (s *Store) GetPosition(addr crypto.Address) (*lending.Position, error) {
	raw, err := s.db.Get(positionKey(addr.Bytes()))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedPosition
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, err
	}
	return &lending.Position{
		Owner:            crypto.NewAddress(crypto.LendPrefix, stored.Owner),
		Collateral:       orZero(stored.Collateral),
		Debt:             orZero(stored.Debt),
		LastUpdateClock:  stored.LastUpdateClock,
		HealthFactor:     orZero(stored.HealthFactor),
		LiquidationPrice: orZero(stored.LiquidationPrice),
	}, nil
}

// PutPosition persists the position keyed by its owner.
func (s *Store) PutPosition(position *lending.Position) error {
	if position == nil {
		return errors.New("ledger store: nil position")
	}
	encoded, err := rlp.EncodeToBytes(&storedPosition{
		Owner:            position.Owner.Bytes(),
		Collateral:       orZero(position.Collateral),
		Debt:             orZero(position.Debt),
		LastUpdateClock:  position.LastUpdateClock,
		HealthFactor:     orZero(position.HealthFactor),
		LiquidationPrice: orZero(position.LiquidationPrice),
	})
	if err != nil {
		return err
	}
	return s.db.Put(positionKey(position.Owner.Bytes()), encoded)
}

// GetBridgeRequest loads the request for the given kind and id, or nil when
// it does not exist.
func (s *Store) GetBridgeRequest(kind lending.RequestKind, id uint64) (*lending.BridgeRequest, error) {
	raw, err := s.db.Get(requestKey(requestPrefix(kind), id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedBridgeRequest
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, err
	}
	return &lending.BridgeRequest{
		ID:              stored.ID,
		Kind:            lending.RequestKind(stored.Kind),
		Owner:           crypto.NewAddress(crypto.LendPrefix, stored.Owner),
		Amount:          orZero(stored.Amount),
		ExternalAddress: stored.ExternalAddress,
		Status:          lending.RequestStatus(stored.Status),
		CreatedAtClock:  stored.CreatedAtClock,
	}, nil
}

// PutBridgeRequest persists the request keyed by kind and id.
func (s *Store) PutBridgeRequest(request *lending.BridgeRequest) error {
	if request == nil {
		return errors.New("ledger store: nil bridge request")
	}
	encoded, err := rlp.EncodeToBytes(&storedBridgeRequest{
		ID:              request.ID,
		Kind:            uint8(request.Kind),
		Owner:           request.Owner.Bytes(),
		Amount:          orZero(request.Amount),
		ExternalAddress: request.ExternalAddress,
		Status:          uint8(request.Status),
		CreatedAtClock:  request.CreatedAtClock,
	})
	if err != nil {
		return err
	}
	return s.db.Put(requestKey(requestPrefix(request.Kind), request.ID), encoded)
}

// GetLiquidationRecord loads one audit log row, or nil when absent.
func (s *Store) GetLiquidationRecord(id uint64) (*lending.LiquidationRecord, error) {
	raw, err := s.db.Get(requestKey(liquidationPrefix, id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedLiquidationRecord
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, err
	}
	return &lending.LiquidationRecord{
		ID:               stored.ID,
		Owner:            crypto.NewAddress(crypto.LendPrefix, stored.Owner),
		Liquidator:       crypto.NewAddress(crypto.LendPrefix, stored.Liquidator),
		CollateralSeized: orZero(stored.CollateralSeized),
		DebtRepaid:       orZero(stored.DebtRepaid),
		Clock:            stored.Clock,
	}, nil
}

// PutLiquidationRecord appends one audit log row keyed by its id. Ids are
// allocated by the engine from a monotonic counter, so rows are never
// overwritten.
func (s *Store) PutLiquidationRecord(record *lending.LiquidationRecord) error {
	if record == nil {
		return errors.New("ledger store: nil liquidation record")
	}
	encoded, err := rlp.EncodeToBytes(&storedLiquidationRecord{
		ID:               record.ID,
		Owner:            record.Owner.Bytes(),
		Liquidator:       record.Liquidator.Bytes(),
		CollateralSeized: orZero(record.CollateralSeized),
		DebtRepaid:       orZero(record.DebtRepaid),
		Clock:            record.Clock,
	})
	if err != nil {
		return err
	}
	return s.db.Put(requestKey(liquidationPrefix, record.ID), encoded)
}

func requestPrefix(kind lending.RequestKind) []byte {
	if kind == lending.RequestWithdrawal {
		return withdrawRequestPrefix
	}
	return depositRequestPrefix
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
