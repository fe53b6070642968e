package rpc

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"

	"btclend/crypto"
	"btclend/native/lending"
	"btclend/observability"
)

type ownerAmountParams struct {
	Owner  string `json:"owner"`
	Amount string `json:"amount"`
}

type bridgeRequestParams struct {
	Owner           string `json:"owner"`
	Amount          string `json:"amount"`
	ExternalAddress string `json:"externalAddress"`
}

type operatorActionParams struct {
	Operator  string `json:"operator"`
	RequestID uint64 `json:"requestId"`
}

type liquidateParams struct {
	Liquidator string `json:"liquidator"`
	Owner      string `json:"owner"`
	Amount     string `json:"amount"`
}

type setPriceParams struct {
	Caller string `json:"caller"`
	Price  string `json:"price"`
}

type setPausedParams struct {
	Caller string `json:"caller"`
	Paused bool   `json:"paused"`
}

type operatorAdminParams struct {
	Caller   string `json:"caller"`
	Operator string `json:"operator"`
}

type setClockParams struct {
	Clock uint64 `json:"clock"`
}

type ownerParams struct {
	Owner string `json:"owner"`
}

type bridgeLookupParams struct {
	Kind      string `json:"kind"`
	RequestID uint64 `json:"requestId"`
}

type recordLookupParams struct {
	ID uint64 `json:"id"`
}

type depositResult struct {
	Deposited       string `json:"deposited"`
	TotalCollateral string `json:"totalCollateral"`
}

type withdrawResult struct {
	Withdrawn           string `json:"withdrawn"`
	RemainingCollateral string `json:"remainingCollateral"`
}

type borrowResult struct {
	Borrowed     string `json:"borrowed"`
	TotalDebt    string `json:"totalDebt"`
	HealthFactor string `json:"healthFactor"`
}

type repayResult struct {
	Repaid        string `json:"repaid"`
	RemainingDebt string `json:"remainingDebt"`
}

type liquidateResult struct {
	LiquidationID    uint64 `json:"liquidationId"`
	CollateralSeized string `json:"collateralSeized"`
	DebtRepaid       string `json:"debtRepaid"`
	Penalty          string `json:"penalty"`
}

type requestIDResult struct {
	RequestID uint64 `json:"requestId"`
}

type positionResult struct {
	Owner            string `json:"owner"`
	Collateral       string `json:"collateral"`
	Debt             string `json:"debt"`
	HealthFactor     string `json:"healthFactor"`
	LiquidationPrice string `json:"liquidationPrice"`
	LastUpdateClock  uint64 `json:"lastUpdateClock"`
}

type statsResult struct {
	Paused            bool   `json:"paused"`
	TotalCollateral   string `json:"totalCollateral"`
	TotalDebt         string `json:"totalDebt"`
	Price             string `json:"price"`
	PriceUpdatedClock uint64 `json:"priceUpdatedClock"`
	Clock             uint64 `json:"clock"`
	PriceFresh        bool   `json:"priceFresh"`
	ReservePool       string `json:"reservePool"`
	LiquidationCount  uint64 `json:"liquidationCount"`
}

type bridgeRequestResult struct {
	RequestID       uint64 `json:"requestId"`
	Kind            string `json:"kind"`
	Owner           string `json:"owner"`
	Amount          string `json:"amount"`
	ExternalAddress string `json:"externalAddress"`
	Status          string `json:"status"`
	CreatedAtClock  uint64 `json:"createdAtClock"`
}

type liquidationRecordResult struct {
	ID               uint64 `json:"id"`
	Owner            string `json:"owner"`
	Liquidator       string `json:"liquidator"`
	CollateralSeized string `json:"collateralSeized"`
	DebtRepaid       string `json:"debtRepaid"`
	Clock            uint64 `json:"clock"`
}

var rpcRoutes = map[string]route{
	"lend_depositCollateral":  {mutating: true, fn: (*Server).handleDepositCollateral},
	"lend_withdrawCollateral": {mutating: true, fn: (*Server).handleWithdrawCollateral},
	"lend_borrow":             {mutating: true, fn: (*Server).handleBorrow},
	"lend_repay":              {mutating: true, fn: (*Server).handleRepay},
	"lend_liquidate":          {mutating: true, fn: (*Server).handleLiquidate},
	"lend_requestDeposit":     {mutating: true, fn: (*Server).handleRequestDeposit},
	"lend_confirmDeposit":     {mutating: true, fn: (*Server).handleConfirmDeposit},
	"lend_requestWithdrawal":  {mutating: true, fn: (*Server).handleRequestWithdrawal},
	"lend_processWithdrawal":  {mutating: true, fn: (*Server).handleProcessWithdrawal},
	"lend_mintDebtAsset":      {mutating: true, fn: (*Server).handleMintDebtAsset},
	"lend_burnDebtAsset":      {mutating: true, fn: (*Server).handleBurnDebtAsset},
	"lend_setPrice":           {mutating: true, fn: (*Server).handleSetPrice},
	"lend_setPaused":          {mutating: true, fn: (*Server).handleSetPaused},
	"lend_addOperator":        {mutating: true, fn: (*Server).handleAddOperator},
	"lend_removeOperator":     {mutating: true, fn: (*Server).handleRemoveOperator},
	"lend_setClock":           {mutating: true, fn: (*Server).handleSetClock},

	"lend_getPosition":          {fn: (*Server).handleGetPosition},
	"lend_getHealthFactor":      {fn: (*Server).handleGetHealthFactor},
	"lend_getCollateralRatio":   {fn: (*Server).handleGetCollateralRatio},
	"lend_getLiquidatable":      {fn: (*Server).handleGetLiquidatable},
	"lend_getMaxBorrowable":     {fn: (*Server).handleGetMaxBorrowable},
	"lend_getStats":             {fn: (*Server).handleGetStats},
	"lend_getBridgeRequest":     {fn: (*Server).handleGetBridgeRequest},
	"lend_getLiquidationRecord": {fn: (*Server).handleGetLiquidationRecord},
}

func (s *Server) routes() map[string]route {
	return rpcRoutes
}

var errExpectedParamObject = errors.New("expected a single parameter object")

func decodeParams(req *RPCRequest, v interface{}) error {
	if len(req.Params) != 1 {
		return errExpectedParamObject
	}
	return json.Unmarshal(req.Params[0], v)
}

func parseAmount(value string) (*big.Int, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "+") {
		return nil, false
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, false
	}
	return amount, true
}

func (s *Server) writeEngineError(w http.ResponseWriter, req *RPCRequest, err error) string {
	status, code := translateEngineError(err)
	observability.Metrics().ObserveError(req.Method, err.Error())
	writeError(w, status, req.ID, code, err.Error(), nil)
	return "error"
}

func (s *Server) invalidParams(w http.ResponseWriter, req *RPCRequest, detail string) string {
	writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", detail)
	return "error"
}

// --- borrow/repay engine ---

func (s *Server) handleDepositCollateral(w http.ResponseWriter, req *RPCRequest) string {
	var input ownerAmountParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	owner, err := crypto.DecodeAddress(input.Owner)
	if err != nil {
		return s.invalidParams(w, req, "invalid owner address")
	}
	amount, ok := parseAmount(input.Amount)
	if !ok {
		return s.invalidParams(w, req, "invalid amount")
	}
	result, err := s.engine.DepositCollateral(owner, amount)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, depositResult{
		Deposited:       result.Deposited.String(),
		TotalCollateral: result.TotalCollateral.String(),
	})
	return "ok"
}

func (s *Server) handleWithdrawCollateral(w http.ResponseWriter, req *RPCRequest) string {
	var input ownerAmountParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	owner, err := crypto.DecodeAddress(input.Owner)
	if err != nil {
		return s.invalidParams(w, req, "invalid owner address")
	}
	amount, ok := parseAmount(input.Amount)
	if !ok {
		return s.invalidParams(w, req, "invalid amount")
	}
	result, err := s.engine.WithdrawCollateral(owner, amount)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, withdrawResult{
		Withdrawn:           result.Withdrawn.String(),
		RemainingCollateral: result.RemainingCollateral.String(),
	})
	return "ok"
}

func (s *Server) handleBorrow(w http.ResponseWriter, req *RPCRequest) string {
	var input ownerAmountParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	owner, err := crypto.DecodeAddress(input.Owner)
	if err != nil {
		return s.invalidParams(w, req, "invalid owner address")
	}
	amount, ok := parseAmount(input.Amount)
	if !ok {
		return s.invalidParams(w, req, "invalid amount")
	}
	result, err := s.engine.Borrow(owner, amount)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, borrowResult{
		Borrowed:     result.Borrowed.String(),
		TotalDebt:    result.TotalDebt.String(),
		HealthFactor: result.HealthFactor.String(),
	})
	return "ok"
}

func (s *Server) handleRepay(w http.ResponseWriter, req *RPCRequest) string {
	var input ownerAmountParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	owner, err := crypto.DecodeAddress(input.Owner)
	if err != nil {
		return s.invalidParams(w, req, "invalid owner address")
	}
	amount, ok := parseAmount(input.Amount)
	if !ok {
		return s.invalidParams(w, req, "invalid amount")
	}
	result, err := s.engine.Repay(owner, amount)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, repayResult{
		Repaid:        result.Repaid.String(),
		RemainingDebt: result.RemainingDebt.String(),
	})
	return "ok"
}

// --- liquidation engine ---

func (s *Server) handleLiquidate(w http.ResponseWriter, req *RPCRequest) string {
	var input liquidateParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	liquidator, err := crypto.DecodeAddress(input.Liquidator)
	if err != nil {
		return s.invalidParams(w, req, "invalid liquidator address")
	}
	owner, err := crypto.DecodeAddress(input.Owner)
	if err != nil {
		return s.invalidParams(w, req, "invalid owner address")
	}
	amount, ok := parseAmount(input.Amount)
	if !ok {
		return s.invalidParams(w, req, "invalid amount")
	}
	result, err := s.engine.Liquidate(liquidator, owner, amount)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	observability.Metrics().ObserveLiquidation()
	writeResult(w, req.ID, liquidateResult{
		LiquidationID:    result.ID,
		CollateralSeized: result.CollateralSeized.String(),
		DebtRepaid:       result.DebtRepaid.String(),
		Penalty:          result.Penalty.String(),
	})
	return "ok"
}

// --- collateral bridge gateway ---

func (s *Server) handleRequestDeposit(w http.ResponseWriter, req *RPCRequest) string {
	var input bridgeRequestParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	owner, err := crypto.DecodeAddress(input.Owner)
	if err != nil {
		return s.invalidParams(w, req, "invalid owner address")
	}
	amount, ok := parseAmount(input.Amount)
	if !ok {
		return s.invalidParams(w, req, "invalid amount")
	}
	id, err := s.engine.RequestDeposit(owner, amount, input.ExternalAddress)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, requestIDResult{RequestID: id})
	return "ok"
}

func (s *Server) handleConfirmDeposit(w http.ResponseWriter, req *RPCRequest) string {
	var input operatorActionParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	operator, err := crypto.DecodeAddress(input.Operator)
	if err != nil {
		return s.invalidParams(w, req, "invalid operator address")
	}
	if err := s.engine.ConfirmDeposit(operator, input.RequestID); err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, true)
	return "ok"
}

func (s *Server) handleRequestWithdrawal(w http.ResponseWriter, req *RPCRequest) string {
	var input bridgeRequestParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	owner, err := crypto.DecodeAddress(input.Owner)
	if err != nil {
		return s.invalidParams(w, req, "invalid owner address")
	}
	amount, ok := parseAmount(input.Amount)
	if !ok {
		return s.invalidParams(w, req, "invalid amount")
	}
	id, err := s.engine.RequestWithdrawal(owner, amount, input.ExternalAddress)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, requestIDResult{RequestID: id})
	return "ok"
}

func (s *Server) handleProcessWithdrawal(w http.ResponseWriter, req *RPCRequest) string {
	var input operatorActionParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	operator, err := crypto.DecodeAddress(input.Operator)
	if err != nil {
		return s.invalidParams(w, req, "invalid operator address")
	}
	if err := s.engine.ProcessWithdrawal(operator, input.RequestID); err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, true)
	return "ok"
}

func (s *Server) handleMintDebtAsset(w http.ResponseWriter, req *RPCRequest) string {
	var input ownerAmountParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	owner, err := crypto.DecodeAddress(input.Owner)
	if err != nil {
		return s.invalidParams(w, req, "invalid owner address")
	}
	amount, ok := parseAmount(input.Amount)
	if !ok {
		return s.invalidParams(w, req, "invalid amount")
	}
	result, err := s.engine.MintDebtAsset(owner, amount)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, borrowResult{
		Borrowed:     result.Borrowed.String(),
		TotalDebt:    result.TotalDebt.String(),
		HealthFactor: result.HealthFactor.String(),
	})
	return "ok"
}

func (s *Server) handleBurnDebtAsset(w http.ResponseWriter, req *RPCRequest) string {
	var input ownerAmountParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	owner, err := crypto.DecodeAddress(input.Owner)
	if err != nil {
		return s.invalidParams(w, req, "invalid owner address")
	}
	amount, ok := parseAmount(input.Amount)
	if !ok {
		return s.invalidParams(w, req, "invalid amount")
	}
	result, err := s.engine.BurnDebtAsset(owner, amount)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, repayResult{
		Repaid:        result.Repaid.String(),
		RemainingDebt: result.RemainingDebt.String(),
	})
	return "ok"
}

// --- admin/pause controller ---

func (s *Server) handleSetPrice(w http.ResponseWriter, req *RPCRequest) string {
	var input setPriceParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	caller, err := crypto.DecodeAddress(input.Caller)
	if err != nil {
		return s.invalidParams(w, req, "invalid caller address")
	}
	price, ok := parseAmount(input.Price)
	if !ok {
		return s.invalidParams(w, req, "invalid price")
	}
	updated, err := s.engine.SetPrice(caller, price)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, updated.String())
	return "ok"
}

func (s *Server) handleSetPaused(w http.ResponseWriter, req *RPCRequest) string {
	var input setPausedParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	caller, err := crypto.DecodeAddress(input.Caller)
	if err != nil {
		return s.invalidParams(w, req, "invalid caller address")
	}
	paused, err := s.engine.SetPaused(caller, input.Paused)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, paused)
	return "ok"
}

func (s *Server) handleAddOperator(w http.ResponseWriter, req *RPCRequest) string {
	var input operatorAdminParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	caller, err := crypto.DecodeAddress(input.Caller)
	if err != nil {
		return s.invalidParams(w, req, "invalid caller address")
	}
	operator, err := crypto.DecodeAddress(input.Operator)
	if err != nil {
		return s.invalidParams(w, req, "invalid operator address")
	}
	if err := s.engine.AddOperator(caller, operator); err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, true)
	return "ok"
}

func (s *Server) handleRemoveOperator(w http.ResponseWriter, req *RPCRequest) string {
	var input operatorAdminParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	caller, err := crypto.DecodeAddress(input.Caller)
	if err != nil {
		return s.invalidParams(w, req, "invalid caller address")
	}
	operator, err := crypto.DecodeAddress(input.Operator)
	if err != nil {
		return s.invalidParams(w, req, "invalid operator address")
	}
	if err := s.engine.RemoveOperator(caller, operator); err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, true)
	return "ok"
}

func (s *Server) handleSetClock(w http.ResponseWriter, req *RPCRequest) string {
	var input setClockParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	if err := s.engine.SetClock(input.Clock); err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, input.Clock)
	return "ok"
}

// --- read-only views ---

func (s *Server) handleGetPosition(w http.ResponseWriter, req *RPCRequest) string {
	var input ownerParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	owner, err := crypto.DecodeAddress(input.Owner)
	if err != nil {
		return s.invalidParams(w, req, "invalid owner address")
	}
	position, err := s.engine.Position(owner)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, positionResult{
		Owner:            position.Owner.String(),
		Collateral:       position.Collateral.String(),
		Debt:             position.Debt.String(),
		HealthFactor:     position.HealthFactor.String(),
		LiquidationPrice: position.LiquidationPrice.String(),
		LastUpdateClock:  position.LastUpdateClock,
	})
	return "ok"
}

func (s *Server) handleGetHealthFactor(w http.ResponseWriter, req *RPCRequest) string {
	var input ownerParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	owner, err := crypto.DecodeAddress(input.Owner)
	if err != nil {
		return s.invalidParams(w, req, "invalid owner address")
	}
	health, err := s.engine.PositionHealth(owner)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, health.String())
	return "ok"
}

func (s *Server) handleGetCollateralRatio(w http.ResponseWriter, req *RPCRequest) string {
	var input ownerParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	owner, err := crypto.DecodeAddress(input.Owner)
	if err != nil {
		return s.invalidParams(w, req, "invalid owner address")
	}
	ratio, err := s.engine.PositionRatio(owner)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, ratio.String())
	return "ok"
}

func (s *Server) handleGetLiquidatable(w http.ResponseWriter, req *RPCRequest) string {
	var input ownerParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	owner, err := crypto.DecodeAddress(input.Owner)
	if err != nil {
		return s.invalidParams(w, req, "invalid owner address")
	}
	liquidatable, err := s.engine.Liquidatable(owner)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, liquidatable)
	return "ok"
}

func (s *Server) handleGetMaxBorrowable(w http.ResponseWriter, req *RPCRequest) string {
	var input ownerParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	owner, err := crypto.DecodeAddress(input.Owner)
	if err != nil {
		return s.invalidParams(w, req, "invalid owner address")
	}
	max, err := s.engine.MaxBorrowableFor(owner)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, max.String())
	return "ok"
}

func (s *Server) handleGetStats(w http.ResponseWriter, req *RPCRequest) string {
	if len(req.Params) != 0 {
		return s.invalidParams(w, req, "no parameters expected")
	}
	stats, err := s.engine.Stats()
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, statsResult{
		Paused:            stats.Paused,
		TotalCollateral:   stats.TotalCollateral.String(),
		TotalDebt:         stats.TotalDebt.String(),
		Price:             stats.Price.String(),
		PriceUpdatedClock: stats.PriceUpdatedClock,
		Clock:             stats.Clock,
		PriceFresh:        stats.PriceFresh,
		ReservePool:       stats.ReservePool.String(),
		LiquidationCount:  stats.LiquidationCount,
	})
	return "ok"
}

func (s *Server) handleGetBridgeRequest(w http.ResponseWriter, req *RPCRequest) string {
	var input bridgeLookupParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	kind, ok := parseRequestKind(input.Kind)
	if !ok {
		return s.invalidParams(w, req, "kind must be deposit or withdrawal")
	}
	request, err := s.engine.BridgeRequestByID(kind, input.RequestID)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, bridgeRequestResult{
		RequestID:       request.ID,
		Kind:            requestKindString(request.Kind),
		Owner:           request.Owner.String(),
		Amount:          request.Amount.String(),
		ExternalAddress: request.ExternalAddress,
		Status:          requestStatusString(request.Status),
		CreatedAtClock:  request.CreatedAtClock,
	})
	return "ok"
}

func (s *Server) handleGetLiquidationRecord(w http.ResponseWriter, req *RPCRequest) string {
	var input recordLookupParams
	if err := decodeParams(req, &input); err != nil {
		return s.invalidParams(w, req, err.Error())
	}
	record, err := s.engine.LiquidationRecordByID(input.ID)
	if err != nil {
		return s.writeEngineError(w, req, err)
	}
	writeResult(w, req.ID, liquidationRecordResult{
		ID:               record.ID,
		Owner:            record.Owner.String(),
		Liquidator:       record.Liquidator.String(),
		CollateralSeized: record.CollateralSeized.String(),
		DebtRepaid:       record.DebtRepaid.String(),
		Clock:            record.Clock,
	})
	return "ok"
}

func parseRequestKind(value string) (lending.RequestKind, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "deposit":
		return lending.RequestDeposit, true
	case "withdrawal", "withdraw":
		return lending.RequestWithdrawal, true
	default:
		return 0, false
	}
}

func requestKindString(kind lending.RequestKind) string {
	if kind == lending.RequestWithdrawal {
		return "withdrawal"
	}
	return "deposit"
}

func requestStatusString(status lending.RequestStatus) string {
	switch status {
	case lending.StatusConfirmed:
		return "confirmed"
	case lending.StatusProcessed:
		return "processed"
	default:
		return "pending"
	}
}
