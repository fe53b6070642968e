package rpc

import (
	"errors"
	"net/http"

	"btclend/native/lending"
	nativecommon "btclend/native/common"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errBadToken     = errors.New("invalid bearer token")
)

// Engine-specific JSON-RPC error codes, beyond the standard range.
const (
	codeNotFound          = -32004
	codeMarketPaused      = -32030
	codePriceStale        = -32031
	codeInsufficientFunds = -32032
	codeUnhealthy         = -32033
	codeNotLiquidatable   = -32034
	codeRatioTooLow       = -32035
)

// translateEngineError maps an engine failure onto an HTTP status and a
// JSON-RPC error code. Every engine error is a precondition failure with no
// state change, so callers can retry with corrected inputs.
func translateEngineError(err error) (int, int) {
	switch {
	case errors.Is(err, lending.ErrUnauthorized):
		return http.StatusUnauthorized, codeUnauthorized
	case errors.Is(err, lending.ErrInvalidAmount), errors.Is(err, lending.ErrInvalidAddress):
		return http.StatusBadRequest, codeInvalidParams
	case errors.Is(err, lending.ErrPositionNotFound), errors.Is(err, lending.ErrRequestNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, nativecommon.ErrModulePaused):
		return http.StatusConflict, codeMarketPaused
	case errors.Is(err, lending.ErrPriceStale):
		return http.StatusConflict, codePriceStale
	case errors.Is(err, lending.ErrInsufficientCollateral):
		return http.StatusConflict, codeInsufficientFunds
	case errors.Is(err, lending.ErrUnhealthyPosition):
		return http.StatusConflict, codeUnhealthy
	case errors.Is(err, lending.ErrNotLiquidatable):
		return http.StatusConflict, codeNotLiquidatable
	case errors.Is(err, lending.ErrCollateralRatioTooLow):
		return http.StatusConflict, codeRatioTooLow
	default:
		return http.StatusInternalServerError, codeServerError
	}
}
