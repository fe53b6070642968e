package lending

import "errors"

var (
	errNilState             = errors.New("lending engine: state not configured")
	errCustodyNotConfigured = errors.New("lending engine: token custody not configured")

	// ErrUnauthorized rejects owner- or operator-gated calls from other
	// identities.
	ErrUnauthorized = errors.New("lending engine: caller not authorized")
	// ErrInvalidAmount rejects zero or effectively-zero amounts.
	ErrInvalidAmount = errors.New("lending engine: amount must be positive")
	// ErrInvalidAddress rejects malformed external custody addresses.
	ErrInvalidAddress = errors.New("lending engine: invalid external address")
	// ErrInsufficientCollateral covers both direct collateral shortfalls and
	// borrows that would push the health factor below one.
	ErrInsufficientCollateral = errors.New("lending engine: insufficient collateral")
	// ErrPositionNotFound is returned when the owner has never deposited.
	ErrPositionNotFound = errors.New("lending engine: position not found")
	// ErrRequestNotFound is returned for missing or already-terminal bridge
	// requests.
	ErrRequestNotFound = errors.New("lending engine: bridge request not found or not pending")
	// ErrUnhealthyPosition rejects withdrawals that would leave the position
	// below the solvency line.
	ErrUnhealthyPosition = errors.New("lending engine: withdrawal would leave position unhealthy")
	// ErrNotLiquidatable rejects liquidation of solvent positions.
	ErrNotLiquidatable = errors.New("lending engine: position not eligible for liquidation")
	// ErrPriceStale blocks risk-sensitive operations when the oracle has not
	// been refreshed within the freshness window.
	ErrPriceStale = errors.New("lending engine: oracle price is stale")
	// ErrCollateralRatioTooLow rejects bridge withdrawal requests from
	// indebted accounts that would drop below the minimum ratio.
	ErrCollateralRatioTooLow = errors.New("lending engine: collateral ratio below minimum")
)
