package lending

// The collateral price is pushed by the owner and consumed here as a
// timestamped value; aggregation and fallback logic live with the price
// source, not in this module.

// priceFresh reports whether the last price push happened within the
// freshness window measured in logical ticks. A price that was never pushed
// is never fresh.
func priceFresh(state *ProtocolState, window uint64) bool {
	if state == nil || state.Price == nil || state.Price.Sign() <= 0 {
		return false
	}
	if state.Clock < state.PriceUpdatedClock {
		return true
	}
	return state.Clock-state.PriceUpdatedClock < window
}

// requireFreshPrice is the gate applied by every debt- or risk-affecting
// operation. Deposits are exempt: collateral-only increases never worsen a
// position, so they may proceed on a stale price.
func (e *Engine) requireFreshPrice(state *ProtocolState) error {
	if !priceFresh(state, e.params.FreshnessWindow) {
		return ErrPriceStale
	}
	return nil
}
