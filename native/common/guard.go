package common

import "errors"

// ErrModulePaused rejects ledger mutations while the owner has halted the
// module.
var ErrModulePaused = errors.New("ledger module paused")

// PauseView reports the pause flag for a named module. The lending protocol
// state satisfies it directly.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard fails with ErrModulePaused when the named module is halted. A nil
// view or empty module name means no gating.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
