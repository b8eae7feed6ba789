package commands

import (
	dashboard "github.com/goliatone/go-brandboard/components/dashboard"
)

// EditGuard reports whether the current session may mutate the layout.
// Mutating commands consult it before touching the service; the store itself
// stays a consistency boundary, not a permission boundary.
type EditGuard interface {
	CanEdit() bool
}

type allowAll struct{}

func (allowAll) CanEdit() bool { return true }

func normalizeGuard(g EditGuard) EditGuard {
	if g == nil {
		return allowAll{}
	}
	return g
}

func checkEdit(g EditGuard) error {
	if !g.CanEdit() {
		return dashboard.ErrReadOnly
	}
	return nil
}
