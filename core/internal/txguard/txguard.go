// Package txguard runs code against a world transaction that may already have
// finished. Host player values are only valid inside the transaction that
// produced them, so a facade holding on to one between ticks must treat a
// finished transaction as "player unavailable" rather than crash.
package txguard

import "github.com/df-mc/dragonfly/server/world"

// closedPanic is the panic value Dragonfly raises when a finished transaction
// is used.
const closedPanic = "world.Tx: use of transaction after transaction finishes is not permitted"

// Run calls fn and reports false if tx is nil or has already finished. Other
// panics are propagated.
func Run(tx *world.Tx, fn func()) bool {
	if tx == nil {
		return false
	}
	return guard(fn)
}

// Value calls fn and returns its result. ok is false, and value the zero
// value, if tx is nil or has already finished.
func Value[T any](tx *world.Tx, fn func() T) (value T, ok bool) {
	ok = Run(tx, func() {
		value = fn()
	})
	if !ok {
		var zero T
		value = zero
	}
	return
}

func guard(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if msg, str := r.(string); str && msg == closedPanic {
				ok = false
				return
			}
			panic(r)
		}
	}()
	fn()
	return true
}
