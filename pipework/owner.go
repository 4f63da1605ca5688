package pipework

import (
	"sync/atomic"
)

// ownerCell is a write-once reference from an endpoint to the pipe that
// owns it.
//
// Endpoints have to exist before the pipe that owns them can be built, so
// the reference is filled in exactly once afterwards rather than at
// construction.
type ownerCell[P Pipe] struct {
	owner atomic.Pointer[P]
}

// set stores p if no owner has been set yet, reporting whether it did.
func (c *ownerCell[P]) set(p P) bool {
	return c.owner.CompareAndSwap(nil, &p)
}

func (c *ownerCell[P]) get() (P, bool) {
	ptr := c.owner.Load()
	if ptr == nil {
		var zero P
		return zero, false
	}
	return *ptr, true
}

// pipe returns the owner as an untyped pipe, or nil while unset.
func (c *ownerCell[P]) pipe() Pipe {
	p, ok := c.get()
	if !ok {
		return nil
	}
	return pipeOf(p)
}
