package resource

import (
	"fmt"
)

// Identifier is a comparable handle to a lock token in an [Arena].
//
// Every identifier belongs to exactly one domain at a time, represented by
// the domain's root identifier. Holding the root's lock grants exclusive
// access to every identifier in the domain. The zero Identifier is not a
// valid token.
type Identifier struct {
	arena *Arena
	index int64
}

// Equal returns true if other is the same [Identifier] as the receiver.
//
// This is equivalent to using the "==" operator to compare two values, but
// is implemented here to work better with libraries like Google's "go-cmp"
// which try to perform deep comparison when no Equal method is present.
func (id Identifier) Equal(other Identifier) bool {
	return id == other
}

// IsZero reports whether id is the zero value, which does not refer to any
// node.
func (id Identifier) IsZero() bool {
	return id.arena == nil
}

// String returns a human-oriented representation of the identifier.
//
// This is intended for debug messages only. Identifier is comparable and so
// can act as its own map key.
func (id Identifier) String() string {
	if id.IsZero() {
		return "<none>"
	}
	return fmt.Sprintf("#%d@%d", id.index, id.node().order)
}

func (id Identifier) GoString() string {
	return fmt.Sprintf("resource.Identifier(%s)", id.String())
}

// Order returns the identifier's order key.
func (id Identifier) Order() uint64 {
	return id.node().order
}

// Less reports whether id comes before other in the global acquisition
// order: by order key, then by allocation index.
func (id Identifier) Less(other Identifier) bool {
	a, b := id.node().order, other.node().order
	if a != b {
		return a < b
	}
	return id.index < other.index
}

// Root returns the current root of the identifier's domain.
//
// Unless the caller holds the domain, the result may already be stale by
// the time Root returns.
func (id Identifier) Root() Identifier {
	n := id.node()
	first := n.parent.Load()
	if first == id.index {
		return id
	}
	root := first
	for {
		next := id.arena.node(root).parent.Load()
		if next == root {
			break
		}
		root = next
	}
	if root != first {
		// Compare-and-swap so that we never overwrite a reassignment made
		// by a concurrent split after we loaded first.
		n.parent.CompareAndSwap(first, root)
	}
	return Identifier{arena: id.arena, index: root}
}

// IsRoot reports whether the identifier currently represents its own
// domain.
func (id Identifier) IsRoot() bool {
	return id.node().parent.Load() == id.index
}

// IsAcquired reports whether some group currently holds this identifier's
// own lock. It does not consider the identifier's root.
func (id Identifier) IsAcquired() bool {
	return id.node().holder.Load() != nil
}

// HeldBy reports whether g currently holds the domain that id belongs to.
func (id Identifier) HeldBy(g *Group) bool {
	if g == nil {
		return false
	}
	return id.Root().node().holder.Load() == g
}

func (id Identifier) node() *node {
	return id.arena.node(id.index)
}

func (id Identifier) acquire(g *Group) {
	n := id.node()
	n.mu.Lock()
	n.holder.Store(g)
}

func (id Identifier) free(g *Group) error {
	n := id.node()
	if n.holder.Load() != g {
		return ErrNotHolder{Resource: id}
	}
	n.holder.Store(nil)
	n.mu.Unlock()
	return nil
}

func (id Identifier) setParent(parent Identifier) error {
	pn := parent.node()
	if pn.parent.Load() != parent.index {
		return ErrInvalidParent{Child: id, Parent: parent, Reason: "new parent is not a root"}
	}
	if pn.order < id.node().order {
		return ErrInvalidParent{Child: id, Parent: parent, Reason: "new parent is ordered before the child"}
	}
	id.node().parent.Store(parent.index)
	return nil
}
