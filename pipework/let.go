package pipework

import (
	"fmt"

	"github.com/apparentlymart/go-pipework/resource"
)

// let is the part of an endpoint shared by inlets and outlets: the resource
// it locks and the arena that resource lives in.
type let struct {
	arena *resource.Arena
	res   resource.Identifier
}

func newLet(arena *resource.Arena) let {
	return let{
		arena: arena,
		res:   arena.NewIdentifier(),
	}
}

func (l *let) lock() *resource.Group {
	return l.arena.Acquire(l.res)
}

func (l *let) lockWith(other *let) *resource.Group {
	return l.arena.Acquire(l.res, other.res)
}

// locked reports whether some group currently holds the endpoint's domain.
// It does not know whether that group belongs to the caller.
func (l *let) locked() bool {
	return l.res.Root().IsAcquired()
}

// unlock frees a group taken by lock or lockWith. Those groups are only
// ever freed once, by the goroutine that took them, so a failure here is a
// bug in this package.
func unlock(g *resource.Group) {
	if err := g.Free(); err != nil {
		panic(fmt.Sprintf("releasing endpoint lock: %s", err))
	}
}
