package resource

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultGatewayThreshold is the number of consecutive wasted acquisitions
// after which a group closes its arena's [Gateway].
const DefaultGatewayThreshold = 100

// Arena owns every [Identifier] node that its groups and endpoints use,
// along with the [Gateway] that all of its acquisitions pass through.
//
// Identifiers from different arenas must never be mixed in the same call;
// doing so panics.
type Arena struct {
	gateway   *Gateway
	threshold int
	logger    *zap.Logger

	// grow serializes allocation. Readers never take it: they load the
	// current node table atomically, and a node is always published
	// before any identifier referring to it can escape.
	grow  sync.Mutex
	nodes atomic.Pointer[[]*node]
}

// Option customizes an [Arena] created by [NewArena].
type Option func(*Arena)

// WithGateway makes the arena share an existing gateway, rather than
// creating its own.
func WithGateway(gw *Gateway) Option {
	return func(a *Arena) {
		a.gateway = gw
	}
}

// WithGatewayThreshold overrides [DefaultGatewayThreshold]. Values below one
// are ignored.
func WithGatewayThreshold(n int) Option {
	return func(a *Arena) {
		if n > 0 {
			a.threshold = n
		}
	}
}

// WithLogger sets the logger used for diagnostics about gateway closures and
// domain changes. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Arena) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewArena returns an empty arena.
func NewArena(opts ...Option) *Arena {
	a := &Arena{
		threshold: DefaultGatewayThreshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.gateway == nil {
		a.gateway = NewGateway()
	}
	empty := make([]*node, 0, 64)
	a.nodes.Store(&empty)
	return a
}

// Gateway returns the gateway all acquisitions in this arena pass through.
func (a *Arena) Gateway() *Gateway {
	return a.gateway
}

// Logger returns the arena's logger, so that higher layers built on the
// arena can log consistently.
func (a *Arena) Logger() *zap.Logger {
	return a.logger
}

// NewIdentifier returns a fresh identifier with order key zero that is the
// root of its own single-member domain.
func (a *Arena) NewIdentifier() Identifier {
	return a.alloc(0)
}

// NewIdentifierAbove returns a fresh root identifier ordered strictly after
// the current roots of all of the given identifiers. With no arguments it
// is equivalent to [Arena.NewIdentifier].
func (a *Arena) NewIdentifierAbove(others ...Identifier) Identifier {
	var order uint64
	for i, other := range others {
		a.check(other)
		if o := other.Root().Order() + 1; i == 0 || o > order {
			order = o
		}
	}
	return a.alloc(order)
}

// NewGroup returns a group that holds nothing yet.
func (a *Arena) NewGroup() *Group {
	return &Group{arena: a}
}

// Acquire returns a group holding the domains of all of the given
// identifiers, blocking until every one of them is available.
func (a *Arena) Acquire(ids ...Identifier) *Group {
	for _, id := range ids {
		a.check(id)
	}
	g := a.NewGroup()
	if len(ids) > 0 {
		g.acquire(ids)
	}
	return g
}

func (a *Arena) alloc(order uint64) Identifier {
	a.grow.Lock()
	defer a.grow.Unlock()

	nodes := *a.nodes.Load()
	index := int64(len(nodes))
	n := &node{order: order}
	n.parent.Store(index)
	// Appending either writes past the end of the slice that concurrent
	// readers can see or copies into a new array, so readers of the old
	// table are never disturbed.
	nodes = append(nodes, n)
	a.nodes.Store(&nodes)
	return Identifier{arena: a, index: index}
}

func (a *Arena) node(index int64) *node {
	return (*a.nodes.Load())[index]
}

func (a *Arena) check(id Identifier) {
	if id.arena != a {
		panic(fmt.Sprintf("identifier %s does not belong to arena %p", id, a))
	}
}

// node is the arena-resident state of one identifier.
type node struct {
	// order is assigned at allocation and never changes afterwards.
	order uint64

	// mu is the binary ownership lock. It is locked by one goroutine's
	// group and may be unlocked by whichever goroutine frees that group.
	mu     sync.Mutex
	holder atomic.Pointer[Group]

	// parent is the index of the parent node, or the node's own index when
	// it is a root.
	parent atomic.Int64

	// links counts direct connections to other nodes. It is only accessed
	// by a group holding this node's root.
	links map[int64]int
}

func (n *node) link(peer int64) {
	if n.links == nil {
		n.links = make(map[int64]int)
	}
	n.links[peer]++
}

func (n *node) unlink(peer int64) bool {
	count, ok := n.links[peer]
	if !ok {
		return false
	}
	if count <= 1 {
		delete(n.links, peer)
	} else {
		n.links[peer] = count - 1
	}
	return true
}
