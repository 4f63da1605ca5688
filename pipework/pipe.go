package pipework

import (
	"github.com/apparentlymart/go-pipework/resource"
)

// Receiver accepts one message on behalf of whichever party was found ready
// to receive it. It must be called at most once, and only while the lock
// under which it was found is still held.
type Receiver[T any] func(msg T)

// Sender produces one message from whichever party was found ready to send
// it. The same restrictions as for [Receiver] apply.
type Sender[T any] func() T

// Pipe is the type-erased view of a pipe that the wiring operations use to
// walk the pipe graph.
//
// Implementations must be pointer types, since pipes are compared by
// identity, and every endpoint a pipe forwards between must share a single
// resource domain so that one lock covers a lookup through the pipe.
type Pipe interface {
	Inlets() []Endpoint
	Outlets() []Endpoint

	// SharedResource returns an identifier in the pipe's resource domain,
	// used by composites to join sub-pipes into a bigger domain.
	SharedResource() resource.Identifier
}

// InletOwner is implemented by pipes that own inlets carrying T.
type InletOwner[T any] interface {
	Pipe

	// FindReceiver reports who would receive a message arriving at in right
	// now, or nil if nobody is ready. It must only be called while in's
	// domain is locked. With checkMembership set, an inlet that does not
	// belong to the pipe is reported as [ErrNotMember].
	FindReceiver(in *Inlet[T], checkMembership bool) (Receiver[T], error)
}

// OutletOwner is implemented by pipes that own outlets carrying T.
type OutletOwner[T any] interface {
	Pipe

	// FindSender reports who would send a message leaving through out right
	// now, or nil if nobody is ready. The same restrictions as for
	// [InletOwner.FindReceiver] apply.
	FindSender(out *Outlet[T], checkMembership bool) (Sender[T], error)
}

// BindInlet adapts a lookup function into an [InletOwner] for pipes that own
// inlets of more than one element type and so cannot implement FindReceiver
// as a method for all of them.
func BindInlet[T any](p Pipe, find func(in *Inlet[T], checkMembership bool) (Receiver[T], error)) InletOwner[T] {
	return &boundInlet[T]{Pipe: p, find: find}
}

// BindOutlet is the [OutletOwner] counterpart of [BindInlet].
func BindOutlet[T any](p Pipe, find func(out *Outlet[T], checkMembership bool) (Sender[T], error)) OutletOwner[T] {
	return &boundOutlet[T]{Pipe: p, find: find}
}

type boundInlet[T any] struct {
	Pipe
	find func(*Inlet[T], bool) (Receiver[T], error)
}

func (b *boundInlet[T]) FindReceiver(in *Inlet[T], checkMembership bool) (Receiver[T], error) {
	return b.find(in, checkMembership)
}

func (b *boundInlet[T]) boundPipe() Pipe {
	return b.Pipe
}

type boundOutlet[T any] struct {
	Pipe
	find func(*Outlet[T], bool) (Sender[T], error)
}

func (b *boundOutlet[T]) FindSender(out *Outlet[T], checkMembership bool) (Sender[T], error) {
	return b.find(out, checkMembership)
}

func (b *boundOutlet[T]) boundPipe() Pipe {
	return b.Pipe
}

// pipeOf returns the pipe an owner stands for, seeing through the adapters
// made by BindInlet and BindOutlet.
func pipeOf(p Pipe) Pipe {
	if b, ok := p.(interface{ boundPipe() Pipe }); ok {
		return b.boundPipe()
	}
	return p
}

// Endpoint is the type-erased view shared by every [Inlet] and [Outlet].
type Endpoint interface {
	// Owner returns the pipe the endpoint belongs to, or nil if it has not
	// been given one yet.
	Owner() Pipe

	// Resource returns the identifier the endpoint locks.
	Resource() resource.Identifier

	// CanConnect reports whether the endpoint could be wired right now: it
	// is not already wired and has no waiting parties.
	CanConnect() bool

	// IsWired reports whether the endpoint is wired to a peer.
	IsWired() bool

	// peerEndpoint returns the wired peer, or nil. The caller must hold
	// the endpoint's domain.
	peerEndpoint() Endpoint
}
