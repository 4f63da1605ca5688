package pipework

import (
	"context"
	"time"

	"github.com/apparentlymart/go-pipework/resource"
)

// Inlet is the endpoint through which messages of type T enter a pipe.
//
// An inlet that is not wired accepts messages directly from callers of its
// send methods. Once wired to an upstream [Outlet] with [Connect], messages
// only arrive through that outlet and direct sends fail with [ErrWired].
type Inlet[T any] struct {
	let
	owner ownerCell[InletOwner[T]]

	// Guarded by the domain lock.
	peer    *Outlet[T]
	senders waitQueue[T]
}

var _ Endpoint = (*Inlet[int])(nil)

// NewInlet returns an unowned inlet whose resource lives in arena. Pipes
// create their inlets this way and then call [Inlet.SetOwner] once the pipe
// itself exists.
func NewInlet[T any](arena *resource.Arena) *Inlet[T] {
	return &Inlet[T]{
		let: newLet(arena),
	}
}

// SetOwner records the pipe that owns the inlet. It can only be called
// once.
func (in *Inlet[T]) SetOwner(owner InletOwner[T]) error {
	if !in.owner.set(owner) {
		return ErrOwnerAlreadySet
	}
	return nil
}

// Owner implements [Endpoint].
func (in *Inlet[T]) Owner() Pipe {
	return in.owner.pipe()
}

// Resource implements [Endpoint].
func (in *Inlet[T]) Resource() resource.Identifier {
	return in.res
}

// CanConnect implements [Endpoint].
func (in *Inlet[T]) CanConnect() bool {
	g := in.lock()
	defer unlock(g)
	return in.canConnect()
}

// IsWired implements [Endpoint].
func (in *Inlet[T]) IsWired() bool {
	g := in.lock()
	defer unlock(g)
	return in.peer != nil
}

// Pending returns the number of senders currently parked on the inlet.
func (in *Inlet[T]) Pending() int {
	g := in.lock()
	defer unlock(g)
	return in.senders.len()
}

// Send hands msg to a receiver, waiting for as long as it takes for one to
// become ready or until ctx is done.
//
// A message that was delivered is never reported as failed, even if ctx
// became done at the same moment.
func (in *Inlet[T]) Send(ctx context.Context, msg T) error {
	return in.send(msg, waitForever(ctx))
}

// SendTimeout is like [Inlet.Send] but gives up with [ErrTimeout] once
// timeout has elapsed. A negative timeout fails with [ErrNegativeTimeout]
// without doing anything else.
func (in *Inlet[T]) SendTimeout(msg T, timeout time.Duration) error {
	deadline, err := deadlineAfter(timeout)
	if err != nil {
		return err
	}
	return in.send(msg, waitUntil(deadline))
}

// TrySend hands msg to a receiver only if one is ready right now, and
// otherwise fails with [ErrUnavailable].
func (in *Inlet[T]) TrySend(msg T) error {
	return in.send(msg, waitNever)
}

// FindSender reports who would send a message arriving at this inlet right
// now: the upstream pipe if the inlet is wired, or else the earliest parked
// sender. It returns nil if nobody is ready.
//
// This is for use by the inlet's owning pipe while it answers a lookup, that
// is while the domain is held on its behalf. It fails with [ErrNotLocked]
// if nobody holds the inlet's domain, but cannot tell which group holds it,
// so that check only catches calls made outside of any lookup.
func (in *Inlet[T]) FindSender() (Sender[T], error) {
	if !in.locked() {
		return nil, ErrNotLocked
	}
	return in.findSender()
}

func (in *Inlet[T]) findSender() (Sender[T], error) {
	if in.peer != nil {
		upstream, ok := in.peer.owner.get()
		if !ok {
			return nil, ErrNoOwner
		}
		return upstream.FindSender(in.peer, true)
	}
	w := in.senders.front()
	if w == nil {
		return nil, nil
	}
	return func() T {
		in.senders.remove(w)
		w.complete()
		return w.msg
	}, nil
}

func (in *Inlet[T]) send(msg T, wait waitFunc) error {
	owner, ok := in.owner.get()
	if !ok {
		return ErrNoOwner
	}

	w, err := in.offer(owner, msg)
	if err != nil || w == nil {
		return err
	}

	err = wait(w.done)
	if err == nil {
		return nil
	}

	// We gave up waiting, but a receiver may have taken the message in the
	// meantime. That counts as success.
	g := in.lock()
	defer unlock(g)
	if w.completed {
		return nil
	}
	in.senders.remove(w)
	countWaitFailure(err)
	return err
}

// offer hands msg to a ready receiver, or else parks it and returns the
// waiter to block on.
func (in *Inlet[T]) offer(owner InletOwner[T], msg T) (*waiter[T], error) {
	g := in.lock()
	defer unlock(g)
	if in.peer != nil {
		return nil, ErrWired
	}
	receive, err := owner.FindReceiver(in, true)
	if err != nil {
		return nil, err
	}
	if receive != nil {
		receive(msg)
		handoffsCounter.WithLabelValues("send").Inc()
		return nil, nil
	}
	w := newWaiter(msg)
	in.senders.push(w)
	return w, nil
}

func (in *Inlet[T]) canConnect() bool {
	return in.peer == nil && in.senders.len() == 0
}

func (in *Inlet[T]) peerEndpoint() Endpoint {
	if in.peer == nil {
		return nil
	}
	return in.peer
}
