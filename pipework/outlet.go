package pipework

import (
	"context"
	"time"

	"github.com/apparentlymart/go-pipework/resource"
)

// Outlet is the endpoint through which messages of type T leave a pipe.
//
// An outlet that is not wired delivers messages directly to callers of its
// receive methods. Once wired to a downstream [Inlet] with [Connect],
// messages only leave through that inlet and direct receives fail with
// [ErrWired].
type Outlet[T any] struct {
	let
	owner ownerCell[OutletOwner[T]]

	// Guarded by the domain lock.
	peer      *Inlet[T]
	receivers waitQueue[T]
}

var _ Endpoint = (*Outlet[int])(nil)

// NewOutlet returns an unowned outlet whose resource lives in arena.
func NewOutlet[T any](arena *resource.Arena) *Outlet[T] {
	return &Outlet[T]{
		let: newLet(arena),
	}
}

// SetOwner records the pipe that owns the outlet. It can only be called
// once.
func (out *Outlet[T]) SetOwner(owner OutletOwner[T]) error {
	if !out.owner.set(owner) {
		return ErrOwnerAlreadySet
	}
	return nil
}

// Owner implements [Endpoint].
func (out *Outlet[T]) Owner() Pipe {
	return out.owner.pipe()
}

// Resource implements [Endpoint].
func (out *Outlet[T]) Resource() resource.Identifier {
	return out.res
}

// CanConnect implements [Endpoint].
func (out *Outlet[T]) CanConnect() bool {
	g := out.lock()
	defer unlock(g)
	return out.canConnect()
}

// IsWired implements [Endpoint].
func (out *Outlet[T]) IsWired() bool {
	g := out.lock()
	defer unlock(g)
	return out.peer != nil
}

// Pending returns the number of receivers currently parked on the outlet.
func (out *Outlet[T]) Pending() int {
	g := out.lock()
	defer unlock(g)
	return out.receivers.len()
}

// Receive takes a message from a sender, waiting for as long as it takes
// for one to become ready or until ctx is done.
func (out *Outlet[T]) Receive(ctx context.Context) (T, error) {
	return out.receive(waitForever(ctx))
}

// ReceiveTimeout is like [Outlet.Receive] but gives up with [ErrTimeout]
// once timeout has elapsed. A negative timeout fails with
// [ErrNegativeTimeout] without doing anything else.
func (out *Outlet[T]) ReceiveTimeout(timeout time.Duration) (T, error) {
	deadline, err := deadlineAfter(timeout)
	if err != nil {
		var zero T
		return zero, err
	}
	return out.receive(waitUntil(deadline))
}

// TryReceive takes a message only if a sender is ready right now, and
// otherwise fails with [ErrUnavailable].
func (out *Outlet[T]) TryReceive() (T, error) {
	return out.receive(waitNever)
}

// FindReceiver reports who would receive a message leaving through this
// outlet right now: the downstream pipe if the outlet is wired, or else the
// earliest parked receiver. It returns nil if nobody is ready.
//
// This is for use by the outlet's owning pipe while it answers a lookup, and
// carries the same [ErrNotLocked] check as [Inlet.FindSender].
func (out *Outlet[T]) FindReceiver() (Receiver[T], error) {
	if !out.locked() {
		return nil, ErrNotLocked
	}
	return out.findReceiver()
}

func (out *Outlet[T]) findReceiver() (Receiver[T], error) {
	if out.peer != nil {
		downstream, ok := out.peer.owner.get()
		if !ok {
			return nil, ErrNoOwner
		}
		return downstream.FindReceiver(out.peer, true)
	}
	w := out.receivers.front()
	if w == nil {
		return nil, nil
	}
	return func(msg T) {
		out.receivers.remove(w)
		w.msg = msg
		w.complete()
	}, nil
}

func (out *Outlet[T]) receive(wait waitFunc) (T, error) {
	var zero T
	owner, ok := out.owner.get()
	if !ok {
		return zero, ErrNoOwner
	}

	msg, w, err := out.take(owner)
	if err != nil || w == nil {
		return msg, err
	}

	err = wait(w.done)
	if err == nil {
		return w.msg, nil
	}

	g := out.lock()
	defer unlock(g)
	if w.completed {
		return w.msg, nil
	}
	out.receivers.remove(w)
	countWaitFailure(err)
	return zero, err
}

// take receives from a ready sender, or else parks a receiver and returns
// the waiter to block on.
func (out *Outlet[T]) take(owner OutletOwner[T]) (T, *waiter[T], error) {
	var zero T
	g := out.lock()
	defer unlock(g)
	if out.peer != nil {
		return zero, nil, ErrWired
	}
	send, err := owner.FindSender(out, true)
	if err != nil {
		return zero, nil, err
	}
	if send != nil {
		msg := send()
		handoffsCounter.WithLabelValues("receive").Inc()
		return msg, nil, nil
	}
	w := newWaiter(zero)
	out.receivers.push(w)
	return zero, w, nil
}

func (out *Outlet[T]) canConnect() bool {
	return out.peer == nil && out.receivers.len() == 0
}

func (out *Outlet[T]) peerEndpoint() Endpoint {
	if out.peer == nil {
		return nil
	}
	return out.peer
}
