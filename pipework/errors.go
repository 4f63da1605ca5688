package pipework

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches exactly one of
// these with [errors.Is], except for ownership violations reported by
// package resource.
var (
	// ErrInvalidTopology reports a connect or disconnect that would leave the
	// pipe graph in an invalid shape. Nothing is changed when it is returned.
	ErrInvalidTopology = errors.New("pipework: invalid topology")

	// ErrInvalidState reports an endpoint or pipe used in a way its current
	// state does not allow.
	ErrInvalidState = errors.New("pipework: invalid state")

	// ErrTimeout is returned by the timed send and receive variants once
	// their duration elapses without a counterpart.
	ErrTimeout = errors.New("pipework: timed out waiting for a counterpart")

	// ErrCanceled is returned by [Inlet.Send] and [Outlet.Receive] when
	// their context is done first. The context's own error is wrapped too.
	ErrCanceled = errors.New("pipework: wait canceled")

	// ErrUnavailable is returned by [Inlet.TrySend] and [Outlet.TryReceive]
	// when no counterpart is ready.
	ErrUnavailable = errors.New("pipework: no counterpart ready")

	// ErrArgument reports an argument outside its valid range. It is always
	// returned before any locking.
	ErrArgument = errors.New("pipework: argument out of range")
)

var (
	ErrNegativeTimeout = fmt.Errorf("%w: negative timeout", ErrArgument)

	ErrWired         = fmt.Errorf("%w: endpoint is wired to a peer and cannot be used directly", ErrInvalidTopology)
	ErrBusy          = fmt.Errorf("%w: endpoint is already wired or has waiting parties", ErrInvalidTopology)
	ErrNotConnected  = fmt.Errorf("%w: endpoints are not connected to each other", ErrInvalidTopology)
	ErrArenaMismatch = fmt.Errorf("%w: endpoints belong to different arenas", ErrInvalidTopology)

	ErrNoOwner         = fmt.Errorf("%w: endpoint has no owning pipe", ErrInvalidState)
	ErrOwnerAlreadySet = fmt.Errorf("%w: endpoint already has an owning pipe", ErrInvalidState)
	ErrNotMember       = fmt.Errorf("%w: endpoint does not belong to this pipe", ErrInvalidState)
	ErrNotLocked       = fmt.Errorf("%w: endpoint's domain is not locked", ErrInvalidState)
)

// ErrCycle is returned by [Connect] when wiring the two endpoints would make
// the pipe graph cyclic. The endpoints are left unwired.
type ErrCycle struct {
	Inlet  Endpoint
	Outlet Endpoint
}

func (err ErrCycle) Error() string {
	return "pipework: connection would create a cycle in the pipe graph"
}

// Is reports this error as an [ErrInvalidTopology] kind.
func (err ErrCycle) Is(target error) bool {
	return target == ErrInvalidTopology
}
