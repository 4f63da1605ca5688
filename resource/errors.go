package resource

import (
	"errors"
	"fmt"
)

// ErrOwnership is the kind shared by all errors reporting that a caller used
// a resource or group it does not hold. Test for it with [errors.Is].
var ErrOwnership = errors.New("resource: ownership violation")

// ErrGroupFreed is returned by every [Group] method called after
// [Group.Free].
var ErrGroupFreed = fmt.Errorf("%w: group was already freed", ErrOwnership)

// ErrNotLinked is returned by [Group.Disconnect] when the two resources were
// not directly connected by an earlier call to [Group.Connect].
var ErrNotLinked = errors.New("resource: resources are not directly connected")

// ErrNotHolder is returned when a group tries to release or operate on a
// resource whose domain it does not currently hold.
type ErrNotHolder struct {
	// Resource is the identifier the caller tried to use. Its root at the
	// time of the failure was held by some other group, or by nobody.
	Resource Identifier
}

func (err ErrNotHolder) Error() string {
	return fmt.Sprintf("resource %s is not held by this group", err.Resource)
}

// Is reports this error as an [ErrOwnership] kind.
func (err ErrNotHolder) Is(target error) bool {
	return target == ErrOwnership
}

// ErrInvalidParent is returned when merging or splitting would make an
// identifier point at something other than a root of equal or greater
// order. This always indicates a bug in this package or in its caller.
type ErrInvalidParent struct {
	Child  Identifier
	Parent Identifier
	Reason string
}

func (err ErrInvalidParent) Error() string {
	return fmt.Sprintf("cannot reparent %s to %s: %s", err.Child, err.Parent, err.Reason)
}
