package pipework

import (
	"fmt"

	"github.com/apparentlymart/go-pipework/resource"
)

// Direct is the simplest pipe: a message sent into its inlet is handed
// straight to whoever receives from its outlet, with no buffering.
type Direct[T any] struct {
	in  *Inlet[T]
	out *Outlet[T]
}

var (
	_ InletOwner[int]  = (*Direct[int])(nil)
	_ OutletOwner[int] = (*Direct[int])(nil)
)

// NewDirect returns a new direct pipe whose endpoints live in arena.
func NewDirect[T any](arena *resource.Arena) *Direct[T] {
	d := &Direct[T]{
		in:  NewInlet[T](arena),
		out: NewOutlet[T](arena),
	}
	// Fresh endpoints have no owner, so neither of these can fail.
	_ = d.in.SetOwner(d)
	_ = d.out.SetOwner(d)

	g := d.in.lockWith(&d.out.let)
	err := g.Connect(d.in.res, d.out.res)
	unlock(g)
	if err != nil {
		panic(fmt.Sprintf("joining direct pipe endpoints: %s", err))
	}
	return d
}

// Inlet returns the pipe's only inlet.
func (d *Direct[T]) Inlet() *Inlet[T] {
	return d.in
}

// Outlet returns the pipe's only outlet.
func (d *Direct[T]) Outlet() *Outlet[T] {
	return d.out
}

// Inlets implements [Pipe].
func (d *Direct[T]) Inlets() []Endpoint {
	return []Endpoint{d.in}
}

// Outlets implements [Pipe].
func (d *Direct[T]) Outlets() []Endpoint {
	return []Endpoint{d.out}
}

// SharedResource implements [Pipe].
func (d *Direct[T]) SharedResource() resource.Identifier {
	return d.in.res
}

// FindReceiver implements [InletOwner].
func (d *Direct[T]) FindReceiver(in *Inlet[T], checkMembership bool) (Receiver[T], error) {
	if checkMembership && in != d.in {
		return nil, ErrNotMember
	}
	return d.out.findReceiver()
}

// FindSender implements [OutletOwner].
func (d *Direct[T]) FindSender(out *Outlet[T], checkMembership bool) (Sender[T], error) {
	if checkMembership && out != d.out {
		return nil, ErrNotMember
	}
	return d.in.findSender()
}
