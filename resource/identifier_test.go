package resource_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/apparentlymart/go-pipework/resource"
)

func TestIdentifierOrder(t *testing.T) {
	arena := resource.NewArena()
	a := arena.NewIdentifier()
	b := arena.NewIdentifier()
	if got, want := a.Order(), uint64(0); got != want {
		t.Errorf("wrong order for a %d; want %d", got, want)
	}
	if !a.Less(b) || b.Less(a) {
		t.Errorf("identifiers with equal order keys must be ordered by allocation")
	}

	c := arena.NewIdentifierAbove(a, b)
	if got, want := c.Order(), uint64(1); got != want {
		t.Errorf("wrong order for c %d; want %d", got, want)
	}
	d := arena.NewIdentifierAbove(c, a)
	if got, want := d.Order(), uint64(2); got != want {
		t.Errorf("wrong order for d %d; want %d", got, want)
	}
	if !c.Less(d) || !a.Less(d) {
		t.Errorf("new identifiers must be ordered after the ones they were created above")
	}
	if got, want := arena.NewIdentifierAbove().Order(), uint64(0); got != want {
		t.Errorf("wrong order with no references %d; want %d", got, want)
	}
}

func TestIdentifierAboveUsesCurrentRoot(t *testing.T) {
	arena := resource.NewArena()
	a := arena.NewIdentifier()
	b := arena.NewIdentifier()

	g := arena.Acquire(a, b)
	if err := g.Connect(a, b); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := g.Free(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	// a itself still has order zero, but its root has order one.
	above := arena.NewIdentifierAbove(a)
	if got, want := above.Order(), uint64(2); got != want {
		t.Errorf("wrong order %d; want %d", got, want)
	}
}

func TestIdentifierRoot(t *testing.T) {
	arena := resource.NewArena()
	a := arena.NewIdentifier()
	if !a.IsRoot() {
		t.Fatal("fresh identifier is not a root")
	}
	if diff := cmp.Diff(a, a.Root()); diff != "" {
		t.Error("fresh identifier should be its own root\n" + diff)
	}
	if a.IsAcquired() {
		t.Error("fresh identifier is acquired")
	}
}

func TestIdentifierZero(t *testing.T) {
	var id resource.Identifier
	if !id.IsZero() {
		t.Error("zero identifier does not report IsZero")
	}
	if got, want := id.String(), "<none>"; got != want {
		t.Errorf("wrong string\ngot:  %s\nwant: %s", got, want)
	}
}

func TestIdentifierForeignArena(t *testing.T) {
	one := resource.NewArena()
	two := resource.NewArena()
	id := two.NewIdentifier()

	defer func() {
		if recover() == nil {
			t.Error("mixing arenas did not panic")
		}
	}()
	one.Acquire(id)
}
