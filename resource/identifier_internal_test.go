package resource

import (
	"errors"
	"testing"
)

func TestSetParent(t *testing.T) {
	arena := NewArena()
	low := arena.NewIdentifier()
	high := arena.NewIdentifierAbove(low)
	higher := arena.NewIdentifierAbove(high)

	var parentErr ErrInvalidParent
	if err := high.setParent(low); !errors.As(err, &parentErr) {
		t.Errorf("reparenting to a lower order succeeded; got %v", err)
	}

	if err := low.setParent(high); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := high.setParent(higher); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// high is now a child of higher, so it can no longer be a new parent.
	other := arena.NewIdentifier()
	if err := other.setParent(high); !errors.As(err, &parentErr) {
		t.Errorf("reparenting to a non-root succeeded; got %v", err)
	}
	if got, want := low.Root(), higher; got != want {
		t.Errorf("wrong root %s; want %s", got, want)
	}
	// Path compression makes low point straight at the root.
	if got, want := low.node().parent.Load(), higher.index; got != want {
		t.Errorf("root was not cached; parent is %d, want %d", got, want)
	}
}

func TestFreeByNonHolder(t *testing.T) {
	arena := NewArena()
	id := arena.NewIdentifier()
	holder := arena.Acquire(id)
	other := arena.NewGroup()

	err := id.free(other)
	if !errors.Is(err, ErrOwnership) {
		t.Fatalf("wrong error %v; want ownership violation", err)
	}
	if !id.IsAcquired() {
		t.Fatal("failed free released the lock anyway")
	}
	if err := holder.Free(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
}
