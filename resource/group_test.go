package resource_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"github.com/apparentlymart/go-pipework/resource"
)

func TestGroupAcquireHoldsRoots(t *testing.T) {
	arena := resource.NewArena()
	a := arena.NewIdentifier()
	b := arena.NewIdentifier()
	c := arena.NewIdentifier()

	setup := arena.Acquire(b, c)
	require.NoError(t, setup.Connect(b, c))
	require.NoError(t, setup.Free())

	g := arena.Acquire(c, a, b)
	for _, id := range []resource.Identifier{a, b, c} {
		if !g.Holds(id) {
			t.Errorf("group does not hold %s", id)
		}
		if !id.Root().IsAcquired() {
			t.Errorf("root of %s is not acquired", id)
		}
	}
	// b and c share a root, so only two distinct roots are held.
	if got, want := len(g.Roots()), 2; got != want {
		t.Errorf("wrong number of held roots %d; want %d", got, want)
	}
	require.NoError(t, g.Free())
	for _, id := range []resource.Identifier{a, b, c} {
		if id.Root().IsAcquired() {
			t.Errorf("root of %s is still acquired after Free", id)
		}
	}
}

func TestGroupMutualExclusion(t *testing.T) {
	arena := resource.NewArena()
	a := arena.NewIdentifier()
	b := arena.NewIdentifier()

	first := arena.Acquire(a)
	acquired := make(chan *resource.Group)
	go func() {
		acquired <- arena.Acquire(b, a)
	}()

	select {
	case <-acquired:
		t.Fatal("second group acquired a domain that is already held")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, first.Free())
	select {
	case second := <-acquired:
		if !second.Holds(a) || !second.Holds(b) {
			t.Error("second group does not hold everything it asked for")
		}
		require.NoError(t, second.Free())
	case <-time.After(5 * time.Second):
		t.Fatal("second group never acquired the released domain")
	}
}

func TestGroupConnectMerges(t *testing.T) {
	arena := resource.NewArena()
	a := arena.NewIdentifier()
	b := arena.NewIdentifier()
	oldA, oldB := a.Root(), b.Root()

	g := arena.Acquire(a, b)
	require.NoError(t, g.Connect(a, b))

	if diff := cmp.Diff(a.Root(), b.Root()); diff != "" {
		t.Error("connected identifiers have different roots\n" + diff)
	}
	if oldA.IsAcquired() || oldB.IsAcquired() {
		t.Error("old roots are still acquired after merging")
	}
	if !a.Root().IsAcquired() || !g.Holds(a) {
		t.Error("merged root is not held by the group")
	}
	if got, want := a.Root().Order(), uint64(1); got != want {
		t.Errorf("wrong merged order %d; want %d", got, want)
	}

	// Connecting again within the same domain only adds an edge.
	root := a.Root()
	require.NoError(t, g.Connect(b, a))
	if diff := cmp.Diff(root, a.Root()); diff != "" {
		t.Error("reconnecting changed the root\n" + diff)
	}
	require.NoError(t, g.Free())
}

func TestGroupDisconnectSplits(t *testing.T) {
	arena := resource.NewArena()
	a := arena.NewIdentifier()
	b := arena.NewIdentifier()
	c := arena.NewIdentifier()

	g := arena.Acquire(a, b, c)
	require.NoError(t, g.Connect(a, b))
	require.NoError(t, g.Connect(b, c))
	old := a.Root()

	require.NoError(t, g.Disconnect(b, c))

	if a.Root() != b.Root() {
		t.Error("a and b were separated by disconnecting b from c")
	}
	if b.Root() == c.Root() {
		t.Error("b and c still share a root after their only connection was removed")
	}
	if old.IsAcquired() {
		t.Error("old root is still acquired after the split")
	}
	if !a.Root().Less(c.Root()) || !old.Less(a.Root()) {
		t.Error("split roots must be successively greater than the old root")
	}
	for _, id := range []resource.Identifier{a, b, c} {
		if !g.Holds(id) {
			t.Errorf("group lost %s during the split", id)
		}
	}
	require.NoError(t, g.Free())
}

func TestGroupDisconnectKeepsAlternatePath(t *testing.T) {
	arena := resource.NewArena()
	a := arena.NewIdentifier()
	b := arena.NewIdentifier()
	c := arena.NewIdentifier()

	g := arena.Acquire(a, b, c)
	require.NoError(t, g.Connect(a, b))
	require.NoError(t, g.Connect(b, c))
	require.NoError(t, g.Connect(c, a))
	root := a.Root()

	// a still reaches b through c, so nothing splits.
	require.NoError(t, g.Disconnect(a, b))
	for _, id := range []resource.Identifier{a, b, c} {
		if diff := cmp.Diff(root, id.Root()); diff != "" {
			t.Errorf("wrong root for %s\n%s", id, diff)
		}
	}

	// Now c–a is the only thing holding a to the rest.
	require.NoError(t, g.Disconnect(c, a))
	if a.Root() == b.Root() || b.Root() != c.Root() {
		t.Error("wrong split after removing the last path to a")
	}
	require.NoError(t, g.Free())
}

func TestGroupDisconnectDuplicateEdge(t *testing.T) {
	arena := resource.NewArena()
	a := arena.NewIdentifier()
	b := arena.NewIdentifier()

	g := arena.Acquire(a, b)
	require.NoError(t, g.Connect(a, b))
	require.NoError(t, g.Connect(a, b))

	require.NoError(t, g.Disconnect(a, b))
	if a.Root() != b.Root() {
		t.Error("removing one of two parallel connections split the domain")
	}
	require.NoError(t, g.Disconnect(b, a))
	if a.Root() == b.Root() {
		t.Error("removing the last connection did not split the domain")
	}
	require.ErrorIs(t, g.Disconnect(a, b), resource.ErrNotLinked)
	require.NoError(t, g.Free())
}

func TestGroupOwnershipErrors(t *testing.T) {
	arena := resource.NewArena()
	a := arena.NewIdentifier()
	b := arena.NewIdentifier()

	g := arena.Acquire(a)
	err := g.Connect(a, b)
	var notHolder resource.ErrNotHolder
	if !errors.As(err, &notHolder) {
		t.Fatalf("wrong error %v; want ErrNotHolder", err)
	}
	if diff := cmp.Diff(b, notHolder.Resource); diff != "" {
		t.Error("wrong resource in error\n" + diff)
	}
	require.ErrorIs(t, err, resource.ErrOwnership)

	require.NoError(t, g.Free())
	if !g.IsFreed() {
		t.Error("group does not report being freed")
	}
	require.ErrorIs(t, g.Free(), resource.ErrGroupFreed)
	require.ErrorIs(t, g.Connect(a, a), resource.ErrOwnership)
	_, err = g.NewResource()
	require.ErrorIs(t, err, resource.ErrGroupFreed)
	if g.Holds(a) {
		t.Error("freed group still reports holding a")
	}
}

func TestGroupNewResource(t *testing.T) {
	arena := resource.NewArena()
	a := arena.NewIdentifier()
	b := arena.NewIdentifierAbove(a)

	g := arena.Acquire(a, b)
	fresh, err := g.NewResource()
	require.NoError(t, err)
	if !b.Less(fresh) {
		t.Errorf("new resource %s is not ordered after held %s", fresh, b)
	}
	if !g.Holds(fresh) || !fresh.IsAcquired() {
		t.Error("new resource is not held by the group")
	}
	require.NoError(t, g.Connect(a, fresh))
	require.NoError(t, g.Free())

	empty := arena.NewGroup()
	first, err := empty.NewResource()
	require.NoError(t, err)
	if got, want := first.Order(), uint64(0); got != want {
		t.Errorf("wrong order for a resource in an empty group %d; want %d", got, want)
	}
	require.NoError(t, empty.Free())
}

func TestGroupProgress(t *testing.T) {
	const (
		workers    = 6
		iterations = 300
		size       = 12
	)
	arena := resource.NewArena(resource.WithGatewayThreshold(5))
	ids := make([]resource.Identifier, size)
	for i := range ids {
		ids[i] = arena.NewIdentifier()
	}
	var owners [size]atomic.Int32

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		eg.Go(func() error {
			rnd := rand.New(rand.NewPCG(uint64(w), 42))
			// Each worker owns one pair of identifiers that it repeatedly
			// connects and disconnects, so domains keep merging and
			// splitting underneath everyone else's acquisitions.
			p, q := (2*w)%size, (2*w+1)%size
			linked := false
			for range iterations {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				picked := rnd.Perm(size)[:1+rnd.IntN(3)]
				picked = append(picked, p, q)
				want := make([]resource.Identifier, 0, len(picked))
				seen := map[int]bool{}
				for _, i := range picked {
					if !seen[i] {
						seen[i] = true
						want = append(want, ids[i])
					}
				}

				g := arena.Acquire(want...)
				for i := range seen {
					if n := owners[i].Add(1); n != 1 {
						return errors.New("two groups hold the same resource")
					}
				}
				var err error
				if linked {
					err = g.Disconnect(ids[p], ids[q])
				} else {
					err = g.Connect(ids[p], ids[q])
				}
				linked = !linked
				for i := range seen {
					owners[i].Add(-1)
				}
				if err != nil {
					return err
				}
				if err := g.Free(); err != nil {
					return err
				}
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- eg.Wait() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(60 * time.Second):
		t.Fatal("competing acquisitions did not all complete")
	}
}

func TestGroupGatewayClosesAfterFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	arena := resource.NewArena(
		resource.WithGatewayThreshold(1),
		resource.WithLogger(zap.New(core)),
	)

	for attempt := 0; attempt < 20 && logs.Len() == 0; attempt++ {
		a := arena.NewIdentifier()
		b := arena.NewIdentifier()
		holder := arena.Acquire(a, b)

		acquired := make(chan *resource.Group)
		go func() {
			acquired <- arena.Acquire(a)
		}()
		// Give the waiter time to block on a's current root, which the
		// merge below then retires.
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, holder.Connect(a, b))
		require.NoError(t, holder.Free())

		waiter := <-acquired
		if !waiter.Holds(a) || !waiter.Holds(b) {
			t.Fatal("waiter does not hold the merged domain")
		}
		require.NoError(t, waiter.Free())
	}

	if logs.Len() == 0 {
		t.Fatal("gateway was never closed")
	}
	entry := logs.All()[0]
	if got, want := entry.Message, "closing resource gateway after repeated failed acquisitions"; got != want {
		t.Errorf("wrong log message\ngot:  %s\nwant: %s", got, want)
	}
	if arena.Gateway().IsClosed() {
		t.Error("gateway is still closed after the acquisition finished")
	}
}
