package resource

import (
	"slices"

	"github.com/emirpasic/gods/sets/hashset"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Group is a set of domains held exclusively by one goroutine.
//
// A group is created either empty, with [Arena.NewGroup], or already holding
// some domains, with [Arena.Acquire]. While held, the group can connect and
// disconnect identifiers, which merges and splits their domains. [Group.Free]
// releases everything and makes the group unusable.
//
// Group is not safe for concurrent use.
type Group struct {
	arena *Arena
	held  []Identifier
	freed bool
}

// acquire takes the roots of all of ids in the global acquisition order.
func (g *Group) acquire(ids []Identifier) {
	pass := g.arena.gateway.Enter()
	defer pass.Leave()

	pending := slices.Clone(ids)
	failures := 0
	closed := false
	for len(pending) > 0 {
		// The least root among everything still outstanding is the only one
		// we may wait for without risking a deadlock with another group.
		// Roots only ever move to greater identifiers, so everything we
		// already hold stays below whatever remains.
		want, root := pending[0], pending[0].Root()
		for _, id := range pending[1:] {
			if r := id.Root(); r.Less(root) {
				want, root = id, r
			}
		}

		root.acquire(g)
		if want.Root() != root {
			// Someone merged or split the domain while we were waiting, so
			// the lock we now hold no longer protects what we wanted.
			_ = root.free(g)
			failures++
			acquireRetriesCounter.Inc()
			if failures >= g.arena.threshold && !closed {
				closed = true
				pass.Close()
				gatewayClosuresCounter.Inc()
				g.arena.logger.Warn("closing resource gateway after repeated failed acquisitions",
					zap.Int("failures", failures),
					zap.Stringer("resource", want),
				)
			}
			continue
		}

		failures = 0
		g.held = append(g.held, root)
		pending = slices.DeleteFunc(pending, func(id Identifier) bool {
			return id.Root() == root
		})
	}
}

// Holds reports whether the group currently holds the domain of id.
func (g *Group) Holds(id Identifier) bool {
	if g.freed {
		return false
	}
	return id.HeldBy(g)
}

// IsFreed reports whether [Group.Free] has already been called.
func (g *Group) IsFreed() bool {
	return g.freed
}

// Roots returns the roots currently held by the group, in the order they
// were acquired.
func (g *Group) Roots() []Identifier {
	return slices.Clone(g.held)
}

// NewResource creates a new identifier ordered after everything the group
// already holds, and adds it to the group already acquired.
func (g *Group) NewResource() (Identifier, error) {
	if g.freed {
		return Identifier{}, ErrGroupFreed
	}
	id := g.arena.NewIdentifierAbove(g.held...)
	id.acquire(g)
	g.held = append(g.held, id)
	return id, nil
}

// Connect records a direct connection between a and b and, if they were in
// different domains, merges those domains into one.
//
// The group must hold both domains. After merging, the group holds only the
// new root and the two old roots are released.
func (g *Group) Connect(a, b Identifier) error {
	if err := g.checkHeld(a, b); err != nil {
		return err
	}
	ra, rb := a.Root(), b.Root()
	a.node().link(b.index)
	b.node().link(a.index)
	if ra == rb {
		return nil
	}

	merged := g.arena.NewIdentifierAbove(ra, rb)
	merged.acquire(g)
	g.held = append(g.held, merged)
	if err := ra.setParent(merged); err != nil {
		return err
	}
	if err := rb.setParent(merged); err != nil {
		return err
	}
	err := multierr.Append(g.release(ra), g.release(rb))
	domainChangesCounter.WithLabelValues("merge").Inc()
	g.arena.logger.Debug("merged resource domains",
		zap.Stringer("left", ra),
		zap.Stringer("right", rb),
		zap.Stringer("root", merged),
	)
	return err
}

// Disconnect removes one direct connection between a and b that was added
// by [Group.Connect].
//
// If a and b remain connected through some other path then the domain is
// unchanged. Otherwise the domain is split in two, each side getting a new
// root that the group then holds in place of the old one.
func (g *Group) Disconnect(a, b Identifier) error {
	if err := g.checkHeld(a, b); err != nil {
		return err
	}
	root := a.Root()
	if b.Root() != root || !a.node().unlink(b.index) {
		return ErrNotLinked
	}
	b.node().unlink(a.index)

	sideA, reachable := g.component(a)
	if reachable.Contains(b.index) {
		return nil
	}
	sideB, _ := g.component(b)

	rootA := g.arena.NewIdentifierAbove(root)
	rootB := g.arena.NewIdentifierAbove(rootA)
	rootA.acquire(g)
	rootB.acquire(g)
	g.held = append(g.held, rootA, rootB)
	for _, side := range []struct {
		members []int64
		root    Identifier
	}{{sideA, rootA}, {sideB, rootB}} {
		for _, index := range side.members {
			member := Identifier{arena: g.arena, index: index}
			if err := member.setParent(side.root); err != nil {
				return err
			}
		}
	}
	err := g.release(root)
	domainChangesCounter.WithLabelValues("split").Inc()
	g.arena.logger.Debug("split resource domain",
		zap.Stringer("root", root),
		zap.Int("left_size", len(sideA)),
		zap.Int("right_size", len(sideB)),
	)
	return err
}

// Free releases every domain the group holds. The group cannot be used
// afterwards.
func (g *Group) Free() error {
	if g.freed {
		return ErrGroupFreed
	}
	var err error
	for _, root := range g.held {
		err = multierr.Append(err, root.free(g))
	}
	g.held = nil
	g.freed = true
	return err
}

func (g *Group) checkHeld(ids ...Identifier) error {
	if g.freed {
		return ErrGroupFreed
	}
	for _, id := range ids {
		g.arena.check(id)
		if !id.HeldBy(g) {
			return ErrNotHolder{Resource: id}
		}
	}
	return nil
}

func (g *Group) release(root Identifier) error {
	g.held = slices.DeleteFunc(g.held, func(id Identifier) bool {
		return id == root
	})
	return root.free(g)
}

// component returns every identifier reachable from start through direct
// connections, in breadth-first order, along with the same members as a set.
func (g *Group) component(start Identifier) ([]int64, *hashset.Set) {
	visited := hashset.New(start.index)
	members := []int64{start.index}
	for i := 0; i < len(members); i++ {
		for peer := range g.arena.node(members[i]).links {
			if !visited.Contains(peer) {
				visited.Add(peer)
				members = append(members, peer)
			}
		}
	}
	return members, visited
}
