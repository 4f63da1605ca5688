package pipework

import (
	"github.com/emirpasic/gods/sets/hashset"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/apparentlymart/go-pipework/internal/pipegraph"
	"github.com/apparentlymart/go-pipework/resource"
)

// ConnectOption customizes a call to [Connect].
type ConnectOption func(*connectConfig)

type connectConfig struct {
	checkAcyclic bool
}

// WithoutCycleCheck skips checking that the connection keeps the pipe graph
// acyclic. Lookups through a cyclic pipe graph never terminate, so this is
// only for callers that already know the connection makes no cycle.
func WithoutCycleCheck() ConnectOption {
	return func(cfg *connectConfig) {
		cfg.checkAcyclic = false
	}
}

// Connect wires out to in, so that messages leaving out's pipe enter in's
// pipe, and joins the resource domains of the two pipes.
//
// Both endpoints must already have owners, belong to the same arena, and be
// neither wired nor have parties waiting on them. Unless disabled with
// [WithoutCycleCheck], a connection that would make the pipe graph cyclic
// is rejected with [ErrCycle].
//
// Any parties that can be matched across the new connection are matched
// before Connect returns. If Connect fails then the endpoints are left
// unwired.
func Connect[T any](in *Inlet[T], out *Outlet[T], opts ...ConnectOption) error {
	cfg := connectConfig{checkAcyclic: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if in.arena != out.arena {
		return ErrArenaMismatch
	}
	inOwner, ok := in.owner.get()
	if !ok {
		return ErrNoOwner
	}
	outOwner, ok := out.owner.get()
	if !ok {
		return ErrNoOwner
	}

	g := in.lockWith(&out.let)
	defer unlock(g)

	if !in.canConnect() || !out.canConnect() {
		return ErrBusy
	}
	in.peer = out
	out.peer = in

	if cfg.checkAcyclic && wouldCycle(g, in.Owner(), out.Owner()) {
		in.peer, out.peer = nil, nil
		return ErrCycle{Inlet: in, Outlet: out}
	}
	if err := g.Connect(in.res, out.res); err != nil {
		in.peer, out.peer = nil, nil
		return err
	}
	if err := drain(in, out, inOwner, outOwner); err != nil {
		in.peer, out.peer = nil, nil
		return multierr.Append(err, g.Disconnect(in.res, out.res))
	}

	in.arena.Logger().Debug("connected endpoints",
		zap.Stringer("outlet", out.res),
		zap.Stringer("inlet", in.res),
	)
	return nil
}

// Disconnect undoes an earlier [Connect] between in and out, splitting
// their pipes back into separate resource domains unless something else
// still joins them.
func Disconnect[T any](in *Inlet[T], out *Outlet[T]) error {
	if in.arena != out.arena {
		return ErrArenaMismatch
	}
	g := in.lockWith(&out.let)
	defer unlock(g)

	if in.peer != out || out.peer != in {
		return ErrNotConnected
	}
	if err := g.Disconnect(in.res, out.res); err != nil {
		return err
	}
	in.peer, out.peer = nil, nil

	in.arena.Logger().Debug("disconnected endpoints",
		zap.Stringer("outlet", out.res),
		zap.Stringer("inlet", in.res),
	)
	return nil
}

// drain hands off messages across a newly made connection for as long as
// there is both a sender upstream and a receiver downstream.
func drain[T any](in *Inlet[T], out *Outlet[T], inOwner InletOwner[T], outOwner OutletOwner[T]) error {
	for {
		send, err := outOwner.FindSender(out, true)
		if err != nil || send == nil {
			return err
		}
		receive, err := inOwner.FindReceiver(in, true)
		if err != nil || receive == nil {
			return err
		}
		receive(send())
		handoffsCounter.WithLabelValues("drain").Inc()
	}
}

// wouldCycle walks the pipes reachable from start through wired endpoints
// and reports whether they form a cycle.
//
// Only endpoints whose domain g holds are followed. Every pipe joined to
// start by wiring is in one of those domains, so nothing relevant is
// missed.
func wouldCycle(g *resource.Group, start ...Pipe) bool {
	ids := make(map[Pipe]int64)
	id := func(p Pipe) int64 {
		n, ok := ids[p]
		if !ok {
			n = int64(len(ids))
			ids[p] = n
		}
		return n
	}

	graph := pipegraph.New()
	visited := hashset.New()
	queue := make([]Pipe, 0, len(start))
	for _, p := range start {
		if p != nil {
			queue = append(queue, p)
		}
	}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if visited.Contains(p) {
			continue
		}
		visited.Add(p)
		graph.AddNode(id(p))

		for _, out := range p.Outlets() {
			if next := wiredOwner(g, out); next != nil {
				graph.AddEdge(id(p), id(next))
				queue = append(queue, next)
			}
		}
		for _, in := range p.Inlets() {
			if prev := wiredOwner(g, in); prev != nil {
				graph.AddEdge(id(prev), id(p))
				queue = append(queue, prev)
			}
		}
	}
	return graph.HasCycle()
}

func wiredOwner(g *resource.Group, ep Endpoint) Pipe {
	if !g.Holds(ep.Resource()) {
		return nil
	}
	peer := ep.peerEndpoint()
	if peer == nil {
		return nil
	}
	return peer.Owner()
}
