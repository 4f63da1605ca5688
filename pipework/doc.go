// Package pipework provides typed rendezvous endpoints that can be wired
// together into arbitrary directed graphs of pipes.
//
// An [Inlet] accepts messages into a pipe and an [Outlet] delivers messages
// out of one. Every handoff is synchronous: a send completes only once some
// receiver has taken the message, possibly at the far end of a long chain of
// wired pipes. Callers choose how long to wait for a counterpart: forever
// (until the context is done), up to a timeout, or not at all.
//
// Pipes are assembled by wiring an outlet of one pipe to an inlet of another
// with [Connect]. Wiring merges the endpoints' lock domains (see package
// resource), so a single lock covers every endpoint that a message could
// travel through, and any messages that become deliverable because of the
// new wiring are handed off immediately.
//
// Concrete pipe topologies implement [InletOwner] and [OutletOwner] for the
// endpoints they own. [Direct] is the simplest such pipe: one inlet and one
// outlet with nothing in between.
package pipework
