// Package resource provides the lock domains that the pipework package uses
// to make operations spanning several endpoints atomic without any global
// lock.
//
// Every endpoint owns an [Identifier]. Identifiers that have been connected
// together form a domain represented by a single root identifier, and
// holding a domain's root lock grants exclusive access to everything in that
// domain. A [Group] acquires any number of domains at once, always taking
// roots in the same global order (see [Identifier.Less]) so that two groups
// wanting overlapping domains can never deadlock, even while other groups
// are concurrently merging or splitting those domains.
//
// Roots can move while a group is waiting for them, in which case the group
// discards the wasted acquisition and tries again. A [Gateway] shared by all
// groups of an [Arena] bounds those retries: a group that fails too often
// closes the gateway so that no new acquisitions begin until the contenders
// already inside have finished.
//
// This is a "nuts-and-bolts" package intended as an implementation detail of
// higher-level primitives. Groups must not be nested: a goroutine holding
// a [Group] must free it before acquiring another one.
package resource
