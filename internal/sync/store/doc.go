// Package store implements the session state store: the authoritative
// client-side mirror of every open workspace session.
//
// All writes funnel through Apply or a narrow mutator and carry an Origin
// (local edit vs remote patch). That single choke point is what lets the
// diff synchronizer tell which changes to emit and which to absorb.
//
// Contracts:
//   - Get/List return deep copies; store-owned sessions are never shared
//   - Mutations against an absent session are silent no-ops, since the
//     session may have been closed concurrently
//   - Change listeners fire synchronously after the write lock is released,
//     in mutation order
//   - Rejected writes (stale entity ids, invalid spans) notify nothing
package store
