// Package diff implements the layout diff synchronizer: the outbound half
// of session sync.
//
// It subscribes directly to store change notifications and runs one
// evaluation pass per mutation. Each pass diffs the session against a
// retained watermark snapshot and emits the minimal set of sync commands
// for the fields that changed:
//
//   - Session scalars (view mode, active agent) by value inequality
//   - Agent grid span and position by deep value comparison
//   - File preview fields as a partial patch carrying changed fields only
//   - New entities emit full tracked state on first observation
//
// The watermark is replaced after every pass, emitted or not, so identical
// repeated states never re-trigger emission. Mutations with remote origin
// only refresh the watermark: the synchronizer never re-emits a change the
// dispatcher just applied.
//
// Removed entities are not retracted here; session lifecycle events own
// removal propagation.
package diff
