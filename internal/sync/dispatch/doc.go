// Package dispatch implements the remote event dispatcher: inbound events
// are scope-filtered and routed to the correct store mutation.
//
// Routing rules:
//   - Layout sync events patch one session/agent/preview synchronously,
//     with Origin set to remote so the diff synchronizer never echoes them
//   - Extension lifecycle events invalidate the installed-extensions cache
//     key and may produce a toast; settings changes never do
//   - Scope mismatches and stale targets drop silently (counted, not errors)
//   - Malformed or unknown frames are logged and dropped; processing of
//     subsequent frames continues
//
// No error ever propagates out of Dispatch or HandleFrame.
package dispatch
