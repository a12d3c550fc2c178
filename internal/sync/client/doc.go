// Package client wires the sync core into one startable service: the
// session store, cache invalidator, remote event dispatcher, layout diff
// synchronizer and extension coordinator, all sharing a single channel
// client. Callers construct a Service from configuration, start it, and
// interact with the store; everything else is plumbing.
package client
