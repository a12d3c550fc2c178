// Package relay implements the sync relay daemon. The relay is a dumb
// topic fan-out: it inspects no event payloads, holds no session state, and
// simply forwards published frames to every other connection subscribed to
// the same topic. Authentication is a bearer token, optionally exchanged
// for a one-shot ticket before the websocket upgrade.
package relay
