// Package wschannel implements the event channel over a websocket
// connection to the relay. It exchanges the auth token for a short-lived
// ticket when a ticket endpoint is configured, maintains one read loop per
// connection, and transparently redials and resubscribes when the
// connection drops.
package wschannel
