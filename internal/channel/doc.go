// Package channel defines the event channel boundary used by the sync core.
//
// The sync components depend only on the Client interface: connect, close,
// and topic-keyed publish/subscribe. Two implementations ship with it:
//
//   - MemoryClient/Broker: in-process delivery with relay semantics
//     (publisher never hears its own frame), used by tests and
//     single-process setups
//   - wschannel.Client: websocket transport against the relay daemon
//
// Ordering: frames on one topic are delivered to each subscriber in arrival
// order. Cross-topic ordering is not guaranteed.
package channel
