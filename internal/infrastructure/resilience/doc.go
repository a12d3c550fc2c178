// Package resilience provides a three-state circuit breaker. The websocket
// channel wraps relay dialing in one so a dead relay is probed on a
// cooldown instead of hammered by every reconnect attempt.
//
//	Closed --[failures]-> Open --[timeout]-> Half-Open --[success]-> Closed
package resilience
