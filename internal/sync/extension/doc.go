// Package extension implements the extension sync coordinator: the second
// consumer on the sync channel, with cache-invalidation semantics instead
// of field patching.
//
// Four event kinds share its subscriptions: installed, uninstalled,
// toggled, settings_changed. Each, once scope-accepted by the dispatcher,
// marks the installed-extensions query key stale so the next read
// refetches; installed/uninstalled/toggled may additionally toast.
//
// The coordinator is a small state machine (disabled, connecting,
// subscribed) with a scoped-acquisition contract: the four topic handlers
// are registered together and released together on every exit path,
// including re-render-triggered restarts and token loss.
package extension
