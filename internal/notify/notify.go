// Package notify delivers non-blocking user-facing notifications for sync
// events.
//
// Notifications are advisory toasts: extension installs, removals, and
// toggles may produce one, with wording that branches on scope and, for
// toggles, on the new enabled state. Settings changes and layout sync never
// notify. There is no blocking error surface at this layer.
package notify

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/loomworks/agentboard/internal/infrastructure/logging"
	"github.com/loomworks/agentboard/internal/sync/event"
)

// Notification is one user-facing toast.
type Notification struct {
	Title   string
	Message string
}

// Notifier consumes notifications. Implementations must not block.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to the Notifier interface.
type Func func(n Notification)

func (f Func) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to the structured log. Used by headless
// clients and as the default sink.
type LogNotifier struct {
	logger *logging.Logger
}

// NewLogNotifier creates a notifier backed by the given logger.
func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

func (l *LogNotifier) Notify(n Notification) {
	l.logger.Info("notification",
		zap.String("title", n.Title),
		zap.String("message", n.Message),
	)
}

// scopeSuffix phrases where an extension change applies.
func scopeSuffix(scope event.Scope) string {
	if scope == event.ScopeWorkspace {
		return "in this workspace"
	}
	return "across your account"
}

// ExtensionInstalled builds the toast for an install event.
func ExtensionInstalled(displayName string, scope event.Scope) Notification {
	name := displayName
	if name == "" {
		name = "An extension"
	}
	return Notification{
		Title:   "Extension installed",
		Message: fmt.Sprintf("%s is now available %s", name, scopeSuffix(scope)),
	}
}

// ExtensionUninstalled builds the toast for an uninstall event.
func ExtensionUninstalled(scope event.Scope) Notification {
	return Notification{
		Title:   "Extension removed",
		Message: fmt.Sprintf("An extension was removed %s", scopeSuffix(scope)),
	}
}

// ExtensionToggled builds the toast for a toggle event. Wording carries the
// new enabled state.
func ExtensionToggled(enabled bool, scope event.Scope) Notification {
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return Notification{
		Title:   "Extension " + state,
		Message: fmt.Sprintf("An extension was %s %s", state, scopeSuffix(scope)),
	}
}
