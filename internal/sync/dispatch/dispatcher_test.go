package dispatch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomworks/agentboard/internal/cache"
	"github.com/loomworks/agentboard/internal/channel"
	"github.com/loomworks/agentboard/internal/infrastructure/logging"
	"github.com/loomworks/agentboard/internal/notify"
	"github.com/loomworks/agentboard/internal/shared/types"
	"github.com/loomworks/agentboard/internal/sync/event"
	"github.com/loomworks/agentboard/internal/sync/store"
)

type captureNotifier struct {
	toasts []notify.Notification
}

func (c *captureNotifier) Notify(n notify.Notification) {
	c.toasts = append(c.toasts, n)
}

func newFixture(t *testing.T, showNotifications bool) (*store.Store, *cache.Invalidator, *captureNotifier, *Dispatcher) {
	t.Helper()

	st := store.New()
	st.Put(&types.Session{
		ID:       "s1",
		ViewMode: types.ViewModeGrid,
		Agents:   []types.AgentCore{{ID: "a1"}, {ID: "a2"}},
		FilePreviews: []types.FilePreview{
			{ID: "p1", Path: "notes/plan.md"},
		},
	}, store.OriginLocal)

	inv := cache.New()
	toasts := &captureNotifier{}
	d := New(st, inv, "w1", logging.NewNop()).WithNotifier(toasts)
	d.Configure("w1", showNotifications)

	return st, inv, toasts, d
}

func TestScopeFiltering(t *testing.T) {
	_, inv, toasts, d := newFixture(t, true)

	// Workspace-scoped event for another workspace: dropped entirely.
	d.Dispatch(&event.ExtensionInstalled{
		Meta:        event.WorkspaceMeta("w2"),
		DisplayName: "Linter",
	})

	assert.False(t, inv.IsStale(cache.KeyExtensionsInstalled), "foreign workspace event must not invalidate")
	assert.Empty(t, toasts.toasts, "foreign workspace event must not notify")

	// Matching workspace passes.
	d.Dispatch(&event.ExtensionInstalled{
		Meta:        event.WorkspaceMeta("w1"),
		DisplayName: "Linter",
	})
	assert.True(t, inv.IsStale(cache.KeyExtensionsInstalled))
	require.Len(t, toasts.toasts, 1)
	assert.Contains(t, toasts.toasts[0].Message, "workspace")
}

func TestAccountScopeAlwaysApplies(t *testing.T) {
	_, inv, toasts, d := newFixture(t, true)

	d.Dispatch(&event.ExtensionUninstalled{Meta: event.AccountMeta()})

	assert.True(t, inv.IsStale(cache.KeyExtensionsInstalled))
	require.Len(t, toasts.toasts, 1)
	assert.Contains(t, toasts.toasts[0].Message, "account")
}

func TestExtensionToggleRoundTrip(t *testing.T) {
	_, inv, toasts, d := newFixture(t, true)

	d.Dispatch(&event.ExtensionToggled{Meta: event.AccountMeta(), Enabled: false})

	assert.True(t, inv.IsStale(cache.KeyExtensionsInstalled))
	require.Len(t, toasts.toasts, 1)
	assert.True(t, strings.Contains(toasts.toasts[0].Title, "disabled") ||
		strings.Contains(toasts.toasts[0].Message, "disabled"),
		"toggle-off wording must say disabled: %+v", toasts.toasts[0])

	d.Dispatch(&event.ExtensionToggled{Meta: event.AccountMeta(), Enabled: true})
	require.Len(t, toasts.toasts, 2)
	assert.Contains(t, toasts.toasts[1].Message, "enabled")
}

func TestNotificationsSuppressedNotInvalidation(t *testing.T) {
	_, inv, toasts, d := newFixture(t, false)

	d.Dispatch(&event.ExtensionInstalled{Meta: event.AccountMeta(), DisplayName: "Linter"})

	assert.True(t, inv.IsStale(cache.KeyExtensionsInstalled),
		"suppressing toasts must never suppress invalidation")
	assert.Empty(t, toasts.toasts)
}

func TestSettingsChangedNeverNotifies(t *testing.T) {
	_, inv, toasts, d := newFixture(t, true)

	d.Dispatch(&event.ExtensionSettingsChanged{Meta: event.AccountMeta()})

	assert.True(t, inv.IsStale(cache.KeyExtensionsInstalled))
	assert.Empty(t, toasts.toasts, "settings changes are invalidation-only")
}

func TestLayoutEventsPatchAndNeverNotify(t *testing.T) {
	st, _, toasts, d := newFixture(t, true)

	d.Dispatch(&event.ViewModeSync{
		Meta:      event.WorkspaceMeta("w1"),
		SessionID: "s1",
		ViewMode:  types.ViewModeFocus,
	})

	sess, _ := st.Get("s1")
	assert.Equal(t, types.ViewModeFocus, sess.ViewMode)
	assert.Empty(t, toasts.toasts, "layout sync is high-frequency, never user-facing")
}

func TestStaleTargetIsSilent(t *testing.T) {
	st, _, _, d := newFixture(t, true)

	// Session gone: no panic, no mutation.
	d.Dispatch(&event.ViewModeSync{
		Meta:      event.WorkspaceMeta("w1"),
		SessionID: "ghost",
		ViewMode:  types.ViewModeFocus,
	})

	// Entity gone inside a live session.
	d.Dispatch(&event.AgentGridSpanSync{
		Meta:      event.WorkspaceMeta("w1"),
		SessionID: "s1",
		AgentID:   "ghost",
		GridSpan:  types.GridSpan{ColSpan: 2, RowSpan: 2},
	})

	sess, ok := st.Get("s1")
	require.True(t, ok)
	assert.Equal(t, types.ViewModeGrid, sess.ViewMode, "store must be unchanged")
}

func TestHandleFrameToleratesGarbage(t *testing.T) {
	st, _, _, d := newFixture(t, true)

	d.HandleFrame(channel.Message{Topic: event.TopicLayout, Data: []byte(`{{{`)})
	d.HandleFrame(channel.Message{Topic: event.TopicLayout, Data: []byte(`{"type":"mystery","scope":"account"}`)})

	// Processing continues after bad frames.
	frame, err := event.Encode(&event.ViewModeSync{
		Meta:      event.WorkspaceMeta("w1"),
		SessionID: "s1",
		ViewMode:  types.ViewModeConversation,
	})
	require.NoError(t, err)
	d.HandleFrame(channel.Message{Topic: event.TopicLayout, Data: frame})

	sess, _ := st.Get("s1")
	assert.Equal(t, types.ViewModeConversation, sess.ViewMode)
}

func TestPreviewPatchDispatch(t *testing.T) {
	st, _, _, d := newFixture(t, true)

	docked := true
	path := "notes/renamed.md"
	d.Dispatch(&event.FilePreviewLayoutSync{
		Meta:         event.WorkspaceMeta("w1"),
		SessionID:    "s1",
		PreviewID:    "p1",
		PreviewPatch: event.PreviewPatch{Docked: &docked, Path: &path},
	})

	sess, _ := st.Get("s1")
	preview, _ := sess.Preview("p1")
	assert.True(t, preview.Docked)
	assert.Equal(t, "notes/renamed.md", preview.Path)
	assert.False(t, preview.Pinned, "absent fields stay untouched")
}

func TestConfigureRetargetsWorkspace(t *testing.T) {
	st, _, _, d := newFixture(t, true)

	frame, err := event.Encode(&event.ViewModeSync{
		Meta:      event.WorkspaceMeta("w2"),
		SessionID: "s1",
		ViewMode:  types.ViewModeFocus,
	})
	require.NoError(t, err)

	d.HandleFrame(channel.Message{Topic: event.TopicLayout, Data: frame})
	sess, _ := st.Get("s1")
	assert.Equal(t, types.ViewModeGrid, sess.ViewMode, "foreign workspace is ignored")

	d.Configure("w2", true)

	d.HandleFrame(channel.Message{Topic: event.TopicLayout, Data: frame})
	sess, _ = st.Get("s1")
	assert.Equal(t, types.ViewModeFocus, sess.ViewMode, "events for the new workspace apply")

	// The old workspace is now the foreign one.
	old, err := event.Encode(&event.ViewModeSync{
		Meta:      event.WorkspaceMeta("w1"),
		SessionID: "s1",
		ViewMode:  types.ViewModeConversation,
	})
	require.NoError(t, err)
	d.HandleFrame(channel.Message{Topic: event.TopicLayout, Data: old})
	sess, _ = st.Get("s1")
	assert.Equal(t, types.ViewModeFocus, sess.ViewMode)
}
