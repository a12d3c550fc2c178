package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomworks/agentboard/internal/infrastructure/logging"
	"github.com/loomworks/agentboard/internal/shared/types"
	"github.com/loomworks/agentboard/internal/sync/event"
	"github.com/loomworks/agentboard/internal/sync/store"
)

// capturePublisher records every published command, decoded.
type capturePublisher struct {
	topics []string
	events []event.Event
}

func (c *capturePublisher) Publish(topic string, data []byte) error {
	ev, err := event.Decode(data)
	if err != nil {
		return err
	}
	c.topics = append(c.topics, topic)
	c.events = append(c.events, ev)
	return nil
}

func (c *capturePublisher) reset() {
	c.topics = nil
	c.events = nil
}

func newFixture(t *testing.T) (*store.Store, *capturePublisher, *Synchronizer) {
	t.Helper()

	st := store.New()
	pub := &capturePublisher{}
	sync := New(st, pub, "w1", logging.NewNop())
	sync.Start()
	t.Cleanup(sync.Stop)

	return st, pub, sync
}

func seedSession(st *store.Store) {
	a1 := "a1"
	st.Put(&types.Session{
		ID:       "s1",
		Name:     "Planning",
		ViewMode: types.ViewModeGrid,
		Agents: []types.AgentCore{
			{ID: "a1", Name: "Researcher"},
			{ID: "a2", Name: "Builder"},
		},
		ActiveAgentID: &a1,
		FilePreviews: []types.FilePreview{
			{ID: "p1", Path: "notes/plan.md", Docked: true},
		},
	}, store.OriginRemote) // seed without emission
}

func TestActiveAgentScenario(t *testing.T) {
	st, pub, _ := newFixture(t)
	seedSession(st)
	require.Empty(t, pub.events, "remote seed must not emit")

	a2 := "a2"
	st.SetActiveAgent("s1", &a2, store.OriginLocal)

	require.Len(t, pub.events, 1, "exactly one command expected")
	cmd, ok := pub.events[0].(*event.ActiveAgentSync)
	require.True(t, ok, "expected ActiveAgentSync, got %T", pub.events[0])
	assert.Equal(t, "s1", cmd.SessionID)
	require.NotNil(t, cmd.AgentID)
	assert.Equal(t, "a2", *cmd.AgentID)
	assert.Equal(t, event.TopicLayout, pub.topics[0])

	// Re-applying the identical value re-notifies but the watermark already
	// holds it: no second emission.
	pub.reset()
	st.SetActiveAgent("s1", &a2, store.OriginLocal)
	assert.Empty(t, pub.events, "identical state must not re-emit")
}

func TestRemoteOriginNeverEchoes(t *testing.T) {
	st, pub, _ := newFixture(t)
	seedSession(st)

	st.SetViewMode("s1", types.ViewModeFocus, store.OriginRemote)
	assert.Empty(t, pub.events, "remote patches must not echo")

	// The watermark absorbed the remote value: switching locally back to
	// grid is a real change and emits once.
	st.SetViewMode("s1", types.ViewModeGrid, store.OriginLocal)
	require.Len(t, pub.events, 1)
	cmd := pub.events[0].(*event.ViewModeSync)
	assert.Equal(t, types.ViewModeGrid, cmd.ViewMode)
}

func TestMinimalPreviewPatch(t *testing.T) {
	st, pub, _ := newFixture(t)
	seedSession(st)

	pinned := true
	st.ApplyPreviewPatch("s1", "p1", event.PreviewPatch{Pinned: &pinned}, store.OriginLocal)

	require.Len(t, pub.events, 1)
	cmd := pub.events[0].(*event.FilePreviewLayoutSync)
	assert.Equal(t, "p1", cmd.PreviewID)
	require.NotNil(t, cmd.Pinned)
	assert.True(t, *cmd.Pinned)
	assert.Nil(t, cmd.Docked, "unchanged fields must be absent")
	assert.Nil(t, cmd.GridSpan)
	assert.Nil(t, cmd.Path)
}

func TestNewPreviewEmitsFullState(t *testing.T) {
	st, pub, _ := newFixture(t)
	seedSession(st)

	st.AddFilePreview("s1", types.FilePreview{
		ID:       "p2",
		Path:     "src/main.go",
		GridSpan: &types.GridSpan{ColSpan: 2, RowSpan: 2},
		Pinned:   true,
	}, store.OriginLocal)

	require.Len(t, pub.events, 1)
	cmd := pub.events[0].(*event.FilePreviewLayoutSync)
	assert.Equal(t, "p2", cmd.PreviewID)
	require.NotNil(t, cmd.Path)
	assert.Equal(t, "src/main.go", *cmd.Path)
	require.NotNil(t, cmd.GridSpan)
	assert.Equal(t, types.GridSpan{ColSpan: 2, RowSpan: 2}, *cmd.GridSpan)
	require.NotNil(t, cmd.Docked)
	assert.False(t, *cmd.Docked)
	require.NotNil(t, cmd.Pinned)
	assert.True(t, *cmd.Pinned)
}

func TestAgentLayoutDiff(t *testing.T) {
	st, pub, _ := newFixture(t)
	seedSession(st)

	st.SetAgentGridSpan("s1", "a1", types.GridSpan{ColSpan: 2, RowSpan: 1}, store.OriginLocal)
	require.Len(t, pub.events, 1)
	span := pub.events[0].(*event.AgentGridSpanSync)
	assert.Equal(t, "a1", span.AgentID)
	assert.Equal(t, types.GridSpan{ColSpan: 2, RowSpan: 1}, span.GridSpan)

	// Same span again: deep equality, not pointer identity, suppresses it.
	pub.reset()
	st.SetAgentGridSpan("s1", "a1", types.GridSpan{ColSpan: 2, RowSpan: 1}, store.OriginLocal)
	assert.Empty(t, pub.events)

	pub.reset()
	st.SetAgentPosition("s1", "a2", types.Position{X: 4, Y: 0, Width: 3, Height: 2}, store.OriginLocal)
	require.Len(t, pub.events, 1)
	pos := pub.events[0].(*event.AgentPositionSync)
	assert.Equal(t, "a2", pos.AgentID)
	assert.Equal(t, types.Position{X: 4, Y: 0, Width: 3, Height: 2}, pos.Position)
}

func TestRemovedEntityNotRetracted(t *testing.T) {
	st, pub, _ := newFixture(t)
	seedSession(st)

	st.RemoveFilePreview("s1", "p1", store.OriginLocal)
	assert.Empty(t, pub.events, "entity removal emits no retraction command")
}

func TestSessionRemovalDropsWatermark(t *testing.T) {
	st, pub, sync := newFixture(t)
	seedSession(st)

	st.Remove("s1", store.OriginRemote)

	sync.mu.Lock()
	_, held := sync.watermark["s1"]
	sync.mu.Unlock()
	assert.False(t, held, "watermark for a removed session must be dropped")
	assert.Empty(t, pub.events)
}

func TestLocalSessionCreationEmitsInitialState(t *testing.T) {
	st, pub, _ := newFixture(t)

	st.Put(&types.Session{
		ID:       "s2",
		ViewMode: types.ViewModeFocus,
		FilePreviews: []types.FilePreview{
			{ID: "p1", Path: "readme.md"},
		},
	}, store.OriginLocal)

	kinds := make(map[event.Kind]int)
	for _, ev := range pub.events {
		kinds[ev.Kind()]++
	}
	assert.Equal(t, 1, kinds[event.KindViewMode], "initial view mode should be announced")
	assert.Equal(t, 1, kinds[event.KindFilePreviewLayout], "new preview should be announced")
}
