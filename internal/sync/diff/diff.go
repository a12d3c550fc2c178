package diff

import (
	"github.com/loomworks/agentboard/internal/shared/types"
	"github.com/loomworks/agentboard/internal/sync/event"
)

// diffSnapshots computes the minimal command set that carries prev to cur.
//
// Session scalars compare by value. Entity fields compare by id lookup
// against the previous watermark: an entity with no previous counterpart
// emits its full tracked state (first observation); a known entity emits
// only the fields whose values changed. Entities present in prev but gone
// from cur emit nothing — removal propagation belongs to session lifecycle
// events, not this pass.
func diffSnapshots(prev, cur *snapshot, sessionID, workspaceID string) []event.Event {
	meta := event.WorkspaceMeta(workspaceID)
	var cmds []event.Event

	if prev.viewMode != cur.viewMode {
		cmds = append(cmds, &event.ViewModeSync{
			Meta:      meta,
			SessionID: sessionID,
			ViewMode:  cur.viewMode,
		})
	}

	if !stringPtrEqual(prev.activeAgentID, cur.activeAgentID) {
		cmds = append(cmds, &event.ActiveAgentSync{
			Meta:      meta,
			SessionID: sessionID,
			AgentID:   cur.activeAgentID,
		})
	}

	for _, agentID := range cur.agentOrder {
		layout := cur.agents[agentID]
		prevLayout, known := prev.agents[agentID]

		if layout.gridSpan != nil && (!known || !spanEqual(prevLayout.gridSpan, layout.gridSpan)) {
			cmds = append(cmds, &event.AgentGridSpanSync{
				Meta:      meta,
				SessionID: sessionID,
				AgentID:   agentID,
				GridSpan:  *layout.gridSpan,
			})
		}
		if layout.position != nil && (!known || !positionEqual(prevLayout.position, layout.position)) {
			cmds = append(cmds, &event.AgentPositionSync{
				Meta:      meta,
				SessionID: sessionID,
				AgentID:   agentID,
				Position:  *layout.position,
			})
		}
	}

	for _, previewID := range cur.previewOrder {
		layout := cur.previews[previewID]
		prevLayout, known := prev.previews[previewID]

		var patch event.PreviewPatch
		if !known {
			// First observation: full state for this preview.
			patch = fullPreviewPatch(layout)
		} else {
			patch = previewDelta(prevLayout, layout)
		}
		if patch.Empty() {
			continue
		}

		cmds = append(cmds, &event.FilePreviewLayoutSync{
			Meta:         meta,
			SessionID:    sessionID,
			PreviewID:    previewID,
			PreviewPatch: patch,
		})
	}

	return cmds
}

func fullPreviewPatch(layout previewLayout) event.PreviewPatch {
	docked := layout.docked
	pinned := layout.pinned
	path := layout.path
	patch := event.PreviewPatch{
		Docked: &docked,
		Pinned: &pinned,
		Path:   &path,
	}
	if layout.gridSpan != nil {
		span := *layout.gridSpan
		patch.GridSpan = &span
	}
	return patch
}

// previewDelta includes only the fields whose values differ, keeping the
// wire payload minimal.
func previewDelta(prev, cur previewLayout) event.PreviewPatch {
	var patch event.PreviewPatch
	if !spanEqual(prev.gridSpan, cur.gridSpan) && cur.gridSpan != nil {
		span := *cur.gridSpan
		patch.GridSpan = &span
	}
	if prev.docked != cur.docked {
		docked := cur.docked
		patch.Docked = &docked
	}
	if prev.pinned != cur.pinned {
		pinned := cur.pinned
		patch.Pinned = &pinned
	}
	if prev.path != cur.path {
		path := cur.path
		patch.Path = &path
	}
	return patch
}

// Composite fields compare by value, not by pointer identity.

func spanEqual(a, b *types.GridSpan) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func positionEqual(a, b *types.Position) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
