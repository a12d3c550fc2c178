package store

import (
	"strings"
	"testing"

	"github.com/loomworks/agentboard/internal/shared/id"
)

func assertMintedID(t *testing.T, got, prefix string) {
	t.Helper()
	if !strings.HasPrefix(got, prefix+"_") {
		t.Fatalf("id %q should carry the %q prefix", got, prefix)
	}
	if !id.IsValid(strings.TrimPrefix(got, prefix+"_")) {
		t.Fatalf("id %q should wrap a valid ULID", got)
	}
}

func TestCreateSessionMintsID(t *testing.T) {
	s := New()

	var fired int
	cancel := s.Subscribe(func(Change) { fired++ })
	defer cancel()

	sess := s.CreateSession("pairing", OriginLocal)
	assertMintedID(t, sess.ID, id.SessionPrefix)

	got, ok := s.Get(sess.ID)
	if !ok {
		t.Fatal("created session should be retrievable")
	}
	if got.Name != "pairing" || got.ViewMode != "grid" {
		t.Errorf("unexpected session state: %+v", got)
	}
	if fired != 1 {
		t.Errorf("creation should notify once, got %d", fired)
	}

	other := s.CreateSession("review", OriginLocal)
	if other.ID == sess.ID {
		t.Error("session ids should be unique")
	}
}

func TestCreateAgentAndPreview(t *testing.T) {
	s := New()
	sess := s.CreateSession("pairing", OriginLocal)

	agent, ok := s.CreateAgent(sess.ID, "planner", OriginLocal)
	if !ok {
		t.Fatal("agent creation should succeed")
	}
	assertMintedID(t, agent.ID, id.AgentPrefix)

	preview, ok := s.CreateFilePreview(sess.ID, "notes/plan.md", OriginLocal)
	if !ok {
		t.Fatal("preview creation should succeed")
	}
	assertMintedID(t, preview.ID, id.PreviewPrefix)

	got, _ := s.Get(sess.ID)
	if _, ok := got.Agent(agent.ID); !ok {
		t.Error("agent should be attached to the session")
	}
	if _, ok := got.Preview(preview.ID); !ok {
		t.Error("preview should be attached to the session")
	}
}

func TestCreateConversationStampsTimestamps(t *testing.T) {
	s := New()
	sess := s.CreateSession("pairing", OriginLocal)

	conv, ok := s.CreateConversation(sess.ID, "standup", OriginLocal)
	if !ok {
		t.Fatal("conversation creation should succeed")
	}
	assertMintedID(t, conv.ID, id.ConversationPrefix)
	if conv.CreatedAt.IsZero() || !conv.CreatedAt.Equal(conv.UpdatedAt) {
		t.Errorf("fresh conversation should stamp CreatedAt == UpdatedAt, got %+v", conv)
	}
}

func TestCreateAgainstMissingSession(t *testing.T) {
	s := New()

	if _, ok := s.CreateAgent("ghost", "planner", OriginLocal); ok {
		t.Error("agent creation against a missing session should fail")
	}
	if _, ok := s.CreateFilePreview("ghost", "notes/plan.md", OriginLocal); ok {
		t.Error("preview creation against a missing session should fail")
	}
	if _, ok := s.CreateConversation("ghost", "standup", OriginLocal); ok {
		t.Error("conversation creation against a missing session should fail")
	}
}
