// Package id provides centralized ID generation for the sync core.
//
// This package offers type-safe ULID generation with:
//   - Lexicographic sortability: new entities sort by creation time
//   - Prefixed types: type-specific prefixes for debugging (sess_*, agent_*)
//   - Type safety: separate types prevent ID misuse across entities
//
// IDs generated here identify sessions, agents, conversations, and file
// previews; relay connection ids use random UUIDs instead since they are
// ephemeral and never sorted.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies a workspace session
type SessionID string

// AgentID identifies an agent within a session
type AgentID string

// ConversationID identifies a conversation session
type ConversationID string

// PreviewID identifies a file preview tile
type PreviewID string

const (
	SessionPrefix      = "sess"
	AgentPrefix        = "agent"
	ConversationPrefix = "conv"
	PreviewPrefix      = "prev"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a ULID generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source,
// useful for deterministic tests
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewSessionID generates a new workspace session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewAgentID generates a new agent ID
func NewAgentID() AgentID {
	return AgentID(Default().GenerateWithPrefix(AgentPrefix))
}

// NewConversationID generates a new conversation session ID
func NewConversationID() ConversationID {
	return ConversationID(Default().GenerateWithPrefix(ConversationPrefix))
}

// NewPreviewID generates a new file preview ID
func NewPreviewID() PreviewID {
	return PreviewID(Default().GenerateWithPrefix(PreviewPrefix))
}

func (id SessionID) String() string      { return string(id) }
func (id AgentID) String() string        { return string(id) }
func (id ConversationID) String() string { return string(id) }
func (id PreviewID) String() string      { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the creation time from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
