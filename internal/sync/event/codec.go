package event

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// ErrUnknownKind is returned when a frame names an event type outside the
// closed set. Callers drop the frame and keep processing.
var ErrUnknownKind = errors.New("unknown event kind")

// envelope is the wire shape of every frame: the type tag and scope fields
// sit beside an opaque payload so routing never parses entity data.
type envelope struct {
	Type        Kind            `json:"type"`
	Scope       Scope           `json:"scope"`
	WorkspaceID string          `json:"workspace_id,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// Encode serializes an event into its wire frame.
func Encode(ev Event) ([]byte, error) {
	payload, err := sonic.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", ev.Kind(), err)
	}

	return sonic.Marshal(envelope{
		Type:        ev.Kind(),
		Scope:       ev.EventScope(),
		WorkspaceID: ev.EventWorkspace(),
		Payload:     payload,
	})
}

// Decode parses a wire frame back into a typed event. A frame with an
// unrecognized type returns ErrUnknownKind; malformed JSON returns a wrapped
// error. Neither panics.
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed event frame: %w", err)
	}

	meta := Meta{Scope: env.Scope, WorkspaceID: env.WorkspaceID}

	var ev Event
	switch env.Type {
	case KindExtensionInstalled:
		ev = &ExtensionInstalled{Meta: meta}
	case KindExtensionUninstalled:
		ev = &ExtensionUninstalled{Meta: meta}
	case KindExtensionToggled:
		ev = &ExtensionToggled{Meta: meta}
	case KindExtensionSettingsChanged:
		ev = &ExtensionSettingsChanged{Meta: meta}
	case KindViewMode:
		ev = &ViewModeSync{Meta: meta}
	case KindActiveAgent:
		ev = &ActiveAgentSync{Meta: meta}
	case KindAgentGridSpan:
		ev = &AgentGridSpanSync{Meta: meta}
	case KindAgentPosition:
		ev = &AgentPositionSync{Meta: meta}
	case KindFilePreviewLayout:
		ev = &FilePreviewLayoutSync{Meta: meta}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Type)
	}

	if len(env.Payload) > 0 {
		if err := sonic.Unmarshal(env.Payload, ev); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Type, err)
		}
	}

	return ev, nil
}
