package channel

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// Frame is the relay wire format. Every websocket message between a client
// and the relay is one JSON-encoded frame.
type Frame struct {
	Op    string `json:"op"`
	Topic string `json:"topic"`
	Data  []byte `json:"data,omitempty"`
}

// Frame operations.
const (
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
	OpPublish     = "publish"
)

// EncodeFrame serializes a frame for the wire.
func EncodeFrame(f Frame) ([]byte, error) {
	data, err := sonic.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return data, nil
}

// DecodeFrame parses a wire message into a frame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := sonic.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	if f.Op == "" || f.Topic == "" {
		return Frame{}, fmt.Errorf("frame missing op or topic")
	}
	return f, nil
}
