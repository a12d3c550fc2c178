package dispatch

import (
	"fmt"

	"github.com/loomworks/agentboard/internal/channel"
	"github.com/loomworks/agentboard/internal/sync/event"
)

// Listen subscribes the dispatcher to the layout topic. The returned
// subscription must be released on teardown, before the channel client is
// closed.
func (d *Dispatcher) Listen(client channel.Client) (channel.Subscription, error) {
	sub, err := client.Subscribe(event.TopicLayout, d.HandleFrame)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe layout topic: %w", err)
	}
	return sub, nil
}
