package wschannel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-retryablehttp"
)

// ticketResponse is the body of the ticket endpoint. The ticket is a
// short-lived credential exchanged for the websocket upgrade, keeping the
// long-lived auth token out of the relay URL.
type ticketResponse struct {
	Ticket string `json:"ticket"`
}

func newTicketClient(timeout time.Duration) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 1 * time.Second
	client.RetryWaitMax = 10 * time.Second
	client.HTTPClient.Timeout = timeout
	client.Logger = nil
	return client
}

func (c *Client) fetchTicket(ctx context.Context) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.opts.TicketURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build ticket request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.AuthToken)

	resp, err := newTicketClient(c.opts.HandshakeTimeout).Do(req)
	if err != nil {
		return "", fmt.Errorf("ticket request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ticket endpoint returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read ticket response: %w", err)
	}

	var ticket ticketResponse
	if err := sonic.Unmarshal(body, &ticket); err != nil {
		return "", fmt.Errorf("failed to decode ticket response: %w", err)
	}
	if ticket.Ticket == "" {
		return "", fmt.Errorf("ticket endpoint returned an empty ticket")
	}
	return ticket.Ticket, nil
}

// dial resolves credentials and opens the websocket. With a ticket endpoint
// configured the token is exchanged first; otherwise the token rides the
// upgrade request as a bearer header.
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	target := c.opts.RelayURL
	header := http.Header{}

	if c.opts.TicketURL != "" {
		ticket, err := c.fetchTicket(ctx)
		if err != nil {
			return nil, err
		}
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("invalid relay url: %w", err)
		}
		q := u.Query()
		q.Set("ticket", ticket)
		u.RawQuery = q.Encode()
		target = u.String()
	} else if c.opts.AuthToken != "" {
		header.Set("Authorization", "Bearer "+c.opts.AuthToken)
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.opts.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, target, header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay: %w", err)
	}
	return conn, nil
}
