package relay_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomworks/agentboard/internal/channel"
	"github.com/loomworks/agentboard/internal/channel/wschannel"
	"github.com/loomworks/agentboard/internal/infrastructure/config"
	"github.com/loomworks/agentboard/internal/infrastructure/logging"
	"github.com/loomworks/agentboard/internal/relay"
)

const relayToken = "tok-relay"

func startRelay(t *testing.T) (wsURL, ticketURL string) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()

	hub := relay.NewHub(logging.NewNop())
	handler := relay.NewHandler(hub, config.RelayConfig{AuthToken: relayToken}, logging.NewNop())
	handler.Routes(router, config.RateLimitConfig{Enabled: false})

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	base := strings.TrimPrefix(ts.URL, "http")
	return "ws" + base + "/ws", ts.URL + "/ticket"
}

func dialClient(t *testing.T, opts wschannel.Options) *wschannel.Client {
	t.Helper()
	c := wschannel.New(opts, logging.NewNop())
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// recorder collects delivered messages for assertions across goroutines.
type recorder struct {
	mu   sync.Mutex
	msgs []channel.Message
}

func (r *recorder) handle(msg channel.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func (r *recorder) last() channel.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.msgs[len(r.msgs)-1]
}

func TestPublishFansOutToSubscribedPeer(t *testing.T) {
	wsURL, _ := startRelay(t)

	a := dialClient(t, wschannel.Options{RelayURL: wsURL, AuthToken: relayToken})
	b := dialClient(t, wschannel.Options{RelayURL: wsURL, AuthToken: relayToken})

	rec := &recorder{}
	_, err := a.Subscribe("workspace.layout", rec.handle)
	require.NoError(t, err)

	// The subscribe frame races the publish; retry until delivery.
	require.Eventually(t, func() bool {
		require.NoError(t, b.Publish("workspace.layout", []byte(`{"n":1}`)))
		return rec.count() > 0
	}, 5*time.Second, 50*time.Millisecond)

	got := rec.last()
	assert.Equal(t, "workspace.layout", got.Topic)
	assert.JSONEq(t, `{"n":1}`, string(got.Data))
}

func TestPublisherNeverHearsItsOwnFrame(t *testing.T) {
	wsURL, _ := startRelay(t)

	a := dialClient(t, wschannel.Options{RelayURL: wsURL, AuthToken: relayToken})
	b := dialClient(t, wschannel.Options{RelayURL: wsURL, AuthToken: relayToken})

	aRec := &recorder{}
	bRec := &recorder{}
	_, err := a.Subscribe("workspace.layout", aRec.handle)
	require.NoError(t, err)
	_, err = b.Subscribe("workspace.layout", bRec.handle)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		require.NoError(t, a.Publish("workspace.layout", []byte(`{}`)))
		return bRec.count() > 0
	}, 5*time.Second, 50*time.Millisecond)

	assert.Zero(t, aRec.count(), "publisher received its own frame")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	wsURL, _ := startRelay(t)

	a := dialClient(t, wschannel.Options{RelayURL: wsURL, AuthToken: relayToken})
	b := dialClient(t, wschannel.Options{RelayURL: wsURL, AuthToken: relayToken})

	rec := &recorder{}
	sub, err := a.Subscribe("extensions.toggled", rec.handle)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		require.NoError(t, b.Publish("extensions.toggled", []byte(`{}`)))
		return rec.count() > 0
	}, 5*time.Second, 50*time.Millisecond)

	sub.Unsubscribe()
	time.Sleep(100 * time.Millisecond) // Let the unsubscribe frame land.
	before := rec.count()

	require.NoError(t, b.Publish("extensions.toggled", []byte(`{}`)))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, before, rec.count())
}

func TestTicketHandshake(t *testing.T) {
	wsURL, ticketURL := startRelay(t)

	c := wschannel.New(wschannel.Options{
		RelayURL:  wsURL,
		TicketURL: ticketURL,
		AuthToken: relayToken,
	}, logging.NewNop())
	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Close())
}

func TestTicketRejectedForBadToken(t *testing.T) {
	wsURL, ticketURL := startRelay(t)

	c := wschannel.New(wschannel.Options{
		RelayURL:  wsURL,
		TicketURL: ticketURL,
		AuthToken: "wrong",
	}, logging.NewNop())
	assert.Error(t, c.Connect(context.Background()))
}

func TestDialRejectedWithoutCredentials(t *testing.T) {
	wsURL, _ := startRelay(t)

	c := wschannel.New(wschannel.Options{
		RelayURL:  wsURL,
		AuthToken: "wrong",
	}, logging.NewNop())
	assert.Error(t, c.Connect(context.Background()))
}
