package controller

import (
	"context"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/authclient"
	cacheport "github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/cache/port"
	"github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/realtime"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/application/presence"
	messaging "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/domain"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/event"
)

// memMessageRepo keeps saved messages in memory for gateway tests.
type memMessageRepo struct {
	mu    sync.Mutex
	saved []messaging.Message
}

func (r *memMessageRepo) SaveMessage(ctx context.Context, m messaging.Message) error {
	r.mu.Lock()
	r.saved = append(r.saved, m)
	r.mu.Unlock()
	return nil
}

func (r *memMessageRepo) GetMessagesByConversation(ctx context.Context, conversationID string, limit int) ([]messaging.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []messaging.Message
	for _, m := range r.saved {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMessageRepo) MarkDelivered(ctx context.Context, messageID string) error { return nil }

func (r *memMessageRepo) MarkRead(ctx context.Context, conversationID string, messageIDs []string) error {
	return nil
}

func (r *memMessageRepo) savedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

// memCache is a map-backed cache port so mirror writes are observable.
type memCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemCache() *memCache { return &memCache{values: make(map[string]string)} }

func (c *memCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", cacheport.ErrMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()
	return nil
}

func (c *memCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.ParseInt(c.values[key], 10, 64)
	n++
	c.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (c *memCache) Del(ctx context.Context, keys ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := c.values[key]; ok {
			delete(c.values, key)
			removed++
		}
	}
	return removed, nil
}

func (c *memCache) Ping(ctx context.Context) error { return nil }
func (c *memCache) Close() error                   { return nil }

type gatewayHarness struct {
	srv    *httptest.Server
	router *realtime.Router
	repo   *memMessageRepo
	mirror *presence.Mirror
}

func newGatewayHarness(t *testing.T) *gatewayHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := realtime.NewRouter()
	t.Cleanup(router.Close)

	repo := &memMessageRepo{}
	mirror := presence.NewMirror(newMemCache())
	ctl := NewGatewaySocketController(repo, router, authclient.TokenPresence{}, mirror, nil)

	engine := gin.New()
	engine.GET("/ws", ctl.Handle())
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	return &gatewayHarness{srv: srv, router: router, repo: repo, mirror: mirror}
}

func (h *gatewayHarness) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws?user_id=" + userID + "&token=tok"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", userID, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil drains frames (presence chatter included) until one of the wanted
// type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, eventType string) event.Frame {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", eventType, err)
		}
		frame, err := event.Decode(raw)
		if err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if frame.Type == eventType {
			return frame
		}
	}
	t.Fatalf("no %s frame before deadline", eventType)
	return event.Frame{}
}

func sendFrame(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()
	raw, err := event.Encode(eventType, payload)
	if err != nil {
		t.Fatalf("encode %s: %v", eventType, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write %s: %v", eventType, err)
	}
}

func waitForCond(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestGatewaySendMessageFanOutAndEcho(t *testing.T) {
	h := newGatewayHarness(t)

	u1 := h.dial(t, "u1")
	u2 := h.dial(t, "u2")
	readUntil(t, u1, event.Connected)
	readUntil(t, u2, event.Connected)

	sendFrame(t, u1, event.Join, event.JoinPayload{ConversationID: "conv_u1_u2"})
	sendFrame(t, u2, event.Join, event.JoinPayload{ConversationID: "conv_u1_u2"})
	if !waitForCond(t, func() bool {
		return h.router.InRoom("conv_u1_u2", "u1") && h.router.InRoom("conv_u1_u2", "u2")
	}) {
		t.Fatal("joins never registered")
	}

	sendFrame(t, u1, event.SendMessage, event.SendMessagePayload{
		ConversationID: "conv_u1_u2",
		ReceiverID:     "u2",
		Body:           "hello",
	})

	// The receiver gets the confirmed message.
	var got messaging.Message
	if err := readUntil(t, u2, event.NewMessage).Payload(&got); err != nil {
		t.Fatalf("decode new_message: %v", err)
	}
	if got.ID == "" || got.Body != "hello" || got.SenderID != "u1" || got.Status != messaging.StatusSent {
		t.Fatalf("unexpected message: %+v", got)
	}

	// The sender's log is confirmation-driven: its copy arrives too.
	var echo messaging.Message
	if err := readUntil(t, u1, event.NewMessage).Payload(&echo); err != nil {
		t.Fatalf("decode echo: %v", err)
	}
	if echo.ID != got.ID {
		t.Fatalf("echo carries a different message: %q vs %q", echo.ID, got.ID)
	}

	if h.repo.savedCount() != 1 {
		t.Fatalf("expected one persisted message, got %d", h.repo.savedCount())
	}

	// An in-room receiver renders on screen, so the mirror is not bumped.
	ctx := context.Background()
	if got := h.mirror.UnreadCount(ctx, "conv_u1_u2", "u2"); got != 0 {
		t.Fatalf("in-room receiver got an unread bump: %d", got)
	}
}

func TestGatewayOutOfRoomReceiverGetsUnreadBumpAndDirectNotify(t *testing.T) {
	h := newGatewayHarness(t)

	u1 := h.dial(t, "u1")
	u3 := h.dial(t, "u3")
	readUntil(t, u1, event.Connected)
	readUntil(t, u3, event.Connected)

	sendFrame(t, u1, event.Join, event.JoinPayload{ConversationID: "conv_u1_u3"})
	if !waitForCond(t, func() bool { return h.router.InRoom("conv_u1_u3", "u1") }) {
		t.Fatal("join never registered")
	}

	// u3 is online but has not joined the room.
	sendFrame(t, u1, event.SendMessage, event.SendMessagePayload{
		ConversationID: "conv_u1_u3",
		ReceiverID:     "u3",
		Body:           "are you available tomorrow?",
	})

	var got messaging.Message
	if err := readUntil(t, u3, event.NewMessage).Payload(&got); err != nil {
		t.Fatalf("decode new_message: %v", err)
	}
	if got.ReceiverID != "u3" {
		t.Fatalf("direct notify for wrong receiver: %+v", got)
	}

	ctx := context.Background()
	if !waitForCond(t, func() bool { return h.mirror.UnreadCount(ctx, "conv_u1_u3", "u3") == 1 }) {
		t.Fatalf("expected unread bump for out-of-room receiver, got %d",
			h.mirror.UnreadCount(ctx, "conv_u1_u3", "u3"))
	}
	if got := h.mirror.UnreadCount(ctx, "conv_u1_u3", "u1"); got != 0 {
		t.Fatalf("sender's counter leaked: %d", got)
	}
}

func TestGatewayRejectsMalformedJoin(t *testing.T) {
	h := newGatewayHarness(t)

	u1 := h.dial(t, "u1")
	readUntil(t, u1, event.Connected)

	sendFrame(t, u1, event.Join, event.JoinPayload{ConversationID: "u2_conv_u1"})

	var p event.ErrorPayload
	if err := readUntil(t, u1, event.Error).Payload(&p); err != nil {
		t.Fatalf("decode error frame: %v", err)
	}
	if p.Code != "bad_conversation_id" {
		t.Fatalf("expected bad_conversation_id, got %q", p.Code)
	}
	if h.router.InRoom("u2_conv_u1", "u1") {
		t.Fatal("malformed conversation id was joined")
	}
}

func TestGatewayRelaysTypingWithFlag(t *testing.T) {
	h := newGatewayHarness(t)

	u1 := h.dial(t, "u1")
	u2 := h.dial(t, "u2")
	readUntil(t, u1, event.Connected)
	readUntil(t, u2, event.Connected)

	sendFrame(t, u1, event.Join, event.JoinPayload{ConversationID: "conv_u1_u2"})
	sendFrame(t, u2, event.Join, event.JoinPayload{ConversationID: "conv_u1_u2"})
	if !waitForCond(t, func() bool {
		return h.router.InRoom("conv_u1_u2", "u1") && h.router.InRoom("conv_u1_u2", "u2")
	}) {
		t.Fatal("joins never registered")
	}

	sendFrame(t, u1, event.Typing, event.TypingPayload{ConversationID: "conv_u1_u2", DisplayName: "Ana"})
	var start event.TypingPayload
	if err := readUntil(t, u2, event.Typing).Payload(&start); err != nil {
		t.Fatalf("decode typing: %v", err)
	}
	if start.UserID != "u1" || !start.IsTyping {
		t.Fatalf("unexpected typing relay: %+v", start)
	}

	// stop_typing relays under the same event name with the flag cleared.
	sendFrame(t, u1, event.StopTyping, event.TypingPayload{ConversationID: "conv_u1_u2"})
	var stop event.TypingPayload
	if err := readUntil(t, u2, event.Typing).Payload(&stop); err != nil {
		t.Fatalf("decode stop relay: %v", err)
	}
	if stop.UserID != "u1" || stop.IsTyping {
		t.Fatalf("unexpected stop relay: %+v", stop)
	}
}
