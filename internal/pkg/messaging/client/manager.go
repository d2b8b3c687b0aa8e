package client

import (
	"errors"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/event"
)

// State is the connection lifecycle of the manager.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// Handler consumes one inbound frame. Handlers run on the single read loop
// goroutine, so dispatch order matches transport delivery order.
type Handler func(event.Frame)

var (
	ErrEmptyUserID   = errors.New("client: user id is empty")
	ErrSessionActive = errors.New("client: a different user session is already connected")
)

// Manager owns the single persistent connection for the current session.
// It is the one shared resource of the subsystem: created at most once per
// authenticated user, with every inbound event dispatched to exactly one
// handler from a fixed event-name table.
type Manager struct {
	mu      sync.Mutex
	baseURL string
	dialer  Dialer

	conn   Conn
	state  State
	userID string

	// subscribed guards the one-time handler attachment. Repeated Subscribe
	// calls never attach a second table; the flag lives on the manager, not
	// in package scope.
	subscribed bool
	handlers   map[string]Handler

	onDown func()
}

// NewManager builds a manager for the gateway at baseURL. A nil dialer
// selects the production websocket dialer.
func NewManager(baseURL string, dialer Dialer) *Manager {
	if dialer == nil {
		dialer = WebsocketDialer{}
	}
	return &Manager{
		baseURL:  baseURL,
		dialer:   dialer,
		handlers: make(map[string]Handler),
	}
}

// Subscribe installs the inbound dispatch table exactly once. Later calls are
// no-ops so a re-mounted consumer cannot double-invoke handlers.
func (m *Manager) Subscribe(table map[string]Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribed {
		return
	}
	for name, h := range table {
		if h != nil {
			m.handlers[name] = h
		}
	}
	m.subscribed = true
}

// OnDown registers a callback invoked after the transport is lost or torn
// down. Session-scoped caches are cleared there.
func (m *Manager) OnDown(fn func()) {
	m.mu.Lock()
	m.onDown = fn
	m.mu.Unlock()
}

// Connect opens the transport for userID with the credential attached to the
// handshake. It is a no-op when a live connection for the same user already
// exists; opening a second one would double-deliver every inbound event.
func (m *Manager) Connect(userID, token string) error {
	if userID == "" {
		return ErrEmptyUserID
	}

	m.mu.Lock()
	switch m.state {
	case StateConnected, StateConnecting:
		defer m.mu.Unlock()
		if m.userID == userID {
			return nil
		}
		return ErrSessionActive
	}
	m.state = StateConnecting
	m.userID = userID
	m.mu.Unlock()

	target, err := handshakeURL(m.baseURL, userID, token)
	if err != nil {
		m.markDisconnected(false)
		return err
	}

	conn, err := m.dialer.Dial(target)
	if err != nil {
		m.markDisconnected(false)
		return err
	}

	m.mu.Lock()
	m.conn = conn
	m.state = StateConnected
	m.mu.Unlock()

	go m.readLoop(conn)
	return nil
}

// Disconnect tears down the transport. Safe to call when already down.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	wasUp := m.state != StateDisconnected
	m.state = StateDisconnected
	m.userID = ""
	down := m.onDown
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if wasUp && down != nil {
		down()
	}
}

// IsConnected is the observable callers poll before emitting. Transport
// failures surface here rather than as thrown errors.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateConnected
}

// Emit sends a fire-and-forget intent. It reports false when no live
// connection exists or the write fails; callers surface that as a UI warning.
func (m *Manager) Emit(eventType string, payload any) bool {
	m.mu.Lock()
	conn := m.conn
	connected := m.state == StateConnected
	m.mu.Unlock()

	if !connected || conn == nil {
		return false
	}

	raw, err := event.Encode(eventType, payload)
	if err != nil {
		log.Printf("client: encode %s: %v", eventType, err)
		return false
	}
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		log.Printf("client: emit %s: %v", eventType, err)
		return false
	}
	return true
}

// readLoop dispatches inbound frames until the transport fails. Each frame
// goes to exactly one handler; unknown event names are dropped.
func (m *Manager) readLoop(conn Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			m.markDisconnected(true)
			return
		}

		frame, err := event.Decode(raw)
		if err != nil {
			log.Printf("client: dropping malformed frame: %v", err)
			continue
		}

		m.mu.Lock()
		h := m.handlers[frame.Type]
		m.mu.Unlock()
		if h != nil {
			h(frame)
		}
	}
}

func (m *Manager) markDisconnected(notify bool) {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	wasUp := m.state == StateConnected
	m.state = StateDisconnected
	m.userID = ""
	down := m.onDown
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if notify && wasUp && down != nil {
		down()
	}
}
