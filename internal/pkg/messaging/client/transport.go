package client

import (
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the minimal surface the manager needs from a live transport.
// *websocket.Conn satisfies it; tests substitute an in-memory fake.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a transport for a handshake URL. The user identity and
// credential travel as query parameters attached by the manager.
type Dialer interface {
	Dial(rawURL string) (Conn, error)
}

// WebsocketDialer is the production dialer backed by gorilla/websocket.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
}

func (d WebsocketDialer) Dial(rawURL string) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: d.HandshakeTimeout}
	if dialer.HandshakeTimeout == 0 {
		dialer.HandshakeTimeout = 10 * time.Second
	}
	ws, _, err := dialer.Dial(rawURL, nil)
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// handshakeURL builds the gateway URL with identity and token attached.
func handshakeURL(base, userID, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("user_id", userID)
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
