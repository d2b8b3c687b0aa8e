// Package authclient talks to the marketplace auth collaborator. The
// messaging subsystem never validates credentials itself; it forwards the
// token presented at the websocket handshake and honors the answer.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Verifier checks that token belongs to userID.
type Verifier interface {
	Verify(ctx context.Context, userID, token string) error
}

var ErrUnauthorized = errors.New("auth: token rejected")

// HTTPVerifier posts the pair to the auth service's verify endpoint.
type HTTPVerifier struct {
	URL  string
	HTTP *http.Client
}

// NewVerifierFromEnv returns an HTTPVerifier when AUTH_URL is set, otherwise
// a TokenPresence verifier that only requires a non-empty token. The latter
// keeps local development independent of the auth service.
func NewVerifierFromEnv() Verifier {
	if url := os.Getenv("AUTH_URL"); url != "" {
		return &HTTPVerifier{URL: url, HTTP: &http.Client{Timeout: 3 * time.Second}}
	}
	return TokenPresence{}
}

type verifyRequest struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

func (v *HTTPVerifier) Verify(ctx context.Context, userID, token string) error {
	payload, err := json.Marshal(verifyRequest{UserID: userID, Token: token})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := v.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: verify: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("auth: verify: unexpected status %d", resp.StatusCode)
	}
}

// TokenPresence accepts any non-empty token.
type TokenPresence struct{}

func (TokenPresence) Verify(_ context.Context, _, token string) error {
	if token == "" {
		return ErrUnauthorized
	}
	return nil
}
