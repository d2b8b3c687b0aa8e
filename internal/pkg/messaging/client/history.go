package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	messaging "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/domain"
)

// HistoryClient is the request-response lookup collaborator used to
// pre-populate the store when a chat view first opens a conversation.
type HistoryClient interface {
	History(ctx context.Context, selfID, otherID string) ([]messaging.Message, error)
}

// HTTPCollaborator talks to the marketplace API for history lookups and read
// receipt persistence. It implements both HistoryClient and ReceiptSink.
type HTTPCollaborator struct {
	BaseURL string
	HTTP    *http.Client
}

func NewHTTPCollaborator(baseURL string) *HTTPCollaborator {
	return &HTTPCollaborator{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

type historyResponse struct {
	Messages []messaging.Message `json:"messages"`
}

func (c *HTTPCollaborator) History(ctx context.Context, selfID, otherID string) ([]messaging.Message, error) {
	q := url.Values{}
	q.Set("self", selfID)
	q.Set("other", otherID)
	target := c.BaseURL + "/api/v1/messages/history?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("history lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history lookup: unexpected status %d", resp.StatusCode)
	}

	var body historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("history lookup: decode: %w", err)
	}
	return body.Messages, nil
}

type persistReadRequest struct {
	ConversationID string   `json:"conversation_id"`
	ReaderID       string   `json:"reader_id"`
	MessageIDs     []string `json:"message_ids"`
}

func (c *HTTPCollaborator) PersistRead(ctx context.Context, conversationID, readerID string, messageIDs []string) error {
	payload, err := json.Marshal(persistReadRequest{
		ConversationID: conversationID,
		ReaderID:       readerID,
		MessageIDs:     messageIDs,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/messages/read", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("persist read: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("persist read: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *HTTPCollaborator) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}
