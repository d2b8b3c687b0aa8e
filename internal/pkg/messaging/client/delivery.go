package client

import (
	"context"
	"log"
	"sync"
	"time"

	messaging "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/domain"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/event"
)

// ReceiptSink persists read receipts server-side. It is the mark-read
// collaborator from the external marketplace API, invoked alongside the
// realtime intent, never instead of it.
type ReceiptSink interface {
	PersistRead(ctx context.Context, conversationID, readerID string, messageIDs []string) error
}

// DeliveryTracker applies sent -> delivered -> read transitions onto the log
// and keeps per-conversation unread counters.
type DeliveryTracker struct {
	mu       sync.Mutex
	store    *MessageStore
	emit     emitFunc
	receipts ReceiptSink // may be nil when no collaborator is wired
	unread   map[string]int
}

func NewDeliveryTracker(store *MessageStore, emit emitFunc, receipts ReceiptSink) *DeliveryTracker {
	return &DeliveryTracker{
		store:    store,
		emit:     emit,
		receipts: receipts,
		unread:   make(map[string]int),
	}
}

// MarkDelivered applies an inbound delivery acknowledgment. A message already
// read ignores it.
func (d *DeliveryTracker) MarkDelivered(messageID string) {
	d.store.UpdateStatus(messageID, messaging.StatusDelivered)
}

// MarkRead applies an inbound read acknowledgment for a batch of messages.
func (d *DeliveryTracker) MarkRead(messageIDs []string) {
	for _, id := range messageIDs {
		d.store.UpdateStatus(id, messaging.StatusRead)
	}
}

// RecordInbound does unread accounting for a freshly appended message: the
// counter moves only when the local user is the receiver and the conversation
// is not the one being actively viewed.
func (d *DeliveryTracker) RecordInbound(msg messaging.Message, selfID, activeConversationID string) {
	if msg.ReceiverID != selfID || msg.ConversationID == activeConversationID {
		return
	}
	d.mu.Lock()
	d.unread[msg.ConversationID]++
	d.mu.Unlock()
}

// RequestRead emits the read intent for messages now visible in a chat view,
// persists the receipt through the collaborator, and zeroes the conversation
// counter. Returns false when the realtime intent could not be sent.
func (d *DeliveryTracker) RequestRead(ctx context.Context, conversationID, readerID string, messageIDs []string) bool {
	ok := d.emit(event.MarkRead, event.ReadPayload{
		ConversationID: conversationID,
		ReaderID:       readerID,
		MessageIDs:     messageIDs,
	})

	if d.receipts != nil && len(messageIDs) > 0 {
		ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := d.receipts.PersistRead(ctx, conversationID, readerID, messageIDs); err != nil {
			// Best effort: the realtime intent already went out (or failed
			// visibly); persistence catches up on the next open.
			log.Printf("client: persist read receipt: %v", err)
		}
	}

	// Reading locally always clears the counter, even while disconnected.
	d.MarkRead(messageIDs)
	d.mu.Lock()
	d.unread[conversationID] = 0
	d.mu.Unlock()
	return ok
}

// UnreadCount returns the counter for a conversation; zero for unknown ids.
func (d *DeliveryTracker) UnreadCount(conversationID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unread[conversationID]
}

// Reset drops all counters. Session-scoped, rebuilt after reconnect.
func (d *DeliveryTracker) Reset() {
	d.mu.Lock()
	d.unread = make(map[string]int)
	d.mu.Unlock()
}
