// Package presence mirrors the gateway's live presence set and unread
// counters into the shared cache, so marketplace pages outside the realtime
// subsystem (listing cards, provider dashboards) can read them without a
// socket.
package presence

import (
	"context"
	"log"
	"strconv"

	"github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/cache/port"
)

const (
	onlineKeyPrefix = "messaging:online:"
	unreadKeyPrefix = "messaging:unread:"
)

// Mirror is write-through and best-effort: the router remains the source of
// truth, and a cache fault never blocks message delivery.
type Mirror struct {
	cache port.Cache
}

func NewMirror(cache port.Cache) *Mirror {
	return &Mirror{cache: cache}
}

func (m *Mirror) SetOnline(ctx context.Context, userID string) {
	if m == nil || m.cache == nil || userID == "" {
		return
	}
	if err := m.cache.Set(ctx, onlineKeyPrefix+userID, "1", 0); err != nil {
		log.Printf("presence mirror: set online %s: %v", userID, err)
	}
}

func (m *Mirror) SetOffline(ctx context.Context, userID string) {
	if m == nil || m.cache == nil || userID == "" {
		return
	}
	if _, err := m.cache.Del(ctx, onlineKeyPrefix+userID); err != nil {
		log.Printf("presence mirror: set offline %s: %v", userID, err)
	}
}

// IsOnline reads the mirrored flag. Misses mean offline.
func (m *Mirror) IsOnline(ctx context.Context, userID string) bool {
	if m == nil || m.cache == nil {
		return false
	}
	_, err := m.cache.Get(ctx, onlineKeyPrefix+userID)
	return err == nil
}

// IncrementUnread bumps the receiver's counter for a conversation.
func (m *Mirror) IncrementUnread(ctx context.Context, conversationID, userID string) {
	if m == nil || m.cache == nil {
		return
	}
	if _, err := m.cache.Incr(ctx, unreadKey(conversationID, userID)); err != nil {
		log.Printf("presence mirror: incr unread %s/%s: %v", conversationID, userID, err)
	}
}

// ResetUnread zeroes the counter after a read receipt.
func (m *Mirror) ResetUnread(ctx context.Context, conversationID, userID string) {
	if m == nil || m.cache == nil {
		return
	}
	if _, err := m.cache.Del(ctx, unreadKey(conversationID, userID)); err != nil {
		log.Printf("presence mirror: reset unread %s/%s: %v", conversationID, userID, err)
	}
}

// UnreadCount reads the mirrored counter; misses and parse faults are zero.
func (m *Mirror) UnreadCount(ctx context.Context, conversationID, userID string) int {
	if m == nil || m.cache == nil {
		return 0
	}
	raw, err := m.cache.Get(ctx, unreadKey(conversationID, userID))
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func unreadKey(conversationID, userID string) string {
	return unreadKeyPrefix + conversationID + ":" + userID
}
