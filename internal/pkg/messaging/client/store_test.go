package client

import (
	"testing"
	"time"

	messaging "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/domain"
)

func msg(id, convID, sender, receiver, body string) messaging.Message {
	return messaging.Message{
		ID:             id,
		ConversationID: convID,
		SenderID:       sender,
		ReceiverID:     receiver,
		Body:           body,
		CreatedAt:      time.Now().UTC(),
		Status:         messaging.StatusSent,
	}
}

func TestStoreKeepsArrivalOrder(t *testing.T) {
	s := NewMessageStore()
	s.Append(msg("m1", "conv_u1_u2", "u1", "u2", "first"))
	s.Append(msg("m2", "conv_u1_u2", "u2", "u1", "second"))
	s.Append(msg("m3", "conv_u1_u2", "u1", "u2", "third"))

	got := s.Messages("conv_u1_u2")
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if got[i].ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, got[i].ID)
		}
	}
}

func TestStoreSkipsDuplicateIDs(t *testing.T) {
	s := NewMessageStore()
	if !s.Append(msg("m1", "conv_u1_u2", "u1", "u2", "hello")) {
		t.Fatal("first append should succeed")
	}
	if s.Append(msg("m1", "conv_u1_u2", "u1", "u2", "hello")) {
		t.Fatal("duplicate append should be rejected")
	}
	if got := len(s.Messages("conv_u1_u2")); got != 1 {
		t.Fatalf("expected 1 message, got %d", got)
	}
}

func TestStoreRejectsEntriesWithoutIdentity(t *testing.T) {
	s := NewMessageStore()
	if s.Append(messaging.Message{ConversationID: "conv_u1_u2", Body: "x"}) {
		t.Fatal("append without message id should be rejected")
	}
	if s.Append(messaging.Message{ID: "m1", Body: "x"}) {
		t.Fatal("append without conversation id should be rejected")
	}
}

func TestStoreUnknownConversationYieldsEmptyLog(t *testing.T) {
	s := NewMessageStore()
	got := s.Messages("conv_nobody_noone")
	if got == nil {
		t.Fatal("expected non-nil slice")
	}
	if len(got) != 0 {
		t.Fatalf("expected empty log, got %d entries", len(got))
	}
}

func TestStoreStatusNeverRegresses(t *testing.T) {
	s := NewMessageStore()
	s.Append(msg("m1", "conv_u1_u2", "u1", "u2", "hello"))

	if !s.UpdateStatus("m1", messaging.StatusDelivered) {
		t.Fatal("sent -> delivered should apply")
	}
	if !s.UpdateStatus("m1", messaging.StatusRead) {
		t.Fatal("delivered -> read should apply")
	}
	if s.UpdateStatus("m1", messaging.StatusDelivered) {
		t.Fatal("read -> delivered must be rejected")
	}

	got := s.Messages("conv_u1_u2")
	if got[0].Status != messaging.StatusRead {
		t.Fatalf("expected status read, got %s", got[0].Status)
	}
}

func TestStoreSentToReadSkipsDelivered(t *testing.T) {
	s := NewMessageStore()
	s.Append(msg("m1", "conv_u1_u2", "u1", "u2", "hello"))
	if !s.UpdateStatus("m1", messaging.StatusRead) {
		t.Fatal("sent -> read should apply directly")
	}
}

func TestStoreUpdateUnknownIDIsNoop(t *testing.T) {
	s := NewMessageStore()
	if s.UpdateStatus("ghost", messaging.StatusRead) {
		t.Fatal("unknown id should not report an update")
	}
}

func TestStoreMergeDeduplicatesAgainstLiveFeed(t *testing.T) {
	s := NewMessageStore()
	s.Append(msg("m2", "conv_u1_u2", "u2", "u1", "live copy"))

	history := []messaging.Message{
		msg("m1", "conv_u1_u2", "u1", "u2", "older"),
		msg("m2", "conv_u1_u2", "u2", "u1", "live copy"),
	}
	if added := s.Merge("conv_u1_u2", history); added != 1 {
		t.Fatalf("expected 1 merged entry, got %d", added)
	}
	if got := len(s.Messages("conv_u1_u2")); got != 2 {
		t.Fatalf("expected 2 messages after merge, got %d", got)
	}
}

func TestStoreMergeFillsMissingConversationID(t *testing.T) {
	s := NewMessageStore()
	row := msg("m1", "", "u1", "u2", "hello")
	if added := s.Merge("conv_u1_u2", []messaging.Message{row}); added != 1 {
		t.Fatalf("expected 1 merged entry, got %d", added)
	}
	if got := len(s.Messages("conv_u1_u2")); got != 1 {
		t.Fatalf("expected row filed under the conversation, got %d", got)
	}
}

func TestStoreReset(t *testing.T) {
	s := NewMessageStore()
	s.Append(msg("m1", "conv_u1_u2", "u1", "u2", "hello"))
	s.Reset()
	if got := len(s.Messages("conv_u1_u2")); got != 0 {
		t.Fatalf("expected empty store after reset, got %d", got)
	}
	if !s.Append(msg("m1", "conv_u1_u2", "u1", "u2", "hello")) {
		t.Fatal("id should be reusable after reset")
	}
}
