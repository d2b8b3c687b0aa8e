package identity

import "testing"

func TestDeriveConversationIDIsCommutative(t *testing.T) {
	ab, err := DeriveConversationID("u1", "u2")
	if err != nil {
		t.Fatalf("derive(u1, u2): %v", err)
	}
	ba, err := DeriveConversationID("u2", "u1")
	if err != nil {
		t.Fatalf("derive(u2, u1): %v", err)
	}
	if ab != ba {
		t.Fatalf("expected identical ids, got %q and %q", ab, ba)
	}
	if ab != "conv_u1_u2" {
		t.Fatalf("expected conv_u1_u2, got %q", ab)
	}
}

func TestDeriveConversationIDSortsLexicographically(t *testing.T) {
	got, err := DeriveConversationID("provider-9", "customer-1")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if got != "conv_customer-1_provider-9" {
		t.Fatalf("expected sorted participants, got %q", got)
	}
}

func TestDeriveConversationIDRejectsEmptyParticipants(t *testing.T) {
	for _, pair := range [][2]string{{"", "u2"}, {"u1", ""}, {"", ""}} {
		if _, err := DeriveConversationID(pair[0], pair[1]); err != ErrEmptyParticipant {
			t.Fatalf("derive(%q, %q): expected ErrEmptyParticipant, got %v", pair[0], pair[1], err)
		}
	}
}

func TestIsWellFormed(t *testing.T) {
	cases := []struct {
		id   string
		want bool
	}{
		{"conv_u1_u2", true},
		{"conv_customer-1_provider-9", true},
		{"conv_u1", false},
		{"conv_u1_u2_u3", false},
		{"room_u1_u2", false},
		{"conv__u2", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsWellFormed(tc.id); got != tc.want {
			t.Errorf("IsWellFormed(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestResolveTrustsWellFormedIDs(t *testing.T) {
	got, err := Resolve("conv_a_b", "u1", "u2")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "conv_a_b" {
		t.Fatalf("expected candidate kept verbatim, got %q", got)
	}
}

func TestResolveRecomputesMalformedIDs(t *testing.T) {
	got, err := Resolve("u2_conv_u1", "u1", "u2")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "conv_u1_u2" {
		t.Fatalf("expected recomputed id conv_u1_u2, got %q", got)
	}

	if _, err := Resolve("garbage", "", "u2"); err != ErrEmptyParticipant {
		t.Fatalf("expected ErrEmptyParticipant when recompute is impossible, got %v", err)
	}
}
