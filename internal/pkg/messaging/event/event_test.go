package event

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	raw, err := Encode(SendMessage, SendMessagePayload{
		ConversationID: "conv_u1_u2",
		ReceiverID:     "u2",
		Body:           "hello",
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	frame, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if frame.Type != SendMessage {
		t.Fatalf("expected type %q, got %q", SendMessage, frame.Type)
	}

	var p SendMessagePayload
	if err := frame.Payload(&p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.ConversationID != "conv_u1_u2" || p.ReceiverID != "u2" || p.Body != "hello" {
		t.Fatalf("unexpected payload: %+v", p)
	}
}

func TestDecodeRejectsFramesWithoutType(t *testing.T) {
	if _, err := Decode([]byte(`{"data":{"x":1}}`)); err != ErrMissingType {
		t.Fatalf("expected ErrMissingType, got %v", err)
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed json")
	}
}

func TestEncodeWithoutPayloadOmitsData(t *testing.T) {
	raw, err := Encode(Leave, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	frame, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(frame.Data) != 0 {
		t.Fatalf("expected empty data, got %s", frame.Data)
	}
}
