package chatsource

import "testing"

func TestMemorySourceInjectAndReceive(t *testing.T) {
	src := NewMemorySource(4)
	defer src.Close()

	ev := Event{Kind: EventNew, ChatExternalID: "chat-1", MessageExternalID: "msg-1", Text: "BUY EURUSD @ 1.1000 TP 1.1100 SL 1.0950"}
	if !src.Inject(ev) {
		t.Fatal("expected Inject to succeed before Close")
	}

	got := <-src.Events()
	if got.MessageExternalID != ev.MessageExternalID {
		t.Fatalf("got message id %q, want %q", got.MessageExternalID, ev.MessageExternalID)
	}
}

func TestMemorySourceInjectAfterCloseFails(t *testing.T) {
	src := NewMemorySource(1)
	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if src.Inject(Event{Kind: EventNew}) {
		t.Fatal("expected Inject to fail after Close")
	}
}

func TestMemorySourceDoubleCloseIsSafe(t *testing.T) {
	src := NewMemorySource(1)
	if err := src.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
