package scan

import (
	"testing"
	"time"
)

func TestPutConsume(t *testing.T) {
	m := NewMailbox(30 * time.Second)
	put := m.Put("978-0134190440")

	got, ok := m.Consume()
	if !ok {
		t.Fatal("expected a value after Put")
	}
	if got.Value != "978-0134190440" {
		t.Fatalf("got value %q", got.Value)
	}
	if got.Token != put.Token {
		t.Fatalf("token mismatch: %q vs %q", got.Token, put.Token)
	}

	// Consuming empties the slot; a second read finds nothing.
	if _, ok := m.Consume(); ok {
		t.Fatal("expected empty mailbox after consume")
	}
}

func TestOverwrite(t *testing.T) {
	m := NewMailbox(30 * time.Second)
	first := m.Put("first")
	m.Put("second")

	got, ok := m.Consume()
	if !ok {
		t.Fatal("expected a value")
	}
	if got.Value != "second" {
		t.Fatalf("got %q, want the later scan", got.Value)
	}
	if got.Token == first.Token {
		t.Fatal("overwrite must mint a new token")
	}
}

func TestExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMailbox(30 * time.Second)
	m.now = func() time.Time { return now }

	m.Put("tag-42")

	now = now.Add(29 * time.Second)
	if !m.Peek() {
		t.Fatal("value should still be live just under the TTL")
	}

	now = now.Add(2 * time.Second)
	if m.Peek() {
		t.Fatal("value should have expired")
	}
	if _, ok := m.Consume(); ok {
		t.Fatal("expired value must not be consumable")
	}
}

func TestConsumeClearsExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMailbox(30 * time.Second)
	m.now = func() time.Time { return now }

	m.Put("stale")
	now = now.Add(time.Minute)

	if _, ok := m.Consume(); ok {
		t.Fatal("expired value returned")
	}
	// The slot was cleared as a side effect; a fresh Put works as usual.
	m.Put("fresh")
	got, ok := m.Consume()
	if !ok || got.Value != "fresh" {
		t.Fatalf("got %+v ok=%v", got, ok)
	}
}
