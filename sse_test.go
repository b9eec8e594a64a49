package main

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestBroadcasterRegisterUnregister(t *testing.T) {
	b := NewBroadcaster()

	c1 := b.Register("game1")
	c2 := b.Register("game1")
	c3 := b.Register("game2")

	if b.ClientCount("game1") != 2 {
		t.Fatalf("expected 2 clients for game1, got %d", b.ClientCount("game1"))
	}
	if b.ClientCount("game2") != 1 {
		t.Fatalf("expected 1 client for game2, got %d", b.ClientCount("game2"))
	}

	b.Unregister(c1)
	if b.ClientCount("game1") != 1 {
		t.Fatalf("expected 1 client for game1 after unregister, got %d", b.ClientCount("game1"))
	}

	b.Unregister(c2)
	b.Unregister(c3)
	if b.ClientCount("game1") != 0 || b.ClientCount("game2") != 0 {
		t.Fatal("expected 0 clients after full unregister")
	}
}

func TestBroadcasterDoubleUnregister(t *testing.T) {
	b := NewBroadcaster()
	c := b.Register("game1")
	b.Unregister(c)
	b.Unregister(c) // should not panic
}

func TestBroadcast(t *testing.T) {
	b := NewBroadcaster()

	c1 := b.Register("game1")
	c2 := b.Register("game1")
	c3 := b.Register("game2")

	b.Broadcast("game1", "hello")

	select {
	case msg := <-c1.ch:
		if msg != "hello" {
			t.Fatalf("c1 expected 'hello', got %q", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c1 did not receive message")
	}

	select {
	case msg := <-c2.ch:
		if msg != "hello" {
			t.Fatalf("c2 expected 'hello', got %q", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c2 did not receive message")
	}

	// c3 is on game2, should not receive.
	select {
	case <-c3.ch:
		t.Fatal("c3 should not receive game1 message")
	case <-time.After(50 * time.Millisecond):
		// ok
	}

	b.Unregister(c1)
	b.Unregister(c2)
	b.Unregister(c3)
}

func TestBroadcastSkipsFullChannel(t *testing.T) {
	b := NewBroadcaster()
	c := b.Register("game1")

	// Fill the channel.
	for range sseChannelBuffer {
		b.Broadcast("game1", "fill")
	}

	// This should not block.
	b.Broadcast("game1", "overflow")

	b.Unregister(c)
}

func TestBroadcasterConcurrent(t *testing.T) {
	b := NewBroadcaster()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			gameID := "game1"
			if i%2 == 0 {
				gameID = "game2"
			}
			c := b.Register(gameID)
			b.Broadcast(gameID, "msg")
			b.ClientCount(gameID)
			b.Unregister(c)
		}(i)
	}
	wg.Wait()

	if b.ClientCount("game1") != 0 || b.ClientCount("game2") != 0 {
		t.Fatal("expected 0 clients after concurrent test")
	}
}

func TestPublish(t *testing.T) {
	b := NewBroadcaster()
	c := b.Register("game1")
	defer b.Unregister(c)

	b.Publish("game1", map[string]any{"type": "cursor", "row": 3})
	if msg := <-c.ch; msg != `{"row":3,"type":"cursor"}` {
		t.Fatalf("unexpected payload %q", msg)
	}

	// Unencodable events are dropped.
	b.Publish("game1", map[string]any{"bad": make(chan int)})
	if len(c.ch) != 0 {
		t.Fatal("expected no message for unencodable event")
	}
}

func TestServeSSE(t *testing.T) {
	b := NewBroadcaster()
	disconnected := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.ServeSSE(w, r, "game1", func(c *client) {
			c.ch <- `{"type":"game_state"}`
		}, func() { close(disconnected) })
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.TrimSpace(line) != `data: {"type":"game_state"}` {
		t.Fatalf("unexpected first line %q", line)
	}
	if b.ClientCount("game1") != 1 {
		t.Fatal("expected one registered client")
	}

	resp.Body.Close()
	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after the client left")
	}
	if b.ClientCount("game1") != 0 {
		t.Fatal("client should be unregistered after disconnect")
	}
}
