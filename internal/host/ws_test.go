package host

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// Hub tests use clients with nil conns; the hub guards every Close.

func newTestHub(t *testing.T, sendBuf, broadcastBuf int) *Hub {
	t.Helper()
	return NewHub(slog.New(slog.DiscardHandler), nil, HubConfig{
		SendBuf:      sendBuf,
		BroadcastBuf: broadcastBuf,
	})
}

func runHub(t *testing.T, hub *Hub) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Errorf("timeout waiting for hub to stop")
		}
	})
	return cancel
}

func testClient(hub *Hub, name string, buf int) *Client {
	return &Client{
		hub:        hub,
		send:       make(chan []byte, buf),
		remoteAddr: name,
		logger:     slog.New(slog.DiscardHandler),
	}
}

func registerClient(t *testing.T, hub *Hub, c *Client) {
	t.Helper()
	hub.register <- c
	waitUntil(t, 500*time.Millisecond, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		_, ok := hub.clients[c]
		return ok
	}, c.remoteAddr+" not registered in time")
}

func recv(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case got := <-c.send:
		return got
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for %s to receive a frame", c.remoteAddr)
	}
	return nil
}

func TestHubBroadcastDeliveredToAllClients(t *testing.T) {
	hub := newTestHub(t, 4, 8)
	runHub(t, hub)

	c1, c2 := testClient(hub, "c1", 4), testClient(hub, "c2", 4)
	registerClient(t, hub, c1)
	registerClient(t, hub, c2)

	msg := []byte(`{"type":"frame_height"}`)
	hub.broadcast <- msg

	for _, c := range []*Client{c1, c2} {
		if got := recv(t, c); string(got) != string(msg) {
			t.Fatalf("%s got %q, want %q", c.remoteAddr, got, msg)
		}
	}
}

func TestHubSlowClientDisconnected(t *testing.T) {
	hub := newTestHub(t, 1, 8)
	runHub(t, hub)

	slow, fast := testClient(hub, "slow", 1), testClient(hub, "fast", 8)
	registerClient(t, hub, slow)
	registerClient(t, hub, fast)

	slow.send <- []byte(`"already queued"`)
	msg := []byte(`{"type":"component_value"}`)
	hub.broadcast <- msg

	if got := recv(t, fast); string(got) != string(msg) {
		t.Fatalf("fast client got %q", got)
	}

	select {
	case <-slow.send:
	default:
	}
	waitUntil(t, 750*time.Millisecond, func() bool {
		select {
		case _, ok := <-slow.send:
			return !ok
		default:
			return false
		}
	}, "expected slow send channel to be closed")

	if n := hub.Clients(); n != 1 {
		t.Errorf("expected 1 client left, got %d", n)
	}
}

func TestHubHostPublishesEnvelopes(t *testing.T) {
	hub := newTestHub(t, 4, 8)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	hub.now = func() time.Time { return fixed }
	runHub(t, hub)

	c := testClient(hub, "c", 4)
	registerClient(t, hub, c)

	h := hub.Host("gain")
	h.SetComponentValue(ContractAngleValue.Build(-29, 40))
	h.SetFrameHeight()

	f, err := DecodeFrame(recv(t, c))
	if err != nil {
		t.Fatal(err)
	}
	if f.Type != FrameComponentValue || f.Knob != "gain" || !f.At.Equal(fixed) {
		t.Errorf("unexpected frame header: %+v", f)
	}
	if *f.Payload.Angle != -29 || *f.Payload.Value != 40 {
		t.Errorf("unexpected payload: %s", f.Payload)
	}

	f, err = DecodeFrame(recv(t, c))
	if err != nil {
		t.Fatal(err)
	}
	if f.Type != FrameHeight || f.Payload.Value != nil {
		t.Errorf("expected empty frame_height, got %+v", f)
	}

	var snap map[string]Payload
	raw, _ := json.Marshal(hub.Snapshot())
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatal(err)
	}
	if v := snap["gain"].Value; v == nil || *v != 40 {
		t.Errorf("expected snapshot value 40, got %v", v)
	}
}

func TestHubReplaysStatePublishedWhileRegistering(t *testing.T) {
	hub := newTestHub(t, 4, 8)
	c := testClient(hub, "late", 4)

	// The client is queued for registration, then a value is published
	// before the hub loop has admitted it.
	hub.register <- c
	hub.Host("gain").SetComponentValue(ContractValue.Build(0, 7))
	runHub(t, hub)

	f, err := DecodeFrame(recv(t, c))
	if err != nil {
		t.Fatal(err)
	}
	if f.Type != FrameStateInit || f.Knob != "gain" || f.Payload.Value == nil || *f.Payload.Value != 7 {
		t.Errorf("expected state_init gain=7 first, got %s %s %s", f.Type, f.Knob, f.Payload)
	}
}

func TestHubDropsWhenQueueFull(t *testing.T) {
	hub := newTestHub(t, 1, 1)
	// Hub not running: the broadcast queue fills after one frame.
	hub.BroadcastBytes([]byte("a"))
	hub.BroadcastBytes([]byte("b"))
	if got := len(hub.broadcast); got != 1 {
		t.Errorf("expected 1 queued frame, got %d", got)
	}
}

func TestListenReceivesStateInitAndUpdates(t *testing.T) {
	hub := newTestHub(t, 8, 8)
	runHub(t, hub)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	h := hub.Host("gain")
	h.SetComponentValue(ContractValue.Build(0, 12))
	// Drain the frame broadcast before anyone listened.
	waitUntil(t, 500*time.Millisecond, func() bool { return len(hub.broadcast) == 0 }, "broadcast not drained")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	frames := make(chan Frame, 4)
	errc := make(chan error, 1)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	go func() {
		errc <- Listen(ctx, url, func(f Frame) { frames <- f })
	}()

	waitUntil(t, time.Second, func() bool { return hub.Clients() == 1 }, "listener not registered")
	h.SetComponentValue(ContractValue.Build(0, 13))

	var got []Frame
	for len(got) < 2 {
		select {
		case f := <-frames:
			got = append(got, f)
		case <-ctx.Done():
			t.Fatalf("timeout, got %d frames", len(got))
		}
	}
	if got[0].Type != FrameStateInit || *got[0].Payload.Value != 12 {
		t.Errorf("expected state_init with 12, got %s %s", got[0].Type, got[0].Payload)
	}
	if got[1].Type != FrameComponentValue || *got[1].Payload.Value != 13 {
		t.Errorf("expected component_value with 13, got %s %s", got[1].Type, got[1].Payload)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("listen returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("listen did not return after cancel")
	}
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	if _, err := DecodeFrame([]byte("not json")); err == nil {
		t.Error("expected error")
	}
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout: %s", msg)
}
