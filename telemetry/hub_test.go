package telemetry

import (
	"context"
	"io"
	"log"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestHub() *Hub {
	h := NewHub(4)
	h.Logger = log.New(io.Discard, "", 0)
	return h
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, h.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPublishReachesClients(t *testing.T) {
	h := newTestHub()
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	a := dial(t, url)
	defer a.Close()
	b := dial(t, url)
	defer b.Close()
	waitClients(t, h, 2)

	h.Publish(Snapshot{Frame: 7, Mode: "converging", Distance: 60, Target: 40, HasTarget: true, Factor: 0.99})

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got Snapshot
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		if got.Type != "approach" || got.Frame != 7 || got.Mode != "converging" || got.Factor != 0.99 {
			t.Errorf("unexpected snapshot %+v", got)
		}
	}
}

func TestClientCommands(t *testing.T) {
	h := newTestHub()
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws")
	defer conn.Close()

	msgs := []map[string]interface{}{
		{"target": 40},
		{"speed": 3}, // ignored
		{"target": -5},
		{"clear": true},
	}
	for _, m := range msgs {
		if err := conn.WriteJSON(m); err != nil {
			t.Fatal(err)
		}
	}

	expected := []Command{
		{Kind: CommandSetTarget, Target: 40},
		{Kind: CommandClearTarget},
	}
	for i, want := range expected {
		select {
		case got := <-h.Commands():
			if got != want {
				t.Errorf("command %d: expected %+v, got %+v", i, want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("command %d: timed out", i)
		}
	}
	select {
	case extra := <-h.Commands():
		t.Errorf("unexpected extra command %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFullQueueDropsCommands(t *testing.T) {
	h := NewHub(1)
	h.Logger = log.New(io.Discard, "", 0)
	h.enqueue(Command{Kind: CommandSetTarget, Target: 1})
	h.enqueue(Command{Kind: CommandSetTarget, Target: 2})
	if got := (<-h.Commands()).Target; got != 1 {
		t.Errorf("expected the first command to survive, got target %v", got)
	}
	if len(h.Commands()) != 0 {
		t.Error("expected the second command to be dropped")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	h := newTestHub()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.ServeListener(ctx, ln) }()

	conn := dial(t, "ws://"+ln.Addr().String()+"/ws")
	defer conn.Close()
	waitClients(t, h, 1)

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("ServeListener: expected nil, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	if h.Clients() != 0 {
		t.Errorf("expected clients to be closed, have %d", h.Clients())
	}
}

func TestPublishDoesNotWaitForSlowClients(t *testing.T) {
	h := newTestHub()
	// A client with no writer goroutine never drains its queue.
	stalled := &client{send: make(chan Snapshot, 1), done: make(chan struct{})}
	h.clients[nil] = stalled

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Publish(Snapshot{Frame: uint64(i)})
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full client queue")
	}

	if got := (<-stalled.send).Frame; got != 0 {
		t.Errorf("queued frame: expected 0, got %d", got)
	}
	if len(stalled.send) != 0 {
		t.Errorf("expected later snapshots to be dropped, %d queued", len(stalled.send))
	}
}
