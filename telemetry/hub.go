// Package telemetry streams approach-controller snapshots to WebSocket
// clients and accepts target commands from them.
package telemetry

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Snapshot is what one frame publishes.
type Snapshot struct {
	Type      string  `json:"type"`
	Frame     uint64  `json:"frame"`
	Mode      string  `json:"mode"`
	Distance  float32 `json:"distance"`
	Target    float32 `json:"target"`
	HasTarget bool    `json:"hasTarget"`
	Factor    float32 `json:"factor"`
}

type CommandKind int

const (
	CommandSetTarget CommandKind = iota
	CommandClearTarget
)

// Command is a client request for the frame loop to apply.
type Command struct {
	Kind   CommandKind
	Target float32
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SendBuffer is the number of snapshots queued per client before newer
// ones are dropped for that client.
const SendBuffer = 16

// client is one connection and its outgoing queue. Only its writer
// goroutine calls WriteJSON on conn.
type client struct {
	conn *websocket.Conn
	send chan Snapshot
	done chan struct{}
}

// Hub tracks connected clients. Publish may be called from any goroutine and
// never waits on the network; commands are delivered on Commands and never
// applied by the hub itself.
type Hub struct {
	Logger *log.Logger

	commands chan Command

	clientsMutex sync.RWMutex
	clients      map[*websocket.Conn]*client
}

// NewHub creates a hub whose command channel holds buffer entries. Commands
// arriving while it is full are dropped.
func NewHub(buffer int) *Hub {
	return &Hub{
		Logger:   log.Default(),
		commands: make(chan Command, buffer),
		clients:  make(map[*websocket.Conn]*client),
	}
}

func (h *Hub) Commands() <-chan Command {
	return h.commands
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}

// Handler serves the WebSocket endpoint at /ws.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWebSocket)
	return mux
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	c := &client{
		conn: conn,
		send: make(chan Snapshot, SendBuffer),
		done: make(chan struct{}),
	}
	h.clientsMutex.Lock()
	h.clients[conn] = c
	h.clientsMutex.Unlock()
	defer func() {
		h.clientsMutex.Lock()
		delete(h.clients, conn)
		h.clientsMutex.Unlock()
		close(c.done)
	}()
	go h.writeLoop(c)

	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.Logger.Println("WebSocket read error:", err)
			}
			return
		}
		if cmd, ok := parseCommand(msg); ok {
			h.enqueue(cmd)
		}
	}
}

func parseCommand(msg map[string]interface{}) (Command, bool) {
	if c, ok := msg["clear"].(bool); ok && c {
		return Command{Kind: CommandClearTarget}, true
	}
	if target, ok := msg["target"].(float64); ok && target > 0 {
		return Command{Kind: CommandSetTarget, Target: float32(target)}, true
	}
	return Command{}, false
}

func (h *Hub) enqueue(cmd Command) {
	select {
	case h.commands <- cmd:
	default:
		h.Logger.Printf("telemetry: command queue full, dropping %+v", cmd)
	}
}

// writeLoop sends queued snapshots until the connection's reader exits. A
// failed write closes the connection, which ends the reader too.
func (h *Hub) writeLoop(c *client) {
	for {
		select {
		case <-c.done:
			return
		case s := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(time.Second))
			if err := c.conn.WriteJSON(s); err != nil {
				h.Logger.Println("WebSocket write error:", err)
				c.conn.Close()
				return
			}
		}
	}
}

// Publish queues s for every client. A client whose queue is full misses
// this snapshot.
func (h *Hub) Publish(s Snapshot) {
	if s.Type == "" {
		s.Type = "approach"
	}

	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- s:
		default:
		}
	}
}

// CloseClients disconnects every client.
func (h *Hub) CloseClients() {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()
	for conn := range h.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
		conn.Close()
		delete(h.clients, conn)
	}
}

// Serve listens on addr until ctx is cancelled.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return h.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener, which it closes.
func (h *Hub) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		h.CloseClients()
		srv.Shutdown(shutdownCtx)
	}()

	h.Logger.Printf("Telemetry listening on ws://%s/ws", ln.Addr())
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}
