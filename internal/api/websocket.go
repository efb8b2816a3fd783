package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"zombie-surge/internal/protocol"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// writeTimeout bounds a single frame write so one stuck client cannot
	// pin a broadcast
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsAllowedOrigin(origin) {
			return true
		}

		log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// wsConn is one client connection. It implements the relay's push interface;
// writes are serialized because gorilla permits one concurrent writer only.
type wsConn struct {
	id   string
	ip   string
	conn *websocket.Conn
	mu   sync.Mutex
}

// Push sends one JSON message to the client. Errors mean the connection is
// no longer usable; the read loop notices and tears it down.
func (c *wsConn) Push(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(v); err != nil {
		return err
	}
	if _, ok := v.(protocol.Snapshot); ok {
		IncrementSnapshotsPushed()
	}
	return nil
}

// WebSocketGateway accepts client sockets and pumps their frames into the
// relay, with total and per-IP connection limits.
type WebSocketGateway struct {
	relay        RelayInterface
	pingInterval time.Duration
	wsLimiter    *WebSocketRateLimiter

	mu    sync.Mutex
	count int
}

// NewWebSocketGateway creates a gateway with connection limiting.
func NewWebSocketGateway(relay RelayInterface, pingInterval time.Duration) *WebSocketGateway {
	return &WebSocketGateway{
		relay:        relay,
		pingInterval: pingInterval,
		wsLimiter:    NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
}

// ClientCount returns the number of connected clients
func (g *WebSocketGateway) ClientCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count
}

func (g *WebSocketGateway) track(delta int) int {
	g.mu.Lock()
	g.count += delta
	count := g.count
	g.mu.Unlock()
	UpdateWSConnections(count)
	return count
}

// HandleWebSocket upgrades the request and runs the connection's read loop
// until the client goes away. Cleanup runs exactly once on exit: the relay
// drops all subscriptions and the per-IP slot is released.
func (g *WebSocketGateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if g.ClientCount() >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached")
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !g.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		g.wsLimiter.Release(ip)
		return
	}

	c := &wsConn{id: uuid.NewString()[:8], ip: ip, conn: conn}
	count := g.track(1)
	log.Printf("📱 Client %s connected from %s (%d total)", c.id, ip, count)

	readTimeout := g.pingInterval*2 + 5*time.Second
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	stopPing := make(chan struct{})
	go g.pingLoop(conn, stopPing)

	defer func() {
		close(stopPing)
		g.relay.Disconnect(c)
		g.wsLimiter.Release(ip)
		conn.Close()
		remaining := g.track(-1)
		log.Printf("📱 Client %s disconnected (%d remaining)", c.id, remaining)
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		IncrementWSMessages()
		g.relay.HandleMessage(c, raw)
	}
}

// pingLoop keeps the connection alive through idle proxies. WriteControl is
// safe to call concurrently with the data writer.
func (g *WebSocketGateway) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(g.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
