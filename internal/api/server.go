package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Server is the public HTTP server: health/stats endpoints plus the
// WebSocket endpoint every game client connects through.
type Server struct {
	relay       RelayInterface
	router      *chi.Mux
	gateway     *WebSocketGateway
	rateLimiter *IPRateLimiter
}

// NewServer creates the API server with default production configuration.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting goroutines or opening network listeners.
func NewServer(relay RelayInterface, pingInterval time.Duration) *Server {
	s := &Server{
		relay:       relay,
		gateway:     NewWebSocketGateway(relay, pingInterval),
		rateLimiter: NewIPRateLimiter(DefaultRateLimitConfig),
	}

	s.router = NewRouter(RouterConfig{
		Relay:       relay,
		RateLimiter: s.rateLimiter,
	})

	// The WebSocket route needs the gateway instance, so it cannot live in
	// the generic NewRouter factory.
	s.router.Get("/ws", s.gateway.HandleWebSocket)

	return s
}

// Start begins serving and launches the metrics refresh worker. This is the
// only method that starts goroutines or opens network listeners.
func (s *Server) Start(addr string) error {
	go s.refreshGauges()

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🌐 WebSocket endpoint: ws://%s/ws", addr)

	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler for use with httptest.
// Use this in integration tests instead of calling Start().
func (s *Server) Router() http.Handler {
	return s.router
}

// Gateway returns the WebSocket gateway, mainly for tests.
func (s *Server) Gateway() *WebSocketGateway {
	return s.gateway
}

// Stop performs graceful shutdown of background workers.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// refreshGauges polls relay stats into the Prometheus gauges. Polling keeps
// the relay free of metrics imports.
func (s *Server) refreshGauges() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		stats := s.relay.Stats()
		UpdateRelayGauges(stats.Rooms, stats.Worlds, stats.Simulations)
	}
}
