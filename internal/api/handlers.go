package api

import (
	"encoding/json"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"zombie-surge/internal/room"
)

var (
	codeMu  sync.Mutex
	codeRng = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// handleHealth reports liveness plus the store counts clients poll before
// showing the lobby screen.
func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := h.relay.Stats()
	writeJSON(w, map[string]interface{}{
		"ok":          true,
		"uptimeSec":   math.Round(stats.UptimeSec),
		"rooms":       stats.Rooms,
		"worlds":      stats.Worlds,
		"simulations": stats.Simulations,
	})
}

// handleStats is the richer operator view.
func (h *routerHandlers) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.relay.Stats()
	writeJSON(w, map[string]interface{}{
		"rooms":       stats.Rooms,
		"worlds":      stats.Worlds,
		"simulations": stats.Simulations,
		"connections": stats.Connections,
		"uptimeSec":   stats.UptimeSec,
	})
}

// handleRoomCode hands out a fresh room code. The server does not reserve
// it; the creating client claims it with its first room set.
func (h *routerHandlers) handleRoomCode(w http.ResponseWriter, r *http.Request) {
	codeMu.Lock()
	code := room.NewCode(codeRng)
	codeMu.Unlock()
	writeJSON(w, map[string]interface{}{"roomId": code})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
	}
}
