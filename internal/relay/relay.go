// Package relay is the authoritative coordination layer. It owns the
// document store, the subscription registry and the per-room simulations,
// and serializes every mutation behind a single lock so handlers and the
// tick loop always observe a consistent world.
package relay

import (
	"log"
	"sync"
	"time"

	"zombie-surge/internal/config"
	"zombie-surge/internal/room"
	"zombie-surge/internal/sim"
	"zombie-surge/internal/store"
	"zombie-surge/internal/sub"
)

// Stats is the health/metrics snapshot of the relay.
type Stats struct {
	Rooms       int
	Worlds      int
	Simulations int
	Connections int
	UptimeSec   float64
}

// Relay glues store, registry and simulations together.
type Relay struct {
	mu sync.Mutex

	cfg   config.AppConfig
	store *store.Store
	subs  *sub.Registry

	sims  map[string]*sim.Simulation
	order []string // room ids in simulation creation order

	started time.Time

	// OnTick, when set, receives the duration of every full tick pass.
	// Assigned once before the scheduler starts.
	OnTick func(d time.Duration)
}

// New creates a relay with an empty store.
func New(cfg config.AppConfig) *Relay {
	return &Relay{
		cfg:     cfg,
		store:   store.New(),
		subs:    sub.NewRegistry(),
		sims:    make(map[string]*sim.Simulation),
		started: time.Now(),
	}
}

// Stats reports current document, simulation and connection counts.
func (r *Relay) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Rooms:       r.store.Count(store.Room),
		Worlds:      r.store.Count(store.World),
		Simulations: len(r.sims),
		Connections: r.subs.ConnCount(),
		UptimeSec:   time.Since(r.started).Seconds(),
	}
}

// Disconnect drops every subscription the connection holds. Called exactly
// once from the transport when a socket closes.
func (r *Relay) Disconnect(conn sub.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs.OnDisconnect(conn)
}

// broadcastLocked pushes the current document (or nil after a delete) to
// every subscriber of the key. A deleted document goes out as a true null
// so clients can distinguish teardown from an empty object.
func (r *Relay) broadcastLocked(kind store.Kind, roomID string) {
	key := sub.Key{Kind: string(kind), RoomID: roomID}
	var data any
	if doc := r.store.Read(kind, roomID); doc != nil {
		data = doc
	}
	r.subs.Broadcast(key, data)
}

// reconcileLocked aligns the simulation set with the room document after any
// room write. A running room with both slots occupied gets a simulation; a
// room that left the running state, lost a player or disappeared loses it.
func (r *Relay) reconcileLocked(roomID string, nowMs int64) {
	doc := r.store.Read(store.Room, roomID)
	status := room.Status(doc)

	host, hostOK := room.SlotFromDoc(doc, "host")
	guest, guestOK := room.SlotFromDoc(doc, "guest")

	s, active := r.sims[roomID]

	if status != room.StatusRunning {
		if active {
			r.teardownLocked(roomID)
		}
		return
	}

	if !hostOK || !guestOK {
		// A running room without two players cannot continue; end it
		// rather than freezing the survivor's screen.
		r.store.Merge(store.Room, roomID, store.Document{
			"status":      room.StatusEnded,
			"endedReason": "insufficient players",
			"endedAt":     float64(nowMs),
			"updatedAt":   float64(nowMs),
		})
		if active {
			r.teardownLocked(roomID)
		}
		r.broadcastLocked(store.Room, roomID)
		return
	}

	if !active {
		s = sim.New(roomID, r.cfg.Sim, r.cfg.Limits, host, guest)
		r.sims[roomID] = s
		r.order = append(r.order, roomID)
		log.Printf("🎮 Simulation started for room %s (%s vs %s)", roomID, host.UID, guest.UID)

		r.store.Write(store.World, roomID, s.EncodeWorld())
		r.broadcastLocked(store.World, roomID)
		return
	}

	s.ApplyInput(sim.Host, inputFromSlot(host))
	s.ApplyInput(sim.Guest, inputFromSlot(guest))
}

func inputFromSlot(slot room.Slot) sim.Input {
	return sim.Input{
		Weapon:      slot.Weapon,
		AimX:        slot.AimX,
		AimY:        slot.AimY,
		PointerDown: slot.PointerDown,
		ShotSeq:     slot.ShotSeq,
	}
}

// teardownLocked destroys a simulation and its world document. World
// subscribers get a final nil push so clients know the stream is over.
func (r *Relay) teardownLocked(roomID string) {
	if _, ok := r.sims[roomID]; !ok {
		return
	}
	delete(r.sims, roomID)
	for i, id := range r.order {
		if id == roomID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.store.Remove(store.World, roomID)
	r.broadcastLocked(store.World, roomID)
	log.Printf("🛑 Simulation stopped for room %s", roomID)
}

// Tick advances every active simulation by the elapsed wall time, writes the
// derived room fields and the world snapshot back, and broadcasts both.
// Rooms tick in creation order; one room's panic ends that room only.
func (r *Relay) Tick(elapsed time.Duration) {
	start := time.Now()
	r.mu.Lock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	nowMs := time.Now().UnixMilli()

	for _, roomID := range ids {
		if s, ok := r.sims[roomID]; ok {
			r.tickRoomLocked(roomID, s, elapsed, nowMs)
		}
	}

	r.mu.Unlock()
	if r.OnTick != nil {
		r.OnTick(time.Since(start))
	}
}

func (r *Relay) tickRoomLocked(roomID string, s *sim.Simulation, elapsed time.Duration, nowMs int64) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("⚠️ Simulation for room %s panicked: %v", roomID, rec)
			r.store.Merge(store.Room, roomID, store.Document{
				"status":      room.StatusEnded,
				"endedReason": "simulation error",
				"endedAt":     float64(nowMs),
				"updatedAt":   float64(nowMs),
			})
			r.teardownLocked(roomID)
			r.broadcastLocked(store.Room, roomID)
		}
	}()

	s.Step(elapsed)

	r.store.Merge(store.Room, roomID, s.RoomPatch(nowMs))
	r.store.Write(store.World, roomID, s.EncodeWorld())

	if s.EndedReason != "" {
		r.store.Merge(store.Room, roomID, store.Document{
			"status":      room.StatusEnded,
			"endedReason": s.EndedReason,
			"endedAt":     float64(nowMs),
		})
		r.broadcastLocked(store.Room, roomID)
		r.teardownLocked(roomID)
		return
	}

	r.broadcastLocked(store.Room, roomID)
	r.broadcastLocked(store.World, roomID)
}
