package relay

import (
	"log"
	"time"
)

// Scheduler drives the relay's tick loop on a fixed wall-clock interval.
// The elapsed time between fires is measured and handed to the relay, which
// clamps it per room, so a delayed tick never turns into a physics jump.
type Scheduler struct {
	relay    *Relay
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(r *Relay, interval time.Duration) *Scheduler {
	return &Scheduler{
		relay:    r,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the tick loop in its own goroutine.
func (s *Scheduler) Start() {
	log.Printf("🎮 Tick loop started (interval %s)", s.interval)
	go s.run()
}

// Stop halts the loop and waits for the in-flight tick to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
	log.Printf("🛑 Tick loop stopped")
}

func (s *Scheduler) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	prev := time.Now()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.relay.Tick(now.Sub(prev))
			prev = now
		}
	}
}
