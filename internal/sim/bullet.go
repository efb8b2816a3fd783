package sim

// Bullet is one in-flight projectile. Grenades carry a splash radius and
// explode on contact or when their fuse runs out; everything else deals
// point damage to the first zombie it overlaps.
type Bullet struct {
	X, Y   float64
	VX, VY float64
	Radius float64
	Damage float64
	Splash float64
	Life   float64 // seconds remaining
	Type   string  // "bullet" or "grenade"
	Owner  PlayerIndex
}

// Burst is a short-lived visual event marker carried in the world snapshot
// for client rendering. Not gameplay-affecting.
type Burst struct {
	X, Y float64
	Type string // "shot", "kill" or "blast"
	Life float64
	Max  float64
}

// Burst type keys, in wire-code order.
const (
	BurstShot  = "shot"
	BurstKill  = "kill"
	BurstBlast = "blast"
)

// bulletBoundsPad is how far outside the canvas a bullet may travel before
// being discarded.
const bulletBoundsPad = 60

// IsGrenade reports whether the bullet explodes with area damage.
func (b *Bullet) IsGrenade() bool {
	return b.Type == "grenade"
}

func (s *Simulation) pushBurst(x, y float64, kind string, life float64) {
	s.Bursts = append(s.Bursts, Burst{X: x, Y: y, Type: kind, Life: life, Max: life})
	s.capBursts()
}

// capBursts enforces the burst cap. Shot bursts are pure muzzle feedback and
// are dropped first, oldest first; kill/blast bursts are retained
// preferentially.
func (s *Simulation) capBursts() {
	max := s.limits.MaxBursts
	for len(s.Bursts) > max {
		dropped := false
		for i, b := range s.Bursts {
			if b.Type == BurstShot {
				s.Bursts = append(s.Bursts[:i], s.Bursts[i+1:]...)
				dropped = true
				break
			}
		}
		if !dropped {
			s.Bursts = s.Bursts[1:]
		}
	}
}

// pruneBursts ages burst markers and removes expired ones.
func (s *Simulation) pruneBursts(dt float64) {
	kept := s.Bursts[:0]
	for _, b := range s.Bursts {
		b.Life -= dt
		if b.Life > 0 {
			kept = append(kept, b)
		}
	}
	s.Bursts = kept
}
