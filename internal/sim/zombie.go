package sim

import "math/rand"

// Zombie type keys, in wire-code order.
const (
	ZombieNormal = "normal"
	ZombieFast   = "fast"
	ZombieTank   = "tank"
	ZombieDash   = "dash"
	ZombieBoss   = "boss"
)

// Zombie is one live enemy.
type Zombie struct {
	ID     int
	X, Y   float64
	Radius float64
	HP     float64
	MaxHP  float64
	Type   string
	Speed  float64 // px/s before dash multiplier
	Target PlayerIndex

	// Dash zombies alternate a cooldown with a short speed burst.
	DashCooldown float64 // seconds until next burst
	DashTimer    float64 // seconds of burst remaining
}

const (
	spawnEdgePad  = 50  // zombies appear just outside the play field
	coreRadius    = 16  // player core hit radius
	dashBurstTime = 0.35
	dashSpeedMult = 2.6
)

// pickZombieType rolls a spawn type. Early waves only produce normals.
func pickZombieType(wave int, rng *rand.Rand) string {
	if wave < 3 {
		return ZombieNormal
	}
	roll := rng.Float64()
	switch {
	case roll < 0.55:
		return ZombieNormal
	case roll < 0.75:
		return ZombieFast
	case roll < 0.92:
		return ZombieTank
	default:
		return ZombieDash
	}
}

// newZombie builds a zombie of the given type with wave-scaled stats.
func newZombie(id int, kind string, wave int, x, y float64, rng *rand.Rand) *Zombie {
	baseSpeed := 38 + float64(wave)*6

	z := &Zombie{
		ID:     id,
		X:      x,
		Y:      y,
		Type:   kind,
		Speed:  baseSpeed + rng.Float64()*14,
		Radius: 16 + rng.Float64()*8,
		HP:     2,
	}

	switch kind {
	case ZombieFast:
		z.Speed = baseSpeed * 1.6
		z.Radius = 12 + rng.Float64()*6
		z.HP = 1
	case ZombieTank:
		z.Speed = baseSpeed * 0.65
		z.Radius = 24 + rng.Float64()*10
		z.HP = 5
	case ZombieDash:
		z.Speed = baseSpeed * 1.15
		z.Radius = 16 + rng.Float64()*6
		z.HP = 2
		z.DashCooldown = 1.4 + rng.Float64()*1.6
	case ZombieBoss:
		z.Speed = baseSpeed * 0.55
		z.Radius = 36
		z.HP = 22 + float64(wave)*2
	}

	z.MaxHP = z.HP
	return z
}

// spawnPoint picks a random position just outside a random edge.
func (s *Simulation) spawnPoint() (float64, float64) {
	switch s.rng.Intn(4) {
	case 0:
		return s.rng.Float64() * s.cfg.Width, -spawnEdgePad
	case 1:
		return s.cfg.Width + spawnEdgePad, s.rng.Float64() * s.cfg.Height
	case 2:
		return s.rng.Float64() * s.cfg.Width, s.cfg.Height + spawnEdgePad
	default:
		return -spawnEdgePad, s.rng.Float64() * s.cfg.Height
	}
}

// pickTarget assigns a core for a fresh zombie to attack. With both cores
// alive each zombie commits to one at random; otherwise everything piles on
// the survivor.
func (s *Simulation) pickTarget() PlayerIndex {
	hostAlive := s.Players[Host].Alive
	guestAlive := s.Players[Guest].Alive
	switch {
	case hostAlive && guestAlive:
		return PlayerIndex(s.rng.Intn(2))
	case guestAlive:
		return Guest
	default:
		return Host
	}
}

// hasBoss reports whether a boss is currently alive.
func (s *Simulation) hasBoss() bool {
	for _, z := range s.Zombies {
		if z.Type == ZombieBoss {
			return true
		}
	}
	return false
}
