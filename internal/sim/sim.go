// Package sim is the authoritative per-room combat simulation. It owns the
// live physics state for one running coop match: both player cores, the
// zombie horde, in-flight projectiles and the transient burst markers, and
// serializes the capped, quantized world snapshot clients render from.
//
// The simulation never talks to the network. The relay pulls client input
// out of the room document, feeds it in through ApplyInput, advances time
// with Step and writes the results back out.
package sim

import (
	"math"
	"math/rand"
	"time"

	"zombie-surge/internal/config"
	"zombie-surge/internal/room"
	"zombie-surge/internal/store"
)

// PlayerIndex selects the host or guest side.
type PlayerIndex int

const (
	Host  PlayerIndex = 0
	Guest PlayerIndex = 1
)

func (i PlayerIndex) other() PlayerIndex {
	return 1 - i
}

// slotKey maps a side to its room-document key.
func (i PlayerIndex) slotKey() string {
	if i == Guest {
		return "guest"
	}
	return "host"
}

// PlayerState is the server-owned state of one core. Position is fixed at
// spawn; hp, alive and score are derived truth the client cannot set while
// the room runs.
type PlayerState struct {
	UID         string
	Name        string
	X, Y        float64
	HP          float64
	MaxHP       float64
	Alive       bool
	Score       float64
	Weapon      string
	AimX, AimY  float64 // normalized 0..1
	PointerDown bool

	// ShotSeq is the client's monotonically increasing shot counter;
	// ProcessedShotSeq is how far the server has caught up.
	ShotSeq          int
	ProcessedShotSeq int
}

// Input is one player's latest client-submitted intent.
type Input struct {
	Weapon      string
	AimX, AimY  float64
	PointerDown bool
	ShotSeq     int
}

// Simulation is the per-room authoritative state machine
// (created → ticking → destroyed).
type Simulation struct {
	RoomID string

	Players [2]PlayerState
	Zombies []*Zombie
	Bullets []*Bullet
	Bursts  []Burst

	Wave        int
	TotalScore  float64
	EndedReason string

	cfg    config.SimConfig
	limits config.ResourceLimits

	sinceSpawn float64 // seconds since the last regular spawn
	bossWave   int     // wave a boss was last force-spawned for
	zombieSeq  int
	version    int64
	rng        *rand.Rand
}

// New creates a simulation seeded from the room's current slots. Core
// positions mirror the client's dual-core layout: host low-left of center,
// guest high-right.
func New(roomID string, cfg config.SimConfig, limits config.ResourceLimits, host, guest room.Slot) *Simulation {
	s := &Simulation{
		RoomID:  roomID,
		Wave:    1,
		cfg:     cfg,
		limits:  limits,
		version: time.Now().UnixMilli(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	offset := math.Min(110, cfg.Width*0.11)
	s.Players[Host] = seedPlayer(host, cfg.Width/2-offset, cfg.Height/2+10)
	s.Players[Guest] = seedPlayer(guest, cfg.Width/2+offset, cfg.Height/2-10)
	s.TotalScore = s.Players[Host].Score + s.Players[Guest].Score
	s.Wave = waveForScore(s.TotalScore)

	return s
}

func seedPlayer(slot room.Slot, x, y float64) PlayerState {
	return PlayerState{
		UID:              slot.UID,
		Name:             slot.Name,
		X:                x,
		Y:                y,
		HP:               slot.HP,
		MaxHP:            slot.MaxHP,
		Alive:            slot.HP > 0,
		Score:            slot.Score,
		Weapon:           slot.Weapon,
		AimX:             slot.AimX,
		AimY:             slot.AimY,
		PointerDown:      slot.PointerDown && slot.HP > 0,
		ShotSeq:          slot.ShotSeq,
		ProcessedShotSeq: slot.ShotSeq,
	}
}

func waveForScore(score float64) int {
	wave := 1 + int(math.Floor(score/20))
	if wave < 1 {
		wave = 1
	}
	return wave
}

// spawnIntervalSec is the delay between regular spawns at the given wave.
func spawnIntervalSec(wave int) float64 {
	return math.Max(0.320, 1.050-float64(wave)*0.060)
}

// ApplyInput pulls one side's latest client intent into the simulation. A
// shot sequence lower than what the server already processed (stale or
// duplicated input after a reconnect) clamps the processed counter down so
// the pending-shot count can never go negative.
func (s *Simulation) ApplyInput(idx PlayerIndex, in Input) {
	p := &s.Players[idx]
	p.Weapon = in.Weapon
	p.AimX = clamp(in.AimX, 0, 1)
	p.AimY = clamp(in.AimY, 0, 1)
	p.PointerDown = in.PointerDown && p.Alive
	p.ShotSeq = in.ShotSeq
	if p.ShotSeq < p.ProcessedShotSeq {
		p.ProcessedShotSeq = p.ShotSeq
	}
}

// Step advances the simulation by the given real elapsed time. The step is
// clamped so a stalled process cannot produce one huge movement/damage jump
// when ticking resumes.
func (s *Simulation) Step(elapsed time.Duration) {
	if elapsed < s.cfg.MinStep {
		elapsed = s.cfg.MinStep
	}
	if elapsed > s.cfg.MaxStep {
		elapsed = s.cfg.MaxStep
	}
	dt := elapsed.Seconds()

	s.Wave = waveForScore(s.TotalScore)

	s.spawnBossIfDue()
	s.spawnRegular(dt)

	for idx := range s.Players {
		s.resolveFire(PlayerIndex(idx), dt)
	}

	s.updateBullets(dt)
	s.updateZombies(dt)
	s.pruneBursts(dt)

	if !s.Players[Host].Alive && !s.Players[Guest].Alive && s.EndedReason == "" {
		s.EndedReason = "both cores destroyed"
	}
}

// spawnBossIfDue force-spawns one boss per fifth wave, overriding the
// normal type roll. The wave is recorded so the same wave never yields two.
func (s *Simulation) spawnBossIfDue() {
	if s.Wave%5 != 0 || s.bossWave == s.Wave || s.hasBoss() {
		return
	}
	if len(s.Zombies) >= s.limits.MaxZombies {
		return
	}
	x, y := s.spawnPoint()
	s.zombieSeq++
	z := newZombie(s.zombieSeq, ZombieBoss, s.Wave, x, y, s.rng)
	z.Target = s.pickTarget()
	s.Zombies = append(s.Zombies, z)
	s.bossWave = s.Wave
}

func (s *Simulation) spawnRegular(dt float64) {
	s.sinceSpawn += dt
	if s.sinceSpawn < spawnIntervalSec(s.Wave) || len(s.Zombies) >= s.limits.MaxZombies {
		return
	}
	s.sinceSpawn = 0

	x, y := s.spawnPoint()
	s.zombieSeq++
	z := newZombie(s.zombieSeq, pickZombieType(s.Wave, s.rng), s.Wave, x, y, s.rng)
	z.Target = s.pickTarget()
	s.Zombies = append(s.Zombies, z)
}

// resolveFire turns one side's input into damage. Beam is continuous ray
// damage while the pointer is held; projectile weapons drain the client's
// shot counter, capped per tick so a queued flood cannot burst-fire.
func (s *Simulation) resolveFire(idx PlayerIndex, dt float64) {
	p := &s.Players[idx]
	if !p.Alive {
		return
	}

	w := GetWeapon(p.Weapon)
	aimX := p.AimX * s.cfg.Width
	aimY := p.AimY * s.cfg.Height

	if w.Key == "beam" {
		if p.PointerDown {
			s.beamDamage(idx, p.X, p.Y, aimX, aimY, w, dt)
		}
		return
	}

	pending := p.ShotSeq - p.ProcessedShotSeq
	if pending <= 0 {
		return
	}
	fired := pending
	if fired > s.limits.MaxShotsPerTick {
		fired = s.limits.MaxShotsPerTick
	}
	p.ProcessedShotSeq += fired

	for i := 0; i < fired; i++ {
		s.fireShot(idx, w, p.X, p.Y, aimX, aimY)
	}
}

// fireShot spawns one shot's projectile pattern toward the aim point.
func (s *Simulation) fireShot(idx PlayerIndex, w Weapon, originX, originY, aimX, aimY float64) {
	angle := math.Atan2(aimY-originY, aimX-originX)
	speed := w.Speed + float64(s.Wave)*22

	pellets := w.Pellets
	if pellets < 1 {
		pellets = 1
	}
	for p := 0; p < pellets; p++ {
		a := angle + (s.rng.Float64()-0.5)*w.Spread
		s.spawnBullet(&Bullet{
			X:      originX,
			Y:      originY,
			VX:     math.Cos(a) * speed,
			VY:     math.Sin(a) * speed,
			Radius: w.Radius,
			Damage: w.Damage,
			Splash: w.Splash,
			Life:   w.Life,
			Type:   bulletTypeFor(w),
			Owner:  idx,
		})
	}

	s.pushBurst(originX, originY, BurstShot, 0.18)
}

func bulletTypeFor(w Weapon) string {
	if w.Splash > 0 {
		return "grenade"
	}
	return "bullet"
}

func (s *Simulation) spawnBullet(b *Bullet) {
	if len(s.Bullets) >= s.limits.MaxBullets {
		return
	}
	s.Bullets = append(s.Bullets, b)
}

// beamDamage applies continuous hit-scan damage along the aim ray, capped to
// a few simultaneous hits. Scaled by dt, not a cooldown: the beam has no
// discrete shot.
func (s *Simulation) beamDamage(idx PlayerIndex, originX, originY, targetX, targetY float64, w Weapon, dt float64) {
	dx := targetX - originX
	dy := targetY - originY
	rayLen := math.Hypot(dx, dy)
	if rayLen == 0 {
		rayLen = 1
	}
	nx := dx / rayLen
	ny := dy / rayLen
	halfWidth := w.Width * 0.5
	damage := w.DPS * dt

	hits := 0
	for i := len(s.Zombies) - 1; i >= 0 && hits < beamMaxHits; i-- {
		z := s.Zombies[i]
		zx := z.X - originX
		zy := z.Y - originY
		proj := zx*nx + zy*ny
		if proj < 0 || proj > rayLen+z.Radius {
			continue
		}
		if math.Abs(zx*ny-zy*nx) >= z.Radius+halfWidth {
			continue
		}
		if s.damageZombie(z, damage, idx) {
			s.removeZombie(i)
		}
		hits++
	}
}

func (s *Simulation) updateBullets(dt float64) {
	for i := len(s.Bullets) - 1; i >= 0; i-- {
		b := s.Bullets[i]
		b.X += b.VX * dt
		b.Y += b.VY * dt
		b.Life -= dt

		if b.IsGrenade() && b.Life <= 0 {
			s.explodeGrenade(b)
			s.removeBullet(i)
			continue
		}

		if b.X < -bulletBoundsPad || b.X > s.cfg.Width+bulletBoundsPad ||
			b.Y < -bulletBoundsPad || b.Y > s.cfg.Height+bulletBoundsPad ||
			b.Life <= 0 {
			s.removeBullet(i)
			continue
		}

		for j := len(s.Zombies) - 1; j >= 0; j-- {
			z := s.Zombies[j]
			if math.Hypot(z.X-b.X, z.Y-b.Y) >= z.Radius+b.Radius {
				continue
			}
			if b.IsGrenade() {
				s.explodeGrenade(b)
			} else if s.damageZombie(z, b.Damage, b.Owner) {
				s.removeZombie(j)
			}
			s.removeBullet(i)
			break
		}
	}
}

// explodeGrenade applies area damage around the grenade's position and
// leaves a blast marker for the clients.
func (s *Simulation) explodeGrenade(b *Bullet) {
	s.pushBurst(b.X, b.Y, BurstBlast, 0.5)
	for i := len(s.Zombies) - 1; i >= 0; i-- {
		z := s.Zombies[i]
		if math.Hypot(z.X-b.X, z.Y-b.Y) < b.Splash+z.Radius {
			if s.damageZombie(z, b.Damage, b.Owner) {
				s.removeZombie(i)
			}
		}
	}
}

// damageZombie applies damage and reports whether the zombie died. Kills
// credit the firing side and the room-wide total, and wave is recomputed
// from the new total so spawn pacing reacts within the same tick.
func (s *Simulation) damageZombie(z *Zombie, amount float64, owner PlayerIndex) bool {
	z.HP -= amount
	if z.HP > 0 {
		return false
	}
	s.Players[owner].Score++
	s.TotalScore++
	s.Wave = waveForScore(s.TotalScore)
	s.pushBurst(z.X, z.Y, BurstKill, 0.4)
	return true
}

func (s *Simulation) updateZombies(dt float64) {
	for i := len(s.Zombies) - 1; i >= 0; i-- {
		z := s.Zombies[i]

		// Retarget when the assigned core is down and the other survives.
		if !s.Players[z.Target].Alive && s.Players[z.Target.other()].Alive {
			z.Target = z.Target.other()
		}
		target := &s.Players[z.Target]

		dx := target.X - z.X
		dy := target.Y - z.Y
		dist := math.Hypot(dx, dy)
		if dist == 0 {
			dist = 1
		}

		speed := z.Speed
		if z.Type == ZombieDash {
			z.DashCooldown -= dt
			if z.DashCooldown <= 0 {
				z.DashTimer = dashBurstTime
				z.DashCooldown = 2 + s.rng.Float64()*1.4
			}
			if z.DashTimer > 0 {
				z.DashTimer -= dt
				speed *= dashSpeedMult
			}
		}

		z.X += dx / dist * speed * dt
		z.Y += dy / dist * speed * dt

		if dist < z.Radius+coreRadius {
			s.removeZombie(i)
			s.pushBurst(target.X, target.Y, BurstShot, 0.2)
			target.HP = math.Max(0, target.HP-1)
			target.Alive = target.HP > 0
			if !target.Alive {
				// A dead core can no longer hold the beam or fire.
				target.PointerDown = false
			}
		}
	}
}

func (s *Simulation) removeZombie(i int) {
	s.Zombies = append(s.Zombies[:i], s.Zombies[i+1:]...)
}

func (s *Simulation) removeBullet(i int) {
	s.Bullets = append(s.Bullets[:i], s.Bullets[i+1:]...)
}

// RoomPatch builds the merge patch of server-derived room fields written
// back after every tick. These are the fields the sanitizer strips from
// client patches while the room runs.
func (s *Simulation) RoomPatch(nowMs int64) store.Document {
	patch := store.Document{
		"sharedWave": float64(s.Wave),
		"updatedAt":  float64(nowMs),
	}
	for idx := range s.Players {
		p := &s.Players[idx]
		key := PlayerIndex(idx).slotKey()
		patch[key+"/hp"] = p.HP
		patch[key+"/alive"] = p.Alive
		patch[key+"/score"] = p.Score
		patch[key+"/wave"] = float64(s.Wave)
	}
	return patch
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
