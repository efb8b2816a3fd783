package sim

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"zombie-surge/internal/config"
	"zombie-surge/internal/room"
)

func newTestRngSim() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func testSlot(uid string) room.Slot {
	return room.Slot{
		UID:    uid,
		HP:     5,
		MaxHP:  5,
		Alive:  true,
		Weapon: "blaster",
		AimX:   0.5,
		AimY:   0.5,
	}
}

func newTestSim() *Simulation {
	return New("ABC123", config.DefaultSim(), config.DefaultLimits(), testSlot("u1"), testSlot("u2"))
}

func addZombie(s *Simulation, x, y, hp float64) *Zombie {
	s.zombieSeq++
	z := &Zombie{
		ID:     s.zombieSeq,
		X:      x,
		Y:      y,
		Radius: 16,
		HP:     hp,
		MaxHP:  hp,
		Type:   ZombieNormal,
		Speed:  50,
		Target: Host,
	}
	s.Zombies = append(s.Zombies, z)
	return z
}

func TestNewSeedsCorePositions(t *testing.T) {
	s := newTestSim()

	if s.Players[Host].X != 530 || s.Players[Host].Y != 370 {
		t.Errorf("host core at (%g,%g), want (530,370)", s.Players[Host].X, s.Players[Host].Y)
	}
	if s.Players[Guest].X != 750 || s.Players[Guest].Y != 350 {
		t.Errorf("guest core at (%g,%g), want (750,350)", s.Players[Guest].X, s.Players[Guest].Y)
	}
	if s.Wave != 1 {
		t.Errorf("fresh simulation wave = %d, want 1", s.Wave)
	}
}

func TestWaveForScore(t *testing.T) {
	cases := []struct {
		score float64
		want  int
	}{
		{0, 1}, {19, 1}, {20, 2}, {39, 2}, {40, 3}, {100, 6},
	}
	for _, c := range cases {
		if got := waveForScore(c.score); got != c.want {
			t.Errorf("waveForScore(%g) = %d, want %d", c.score, got, c.want)
		}
	}
}

func TestSpawnIntervalFloor(t *testing.T) {
	if got := spawnIntervalSec(1); got != 0.99 {
		t.Errorf("spawnIntervalSec(1) = %g, want 0.99", got)
	}
	if got := spawnIntervalSec(50); got != 0.32 {
		t.Errorf("spawnIntervalSec(50) = %g, want floor 0.32", got)
	}
}

func TestShotCapPerTick(t *testing.T) {
	s := newTestSim()
	s.ApplyInput(Host, Input{Weapon: "blaster", AimX: 0.9, AimY: 0.5, ShotSeq: 100})

	s.Step(33 * time.Millisecond)

	if len(s.Bullets) != 4 {
		t.Errorf("fired %d bullets, want shots capped at 4", len(s.Bullets))
	}
	if got := s.Players[Host].ProcessedShotSeq; got != 4 {
		t.Errorf("ProcessedShotSeq = %d, want 4", got)
	}

	// Remaining queued shots drain on subsequent ticks.
	s.Step(33 * time.Millisecond)
	if got := s.Players[Host].ProcessedShotSeq; got != 8 {
		t.Errorf("ProcessedShotSeq after second tick = %d, want 8", got)
	}
}

func TestStaleShotSeqClampsProcessed(t *testing.T) {
	s := newTestSim()
	s.Players[Host].ShotSeq = 10
	s.Players[Host].ProcessedShotSeq = 10

	s.ApplyInput(Host, Input{Weapon: "blaster", AimX: 0.9, AimY: 0.5, ShotSeq: 3})

	if s.Players[Host].ProcessedShotSeq != 3 {
		t.Errorf("ProcessedShotSeq = %d, want clamp to 3", s.Players[Host].ProcessedShotSeq)
	}

	s.Step(33 * time.Millisecond)
	if len(s.Bullets) != 0 {
		t.Errorf("stale input fired %d bullets, want 0", len(s.Bullets))
	}
}

func TestDeadPlayerCannotFire(t *testing.T) {
	s := newTestSim()
	s.Players[Host].HP = 0
	s.Players[Host].Alive = false
	s.Players[Host].ShotSeq = 5

	s.Step(33 * time.Millisecond)

	if len(s.Bullets) != 0 {
		t.Errorf("dead player fired %d bullets", len(s.Bullets))
	}
}

func TestShotgunFiresFivePellets(t *testing.T) {
	s := newTestSim()
	s.ApplyInput(Host, Input{Weapon: "shotgun", AimX: 0.9, AimY: 0.5, ShotSeq: 1})

	s.Step(33 * time.Millisecond)

	if len(s.Bullets) != 5 {
		t.Fatalf("shotgun produced %d bullets, want 5 pellets", len(s.Bullets))
	}
	for _, b := range s.Bullets {
		if b.Damage >= 1 {
			t.Errorf("pellet damage = %g, want < 1", b.Damage)
		}
		if b.IsGrenade() {
			t.Error("pellet marked as grenade")
		}
	}
}

func TestGrenadeShotCarriesSplash(t *testing.T) {
	s := newTestSim()
	s.ApplyInput(Host, Input{Weapon: "grenade", AimX: 0.9, AimY: 0.5, ShotSeq: 1})

	s.Step(33 * time.Millisecond)

	if len(s.Bullets) != 1 {
		t.Fatalf("grenade produced %d bullets, want 1", len(s.Bullets))
	}
	b := s.Bullets[0]
	if !b.IsGrenade() || b.Splash != 70 {
		t.Errorf("grenade bullet = %+v", b)
	}
}

func TestProjectileSpeedScalesWithWave(t *testing.T) {
	s := newTestSim()
	s.TotalScore = 80 // wave 5
	s.ApplyInput(Host, Input{Weapon: "blaster", AimX: 0.9, AimY: 0.5, ShotSeq: 1})

	s.Step(33 * time.Millisecond)

	if len(s.Bullets) == 0 {
		t.Fatal("no bullet fired")
	}
	b := s.Bullets[0]
	speed := math.Hypot(b.VX, b.VY)
	want := 720.0 + 5*22
	if math.Abs(speed-want) > 1 {
		t.Errorf("bullet speed = %g, want about %g", speed, want)
	}
}

func TestBeamHitsAtMostThree(t *testing.T) {
	s := newTestSim()
	host := s.Players[Host]

	// Five weak zombies lined up along the aim ray.
	for i := 1; i <= 5; i++ {
		addZombie(s, host.X+float64(i)*30, host.Y, 1)
	}

	s.beamDamage(Host, host.X, host.Y, host.X+300, host.Y, GetWeapon("beam"), 1.0)

	if len(s.Zombies) != 2 {
		t.Errorf("%d zombies survived, want 2 (beam capped at 3 hits)", len(s.Zombies))
	}
	if s.Players[Host].Score != 3 {
		t.Errorf("score = %g, want 3 kill credits", s.Players[Host].Score)
	}
}

func TestBeamRequiresPointerDown(t *testing.T) {
	s := newTestSim()
	host := s.Players[Host]
	z := addZombie(s, host.X+60, host.Y, 5)
	s.ApplyInput(Host, Input{Weapon: "beam", AimX: 0.9, AimY: host.Y / 720, PointerDown: false})

	s.Step(33 * time.Millisecond)

	if z.HP != 5 {
		t.Errorf("beam damaged zombie with pointer up: hp = %g", z.HP)
	}
}

func TestGrenadeFuseExplosion(t *testing.T) {
	s := newTestSim()
	addZombie(s, 200, 200, 2)
	s.Bullets = append(s.Bullets, &Bullet{
		X: 250, Y: 200, Radius: 6, Damage: 2.2, Splash: 70,
		Life: 0.01, Type: "grenade", Owner: Guest,
	})

	s.updateBullets(0.02)

	if len(s.Bullets) != 0 {
		t.Error("expired grenade not removed")
	}
	if len(s.Zombies) != 0 {
		t.Error("zombie inside splash radius survived")
	}
	if s.Players[Guest].Score != 1 {
		t.Errorf("guest score = %g, want kill credit", s.Players[Guest].Score)
	}
	if !hasBurst(s, BurstBlast) {
		t.Error("no blast burst after grenade explosion")
	}
}

func TestGrenadeContactExplosion(t *testing.T) {
	s := newTestSim()
	addZombie(s, 200, 200, 10)
	s.Bullets = append(s.Bullets, &Bullet{
		X: 190, Y: 200, Radius: 6, Damage: 2.2, Splash: 70,
		Life: 0.9, Type: "grenade", Owner: Host,
	})

	s.updateBullets(0.01)

	if len(s.Bullets) != 0 {
		t.Error("grenade survived contact with a zombie")
	}
	if s.Zombies[0].HP != 7.8 {
		t.Errorf("zombie hp = %g, want 7.8", s.Zombies[0].HP)
	}
}

func TestBulletPointDamage(t *testing.T) {
	s := newTestSim()
	z := addZombie(s, 200, 200, 2)
	s.Bullets = append(s.Bullets, &Bullet{
		X: 195, Y: 200, Radius: 4, Damage: 1, Life: 0.5, Type: "bullet", Owner: Host,
	})

	s.updateBullets(0.01)

	if len(s.Bullets) != 0 {
		t.Error("bullet not consumed by the hit")
	}
	if z.HP != 1 {
		t.Errorf("zombie hp = %g, want 1", z.HP)
	}
	if len(s.Zombies) != 1 {
		t.Error("wounded zombie was removed")
	}
}

func TestBulletDiscardedOutOfBounds(t *testing.T) {
	s := newTestSim()
	s.Bullets = append(s.Bullets, &Bullet{
		X: s.cfg.Width + bulletBoundsPad + 10, Y: 100, VX: 100, Life: 0.5, Type: "bullet",
	})

	s.updateBullets(0.01)

	if len(s.Bullets) != 0 {
		t.Error("out-of-bounds bullet kept")
	}
}

func TestZombieReachingCoreDamagesIt(t *testing.T) {
	s := newTestSim()
	host := &s.Players[Host]
	addZombie(s, host.X+5, host.Y, 2)

	s.updateZombies(0.01)

	if len(s.Zombies) != 0 {
		t.Error("zombie not consumed by the core hit")
	}
	if host.HP != 4 {
		t.Errorf("host hp = %g, want 4", host.HP)
	}
	if !host.Alive {
		t.Error("host should survive at 4 hp")
	}
}

func TestCoreDeathDropsPointer(t *testing.T) {
	s := newTestSim()
	host := &s.Players[Host]
	host.HP = 1
	host.PointerDown = true
	addZombie(s, host.X+5, host.Y, 2)

	s.updateZombies(0.01)

	if host.HP != 0 || host.Alive {
		t.Errorf("host hp/alive = %g/%v, want 0/false", host.HP, host.Alive)
	}
	if host.PointerDown {
		t.Error("pointerDown should drop when the core dies")
	}
}

func TestZombieRetargetsSurvivor(t *testing.T) {
	s := newTestSim()
	s.Players[Host].HP = 0
	s.Players[Host].Alive = false
	z := addZombie(s, 100, 100, 2)
	z.Target = Host

	s.updateZombies(0.01)

	if z.Target != Guest {
		t.Errorf("zombie target = %d, want retarget to guest", z.Target)
	}
}

func TestBothCoresDeadEndsMatch(t *testing.T) {
	s := newTestSim()
	for i := range s.Players {
		s.Players[i].HP = 0
		s.Players[i].Alive = false
	}

	s.Step(33 * time.Millisecond)

	if s.EndedReason == "" {
		t.Error("EndedReason empty with both cores dead")
	}
}

func TestZombieCapRespected(t *testing.T) {
	s := newTestSim()
	for i := 0; i < s.limits.MaxZombies; i++ {
		addZombie(s, 100, 100, 2)
	}
	s.sinceSpawn = 100 // way past the spawn interval

	s.Step(33 * time.Millisecond)

	if len(s.Zombies) > s.limits.MaxZombies {
		t.Errorf("%d zombies, want cap %d", len(s.Zombies), s.limits.MaxZombies)
	}
}

func TestBulletCapRespected(t *testing.T) {
	s := newTestSim()
	for i := 0; i < s.limits.MaxBullets+20; i++ {
		s.spawnBullet(&Bullet{X: 100, Y: 100, Life: 1, Type: "bullet"})
	}

	if len(s.Bullets) != s.limits.MaxBullets {
		t.Errorf("%d bullets, want cap %d", len(s.Bullets), s.limits.MaxBullets)
	}
}

func TestBurstCapDropsShotBurstsFirst(t *testing.T) {
	s := newTestSim()
	for i := 0; i < s.limits.MaxBursts-2; i++ {
		s.pushBurst(0, 0, BurstKill, 0.4)
	}
	for i := 0; i < 5; i++ {
		s.pushBurst(0, 0, BurstShot, 0.18)
	}

	if len(s.Bursts) != s.limits.MaxBursts {
		t.Fatalf("%d bursts, want cap %d", len(s.Bursts), s.limits.MaxBursts)
	}
	kills := 0
	for _, b := range s.Bursts {
		if b.Type == BurstKill {
			kills++
		}
	}
	if kills != s.limits.MaxBursts-2 {
		t.Errorf("%d kill bursts survived, want all %d", kills, s.limits.MaxBursts-2)
	}
}

func TestBossSpawnsOncePerFifthWave(t *testing.T) {
	s := newTestSim()
	s.TotalScore = 80 // wave 5

	s.Step(33 * time.Millisecond)

	bosses := 0
	for _, z := range s.Zombies {
		if z.Type == ZombieBoss {
			bosses++
		}
	}
	if bosses != 1 {
		t.Fatalf("%d bosses after first wave-5 tick, want 1", bosses)
	}

	s.Step(33 * time.Millisecond)
	bosses = 0
	for _, z := range s.Zombies {
		if z.Type == ZombieBoss {
			bosses++
		}
	}
	if bosses != 1 {
		t.Errorf("%d bosses after second tick, want still 1", bosses)
	}
}

func TestStepClampsElapsedTime(t *testing.T) {
	s := newTestSim()
	z := addZombie(s, 100, 370, 2)
	z.Speed = 100

	startX := z.X
	s.Step(5 * time.Second)

	// At 100 px/s with the step clamped to 50ms the zombie moves about 5px,
	// not 500.
	moved := math.Abs(z.X - startX)
	if moved > 6 {
		t.Errorf("zombie moved %.1fpx in one clamped step", moved)
	}
}

func TestEarlyWavesSpawnOnlyNormals(t *testing.T) {
	rng := newTestRngSim()
	for i := 0; i < 100; i++ {
		if got := pickZombieType(2, rng); got != ZombieNormal {
			t.Fatalf("wave 2 spawned %q", got)
		}
	}
}

func TestRoomPatchCarriesDerivedFields(t *testing.T) {
	s := newTestSim()
	s.Players[Host].HP = 3
	s.Players[Host].Score = 21
	s.TotalScore = 21
	s.Wave = waveForScore(s.TotalScore)

	patch := s.RoomPatch(5000)

	if patch["sharedWave"] != 2.0 {
		t.Errorf("sharedWave = %v, want 2", patch["sharedWave"])
	}
	if patch["host/hp"] != 3.0 {
		t.Errorf("host/hp = %v, want 3", patch["host/hp"])
	}
	if patch["host/alive"] != true {
		t.Errorf("host/alive = %v, want true", patch["host/alive"])
	}
	if patch["host/score"] != 21.0 {
		t.Errorf("host/score = %v, want 21", patch["host/score"])
	}
	if patch["guest/hp"] != 5.0 {
		t.Errorf("guest/hp = %v, want 5", patch["guest/hp"])
	}
	if patch["updatedAt"] != 5000.0 {
		t.Errorf("updatedAt = %v, want 5000", patch["updatedAt"])
	}
}

func hasBurst(s *Simulation, kind string) bool {
	for _, b := range s.Bursts {
		if b.Type == kind {
			return true
		}
	}
	return false
}
