package sim

import (
	"math"

	"zombie-surge/internal/store"
)

// Wire codes. Array positions double as the code values, so the slices are
// the single source of truth for both encode and decode.
var (
	zombieTypeCodes = []string{ZombieNormal, ZombieFast, ZombieTank, ZombieDash, ZombieBoss}
	burstTypeCodes  = []string{BurstShot, BurstKill, BurstBlast}
)

// Quantization bounds. Coordinates and velocities ride the wire as integers
// in 0..10000 (velocities -10000..10000); radii are expressed relative to
// the smaller canvas dimension and clamped so a corrupt value can never
// blank the client's screen.
const (
	coordScale   = 10000
	maxWireSpeed = 2200 // px/s mapped to full scale

	zombieRadiusMin = 0.003
	zombieRadiusMax = 0.3
	bulletRadiusMin = 0.0015
	bulletRadiusMax = 0.08

	hpScale   = 10
	lifeScale = 100
)

// QuantizeCoord maps a pixel position to the 0..10000 wire range.
func QuantizeCoord(p, dim float64) float64 {
	return math.Round(clamp(p/dim, 0, 1) * coordScale)
}

// DequantizeCoord is the inverse of QuantizeCoord.
func DequantizeCoord(q, dim float64) float64 {
	return q / coordScale * dim
}

// QuantizeRadius maps a radius to the wire range relative to the smaller
// canvas dimension, clamped to the given fraction bounds.
func QuantizeRadius(r, minDim, lo, hi float64) float64 {
	return math.Round(clamp(r/minDim, lo, hi) * coordScale)
}

// DequantizeRadius is the inverse of QuantizeRadius.
func DequantizeRadius(q, minDim float64) float64 {
	return q / coordScale * minDim
}

// QuantizeVelocity maps a velocity component to the -10000..10000 wire range.
func QuantizeVelocity(v float64) float64 {
	return math.Round(clamp(v/maxWireSpeed, -1, 1) * coordScale)
}

// DequantizeVelocity is the inverse of QuantizeVelocity.
func DequantizeVelocity(q float64) float64 {
	return q / coordScale * maxWireSpeed
}

func zombieTypeCode(kind string) float64 {
	for i, k := range zombieTypeCodes {
		if k == kind {
			return float64(i)
		}
	}
	return 0
}

func burstTypeCode(kind string) float64 {
	for i, k := range burstTypeCodes {
		if k == kind {
			return float64(i)
		}
	}
	return 0
}

// EncodeWorld serializes the current world state as the compact snapshot
// document broadcast to world subscribers. Each call bumps the snapshot
// version; the counter is seeded from wall time at creation so versions stay
// monotonic across a simulation teardown and rebuild of the same room.
func (s *Simulation) EncodeWorld() store.Document {
	s.version++

	w := s.cfg.Width
	h := s.cfg.Height
	minDim := math.Min(w, h)

	zombies := make([]any, 0, len(s.Zombies))
	for _, z := range s.Zombies {
		zombies = append(zombies, []any{
			float64(z.ID),
			QuantizeCoord(z.X, w),
			QuantizeCoord(z.Y, h),
			QuantizeRadius(z.Radius, minDim, zombieRadiusMin, zombieRadiusMax),
			math.Round(z.HP * hpScale),
			math.Round(z.MaxHP * hpScale),
			zombieTypeCode(z.Type),
			float64(z.Target),
		})
	}

	bullets := make([]any, 0, len(s.Bullets))
	for _, b := range s.Bullets {
		code := 0.0
		if b.IsGrenade() {
			code = 1.0
		}
		bullets = append(bullets, []any{
			QuantizeCoord(b.X, w),
			QuantizeCoord(b.Y, h),
			QuantizeVelocity(b.VX),
			QuantizeVelocity(b.VY),
			QuantizeRadius(b.Radius, minDim, bulletRadiusMin, bulletRadiusMax),
			code,
			math.Round(b.Life * lifeScale),
		})
	}

	bursts := make([]any, 0, len(s.Bursts))
	for _, u := range s.Bursts {
		bursts = append(bursts, []any{
			QuantizeCoord(u.X, w),
			QuantizeCoord(u.Y, h),
			burstTypeCode(u.Type),
			math.Round(u.Life * lifeScale),
			math.Round(u.Max * lifeScale),
		})
	}

	return store.Document{
		"v":  float64(s.version),
		"sw": w,
		"sh": h,
		"s":  s.TotalScore,
		"w":  float64(s.Wave),
		"z":  zombies,
		"b":  bullets,
		"u":  bursts,
	}
}
