package sim

// Weapon is a weapon configuration. Speed and damage are the baseline; the
// simulation adds a per-wave speed bonus when firing.
type Weapon struct {
	Key     string
	Label   string
	Speed   float64 // projectile speed, px/s
	Damage  float64 // per projectile (or per pellet)
	Pellets int     // projectiles per shot
	Spread  float64 // angular spread, radians
	Life    float64 // projectile lifetime, seconds
	Radius  float64 // projectile collision radius, px
	Splash  float64 // area damage radius, px (grenade only)
	DPS     float64 // continuous damage per second (beam only)
	Width   float64 // ray half-width basis, px (beam only)
}

// Weapons is the table of all weapons a slot can carry.
var Weapons = map[string]Weapon{
	"blaster": {
		Key:     "blaster",
		Label:   "Blaster",
		Speed:   720,
		Damage:  1,
		Pellets: 1,
		Spread:  0.1,
		Life:    0.85,
		Radius:  4,
	},
	"shotgun": {
		Key:     "shotgun",
		Label:   "Shotgun",
		Speed:   640,
		Damage:  0.6,
		Pellets: 5,
		Spread:  0.65,
		Life:    0.7,
		Radius:  3,
	},
	"beam": {
		Key:   "beam",
		Label: "Beam",
		DPS:   6.5,
		Width: 14,
	},
	"grenade": {
		Key:     "grenade",
		Label:   "Grenade",
		Speed:   420,
		Damage:  2.2,
		Pellets: 1,
		Spread:  0.05,
		Life:    0.95,
		Radius:  6,
		Splash:  70,
	},
}

// GetWeapon returns a weapon by key, defaulting to the blaster.
func GetWeapon(key string) Weapon {
	if w, ok := Weapons[key]; ok {
		return w
	}
	return Weapons["blaster"]
}

// beamMaxHits caps how many zombies a single beam ray can damage per tick.
const beamMaxHits = 3
