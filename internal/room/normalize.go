package room

import (
	"math"
	"strings"

	"zombie-surge/internal/store"
)

// Room status enum. Transitions are one-directional:
// waiting → running → ended, with waiting → ended allowed for abandonment.
const (
	StatusWaiting = "waiting"
	StatusRunning = "running"
	StatusEnded   = "ended"
)

var statusRank = map[string]int{
	StatusWaiting: 0,
	StatusRunning: 1,
	StatusEnded:   2,
}

// DefaultWeapon is the fallback for unknown weapon keys.
const DefaultWeapon = "blaster"

// KnownWeapons is the set of weapon keys a slot may carry. The simulation's
// weapon table uses the same keys.
var KnownWeapons = map[string]bool{
	"blaster": true,
	"shotgun": true,
	"beam":    true,
	"grenade": true,
}

// runningSlotFields are the slot fields a client may still patch while the
// room is running. hp, alive, score and wave are server-owned by then.
var runningSlotFields = map[string]bool{
	"uid":         true,
	"name":        true,
	"maxHp":       true,
	"aimX":        true,
	"aimY":        true,
	"pointerDown": true,
	"weapon":      true,
	"shotSeq":     true,
	"inputAt":     true,
	"updatedAt":   true,
}

// NormalizeForSet validates and sanitizes a whole-document room write.
// Invalid fields are coerced to safe defaults rather than rejected: the
// originating client is not trusted, but it must not be able to wedge a
// room either. Returns nil when raw is not an object, which callers treat
// as a delete. The status transition is clamped against current so a room
// can never move backwards (and "ended" is terminal).
func NormalizeForSet(roomID string, raw any, current store.Document, nowMs int64) store.Document {
	src, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	doc := store.Document{
		"roomId":     roomID,
		"status":     ClampStatus(Status(current), normalizeStatus(src["status"])),
		"sharedWave": math.Max(1, math.Floor(numOr(src["sharedWave"], 1))),
		"host":       normalizeSlot(src["host"], nowMs),
		"guest":      normalizeSlot(src["guest"], nowMs),
		"createdAt":  timestampOr(src["createdAt"], nowMs),
		"updatedAt":  timestampOr(src["updatedAt"], nowMs),
	}

	if reason, ok := src["endedReason"].(string); ok && reason != "" {
		doc["endedReason"] = reason
	}
	if at, ok := toNumber(src["endedAt"]); ok {
		doc["endedAt"] = at
	}

	return doc
}

// SanitizePatch filters a client patch against the current document. Before
// the room runs, everything passes through. Once running, sharedWave and the
// privileged slot fields are silently dropped so routine aim/position
// updates still land even when stray server-owned keys ride along.
func SanitizePatch(current store.Document, patch store.Document) store.Document {
	currentStatus := Status(current)

	out := make(store.Document, len(patch))
	for key, value := range patch {
		if currentStatus != StatusRunning {
			if key == "status" {
				out[key] = ClampStatus(currentStatus, normalizeStatus(value))
				continue
			}
			out[key] = value
			continue
		}

		switch {
		case key == "sharedWave":
			// Server-owned once running.
		case key == "status":
			out[key] = ClampStatus(currentStatus, normalizeStatus(value))
		case key == "host" || key == "guest":
			out[key] = filterSlotValue(value)
		case strings.Contains(key, "/"):
			if slotPathAllowed(key) {
				out[key] = value
			}
		default:
			out[key] = value
		}
	}
	return out
}

// ClampStatus enforces forward-only transitions by rank. Unknown next values
// keep the current status (or default to waiting for new rooms).
func ClampStatus(current, next string) string {
	curRank, curKnown := statusRank[current]
	nextRank, nextKnown := statusRank[next]
	if !nextKnown {
		if curKnown {
			return current
		}
		return StatusWaiting
	}
	if curKnown && nextRank < curRank {
		return current
	}
	return next
}

func normalizeStatus(v any) string {
	s, _ := v.(string)
	s = strings.ToLower(strings.TrimSpace(s))
	if _, ok := statusRank[s]; ok {
		return s
	}
	return StatusWaiting
}

// normalizeSlot coerces one player slot. A slot without a uid is no slot.
func normalizeSlot(raw any, nowMs int64) any {
	src, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	uid, _ := src["uid"].(string)
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil
	}

	maxHp := clampNum(numOr(src["maxHp"], 5), 1, 500)
	hp := clampNum(numOr(src["hp"], maxHp), 0, 500)

	slot := map[string]any{
		"uid":         uid,
		"name":        strOr(src["name"], ""),
		"hp":          hp,
		"maxHp":       maxHp,
		"alive":       hp > 0,
		"score":       math.Max(0, numOr(src["score"], 0)),
		"wave":        math.Max(1, math.Floor(numOr(src["wave"], 1))),
		"aimX":        QuantizeAim(numOr(src["aimX"], 0.5)),
		"aimY":        QuantizeAim(numOr(src["aimY"], 0.5)),
		"pointerDown": boolOr(src["pointerDown"], false),
		"weapon":      NormalizeWeapon(src["weapon"]),
		"shotSeq":     math.Max(0, math.Floor(numOr(src["shotSeq"], 0))),
		"inputAt":     timestampOr(src["inputAt"], nowMs),
		"updatedAt":   timestampOr(src["updatedAt"], nowMs),
	}
	return slot
}

// filterSlotValue strips privileged fields from a nested slot object in a
// running-room patch. Non-objects pass through (nil clears the slot, and
// reconciliation then ends the match).
func filterSlotValue(value any) any {
	src, ok := value.(map[string]any)
	if !ok {
		return value
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		if runningSlotFields[k] {
			out[k] = v
		}
	}
	return out
}

// slotPathAllowed reports whether a slash-path patch key may pass while the
// room is running.
func slotPathAllowed(key string) bool {
	parts := strings.Split(key, "/")
	if len(parts) != 2 {
		return false
	}
	if parts[0] != "host" && parts[0] != "guest" {
		return false
	}
	return runningSlotFields[parts[1]]
}

// NormalizeWeapon coerces a weapon value to a known key.
func NormalizeWeapon(v any) string {
	s, _ := v.(string)
	if KnownWeapons[s] {
		return s
	}
	return DefaultWeapon
}

// QuantizeAim clamps a normalized aim coordinate into [0,1] and quantizes it
// to 4 decimal digits, matching the client's wire precision.
func QuantizeAim(v float64) float64 {
	v = clampNum(v, 0, 1)
	return math.Round(v*10000) / 10000
}

func clampNum(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func numOr(v any, fallback float64) float64 {
	if n, ok := toNumber(v); ok && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return n
	}
	return fallback
}

func strOr(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

func boolOr(v any, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

func timestampOr(v any, nowMs int64) float64 {
	if n, ok := toNumber(v); ok && n > 0 {
		return n
	}
	return float64(nowMs)
}
