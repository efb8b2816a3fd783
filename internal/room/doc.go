package room

import "zombie-surge/internal/store"

// Slot is the typed view of one player slot, decoded from a room document.
type Slot struct {
	UID         string
	Name        string
	HP          float64
	MaxHP       float64
	Alive       bool
	Score       float64
	Weapon      string
	AimX        float64
	AimY        float64
	PointerDown bool
	ShotSeq     int
}

// Status reads the status field of a room document. A missing document has
// no status.
func Status(doc store.Document) string {
	if doc == nil {
		return ""
	}
	s, _ := doc["status"].(string)
	return s
}

// SlotFromDoc decodes the host or guest slot of a room document. ok is false
// when the slot is absent or has no uid.
func SlotFromDoc(doc store.Document, key string) (Slot, bool) {
	if doc == nil {
		return Slot{}, false
	}
	src, ok := doc[key].(map[string]any)
	if !ok {
		return Slot{}, false
	}
	uid, _ := src["uid"].(string)
	if uid == "" {
		return Slot{}, false
	}

	maxHp := clampNum(numOr(src["maxHp"], 5), 1, 500)
	hp := clampNum(numOr(src["hp"], maxHp), 0, 500)

	return Slot{
		UID:         uid,
		Name:        strOr(src["name"], ""),
		HP:          hp,
		MaxHP:       maxHp,
		Alive:       hp > 0,
		Score:       numOr(src["score"], 0),
		Weapon:      NormalizeWeapon(src["weapon"]),
		AimX:        QuantizeAim(numOr(src["aimX"], 0.5)),
		AimY:        QuantizeAim(numOr(src["aimY"], 0.5)),
		PointerDown: boolOr(src["pointerDown"], false),
		ShotSeq:     int(numOr(src["shotSeq"], 0)),
	}, true
}
