package room

import (
	"math/rand"
	"testing"

	"zombie-surge/internal/store"
)

func newTestRng() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func TestSanitizeID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"abc123", "ABC123"},
		{"  room-1  ", "ROOM-1"},
		{"under_score", "UNDER_SCORE"},
		{"bad!chars$here", "BADCHARSHERE"},
		{"", ""},
		{"!!!", ""},
		{"ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789XYZ", "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345"},
	}
	for _, c := range cases {
		if got := SanitizeID(c.in); got != c.want {
			t.Errorf("SanitizeID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNewCodeShape(t *testing.T) {
	rng := newTestRng()
	for i := 0; i < 50; i++ {
		code := NewCode(rng)
		if len(code) != CodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), CodeLength)
		}
		if SanitizeID(code) != code {
			t.Fatalf("code %q does not survive sanitation", code)
		}
	}
}

func TestClampStatusForwardOnly(t *testing.T) {
	cases := []struct {
		current, next, want string
	}{
		{"", "waiting", "waiting"},
		{"", "bogus", "waiting"},
		{StatusWaiting, StatusRunning, StatusRunning},
		{StatusWaiting, StatusEnded, StatusEnded},
		{StatusRunning, StatusWaiting, StatusRunning},
		{StatusRunning, StatusEnded, StatusEnded},
		{StatusEnded, StatusWaiting, StatusEnded},
		{StatusEnded, StatusRunning, StatusEnded},
		{StatusRunning, "bogus", StatusRunning},
	}
	for _, c := range cases {
		if got := ClampStatus(c.current, c.next); got != c.want {
			t.Errorf("ClampStatus(%q, %q) = %q, want %q", c.current, c.next, got, c.want)
		}
	}
}

func TestNormalizeForSetDefaults(t *testing.T) {
	doc := NormalizeForSet("ABC123", map[string]any{
		"status": "waiting",
		"host":   map[string]any{"uid": "u1"},
	}, nil, 1000)

	if doc["roomId"] != "ABC123" {
		t.Errorf("roomId = %v", doc["roomId"])
	}
	if doc["status"] != StatusWaiting {
		t.Errorf("status = %v", doc["status"])
	}
	if doc["sharedWave"] != 1.0 {
		t.Errorf("sharedWave = %v, want 1", doc["sharedWave"])
	}
	if doc["guest"] != nil {
		t.Errorf("guest = %v, want nil", doc["guest"])
	}

	host := doc["host"].(map[string]any)
	if host["hp"] != 5.0 || host["maxHp"] != 5.0 {
		t.Errorf("host hp/maxHp = %v/%v, want 5/5", host["hp"], host["maxHp"])
	}
	if host["alive"] != true {
		t.Error("host with positive hp should be alive")
	}
	if host["weapon"] != DefaultWeapon {
		t.Errorf("weapon = %v, want %s", host["weapon"], DefaultWeapon)
	}
	if host["aimX"] != 0.5 || host["aimY"] != 0.5 {
		t.Errorf("aim = %v/%v, want 0.5/0.5", host["aimX"], host["aimY"])
	}
	if host["inputAt"] != 1000.0 {
		t.Errorf("inputAt = %v, want 1000", host["inputAt"])
	}
}

func TestNormalizeForSetClampsSlotValues(t *testing.T) {
	doc := NormalizeForSet("ABC123", map[string]any{
		"host": map[string]any{
			"uid":    "u1",
			"hp":     9999.0,
			"maxHp":  -3.0,
			"aimX":   1.23456789,
			"aimY":   -0.5,
			"weapon": "bfg9000",
			"score":  -10.0,
		},
	}, nil, 1000)

	host := doc["host"].(map[string]any)
	if host["maxHp"] != 1.0 {
		t.Errorf("maxHp = %v, want clamp to 1", host["maxHp"])
	}
	if host["hp"] != 500.0 {
		t.Errorf("hp = %v, want clamp to 500", host["hp"])
	}
	if host["aimX"] != 1.0 {
		t.Errorf("aimX = %v, want clamp to 1", host["aimX"])
	}
	if host["aimY"] != 0.0 {
		t.Errorf("aimY = %v, want clamp to 0", host["aimY"])
	}
	if host["weapon"] != DefaultWeapon {
		t.Errorf("weapon = %v, want fallback %s", host["weapon"], DefaultWeapon)
	}
	if host["score"] != 0.0 {
		t.Errorf("score = %v, want clamp to 0", host["score"])
	}
}

func TestNormalizeForSetSlotWithoutUID(t *testing.T) {
	doc := NormalizeForSet("ABC123", map[string]any{
		"host": map[string]any{"name": "nobody", "hp": 5.0},
	}, nil, 1000)

	if doc["host"] != nil {
		t.Errorf("slot without uid = %v, want nil", doc["host"])
	}
}

func TestNormalizeForSetNonObject(t *testing.T) {
	if doc := NormalizeForSet("ABC123", "garbage", nil, 1000); doc != nil {
		t.Errorf("non-object set produced %v, want nil", doc)
	}
}

func TestNormalizeForSetCannotRewindStatus(t *testing.T) {
	current := store.Document{"status": StatusRunning}
	doc := NormalizeForSet("ABC123", map[string]any{
		"status": StatusWaiting,
		"host":   map[string]any{"uid": "u1"},
	}, current, 1000)

	if doc["status"] != StatusRunning {
		t.Errorf("status = %v, want running preserved", doc["status"])
	}
}

func TestQuantizeAim(t *testing.T) {
	if got := QuantizeAim(0.123456); got != 0.1235 {
		t.Errorf("QuantizeAim(0.123456) = %v, want 0.1235", got)
	}
	if got := QuantizeAim(2.0); got != 1.0 {
		t.Errorf("QuantizeAim(2.0) = %v, want 1", got)
	}
	if got := QuantizeAim(-1.0); got != 0.0 {
		t.Errorf("QuantizeAim(-1.0) = %v, want 0", got)
	}
}

func TestSanitizePatchBeforeRunning(t *testing.T) {
	current := store.Document{"status": StatusWaiting}
	patch := store.Document{
		"sharedWave": 9.0,
		"host/hp":    1.0,
		"anything":   true,
	}

	out := SanitizePatch(current, patch)

	if out["sharedWave"] != 9.0 || out["host/hp"] != 1.0 || out["anything"] != true {
		t.Errorf("waiting-room patch was filtered: %v", out)
	}
}

func TestSanitizePatchWhileRunning(t *testing.T) {
	current := store.Document{"status": StatusRunning}
	patch := store.Document{
		"sharedWave":       9.0,
		"host/hp":          999.0,
		"host/alive":       true,
		"host/score":       5000.0,
		"host/wave":        50.0,
		"host/aimX":        0.25,
		"host/pointerDown": true,
		"guest/shotSeq":    12.0,
	}

	out := SanitizePatch(current, patch)

	for _, blocked := range []string{"sharedWave", "host/hp", "host/alive", "host/score", "host/wave"} {
		if _, ok := out[blocked]; ok {
			t.Errorf("privileged key %q passed the running-room filter", blocked)
		}
	}
	if out["host/aimX"] != 0.25 {
		t.Error("aim update was dropped")
	}
	if out["host/pointerDown"] != true {
		t.Error("pointerDown update was dropped")
	}
	if out["guest/shotSeq"] != 12.0 {
		t.Error("shotSeq update was dropped")
	}
}

func TestSanitizePatchFiltersSlotObjectWhileRunning(t *testing.T) {
	current := store.Document{"status": StatusRunning}
	patch := store.Document{
		"host": map[string]any{
			"uid":   "u1",
			"hp":    999.0,
			"score": 5000.0,
			"aimX":  0.75,
		},
	}

	out := SanitizePatch(current, patch)

	host := out["host"].(map[string]any)
	if _, ok := host["hp"]; ok {
		t.Error("hp survived the slot-object filter")
	}
	if _, ok := host["score"]; ok {
		t.Error("score survived the slot-object filter")
	}
	if host["aimX"] != 0.75 || host["uid"] != "u1" {
		t.Errorf("allowed slot fields were dropped: %v", host)
	}
}

func TestSanitizePatchStatusClampedWhileRunning(t *testing.T) {
	current := store.Document{"status": StatusRunning}

	out := SanitizePatch(current, store.Document{"status": StatusWaiting})
	if out["status"] != StatusRunning {
		t.Errorf("status = %v, want rewind blocked", out["status"])
	}

	out = SanitizePatch(current, store.Document{"status": StatusEnded})
	if out["status"] != StatusEnded {
		t.Errorf("status = %v, want ended allowed", out["status"])
	}
}

func TestSlotFromDoc(t *testing.T) {
	doc := store.Document{
		"host": map[string]any{
			"uid":     "u1",
			"name":    "Ana",
			"hp":      3.0,
			"maxHp":   5.0,
			"score":   42.0,
			"weapon":  "shotgun",
			"aimX":    0.25,
			"shotSeq": 7.0,
		},
	}

	slot, ok := SlotFromDoc(doc, "host")
	if !ok {
		t.Fatal("expected slot")
	}
	if slot.UID != "u1" || slot.Name != "Ana" || slot.HP != 3 || slot.Score != 42 {
		t.Errorf("slot = %+v", slot)
	}
	if slot.Weapon != "shotgun" || slot.ShotSeq != 7 {
		t.Errorf("slot = %+v", slot)
	}
	if !slot.Alive {
		t.Error("hp 3 should be alive")
	}

	if _, ok := SlotFromDoc(doc, "guest"); ok {
		t.Error("missing slot decoded as present")
	}
	if _, ok := SlotFromDoc(nil, "host"); ok {
		t.Error("nil document decoded a slot")
	}
}
