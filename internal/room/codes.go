// Package room owns the lobby document model: room codes, normalization of
// client-supplied room/slot values, and the write rules that keep
// server-owned fields out of client hands once a match is running.
package room

import (
	"math/rand"
	"strings"
)

// CodeAlphabet excludes easily-confused glyphs (I, O, 0, 1).
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the fixed length of a room code.
const CodeLength = 6

// NewCode generates a random room code from the unambiguous alphabet.
func NewCode(rng *rand.Rand) string {
	var b strings.Builder
	b.Grow(CodeLength)
	for i := 0; i < CodeLength; i++ {
		b.WriteByte(CodeAlphabet[rng.Intn(len(CodeAlphabet))])
	}
	return b.String()
}

// SanitizeID normalizes an inbound room id: trimmed, upper-cased, stripped
// to [A-Z0-9_-] and capped at 32 characters. An empty result means the id
// was unusable.
func SanitizeID(raw string) string {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	var b strings.Builder
	for _, r := range raw {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
		if b.Len() >= 32 {
			break
		}
	}
	return b.String()
}
