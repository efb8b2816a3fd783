package store

import "strings"

// Nested patch keys are restricted to the slot subtrees the game actually
// patches ("host/..." and "guest/..."). Anything else addressed by path is
// dropped silently: a stray key must not fail the writes it rides along with.
var pathRoots = map[string]bool{
	"host":  true,
	"guest": true,
}

func isPathKey(key string) bool {
	return strings.Contains(key, "/")
}

// setPath applies one slash-delimited patch entry to doc. Intermediate
// objects are created as needed; a nil value deletes the leaf key.
func setPath(doc Document, path string, value any) {
	parts := splitPath(path)
	if len(parts) == 0 || !pathRoots[parts[0]] {
		return
	}

	cursor := doc
	for _, key := range parts[:len(parts)-1] {
		child, ok := cursor[key].(map[string]any)
		if !ok {
			child = Document{}
			cursor[key] = child
		}
		cursor = child
	}

	last := parts[len(parts)-1]
	if value == nil {
		delete(cursor, last)
	} else {
		cursor[last] = value
	}
}

func splitPath(path string) []string {
	raw := strings.Split(path, "/")
	parts := raw[:0]
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
