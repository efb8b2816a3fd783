// Package store holds the in-memory room and world documents.
//
// Documents are JSON-like maps keyed by (kind, roomId). The store itself is
// deliberately dumb: normalization, sanitization and broadcast happen in the
// relay layer on top of it. It is not safe for concurrent use; the relay
// serializes all access behind its lock.
package store

// Kind selects one of the two document tables.
type Kind string

const (
	// Room documents describe the coop lobby: slots, status, shared wave.
	Room Kind = "room"
	// World documents carry the ephemeral simulation snapshot.
	World Kind = "world"
)

// Document is a decoded JSON object.
type Document = map[string]any

// Store maps (kind, roomId) to documents.
type Store struct {
	rooms  map[string]Document
	worlds map[string]Document
}

// New creates an empty store.
func New() *Store {
	return &Store{
		rooms:  make(map[string]Document),
		worlds: make(map[string]Document),
	}
}

func (s *Store) table(kind Kind) map[string]Document {
	if kind == World {
		return s.worlds
	}
	return s.rooms
}

// Read returns a deep copy of the current document, or nil if absent.
// Callers never receive a live reference; a snapshot handed to one
// subscriber must not be mutable through another.
func (s *Store) Read(kind Kind, roomID string) Document {
	doc, ok := s.table(kind)[roomID]
	if !ok {
		return nil
	}
	return cloneDocument(doc)
}

// Write replaces the whole document. A nil value deletes the key.
// The stored copy is detached from the caller's value.
func (s *Store) Write(kind Kind, roomID string, value Document) {
	t := s.table(kind)
	if value == nil {
		delete(t, roomID)
		return
	}
	t[roomID] = cloneDocument(value)
}

// Merge applies a patch to the existing document (or an empty one). Keys may
// be plain top-level keys or slash-delimited paths addressing the known
// nested slot fields; a nil value at a key or path deletes it. If the merged
// document ends up empty the key is deleted entirely.
func (s *Store) Merge(kind Kind, roomID string, patch Document) {
	t := s.table(kind)

	current, ok := t[roomID]
	if ok {
		current = cloneDocument(current)
	} else {
		current = Document{}
	}

	for key, value := range patch {
		if isPathKey(key) {
			setPath(current, key, cloneValue(value))
			continue
		}
		if value == nil {
			delete(current, key)
		} else {
			current[key] = cloneValue(value)
		}
	}

	if len(current) == 0 {
		delete(t, roomID)
		return
	}
	t[roomID] = current
}

// Remove deletes the document if present.
func (s *Store) Remove(kind Kind, roomID string) {
	delete(s.table(kind), roomID)
}

// Count returns the number of documents of the given kind.
func (s *Store) Count(kind Kind) int {
	return len(s.table(kind))
}

// cloneDocument deep-copies a document.
func cloneDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue deep-copies a decoded JSON value. Scalars are immutable and
// returned as-is.
func cloneValue(v any) any {
	switch val := v.(type) {
	case Document:
		return cloneDocument(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
