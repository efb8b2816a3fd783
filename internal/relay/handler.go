package relay

import (
	"encoding/json"
	"time"

	"zombie-surge/internal/protocol"
	"zombie-surge/internal/room"
	"zombie-surge/internal/store"
	"zombie-surge/internal/sub"
)

// HandleMessage processes one inbound frame from a connection. Malformed
// frames are dropped silently; well-formed requests get exactly one response
// unless they are fire-and-forget.
func (r *Relay) HandleMessage(conn sub.Conn, raw []byte) {
	req, ok := protocol.DecodeRequest(raw)
	if !ok {
		return
	}

	// Response and any follow-up push stay under the lock so no broadcast
	// from another connection can interleave between them.
	r.mu.Lock()
	data, errCode, post := r.dispatchLocked(conn, req)
	if !req.FireAndForget() {
		_ = conn.Push(protocol.NewResponse(req.RID, errCode == "", data, errCode))
	}
	if post != nil {
		post()
	}
	r.mu.Unlock()
}

// dispatchLocked routes one request. Returns response data, an error code
// (empty means success), and an optional push to run after the response.
func (r *Relay) dispatchLocked(conn sub.Conn, req protocol.Request) (any, string, func()) {
	roomID := room.SanitizeID(req.RoomID)
	if roomID == "" {
		return nil, protocol.ErrInvalidRoomID, nil
	}
	kind := store.Kind(req.Kind)
	key := sub.Key{Kind: req.Kind, RoomID: roomID}

	switch req.Action {
	case protocol.ActionOnce:
		return r.readLocked(kind, roomID), "", nil

	case protocol.ActionSubscribe:
		sid, ok := decodeSID(req.Payload)
		if !ok {
			return nil, protocol.ErrMissingSubID, nil
		}
		r.subs.Subscribe(conn, sid, key)
		// The current document rides both the response and a trailing
		// snapshot push, so the subscribe handler and the snapshot handler
		// on the client start from the same state.
		snap := r.readLocked(kind, roomID)
		return snap, "", func() {
			_ = conn.Push(protocol.NewSnapshot(sid, snap))
		}

	case protocol.ActionUnsubscribe:
		sid, ok := decodeSID(req.Payload)
		if !ok {
			return nil, protocol.ErrMissingSubID, nil
		}
		r.subs.Unsubscribe(conn, sid)
		return map[string]any{"sid": sid}, "", nil

	case protocol.ActionSet:
		data, errCode := r.applySetLocked(kind, roomID, req.Payload)
		return data, errCode, nil

	case protocol.ActionUpdate:
		data, errCode := r.applyUpdateLocked(kind, roomID, req.Payload)
		return data, errCode, nil

	case protocol.ActionRemove:
		if kind == store.World && r.sims[roomID] != nil {
			// The simulation owns the world document while it runs.
			return true, "", nil
		}
		r.store.Remove(kind, roomID)
		r.broadcastLocked(kind, roomID)
		if kind == store.Room {
			r.reconcileLocked(roomID, time.Now().UnixMilli())
		}
		return true, "", nil

	default:
		return nil, protocol.ErrUnknownAction, nil
	}
}

// applySetLocked replaces a whole document. Room writes pass through
// normalization; a payload that is not an object deletes the document, the
// same as an explicit remove.
func (r *Relay) applySetLocked(kind store.Kind, roomID string, payload json.RawMessage) (any, string) {
	value, ok := decodeValue(payload)
	if !ok {
		return nil, protocol.ErrInvalidUpdatePayload
	}
	nowMs := time.Now().UnixMilli()

	if kind == store.Room {
		doc := room.NormalizeForSet(roomID, value, r.store.Read(store.Room, roomID), nowMs)
		r.store.Write(store.Room, roomID, doc)
		r.broadcastLocked(store.Room, roomID)
		r.reconcileLocked(roomID, nowMs)
		return r.store.Read(store.Room, roomID), ""
	}

	// While a simulation owns the room, client world writes are acknowledged
	// and dropped. Storing or broadcasting them would let a forged high
	// version suppress every later authoritative snapshot on the peer.
	if r.sims[roomID] != nil {
		return r.readLocked(store.World, roomID), ""
	}

	doc, _ := value.(map[string]any)
	r.store.Write(store.World, roomID, doc)
	r.broadcastLocked(store.World, roomID)
	return r.store.Read(store.World, roomID), ""
}

// applyUpdateLocked merges a patch. Room patches are sanitized against the
// current status first; stripped keys are dropped silently so the rest of
// the patch still lands.
func (r *Relay) applyUpdateLocked(kind store.Kind, roomID string, payload json.RawMessage) (any, string) {
	patch, ok := decodePatch(payload)
	if !ok {
		return nil, protocol.ErrInvalidUpdatePayload
	}
	nowMs := time.Now().UnixMilli()

	if kind == store.Room {
		patch = room.SanitizePatch(r.store.Read(store.Room, roomID), patch)
	}
	if kind == store.World && r.sims[roomID] != nil {
		return r.readLocked(store.World, roomID), ""
	}
	r.store.Merge(kind, roomID, patch)
	r.broadcastLocked(kind, roomID)
	if kind == store.Room {
		r.reconcileLocked(roomID, nowMs)
	}
	return r.store.Read(kind, roomID), ""
}

// readLocked reads a document as an interface value that is truly nil when
// the document is absent, so absent documents serialize as JSON null.
func (r *Relay) readLocked(kind store.Kind, roomID string) any {
	if doc := r.store.Read(kind, roomID); doc != nil {
		return doc
	}
	return nil
}

func decodeSID(payload json.RawMessage) (string, bool) {
	var p protocol.SubscribePayload
	if len(payload) == 0 || json.Unmarshal(payload, &p) != nil || p.SID == "" {
		return "", false
	}
	return p.SID, true
}

func decodeValue(payload json.RawMessage) (any, bool) {
	if len(payload) == 0 {
		return nil, true
	}
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, false
	}
	return v, true
}

func decodePatch(payload json.RawMessage) (store.Document, bool) {
	if len(payload) == 0 {
		return nil, false
	}
	var patch store.Document
	if err := json.Unmarshal(payload, &patch); err != nil || patch == nil {
		return nil, false
	}
	return patch, true
}
