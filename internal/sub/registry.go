// Package sub tracks which connections want snapshot pushes for which
// document key. It owns routing metadata only, never domain state, and every
// registration is reversible: a disconnect removes all traces of the
// connection.
package sub

import "zombie-surge/internal/protocol"

// Conn is the transport-side handle the registry pushes snapshots through.
// Push is best effort: implementations report an error when the connection
// can no longer receive, and the registry silently skips it.
type Conn interface {
	Push(v any) error
}

// Key identifies one subscribable document.
type Key struct {
	Kind   string
	RoomID string
}

type subscriber struct {
	conn Conn
	sid  string
}

// Registry is the subscription table. Not safe for concurrent use; the relay
// serializes access behind its lock.
type Registry struct {
	byKey  map[Key]map[subscriber]struct{}
	byConn map[Conn]map[string]Key
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey:  make(map[Key]map[subscriber]struct{}),
		byConn: make(map[Conn]map[string]Key),
	}
}

// Subscribe registers the (conn, sid) pair for a key. It is idempotent: a
// previous registration under the same sid is dropped first, so re-sending a
// subscribe never yields duplicate snapshot delivery.
func (r *Registry) Subscribe(conn Conn, sid string, key Key) {
	r.Unsubscribe(conn, sid)

	listeners, ok := r.byKey[key]
	if !ok {
		listeners = make(map[subscriber]struct{})
		r.byKey[key] = listeners
	}
	listeners[subscriber{conn: conn, sid: sid}] = struct{}{}

	sids, ok := r.byConn[conn]
	if !ok {
		sids = make(map[string]Key)
		r.byConn[conn] = sids
	}
	sids[sid] = key
}

// Unsubscribe removes one registration. Removing the last subscriber for a
// key drops the key's routing entry so the table cannot grow unbounded.
func (r *Registry) Unsubscribe(conn Conn, sid string) {
	sids, ok := r.byConn[conn]
	if !ok {
		return
	}
	key, ok := sids[sid]
	if !ok {
		return
	}
	delete(sids, sid)
	if len(sids) == 0 {
		delete(r.byConn, conn)
	}

	listeners, ok := r.byKey[key]
	if !ok {
		return
	}
	delete(listeners, subscriber{conn: conn, sid: sid})
	if len(listeners) == 0 {
		delete(r.byKey, key)
	}
}

// OnDisconnect removes every subscription owned by the connection. This is
// the sole cleanup path for abandoned sessions and must run exactly once per
// connection teardown.
func (r *Registry) OnDisconnect(conn Conn) {
	sids, ok := r.byConn[conn]
	if !ok {
		return
	}
	for sid := range sids {
		r.Unsubscribe(conn, sid)
	}
}

// Broadcast pushes the document to every subscriber of the key. A connection
// that cannot receive is skipped; send failures never propagate to the
// mutation that triggered the broadcast.
func (r *Registry) Broadcast(key Key, data any) {
	for s := range r.byKey[key] {
		_ = s.conn.Push(protocol.NewSnapshot(s.sid, data))
	}
}

// SubscriberCount returns the number of live registrations for a key.
func (r *Registry) SubscriberCount(key Key) int {
	return len(r.byKey[key])
}

// ConnCount returns the number of connections holding at least one
// subscription.
func (r *Registry) ConnCount() int {
	return len(r.byConn)
}
