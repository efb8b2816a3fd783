// Package protocol defines the wire messages exchanged with browser clients.
//
// A single duplex WebSocket carries three message categories: requests
// (client → server, answered unless fire-and-forget), responses
// (server → client, correlated by rid) and snapshot pushes
// (server → client, correlated by subscription id).
package protocol

import (
	"encoding/json"
	"strings"
)

// Message type tags.
const (
	TypeRequest  = "request"
	TypeResponse = "response"
	TypeSnapshot = "snapshot"
)

// Request actions.
const (
	ActionOnce        = "once"
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionSet         = "set"
	ActionUpdate      = "update"
	ActionRemove      = "remove"
)

// Document kinds.
const (
	KindRoom  = "room"
	KindWorld = "world"
)

// Machine-readable error codes returned in failed responses.
const (
	ErrInvalidRoomID        = "invalid-room-id"
	ErrMissingSubID         = "missing-sub-id"
	ErrUnknownAction        = "unknown-action"
	ErrInvalidUpdatePayload = "invalid-update-payload"
	ErrServerError          = "server-error"
)

// Request is the inbound envelope for every client operation.
type Request struct {
	Type    string          `json:"type"`
	RID     string          `json:"rid"`
	Action  string          `json:"action"`
	Kind    string          `json:"kind"`
	RoomID  string          `json:"roomId"`
	Fire    bool            `json:"fire,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// FireAndForget reports whether the request expects no response.
// The explicit flag is the supported form; the legacy "ff-" rid prefix is
// still honored so older clients keep working.
func (r Request) FireAndForget() bool {
	return r.Fire || strings.HasPrefix(r.RID, "ff-")
}

// Response is the reply to a non-fire-and-forget request.
type Response struct {
	Type  string `json:"type"`
	RID   string `json:"rid"`
	OK    bool   `json:"ok"`
	Data  any    `json:"data"`
	Error string `json:"error"`
}

// Snapshot is an asynchronous document push to a subscriber.
type Snapshot struct {
	Type string `json:"type"`
	SID  string `json:"sid"`
	Data any    `json:"data"`
}

// SubscribePayload carries the subscription id for subscribe/unsubscribe.
type SubscribePayload struct {
	SID string `json:"sid"`
}

// NewResponse builds a response envelope for the given request id.
func NewResponse(rid string, ok bool, data any, errCode string) Response {
	return Response{Type: TypeResponse, RID: rid, OK: ok, Data: data, Error: errCode}
}

// NewSnapshot builds a snapshot push for the given subscription id.
func NewSnapshot(sid string, data any) Snapshot {
	return Snapshot{Type: TypeSnapshot, SID: sid, Data: data}
}

// NormalizeKind coerces an arbitrary kind string into the two-value enum,
// defaulting to "room" the way the original relay did.
func NormalizeKind(kind string) string {
	if strings.ToLower(strings.TrimSpace(kind)) == KindWorld {
		return KindWorld
	}
	return KindRoom
}

// DecodeRequest parses an inbound frame. Anything that is not a well-formed
// request envelope is dropped without a reply: garbage input must never
// produce an error path a client can exploit.
func DecodeRequest(raw []byte) (Request, bool) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, false
	}
	if req.Type != TypeRequest {
		return Request{}, false
	}
	if req.RID == "" && !req.Fire {
		return Request{}, false
	}
	req.Action = strings.ToLower(req.Action)
	req.Kind = NormalizeKind(req.Kind)
	return req, true
}
