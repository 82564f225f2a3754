/*
Package chat contains the relay core: connection sessions, the room registry,
presence tracking, bounded message history and the broadcast/mention engine.

This file defines the event names and payloads exchanged with clients.
*/
package chat

import (
	"encoding/json"
)

// PublicRoom is the id of the single global room.
const PublicRoom = "public"

// Inbound events (client to server).
const (
	EventRequestUserList = "requestUserList"
	EventRequestHistory  = "requestHistory"
	EventJoin            = "join"
	EventCreateRoom      = "createRoom"
)

// Outbound events (server to client). EventMessage is also accepted inbound.
const (
	EventConnectionConfirmed = "connectionConfirmed"
	EventUserList            = "userList"
	EventChatHistory         = "chatHistory"
	EventMessage             = "message"
	EventMentioned           = "mentioned"
	EventError               = "error"
	EventAck                 = "ack"
)

// Message kinds. Clients may send other kinds; they are relayed as given.
const (
	KindUser   = "user"
	KindSystem = "system"
)

// System message actions.
const (
	ActionJoin  = "join"
	ActionLeave = "leave"
)

// Message is a chat message or a system notice.
type Message struct {
	// User is the author's display name; empty for system notices and for
	// messages from connections that never joined.
	User string `json:"user,omitempty"`

	Type string `json:"type"`

	// Content is usually a string but is relayed opaquely whatever its JSON type.
	Content any `json:"content"`

	Timestamp int64    `json:"timestamp"`
	Mentions  []string `json:"mentions"`

	// Highlight and Action are set on join/leave notices only.
	Highlight string `json:"highlight,omitempty"`
	Action    string `json:"action,omitempty"`
}

// Envelope is the frame written to the WebSocket for every outbound event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
	Ack   *int64 `json:"ack,omitempty"`
}

// inboundFrame is the frame read from the WebSocket.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   *int64          `json:"ack,omitempty"`
}

// ConnectionConfirmedPayload is sent once a connection has been admitted to its room.
type ConnectionConfirmedPayload struct {
	Room      string `json:"room"`
	IsPrivate bool   `json:"isPrivate"`
}

// MentionedPayload notifies an occupant that they were mentioned.
type MentionedPayload struct {
	From    string `json:"from"`
	Message any    `json:"message"`
}

// ErrorPayload reports a failure to the offending connection only.
type ErrorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// CreateRoomRequest is the createRoom payload. PassNeedID keeps the raw JSON
// value because its truthiness, not its type, decides whether a password is required.
type CreateRoomRequest struct {
	RoomID     string          `json:"roomId"`
	Password   string          `json:"password"`
	PassNeedID json.RawMessage `json:"passNeedId,omitempty"`
}

// CreateRoomAck is returned in the ack of a createRoom event.
type CreateRoomAck struct {
	RoomID string `json:"roomId"`
}
