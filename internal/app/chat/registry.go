package chat

import (
	"bytes"
	"encoding/json"
	"time"

	"chatrelay/internal/pkg/errs"
)

// Room is a registered private room. Rooms live for the whole process.
type Room struct {
	ID               string
	PasswordRequired bool
	Password         string
	CreatedAt        time.Time
}

// Access is the outcome of an admission check.
type Access int

const (
	AccessGranted Access = iota
	AccessNeedsPassword
	AccessWrongPassword
	AccessRoomNotFound
)

// String returns the label used in logs and metrics.
func (a Access) String() string {
	switch a {
	case AccessGranted:
		return "granted"
	case AccessNeedsPassword:
		return "need_password"
	case AccessWrongPassword:
		return "wrong_password"
	case AccessRoomNotFound:
		return "room_not_found"
	default:
		return "unknown"
	}
}

// Err maps a refusal to its client-facing error; it is nil for AccessGranted.
func (a Access) Err() *errs.CustomError {
	switch a {
	case AccessGranted:
		return nil
	case AccessNeedsPassword:
		return errs.NewError(errs.ErrPasswordRequired)
	case AccessWrongPassword:
		return errs.NewError(errs.ErrPasswordIncorrect)
	case AccessRoomNotFound:
		return errs.NewError(errs.ErrRoomNotFound)
	default:
		return errs.NewError(errs.ErrUnknown)
	}
}

// Registry stores room existence and passwords. It is not safe for concurrent
// use on its own; the Hub serializes every call.
type Registry struct {
	rooms map[string]*Room
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Create registers roomID, replacing any earlier registration with the same id.
// The password and its required flag are only kept when a password is given.
func (r *Registry) Create(roomID, password string, passwordRequired bool, at time.Time) *Room {
	room := &Room{ID: roomID, CreatedAt: at}

	if password != "" {
		room.Password = password
		room.PasswordRequired = passwordRequired
	}

	r.rooms[roomID] = room
	return room
}

// Get returns the registration for roomID.
func (r *Registry) Get(roomID string) (*Room, bool) {
	room, ok := r.rooms[roomID]
	return room, ok
}

// Len returns the number of registered rooms.
func (r *Registry) Len() int {
	return len(r.rooms)
}

// ResolveAccess decides whether a connection may enter roomID. A creator is
// always admitted, even when a room with that id already exists.
func (r *Registry) ResolveAccess(roomID string, creating bool, suppliedPassword string) Access {
	if creating {
		return AccessGranted
	}

	room, ok := r.rooms[roomID]
	if !ok {
		return AccessRoomNotFound
	}

	if room.PasswordRequired {
		if suppliedPassword == "" {
			return AccessNeedsPassword
		}
		if suppliedPassword != room.Password {
			return AccessWrongPassword
		}
	}

	return AccessGranted
}

// ParsePasswordRequired interprets the opaque passNeedId value of a createRoom
// request. Absent, null, false, 0, "" and the literal string "false" mean no
// password is required; any other value means one is.
func ParsePasswordRequired(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}

	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && t != "false"
	case float64:
		return t != 0
	default:
		return true
	}
}
