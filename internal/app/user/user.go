/*
Package user contains the presence-facing representation of a chat participant.

An Occupant binds one display name to one room for as long as its connection
stays in that room. The struct is sent to clients verbatim in userList events.
*/
package user

// Scope decides which connections receive a room's broadcasts.
type Scope string

const (
	// ScopePublic is the single global room.
	ScopePublic Scope = "public"

	// ScopePrivate is any named room other than the global one.
	ScopePrivate Scope = "private"
)

// Occupant is one user's presence in one room.
type Occupant struct {
	// ID is a process-wide, monotonically increasing sequence number. It orders
	// user lists and is never reused; it is not an identity key.
	ID int64 `json:"id"`

	// User is the display name, the de facto identity within a scope.
	User string `json:"user"`

	// Type is the occupant's scope.
	Type Scope `json:"type"`

	// ChatID is the room id, "public" for the global room.
	ChatID string `json:"chat_id"`
}
