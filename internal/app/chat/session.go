package chat

import (
	"net/url"
	"time"

	"chatrelay/internal/app/user"
)

// Connection query parameters.
const (
	ParamRoomID   = "chat_id"
	ParamPrivate  = "private"
	ParamPassword = "pass"
	ParamPassNeed = "pass_need"
	ParamCreating = "creating"
)

// flagOn is the only value of the private and creating parameters that turns them on.
const flagOn = "1"

// ConnectParams are the connection parameters after parsing at the transport boundary.
type ConnectParams struct {
	// RoomID is the requested room, PublicRoom when absent.
	RoomID string

	// Private is true when private=1 was sent. The scope itself follows RoomID.
	Private bool

	Password string

	// PassNeed mirrors pass_need: any value except the literal "false" is true.
	// Admission uses the flag stored with the room, so this is informational.
	PassNeed bool

	// Creating is true when creating=1 was sent; it bypasses admission checks.
	Creating bool
}

// ParseConnectParams reads ConnectParams from a connection's query string.
func ParseConnectParams(q url.Values) ConnectParams {
	params := ConnectParams{
		RoomID:   q.Get(ParamRoomID),
		Private:  q.Get(ParamPrivate) == flagOn,
		Password: q.Get(ParamPassword),
		Creating: q.Get(ParamCreating) == flagOn,
	}

	if params.RoomID == "" {
		params.RoomID = PublicRoom
	}

	if q.Has(ParamPassNeed) {
		v := q.Get(ParamPassNeed)
		params.PassNeed = v != "" && v != "false"
	}

	return params
}

// Scope is the scope a connection with these parameters works in.
func (p ConnectParams) Scope() user.Scope {
	if p.RoomID == PublicRoom {
		return user.ScopePublic
	}
	return user.ScopePrivate
}

// Session is the per-connection state the Hub keeps for its whole lifetime.
type Session struct {
	conn Conn

	Params ConnectParams
	Room   string
	Scope  user.Scope

	// Admitted is false when the room refused the connection; such a session
	// ignores every inbound event.
	Admitted bool

	// Name is the display name most recently sent in a join event. It may be
	// held by this session's occupant or by another connection of the same user.
	Name string

	ConnectedAt time.Time
}

func newSession(conn Conn, params ConnectParams, at time.Time) *Session {
	return &Session{
		conn:        conn,
		Params:      params,
		Room:        params.RoomID,
		Scope:       params.Scope(),
		ConnectedAt: at,
	}
}

// ID returns the id of the session's connection.
func (s *Session) ID() string {
	return s.conn.ID()
}

// scopeKey is the message log key of the session's room.
func (s *Session) scopeKey() string {
	if s.Scope == user.ScopePublic {
		return PublicRoom
	}
	return s.Room
}
