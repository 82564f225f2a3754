/*
Package chat contains the relay core: connection sessions, the room registry,
presence tracking, bounded message history and the broadcast/mention engine.

This file defines the Hub, which owns all shared chat state. Every operation
takes the Hub's mutex for its whole duration, so a join, leave or publish is
atomic for every other connection. Outbound events are queued without blocking,
which keeps the lock free of network I/O.
*/
package chat

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chatrelay/internal/app/user"
	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/metrics"
	"chatrelay/internal/pkg/randx"
)

// DefaultSweepInterval is the period of the background cleanup sweep.
const DefaultSweepInterval = 30 * time.Second

// Announcement texts. Clients style the highlighted name, not the text.
const (
	joinedPrivateText = "%s 加入了私人房間"
	joinedPublicText  = "%s 加入了聊天室"
	leftPrivateText   = "%s 離開了私人房間"
	leftPublicText    = "%s 離開了聊天室"
)

// Conn is one transport connection as seen by the Hub.
type Conn interface {
	// ID is unique among live connections.
	ID() string

	// Emit queues an event for delivery without blocking.
	Emit(event string, data any) error

	// Alive reports whether the transport can still deliver events.
	Alive() bool

	// Close ends the connection.
	Close()
}

// Config tunes a Hub. Zero values select the defaults.
type Config struct {
	SweepInterval time.Duration
	HistoryLimit  int

	// SuppressDuplicateJoins skips the join announcement when the same name
	// was announced in the same room within JoinDebounce. The occupant is
	// still registered.
	SuppressDuplicateJoins bool

	Metrics *metrics.Metrics

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Hub coordinates every connection, room, occupant and message log.
type Hub struct {
	mu sync.Mutex

	registry *Registry
	presence *Presence
	store    *Store
	markers  *JoinMarkers

	// sessions holds every open connection, admitted or not, keyed by connection id.
	sessions map[string]*Session

	suppressDuplicateJoins bool
	sweepInterval          time.Duration
	now                    func() time.Time
	metrics                *metrics.Metrics

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	logger zerolog.Logger
}

// NewHub builds a Hub. Call Run to start the periodic sweep.
func NewHub(cfg Config) *Hub {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Hub{
		registry:               NewRegistry(),
		presence:               NewPresence(),
		store:                  NewStore(cfg.HistoryLimit),
		markers:                NewJoinMarkers(JoinDebounce),
		sessions:               make(map[string]*Session),
		suppressDuplicateJoins: cfg.SuppressDuplicateJoins,
		sweepInterval:          cfg.SweepInterval,
		now:                    cfg.Clock,
		metrics:                cfg.Metrics,
		stop:                   make(chan struct{}),
		logger:                 logx.Component("hub"),
	}
}

// Run starts the background sweep loop. It returns immediately.
func (h *Hub) Run() {
	h.wg.Add(1)
	go h.runSweepLoop()
}

func (h *Hub) runSweepLoop() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.sweepInterval)
	defer ticker.Stop()

	h.logger.Info().Dur("interval", h.sweepInterval).Msg("Sweep loop started.")

	for {
		select {
		case <-ticker.C:
			h.Sweep()
		case <-h.stop:
			h.logger.Info().Msg("Sweep loop stopped.")
			return
		}
	}
}

// Shutdown stops the sweep loop and closes every open connection.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down hub...")

	h.stopOnce.Do(func() { close(h.stop) })
	h.wg.Wait()

	h.mu.Lock()
	conns := make([]Conn, 0, len(h.sessions))
	for _, s := range h.sessions {
		conns = append(conns, s.conn)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}

	h.logger.Info().Int("closed_connections", len(conns)).Msg("Hub shutdown complete.")
}

// Connect registers conn, resolves its room and scope and, for private rooms,
// checks access. A refused connection stays open but unadmitted and receives
// an auth error. Every admitted connection also triggers a cleanup sweep.
func (h *Hub) Connect(conn Conn, params ConnectParams) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	s := newSession(conn, params, now)
	h.sessions[conn.ID()] = s

	logger := h.logger.With().Str("conn_id", conn.ID()).Str("room", s.Room).Logger()

	if s.Scope == user.ScopePrivate {
		access := h.registry.ResolveAccess(s.Room, params.Creating, params.Password)
		if access != AccessGranted {
			h.metrics.AccessDenied(access.String())
			logger.Info().Str("reason", access.String()).Msg("Room access denied.")

			h.send(conn, EventError, ErrorPayload{Type: "auth", Message: access.Err().Message})
			return s
		}
		h.presence.EnsureRoom(s.Room)
	}

	s.Admitted = true
	h.metrics.ConnectionOpened(string(s.Scope))

	defer h.sweepLocked(now)

	logger.Info().
		Bool("creating", params.Creating).
		Bool("pass_need", params.PassNeed).
		Msg("Connection admitted.")

	if s.Scope == user.ScopePrivate && params.Creating {
		h.send(conn, EventUserList, []user.Occupant{})
	}
	h.send(conn, EventRequestUserList, nil)
	h.send(conn, EventConnectionConfirmed, ConnectionConfirmedPayload{
		Room:      s.Room,
		IsPrivate: s.Scope == user.ScopePrivate,
	})

	return s
}

// Disconnect forgets conn and releases its occupant, announcing the departure
// to the vacated room.
func (h *Hub) Disconnect(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[conn.ID()]
	if !ok {
		return
	}
	delete(h.sessions, conn.ID())

	if !s.Admitted {
		return
	}
	h.metrics.ConnectionClosed(string(s.Scope))

	if name, ok := h.leaveLocked(conn.ID(), s.Scope, s.Room); ok {
		h.logger.Info().Str("conn_id", conn.ID()).Str("user", name).Str("room", s.Room).Msg("Occupant left.")
	}
}

// Join binds name to conn's room. Any occupant of name elsewhere is evicted
// first. Repeated joins of a name already present in the room are ignored.
func (h *Hub) Join(conn Conn, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.admittedLocked(conn)
	if s == nil {
		return
	}
	if name == "" {
		h.logger.Warn().Str("conn_id", conn.ID()).Msg("Ignoring join with empty display name.")
		return
	}

	s.Name = name
	now := h.now()

	if ref, ok := h.presence.ByName(name); ok && ref.Occupant.ChatID == s.Room {
		return
	}
	if s.Scope == user.ScopePrivate && h.presence.IsMember(s.Room, name) {
		return
	}

	occ, evicted := h.presence.Add(conn.ID(), name, s.Scope, s.Room)
	if evicted != nil {
		h.logger.Info().
			Str("user", name).
			Str("from_room", evicted.Occupant.ChatID).
			Str("to_room", s.Room).
			Msg("Occupant moved rooms; previous record evicted.")
		h.broadcastUserListLocked(evicted.Occupant.Type, evicted.Occupant.ChatID)
	}

	h.broadcastUserListLocked(s.Scope, s.Room)

	if h.suppressDuplicateJoins && h.markers.Recent(name, s.Room, now) {
		h.logger.Debug().Str("user", name).Str("room", s.Room).Msg("Repeated join announcement suppressed.")
		return
	}
	h.markers.Record(name, s.Room, now)

	text := joinedPublicText
	if s.Scope == user.ScopePrivate {
		text = joinedPrivateText
	}
	h.emitToRoomLocked(s.Room, EventMessage, h.notice(text, name, ActionJoin, now))

	h.logger.Info().Int64("occupant_id", occ.ID).Str("user", name).Str("room", s.Room).Msg("Occupant joined.")
}

// Publish appends a message from conn to its room's log, broadcasts it to the
// room and notifies every mentioned occupant of the same room.
func (h *Hub) Publish(conn Conn, content any, kind string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.admittedLocked(conn)
	if s == nil {
		return
	}
	if kind == "" {
		kind = KindUser
	}

	author := ""
	if occ, ok := h.presence.Lookup(s.Scope, conn.ID()); ok {
		author = occ.User
	}

	mentions := make([]string, 0)
	if text, ok := content.(string); ok {
		mentions = ExtractMentions(text, author)
	}

	msg := Message{
		User:      author,
		Type:      kind,
		Content:   content,
		Timestamp: h.now().UnixMilli(),
		Mentions:  mentions,
	}

	h.store.Append(s.scopeKey(), msg)
	h.emitToRoomLocked(s.Room, EventMessage, msg)
	h.metrics.MessagePublished(string(s.Scope))

	if len(mentions) == 0 {
		return
	}

	mentioned := make(map[string]struct{}, len(mentions))
	for _, name := range mentions {
		mentioned[name] = struct{}{}
	}

	for _, ref := range h.presence.InScope(s.Scope, s.Room) {
		if _, ok := mentioned[ref.Occupant.User]; !ok || ref.Occupant.User == author {
			continue
		}

		target, ok := h.sessions[ref.ConnID]
		if !ok || target.Room != s.Room {
			continue
		}

		h.send(target.conn, EventMentioned, MentionedPayload{From: author, Message: content})
		h.metrics.MentionDelivered()
	}
}

// RequestUserList answers with the user list of conn's room. In private rooms
// the list goes to the whole room.
func (h *Hub) RequestUserList(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.admittedLocked(conn)
	if s == nil {
		return
	}

	if s.Scope == user.ScopePrivate {
		h.broadcastUserListLocked(s.Scope, s.Room)
		return
	}

	h.send(conn, EventUserList, h.presence.Snapshot(s.Scope, s.Room))
}

// RequestHistory sends conn the message log of its room.
func (h *Hub) RequestHistory(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.admittedLocked(conn)
	if s == nil {
		return
	}

	h.send(conn, EventChatHistory, h.store.History(s.scopeKey()))
}

// CreateRoom registers a room, overwriting any room with the same id. An empty
// id is replaced by a generated one. The registered id is returned.
func (h *Hub) CreateRoom(conn Conn, req CreateRoomRequest) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.admittedLocked(conn) == nil {
		return "", fmt.Errorf("connection %s is not admitted", conn.ID())
	}

	roomID := req.RoomID
	if roomID == "" {
		generated, err := randx.RoomID()
		if err != nil {
			return "", fmt.Errorf("generate room id: %w", err)
		}
		roomID = generated
	}

	passwordRequired := ParsePasswordRequired(req.PassNeedID)

	if _, exists := h.registry.Get(roomID); exists {
		h.logger.Warn().Str("room", roomID).Msg("Room re-created; previous registration overwritten.")
	}

	h.registry.Create(roomID, req.Password, passwordRequired, h.now())
	h.presence.EnsureRoom(roomID)

	h.logger.Info().
		Str("room", roomID).
		Bool("password_required", req.Password != "" && passwordRequired).
		Msg("Room created.")

	return roomID, nil
}

// Sweep removes occupants whose connection is gone and expires join markers.
func (h *Hub) Sweep() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sweepLocked(h.now())
}

func (h *Hub) sweepLocked(now time.Time) {
	for _, ref := range h.presence.InScope(user.ScopePublic, PublicRoom) {
		s, ok := h.sessions[ref.ConnID]
		if ok && s.conn.Alive() {
			continue
		}
		if ok {
			delete(h.sessions, ref.ConnID)
			h.metrics.ConnectionClosed(string(s.Scope))
		}

		if _, released := h.leaveLocked(ref.ConnID, user.ScopePublic, PublicRoom); !released {
			continue
		}
		h.metrics.StaleSwept()
		h.logger.Info().Str("conn_id", ref.ConnID).Str("user", ref.Occupant.User).Msg("Stale occupant swept.")
	}

	if dropped := h.markers.Expire(now); dropped > 0 {
		h.logger.Debug().Int("dropped", dropped).Msg("Expired join markers.")
	}
}

// leaveLocked releases the occupant of connID. A public occupant is handed to
// another live connection of the same user when one exists, in which case
// nothing is announced. It returns the vacated name.
func (h *Hub) leaveLocked(connID string, scope user.Scope, roomID string) (string, bool) {
	occ, ok := h.presence.Lookup(scope, connID)
	if !ok {
		return "", false
	}

	if scope == user.ScopePublic {
		if heir := h.heirLocked(occ.User, connID); heir != nil && h.presence.Rebind(connID, heir.ID()) {
			h.logger.Info().
				Str("user", occ.User).
				Str("from_conn", connID).
				Str("to_conn", heir.ID()).
				Msg("Occupant handed to another connection of the same user.")
			return occ.User, true
		}
	}

	h.presence.Remove(scope, connID)
	h.broadcastUserListLocked(scope, roomID)

	text := leftPublicText
	if scope == user.ScopePrivate {
		text = leftPrivateText
	}
	h.emitToRoomLocked(roomID, EventMessage, h.notice(text, occ.User, ActionLeave, h.now()))

	return occ.User, true
}

// heirLocked finds another live public connection that joined as name and does
// not hold an occupant of its own, preferring the oldest.
func (h *Hub) heirLocked(name, excludeConnID string) *Session {
	var heir *Session

	for id, s := range h.sessions {
		if id == excludeConnID || !s.Admitted || s.Scope != user.ScopePublic || s.Name != name || !s.conn.Alive() {
			continue
		}
		if _, holds := h.presence.Lookup(user.ScopePublic, id); holds {
			continue
		}
		if heir == nil || s.ConnectedAt.Before(heir.ConnectedAt) ||
			(s.ConnectedAt.Equal(heir.ConnectedAt) && id < heir.ID()) {
			heir = s
		}
	}

	return heir
}

func (h *Hub) admittedLocked(conn Conn) *Session {
	s, ok := h.sessions[conn.ID()]
	if !ok || !s.Admitted {
		h.logger.Debug().Str("conn_id", conn.ID()).Msg("Ignoring event from unadmitted connection.")
		return nil
	}
	return s
}

// broadcastUserListLocked sends the current user list of a room to everyone in it.
func (h *Hub) broadcastUserListLocked(scope user.Scope, roomID string) {
	h.emitToRoomLocked(roomID, EventUserList, h.presence.Snapshot(scope, roomID))
	h.metrics.SetOccupants(string(scope), h.presence.Count(scope))
}

// emitToRoomLocked sends an event to every admitted connection of roomID.
func (h *Hub) emitToRoomLocked(roomID, event string, data any) {
	for _, s := range h.sessions {
		if s.Admitted && s.Room == roomID {
			h.send(s.conn, event, data)
		}
	}
}

func (h *Hub) send(conn Conn, event string, data any) {
	if err := conn.Emit(event, data); err != nil {
		h.metrics.EventDropped()
		h.logger.Warn().Err(err).Str("conn_id", conn.ID()).Str("event", event).Msg("Event dropped.")
	}
}

func (h *Hub) notice(format, name, action string, at time.Time) Message {
	return Message{
		Type:      KindSystem,
		Content:   fmt.Sprintf(format, name),
		Timestamp: at.UnixMilli(),
		Mentions:  []string{},
		Highlight: name,
		Action:    action,
	}
}

// Stats is a point-in-time summary of the hub, served by the health endpoint.
type Stats struct {
	Connections      int `json:"connections"`
	PublicOccupants  int `json:"publicOccupants"`
	PrivateOccupants int `json:"privateOccupants"`
	Rooms            int `json:"rooms"`
}

// Stats returns a summary of the hub's state.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	return Stats{
		Connections:      len(h.sessions),
		PublicOccupants:  h.presence.Count(user.ScopePublic),
		PrivateOccupants: h.presence.Count(user.ScopePrivate),
		Rooms:            h.registry.Len(),
	}
}

// Snapshot returns the user list of a room, for tests and diagnostics.
func (h *Hub) Snapshot(scope user.Scope, roomID string) []user.Occupant {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.presence.Snapshot(scope, roomID)
}

// History returns the message log of a room, for tests and diagnostics.
func (h *Hub) History(scopeKey string) []Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.store.History(scopeKey)
}
