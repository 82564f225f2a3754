package chat

import "time"

// JoinDebounce is how long a join marker suppresses a repeated join announcement.
const JoinDebounce = 2000 * time.Millisecond

// JoinMarkers remembers recently announced joins per (name, room).
//
// Markers are always recorded and expired, but the Hub only consults them when
// duplicate-join suppression is switched on.
type JoinMarkers struct {
	window  time.Duration
	entries map[joinKey]time.Time
}

type joinKey struct {
	name string
	room string
}

// NewJoinMarkers returns an empty marker set with the given debounce window.
func NewJoinMarkers(window time.Duration) *JoinMarkers {
	return &JoinMarkers{
		window:  window,
		entries: make(map[joinKey]time.Time),
	}
}

// Record marks that name's join to room was announced at.
func (m *JoinMarkers) Record(name, room string, at time.Time) {
	m.entries[joinKey{name: name, room: room}] = at
}

// Recent reports whether a join of name to room was announced within the window before now.
func (m *JoinMarkers) Recent(name, room string, now time.Time) bool {
	at, ok := m.entries[joinKey{name: name, room: room}]
	return ok && now.Sub(at) <= m.window
}

// Expire drops markers older than the window and returns how many were dropped.
func (m *JoinMarkers) Expire(now time.Time) int {
	dropped := 0
	for key, at := range m.entries {
		if now.Sub(at) > m.window {
			delete(m.entries, key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of live markers.
func (m *JoinMarkers) Len() int {
	return len(m.entries)
}
