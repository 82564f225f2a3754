package chat

import "slices"

// DefaultHistoryLimit is how many messages each log keeps.
const DefaultHistoryLimit = 100

// Store keeps one bounded message log per private room plus one for the global
// room. When a log is full the oldest message is dropped.
//
// Store is not safe for concurrent use on its own; the Hub serializes every call.
type Store struct {
	limit int
	logs  map[string][]Message
}

// NewStore returns a store keeping at most limit messages per log.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Store{
		limit: limit,
		logs:  make(map[string][]Message),
	}
}

// Append adds msg to the log of scopeKey (PublicRoom or a room id).
func (s *Store) Append(scopeKey string, msg Message) {
	log := append(s.logs[scopeKey], msg)
	if over := len(log) - s.limit; over > 0 {
		log = slices.Clone(log[over:])
	}
	s.logs[scopeKey] = log
}

// History returns a copy of the log of scopeKey, oldest first. It is never nil.
func (s *Store) History(scopeKey string) []Message {
	log := s.logs[scopeKey]
	out := make([]Message, len(log))
	copy(out, log)
	return out
}
