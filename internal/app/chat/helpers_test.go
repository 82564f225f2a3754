package chat

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatrelay/internal/app/user"
)

// fakeConn records every emitted event in memory.
type fakeConn struct {
	id string

	mu     sync.Mutex
	alive  bool
	closed bool
	events []Envelope
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, alive: true}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Emit(event string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.alive {
		return ErrClientClosed
	}
	c.events = append(c.events, Envelope{Event: event, Data: data})
	return nil
}

func (c *fakeConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alive = false
	c.closed = true
}

// kill simulates a transport that died without a disconnect callback.
func (c *fakeConn) kill() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alive = false
}

func (c *fakeConn) all() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Envelope, len(c.events))
	copy(out, c.events)
	return out
}

func (c *fakeConn) eventNames() []string {
	var names []string
	for _, env := range c.all() {
		names = append(names, env.Event)
	}
	return names
}

func (c *fakeConn) named(event string) []any {
	var out []any
	for _, env := range c.all() {
		if env.Event == event {
			out = append(out, env.Data)
		}
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

func (c *fakeConn) messages(t *testing.T) []Message {
	t.Helper()
	var out []Message
	for _, data := range c.named(EventMessage) {
		msg, ok := data.(Message)
		require.True(t, ok, "message payload has type %T", data)
		out = append(out, msg)
	}
	return out
}

func (c *fakeConn) lastUserList(t *testing.T) []user.Occupant {
	t.Helper()
	lists := c.named(EventUserList)
	require.NotEmpty(t, lists, "no userList received by %s", c.id)
	list, ok := lists[len(lists)-1].([]user.Occupant)
	require.True(t, ok, "userList payload has type %T", lists[len(lists)-1])
	return list
}

func (c *fakeConn) mentions(t *testing.T) []MentionedPayload {
	t.Helper()
	var out []MentionedPayload
	for _, data := range c.named(EventMentioned) {
		p, ok := data.(MentionedPayload)
		require.True(t, ok)
		out = append(out, p)
	}
	return out
}

// testClock is a manually advanced clock.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestHub(cfg Config) (*Hub, *testClock) {
	clock := newTestClock()
	if cfg.Clock == nil {
		cfg.Clock = clock.Now
	}
	return NewHub(cfg), clock
}

// connectPublic connects a public connection and optionally joins it as name.
func connectPublic(h *Hub, id, name string) *fakeConn {
	c := newFakeConn(id)
	h.Connect(c, ConnectParams{RoomID: PublicRoom})
	if name != "" {
		h.Join(c, name)
	}
	return c
}

func names(list []user.Occupant) []string {
	out := make([]string, 0, len(list))
	for _, occ := range list {
		out = append(out, occ.User)
	}
	return out
}

func rawJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
