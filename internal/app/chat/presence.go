package chat

import (
	"cmp"
	"slices"

	"chatrelay/internal/app/user"
)

// Presence is the authoritative map from connection to occupant. Occupants are
// kept in one table per scope, indexed by display name and, for private rooms,
// mirrored in per-room membership sets.
//
// Presence is not safe for concurrent use on its own; the Hub serializes every call.
type Presence struct {
	public  map[string]*user.Occupant
	private map[string]*user.Occupant

	// byName maps a display name to the connection holding its occupant.
	byName map[string]string

	// members holds the display names present in each private room.
	members map[string]map[string]struct{}

	seq int64
}

// OccupantRef pairs an occupant with the id of the connection that holds it.
type OccupantRef struct {
	ConnID   string
	Occupant user.Occupant
}

// NewPresence returns an empty tracker.
func NewPresence() *Presence {
	return &Presence{
		public:  make(map[string]*user.Occupant),
		private: make(map[string]*user.Occupant),
		byName:  make(map[string]string),
		members: make(map[string]map[string]struct{}),
	}
}

func (p *Presence) table(scope user.Scope) map[string]*user.Occupant {
	if scope == user.ScopePrivate {
		return p.private
	}
	return p.public
}

// EnsureRoom creates the membership set of a private room if it is missing.
func (p *Presence) EnsureRoom(roomID string) {
	if _, ok := p.members[roomID]; !ok {
		p.members[roomID] = make(map[string]struct{})
	}
}

// Lookup returns the occupant held by connID in the given scope.
func (p *Presence) Lookup(scope user.Scope, connID string) (user.Occupant, bool) {
	occ, ok := p.table(scope)[connID]
	if !ok {
		return user.Occupant{}, false
	}
	return *occ, true
}

// ByName returns the occupant registered under name anywhere, with its connection id.
func (p *Presence) ByName(name string) (OccupantRef, bool) {
	connID, ok := p.byName[name]
	if !ok {
		return OccupantRef{}, false
	}

	if occ, ok := p.public[connID]; ok && occ.User == name {
		return OccupantRef{ConnID: connID, Occupant: *occ}, true
	}
	if occ, ok := p.private[connID]; ok && occ.User == name {
		return OccupantRef{ConnID: connID, Occupant: *occ}, true
	}

	return OccupantRef{}, false
}

// IsMember reports whether name is in the membership set of a private room.
func (p *Presence) IsMember(roomID, name string) bool {
	_, ok := p.members[roomID][name]
	return ok
}

// Add registers name for connID in the given room. Any occupant already
// registered under name, and any occupant connID held before, is removed first,
// so a name never has more than one occupant. The removed occupant under name,
// if it belonged to another connection, is returned as evicted.
func (p *Presence) Add(connID, name string, scope user.Scope, roomID string) (added user.Occupant, evicted *OccupantRef) {
	if ref, ok := p.ByName(name); ok && ref.ConnID != connID {
		p.remove(ref.ConnID, ref.Occupant.Type)
		evicted = &ref
	}

	p.remove(connID, user.ScopePublic)
	p.remove(connID, user.ScopePrivate)

	p.seq++
	occ := &user.Occupant{
		ID:     p.seq,
		User:   name,
		Type:   scope,
		ChatID: roomID,
	}

	p.table(scope)[connID] = occ
	p.byName[name] = connID

	if scope == user.ScopePrivate {
		p.EnsureRoom(roomID)
		p.members[roomID][name] = struct{}{}
	}

	return *occ, evicted
}

// Remove deletes the occupant held by connID in scope and returns it.
func (p *Presence) Remove(scope user.Scope, connID string) (user.Occupant, bool) {
	return p.remove(connID, scope)
}

func (p *Presence) remove(connID string, scope user.Scope) (user.Occupant, bool) {
	tbl := p.table(scope)

	occ, ok := tbl[connID]
	if !ok {
		return user.Occupant{}, false
	}

	delete(tbl, connID)

	if p.byName[occ.User] == connID {
		delete(p.byName, occ.User)
	}

	if scope == user.ScopePrivate {
		if set, ok := p.members[occ.ChatID]; ok {
			delete(set, occ.User)
		}
	}

	return *occ, true
}

// Rebind moves the public occupant held by fromConnID to toConnID, keeping its
// sequence id. It is used when another connection of the same user outlives the
// one that joined.
func (p *Presence) Rebind(fromConnID, toConnID string) bool {
	occ, ok := p.public[fromConnID]
	if !ok {
		return false
	}
	if _, taken := p.public[toConnID]; taken {
		return false
	}

	delete(p.public, fromConnID)
	p.public[toConnID] = occ
	p.byName[occ.User] = toConnID

	return true
}

// InScope returns the occupants of a scope, restricted to roomID for private rooms,
// ordered by sequence id.
func (p *Presence) InScope(scope user.Scope, roomID string) []OccupantRef {
	refs := make([]OccupantRef, 0)

	for connID, occ := range p.table(scope) {
		if scope == user.ScopePrivate && (occ.ChatID != roomID || !p.IsMember(roomID, occ.User)) {
			continue
		}
		refs = append(refs, OccupantRef{ConnID: connID, Occupant: *occ})
	}

	slices.SortFunc(refs, func(a, b OccupantRef) int {
		return cmp.Compare(a.Occupant.ID, b.Occupant.ID)
	})

	return refs
}

// Snapshot builds the user list of a scope. Public lists are de-duplicated by
// display name, keeping the first occurrence.
func (p *Presence) Snapshot(scope user.Scope, roomID string) []user.Occupant {
	refs := p.InScope(scope, roomID)
	list := make([]user.Occupant, 0, len(refs))

	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if scope == user.ScopePublic {
			if _, dup := seen[ref.Occupant.User]; dup {
				continue
			}
			seen[ref.Occupant.User] = struct{}{}
		}
		list = append(list, ref.Occupant)
	}

	return list
}

// Count returns the number of occupants in a scope.
func (p *Presence) Count(scope user.Scope) int {
	return len(p.table(scope))
}
