// Package app holds the process-wide connection registry and the optional
// redis bridge that extends it across instances.
package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/teamflow/realtime/internal/core"
	"github.com/teamflow/realtime/internal/domain"
)

// Registry maps room ids to the set of live connections subscribed to them.
// It is the only shared mutable structure in the realtime core; construct
// one and inject it, there is no ambient singleton.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomSet
}

// roomSet owns one room's membership. Its mutex is held for the whole
// fan-out loop so concurrent publishes into the same room cannot interleave
// and a publish always sees a consistent member snapshot.
type roomSet struct {
	mu    sync.Mutex
	conns map[core.Conn]struct{}
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomID]*roomSet)}
}

func (r *Registry) Join(room domain.RoomID, c core.Conn) {
	r.mu.Lock()
	set, ok := r.rooms[room]
	if !ok {
		set = &roomSet{conns: make(map[core.Conn]struct{})}
		r.rooms[room] = set
	}
	set.mu.Lock()
	set.conns[c] = struct{}{}
	set.mu.Unlock()
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("room", string(room)).Str("user", string(c.PrincipalID())).Msg("joined room")
}

func (r *Registry) Leave(room domain.RoomID, c core.Conn) {
	r.mu.Lock()
	set, ok := r.rooms[room]
	if !ok {
		r.mu.Unlock()
		return
	}
	set.mu.Lock()
	delete(set.conns, c)
	empty := len(set.conns) == 0
	set.mu.Unlock()
	if empty {
		delete(r.rooms, room)
	}
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("room", string(room)).Str("user", string(c.PrincipalID())).Msg("left room")
}

// Publish fans the frame out to every current member, the publisher
// included. An empty room is a normal case, not an error. Members whose
// send queue is full are skipped; the fabric degrades by not delivering.
func (r *Registry) Publish(room domain.RoomID, f core.Frame) {
	set, ok := r.set(room)
	if !ok {
		return
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	sent, dropped := 0, 0
	for c := range set.conns {
		if err := c.TrySend(f); err != nil {
			dropped++
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.registry").Str("room", string(room)).Int("sent_to", sent).Int("dropped", dropped).Msg("publish")
}

// PublishTargeted delivers only to connections owned by the target
// principal. Everyone else takes no action.
func (r *Registry) PublishTargeted(room domain.RoomID, f core.Frame, target domain.UserID) {
	set, ok := r.set(room)
	if !ok {
		return
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	for c := range set.conns {
		if c.PrincipalID() != target {
			continue
		}
		if err := c.TrySend(f); err != nil {
			log.Warn().Str("module", "app.registry").Str("room", string(room)).Str("target", string(target)).Msg("targeted send dropped")
		}
	}
}

// MemberCount reports how many connections are currently joined.
func (r *Registry) MemberCount(room domain.RoomID) int {
	set, ok := r.set(room)
	if !ok {
		return 0
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	return len(set.conns)
}

func (r *Registry) set(room domain.RoomID) (*roomSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.rooms[room]
	return set, ok
}
