package session

import (
	"log"
	"sort"
	"strings"

	"github.com/skitch/coworkstreambot/internal/models"
)

// Store is what the registry needs from persistence: load on startup,
// save on every mutation and at shutdown.
type Store interface {
	Load(channel string) *models.ChannelState
	Saver
}

// Registry owns every live channel session. It is populated once at
// startup from the configured channel list and read-only afterwards;
// no channels come or go at runtime.
type Registry struct {
	sessions map[string]*Session
}

// NewRegistry loads every configured channel from the store. Timers
// always come up paused and session stats always start empty, whatever
// the document says.
func NewRegistry(store Store, hub Publisher, channels []string) *Registry {
	r := &Registry{sessions: make(map[string]*Session, len(channels))}
	for _, channel := range channels {
		name := strings.ToLower(channel)
		state := store.Load(name)
		state.TimerStatus = models.StatusPaused
		state.SessionStats = make(map[string]int)
		r.sessions[name] = New(name, state, store, hub)
	}
	return r
}

// Get returns the live session for a channel, nil if unknown.
func (r *Registry) Get(channel string) *Session {
	return r.sessions[strings.ToLower(channel)]
}

// Channels lists the registered channel names, sorted.
func (r *Registry) Channels() []string {
	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetAnnouncer wires the chat reply path into every session.
func (r *Registry) SetAnnouncer(f func(channel, message string)) {
	for _, s := range r.sessions {
		s.SetAnnouncer(f)
	}
}

// FlushAll persists every channel, used at shutdown.
func (r *Registry) FlushAll() {
	for name, s := range r.sessions {
		s.Flush()
		log.Printf("flushed channel %s", name)
	}
}
