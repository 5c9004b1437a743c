package session

import (
	"sync"
	"testing"

	"github.com/skitch/coworkstreambot/internal/models"
)

// memStore keeps documents in memory so registry tests can observe
// loads and saves without a filesystem.
type memStore struct {
	mu   sync.Mutex
	docs map[string]*models.ChannelState
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]*models.ChannelState)}
}

func (m *memStore) Load(channel string) *models.ChannelState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc, ok := m.docs[channel]; ok {
		return doc.Clone()
	}
	return models.DefaultState()
}

func (m *memStore) Save(channel string, state *models.ChannelState) error {
	m.mu.Lock()
	m.docs[channel] = state.Clone()
	m.mu.Unlock()
	return nil
}

func TestRegistryLoadsConfiguredChannels(t *testing.T) {
	r := NewRegistry(newMemStore(), &eventRecorder{}, []string{"Beta", "alpha"})

	if got := r.Channels(); len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Fatalf("channels = %v", got)
	}
	if r.Get("alpha") == nil || r.Get("ALPHA") == nil {
		t.Fatal("lookup must be case-insensitive")
	}
	if r.Get("gamma") != nil {
		t.Fatal("unknown channel should resolve to nil")
	}
}

func TestRegistryResetsTransientFieldsOnLoad(t *testing.T) {
	st := newMemStore()
	doc := models.DefaultState()
	doc.TimerStatus = models.StatusRunning
	doc.SessionStats["ghost"] = 4
	st.docs["alpha"] = doc

	r := NewRegistry(st, &eventRecorder{}, []string{"alpha"})

	ts := r.Get("alpha").TimerState()
	if ts.Status != models.StatusPaused {
		t.Fatal("timer must come up paused regardless of the document")
	}
	snap := r.Get("alpha").Snapshot()
	if len(snap.SessionStats) != 0 {
		t.Fatal("session stats must start empty")
	}
}

func TestRegistrySessionsAreIsolated(t *testing.T) {
	r := NewRegistry(newMemStore(), &eventRecorder{}, []string{"alpha", "beta"})

	r.Get("alpha").AddTask("alice", "only on alpha")

	if len(r.Get("beta").Snapshot().ActiveTasks) != 0 {
		t.Fatal("task leaked across channels")
	}
}

func TestFlushAllPersistsEveryChannel(t *testing.T) {
	st := newMemStore()
	r := NewRegistry(st, &eventRecorder{}, []string{"alpha", "beta"})
	r.Get("alpha").AddTask("alice", "one")

	r.FlushAll()

	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.docs) != 2 {
		t.Fatalf("flushed %d documents, want 2", len(st.docs))
	}
	if len(st.docs["alpha"].ActiveTasks["alice"]) != 1 {
		t.Fatal("alpha's ledger not persisted")
	}
}
