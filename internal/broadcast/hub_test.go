package broadcast

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skitch/coworkstreambot/internal/models"
)

type recordingConn struct {
	mu     sync.Mutex
	events []models.Event
	fail   bool
}

func (c *recordingConn) WriteJSON(v any) error {
	if c.fail {
		return errors.New("gone")
	}
	c.mu.Lock()
	c.events = append(c.events, v.(models.Event))
	c.mu.Unlock()
	return nil
}

func (c *recordingConn) received() []models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Event(nil), c.events...)
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub()
	a, b := &recordingConn{}, &recordingConn{}
	hub.Subscribe("chan", a)
	hub.Subscribe("chan", b)

	hub.Publish("chan", models.Event{Name: models.EventTimerEnd})

	for i, conn := range []*recordingConn{a, b} {
		got := conn.received()
		if len(got) != 1 || got[0].Name != models.EventTimerEnd {
			t.Fatalf("conn %d received %v", i, got)
		}
	}
}

func TestPublishIsChannelScoped(t *testing.T) {
	hub := NewHub()
	mine, theirs := &recordingConn{}, &recordingConn{}
	hub.Subscribe("mine", mine)
	hub.Subscribe("theirs", theirs)

	hub.Publish("mine", models.Event{Name: models.EventClearBoard})

	if len(mine.received()) != 1 {
		t.Fatal("subscriber on the published channel missed the event")
	}
	if len(theirs.received()) != 0 {
		t.Fatal("event leaked across channels")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	conn := &recordingConn{}
	id, _ := hub.Subscribe("chan", conn)
	hub.Unsubscribe("chan", id)

	hub.Publish("chan", models.Event{Name: models.EventTimerEnd})

	if len(conn.received()) != 0 {
		t.Fatal("unsubscribed conn still received events")
	}
	if hub.SubscriberCount("chan") != 0 {
		t.Fatal("subscriber count not zero")
	}
}

func TestPublishToEmptyChannel(t *testing.T) {
	hub := NewHub()
	// Must not panic with no subscribers, known channel or not.
	hub.Publish("nobody", models.Event{Name: models.EventTimerUpdate})
}

// overlapGuard trips if two writers are ever inside WriteJSON at
// once, the way a real websocket connection would corrupt frames.
type overlapGuard struct {
	active     atomic.Int32
	overlapped atomic.Bool
}

func (c *overlapGuard) WriteJSON(v any) error {
	if c.active.Add(1) > 1 {
		c.overlapped.Store(true)
	}
	time.Sleep(50 * time.Microsecond)
	c.active.Add(-1)
	return nil
}

func TestSubscriberWritesAreSerialized(t *testing.T) {
	hub := NewHub()
	guard := &overlapGuard{}
	_, viewer := hub.Subscribe("chan", guard)

	// Hub deliveries against direct writes through the returned
	// writer, like a join snapshot racing a ticking timer.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hub.Publish("chan", models.Event{Name: models.EventTimerUpdate})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if err := viewer.WriteJSON(models.Event{Name: models.EventInitTasks}); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if guard.overlapped.Load() {
		t.Fatal("concurrent writes reached the same connection")
	}
}

func TestFailedWriteDoesNotBlockOthers(t *testing.T) {
	hub := NewHub()
	broken := &recordingConn{fail: true}
	healthy := &recordingConn{}
	hub.Subscribe("chan", broken)
	hub.Subscribe("chan", healthy)

	hub.Publish("chan", models.Event{Name: models.EventTimerEnd})

	if len(healthy.received()) != 1 {
		t.Fatal("healthy subscriber starved by a broken one")
	}
}
