package twitch

import (
	"strings"
	"testing"

	"github.com/skitch/coworkstreambot/internal/models"
	"github.com/skitch/coworkstreambot/internal/session"
)

type nopStore struct{}

func (nopStore) Load(string) *models.ChannelState        { return models.DefaultState() }
func (nopStore) Save(string, *models.ChannelState) error { return nil }

type nopHub struct{}

func (nopHub) Publish(string, models.Event) {}

func newTestBot(t *testing.T) *Bot {
	t.Helper()
	registry := session.NewRegistry(nopStore{}, nopHub{}, []string{"mychan"})
	return NewBot("coworkbot", "testtoken", registry)
}

func TestDispatchTaskAndDone(t *testing.T) {
	b := newTestBot(t)

	if reply := b.dispatch("mychan", "alice", false, "!task buy milk"); reply != "" {
		t.Fatalf("!task replied %q", reply)
	}
	b.dispatch("mychan", "alice", false, "!task write code")

	reply := b.dispatch("mychan", "alice", false, "!done 1")
	if want := `✅ alice checked off: "buy milk"`; reply != want {
		t.Fatalf("!done reply = %q, want %q", reply, want)
	}

	// No argument (and an unparseable one) falls back to the first task.
	if reply := b.dispatch("mychan", "alice", false, "!done"); !strings.Contains(reply, "buy milk") {
		t.Fatalf("bare !done reply = %q", reply)
	}
	if reply := b.dispatch("mychan", "alice", false, "!done abc"); !strings.Contains(reply, "buy milk") {
		t.Fatalf("!done abc reply = %q", reply)
	}
}

func TestDispatchEdit(t *testing.T) {
	b := newTestBot(t)
	b.dispatch("mychan", "alice", false, "!task tpyo")

	reply := b.dispatch("mychan", "alice", false, "!edit 1 typo fixed")
	if want := "📝 Task #1 updated for alice!"; reply != want {
		t.Fatalf("reply = %q, want %q", reply, want)
	}

	for _, bad := range []string{"!edit", "!edit 1", "!edit x text"} {
		if reply := b.dispatch("mychan", "alice", false, bad); !strings.HasPrefix(reply, "⛔ Usage:") {
			t.Fatalf("%q reply = %q, want usage hint", bad, reply)
		}
	}
}

func TestDispatchModGate(t *testing.T) {
	b := newTestBot(t)

	modOnly := []string{
		"!focus 10", "!break", "!pause", "!resume",
		"!coworktheme blue", "!coworklayout compact", "!coworksetgoal 5",
		"!coworkcleartasks", "!cleartasks", "!coworkclearstats",
		"!coworkclearleaderboard", "!coworkblock troll", "!coworkunblock troll",
	}
	for _, cmd := range modOnly {
		if reply := b.dispatch("mychan", "viewer", false, cmd); reply != "" {
			t.Fatalf("non-mod ran %q: %q", cmd, reply)
		}
	}

	sess := b.registry.Get("mychan")
	if ts := sess.TimerState(); ts.Status != models.StatusPaused {
		t.Fatal("non-mod started the timer")
	}
	if sess.Snapshot().CurrentTheme != models.DefaultTheme {
		t.Fatal("non-mod changed the theme")
	}
}

func TestDispatchModCommands(t *testing.T) {
	b := newTestBot(t)
	sess := b.registry.Get("mychan")
	defer sess.Pause()

	if reply := b.dispatch("mychan", "streamer", true, "!focus 10"); reply != "📱 Session started: WORK (10m)" {
		t.Fatalf("!focus reply = %q", reply)
	}
	if ts := sess.TimerState(); ts.Seconds != 600 || ts.Mode != models.ModeWork {
		t.Fatalf("timer = %+v", ts)
	}

	// Unparseable minutes fall back to the mode default.
	if reply := b.dispatch("mychan", "streamer", true, "!break x"); reply != "📱 Session started: BREAK (5m)" {
		t.Fatalf("!break reply = %q", reply)
	}

	if reply := b.dispatch("mychan", "streamer", true, "!coworktheme BLUE"); reply != "🎨 Theme updated to blue!" {
		t.Fatalf("theme reply = %q", reply)
	}
	if reply := b.dispatch("mychan", "streamer", true, "!coworksetgoal 0"); reply != "" {
		t.Fatalf("goal 0 accepted: %q", reply)
	}
	if reply := b.dispatch("mychan", "streamer", true, "!coworkblock Troll"); !strings.Contains(reply, "blocked") {
		t.Fatalf("block reply = %q", reply)
	}
}

func TestDispatchHelp(t *testing.T) {
	b := newTestBot(t)

	viewer := b.dispatch("mychan", "alice", false, "!coworkhelp")
	if !strings.Contains(viewer, "[VIEWER]") || strings.Contains(viewer, "[MOD]") {
		t.Fatalf("viewer help = %q", viewer)
	}
	mod := b.dispatch("mychan", "streamer", true, "!coworkhelp")
	if !strings.Contains(mod, "[MOD]") {
		t.Fatalf("mod help = %q", mod)
	}
}

func TestDispatchUnknownChannelOrCommand(t *testing.T) {
	b := newTestBot(t)

	if reply := b.dispatch("otherchan", "alice", true, "!task hi"); reply != "" {
		t.Fatalf("unknown channel replied %q", reply)
	}
	if reply := b.dispatch("mychan", "alice", false, "!dance"); reply != "" {
		t.Fatalf("unknown command replied %q", reply)
	}
}
