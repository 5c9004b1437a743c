package session

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/skitch/coworkstreambot/internal/models"
)

// Publisher relays named events to every viewer of a channel's topic.
type Publisher interface {
	Publish(channel string, ev models.Event)
}

// Saver persists a channel document. Failures are best-effort: logged,
// never surfaced to the user.
type Saver interface {
	Save(channel string, state *models.ChannelState) error
}

// Session is the live engine for one channel: task ledger, stats,
// leaderboard, timer and display settings. One mutex serializes every
// mutation, whether it arrives from chat or the dashboard.
type Session struct {
	Channel string

	mu    sync.Mutex
	state *models.ChannelState
	store Saver
	hub   Publisher

	// announce delivers side-effect messages (session MVP summary,
	// break-over) to the channel's chat. Nil outside a live bot.
	announce func(channel, message string)

	// timerGen invalidates the running tick loop: every start or
	// pause bumps it, and a loop that sees a stale value exits
	// without firing anything.
	timerGen     int
	tickInterval time.Duration
	breakDelay   time.Duration
}

// New wraps a loaded channel document in a live session.
func New(channel string, state *models.ChannelState, store Saver, hub Publisher) *Session {
	return &Session{
		Channel:      channel,
		state:        state,
		store:        store,
		hub:          hub,
		tickInterval: time.Second,
		breakDelay:   2 * time.Second,
	}
}

// SetAnnouncer wires the chat reply path for timer side effects.
func (s *Session) SetAnnouncer(f func(channel, message string)) {
	s.mu.Lock()
	s.announce = f
	s.mu.Unlock()
}

// resolveUser finds the case-preserved ledger key matching name, or
// returns name unchanged if the user has no list yet. Every ledger
// lookup goes through here so chat and dashboard agree on casing.
func (s *Session) resolveUser(name string) string {
	if _, ok := s.state.ActiveTasks[name]; ok {
		return name
	}
	lower := strings.ToLower(name)
	for key := range s.state.ActiveTasks {
		if strings.ToLower(key) == lower {
			return key
		}
	}
	return name
}

// AddTask appends a task to the user's list. Returns false without
// any effect when the user is blocklisted.
func (s *Session) AddTask(user, text string) bool {
	if text == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lower := strings.ToLower(user)
	for _, blocked := range s.state.Blocklist {
		if blocked == lower {
			return false
		}
	}

	user = s.resolveUser(user)
	tasks := s.state.ActiveTasks[user]
	tasks = append(tasks, models.Task{ID: len(tasks) + 1, Text: text})
	s.state.ActiveTasks[user] = tasks
	s.saveLocked()

	s.publishLocked(models.Event{Name: models.EventRefreshTasks, Data: models.TasksPayload{User: user, Tasks: tasks}})

	inProgress := 0
	for _, list := range s.state.ActiveTasks {
		inProgress += len(list)
	}
	s.publishLocked(models.Event{Name: models.EventInProgressUpdate, Data: models.CountPayload{Count: inProgress}})
	return true
}

// MarkDone marks one of the user's tasks completed. requestedID 0
// (or any id not in the list) falls back to the first task in the
// list, completed or not; re-marking simply re-increments stats.
func (s *Session) MarkDone(user string, requestedID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	user = s.resolveUser(user)
	tasks := s.state.ActiveTasks[user]
	if len(tasks) == 0 {
		return ""
	}

	index := 0
	if requestedID != 0 {
		for i, t := range tasks {
			if t.ID == requestedID {
				index = i
				break
			}
		}
	}
	tasks[index].Completed = true

	s.state.TotalCompleted++
	s.state.UserStats[user]++
	s.state.SessionStats[user]++
	s.saveLocked()

	s.publishLocked(models.Event{Name: models.EventRefreshTasks, Data: models.TasksPayload{User: user, Tasks: tasks}})
	s.publishLocked(models.Event{Name: models.EventMilestoneUpdate, Data: models.MilestonePayload{Total: s.state.TotalCompleted}})
	s.publishLeaderboardLocked()

	return fmt.Sprintf("✅ %s checked off: %q", user, tasks[index].Text)
}

// EditTask replaces the text of the user's task with the given id.
// Empty text or a non-positive id is a silent no-op; a missing task
// returns a warning.
func (s *Session) EditTask(user string, id int, text string) string {
	if id <= 0 || text == "" {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user = s.resolveUser(user)
	tasks := s.state.ActiveTasks[user]
	if len(tasks) == 0 {
		return ""
	}

	for i := range tasks {
		if tasks[i].ID == id {
			tasks[i].Text = text
			s.saveLocked()
			s.publishLocked(models.Event{Name: models.EventRefreshTasks, Data: models.TasksPayload{User: user, Tasks: tasks}})
			return fmt.Sprintf("📝 Task #%d updated for %s!", id, user)
		}
	}
	return fmt.Sprintf("⚠️ Could not find task #%d for you.", id)
}

// ClearTasks wipes the whole board for every user. Stats and the
// leaderboard survive.
func (s *Session) ClearTasks() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.ActiveTasks = make(map[string][]models.Task)
	s.saveLocked()

	s.publishLocked(models.Event{Name: models.EventClearBoard})
	s.publishLocked(models.Event{Name: models.EventInProgressUpdate, Data: models.CountPayload{Count: 0}})
	s.publishLocked(models.Event{Name: models.EventMilestoneUpdate, Data: models.MilestonePayload{Total: s.state.TotalCompleted}})
	s.publishLeaderboardLocked()

	return "🧹 The task board has been wiped clean! (Leaderboard preserved)"
}

// ClearStats resets the lifetime counter and the per-user stats.
// Tasks are untouched.
func (s *Session) ClearStats() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.TotalCompleted = 0
	s.state.UserStats = make(map[string]int)
	s.saveLocked()

	s.publishLocked(models.Event{Name: models.EventMilestoneUpdate, Data: models.MilestonePayload{Total: 0}})
	s.publishLocked(models.Event{Name: models.EventLeaderboardUpdate, Data: models.LeaderboardPayload{Leaderboard: []models.LeaderboardEntry{}}})
	s.publishLocked(models.Event{Name: models.EventGoalUpdate, Data: models.GoalPayload{DailyGoal: s.state.DailyGoal}})

	return "📊 All session stats and the leaderboard have been reset!"
}

// ClearLeaderboard resets only the per-user stats. The lifetime total
// keeps counting; that asymmetry is intentional.
func (s *Session) ClearLeaderboard() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.UserStats = make(map[string]int)
	s.saveLocked()
	s.publishLocked(models.Event{Name: models.EventLeaderboardUpdate, Data: models.LeaderboardPayload{Leaderboard: []models.LeaderboardEntry{}}})

	return "📊 The leaderboard has been reset!"
}

// SetGoal sets the daily display target. Non-positive goals are
// rejected silently.
func (s *Session) SetGoal(goal int) string {
	if goal <= 0 {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.DailyGoal = goal
	s.saveLocked()
	s.publishLocked(models.Event{Name: models.EventGoalUpdate, Data: models.GoalPayload{DailyGoal: goal}})

	return fmt.Sprintf("🎯 Daily goal set to %d tasks!", goal)
}

func (s *Session) SetTheme(theme string) string {
	if !models.ValidTheme(theme) {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CurrentTheme = theme
	s.saveLocked()
	s.publishLocked(models.Event{Name: models.EventThemeUpdate, Data: theme})

	return fmt.Sprintf("🎨 Theme updated to %s!", theme)
}

func (s *Session) SetLayout(layout string) string {
	if !models.ValidLayout(layout) {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CurrentLayout = layout
	s.saveLocked()
	s.publishLocked(models.Event{Name: models.EventLayoutUpdate, Data: layout})

	return fmt.Sprintf("📏 Layout set to %s!", layout)
}

// BlockUser bars a user from adding tasks. Idempotent: blocking an
// already-blocked user changes nothing and broadcasts nothing.
func (s *Session) BlockUser(name string) string {
	target := strings.ToLower(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, blocked := range s.state.Blocklist {
		if blocked == target {
			return ""
		}
	}
	s.state.Blocklist = append(s.state.Blocklist, target)
	s.saveLocked()
	s.publishLocked(models.Event{Name: models.EventBlocklistUpdate, Data: s.state.Blocklist})

	return fmt.Sprintf("🚫 %s has been blocked from the task overlay.", target)
}

// UnblockUser always succeeds and always broadcasts the list, present
// or not.
func (s *Session) UnblockUser(name string) string {
	target := strings.ToLower(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.state.Blocklist[:0]
	for _, blocked := range s.state.Blocklist {
		if blocked != target {
			kept = append(kept, blocked)
		}
	}
	s.state.Blocklist = kept
	s.saveLocked()
	s.publishLocked(models.Event{Name: models.EventBlocklistUpdate, Data: s.state.Blocklist})

	return fmt.Sprintf("✅ %s has been unblocked.", target)
}

// Leaderboard derives the current top-3 by lifetime count, ties broken
// by name so the ordering is stable.
func (s *Session) Leaderboard() []models.LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaderboardLocked()
}

func (s *Session) leaderboardLocked() []models.LeaderboardEntry {
	entries := rankStats(s.state.UserStats)
	if len(entries) > 3 {
		entries = entries[:3]
	}
	return entries
}

func (s *Session) publishLeaderboardLocked() {
	s.publishLocked(models.Event{Name: models.EventLeaderboardUpdate, Data: models.LeaderboardPayload{Leaderboard: s.leaderboardLocked()}})
}

// rankStats orders a stat map descending by count, ties by name.
func rankStats(stats map[string]int) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(stats))
	for name, count := range stats {
		entries = append(entries, models.LeaderboardEntry{Name: name, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// Snapshot returns a sanitized deep copy for late-joining viewers.
func (s *Session) Snapshot() *models.ChannelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// TimerState returns the current timer triple for snapshot delivery.
func (s *Session) TimerState() models.TimerPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.TimerPayload{
		Seconds: s.state.TimerSeconds,
		Status:  s.state.TimerStatus,
		Mode:    s.state.TimerMode,
	}
}

// Flush persists the current document.
func (s *Session) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked()
}

func (s *Session) saveLocked() {
	if err := s.store.Save(s.Channel, s.state); err != nil {
		log.Printf("save channel %s: %v", s.Channel, err)
	}
}

func (s *Session) publishLocked(ev models.Event) {
	s.hub.Publish(s.Channel, ev)
}

func (s *Session) announceOut(message string) {
	s.mu.Lock()
	announce := s.announce
	s.mu.Unlock()
	if announce != nil {
		announce(s.Channel, message)
	}
}
