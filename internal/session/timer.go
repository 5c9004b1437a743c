package session

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/skitch/coworkstreambot/internal/models"
)

// autoBreakMinutes is the length of the break that follows every
// focus period.
const autoBreakMinutes = 5

// StartTimer begins a countdown of ceil(minutes*60) seconds in the
// given mode, cancelling any timer already ticking.
func (s *Session) StartTimer(minutes float64, mode string) string {
	s.mu.Lock()
	s.startLocked(int(math.Ceil(minutes*60)), mode)
	s.mu.Unlock()
	return fmt.Sprintf("📱 Session started: %s (%vm)", mode, minutes)
}

// startLocked is the single entry point for getting a timer running:
// start, resume and the auto-break all come through here. Bumping
// timerGen synchronously invalidates any previous tick loop, so two
// loops can never fire for the same channel.
func (s *Session) startLocked(seconds int, mode string) {
	s.timerGen++
	gen := s.timerGen

	s.state.TimerMode = mode
	s.state.TimerStatus = models.StatusRunning
	s.state.TimerSeconds = seconds

	s.publishTimerLocked()
	go s.run(gen)
}

// Pause stops the tick. Reports nothing when nothing is running.
func (s *Session) Pause() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.TimerStatus != models.StatusRunning {
		return ""
	}
	s.timerGen++
	s.state.TimerStatus = models.StatusPaused
	s.saveLocked()
	s.publishTimerLocked()

	return "⏸️ Timer paused."
}

// Resume restarts the tick with whatever time remains. No-op while
// running or when the countdown already hit zero.
func (s *Session) Resume() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.TimerStatus != models.StatusPaused || s.state.TimerSeconds <= 0 {
		return ""
	}
	s.startLocked(s.state.TimerSeconds, s.state.TimerMode)

	return "▶️ Timer resumed."
}

// run is the per-timer tick loop. It exits as soon as its generation
// goes stale, which is how start/pause cancel it.
func (s *Session) run(gen int) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		if gen != s.timerGen {
			s.mu.Unlock()
			return
		}

		if s.state.TimerSeconds > 0 {
			s.state.TimerSeconds--
			s.publishTimerLocked()
			if s.state.TimerSeconds%10 == 0 {
				s.saveLocked()
			}
			s.mu.Unlock()
			continue
		}

		// Countdown exhausted: fire the end sequence exactly once.
		s.timerGen++
		s.state.TimerStatus = models.StatusPaused
		s.saveLocked()
		s.publishLocked(models.Event{Name: models.EventTimerEnd})

		if s.state.TimerMode == models.ModeWork {
			summary := s.finishWorkLocked()
			s.mu.Unlock()
			if summary != "" {
				s.announceOut(summary)
			}
			time.AfterFunc(s.breakDelay, func() {
				s.mu.Lock()
				s.startLocked(autoBreakMinutes*60, models.ModeBreak)
				s.mu.Unlock()
			})
		} else {
			s.state.TimerMode = models.ModeWork
			s.saveLocked()
			s.mu.Unlock()
			s.announceOut("🔔 Break is over! Back to work! 🔥")
		}
		return
	}
}

// finishWorkLocked closes out a focus period: builds the MVP summary,
// resets session stats, prunes completed tasks and renumbers each
// user's remainder densely from 1. Returns the summary message, empty
// when nobody completed anything.
func (s *Session) finishWorkLocked() string {
	summary := sessionSummary(s.state.SessionStats)
	s.state.SessionStats = make(map[string]int)

	users := make([]string, 0, len(s.state.ActiveTasks))
	for user := range s.state.ActiveTasks {
		users = append(users, user)
	}
	sort.Strings(users)

	for _, user := range users {
		kept := make([]models.Task, 0, len(s.state.ActiveTasks[user]))
		for _, t := range s.state.ActiveTasks[user] {
			if !t.Completed {
				t.ID = len(kept) + 1
				kept = append(kept, t)
			}
		}
		s.state.ActiveTasks[user] = kept
		s.publishLocked(models.Event{Name: models.EventRefreshTasks, Data: models.TasksPayload{User: user, Tasks: kept}})
	}

	s.saveLocked()
	return summary
}

// sessionSummary formats the focus-period MVP line: everyone tied at
// the top score is an MVP, everyone below is a runner-up.
func sessionSummary(stats map[string]int) string {
	participants := rankStats(stats)
	if len(participants) == 0 {
		return ""
	}

	maxScore := participants[0].Count
	var leaders, others []models.LeaderboardEntry
	for _, p := range participants {
		if p.Count == maxScore {
			leaders = append(leaders, p)
		} else {
			others = append(others, p)
		}
	}

	names := make([]string, len(leaders))
	for i, l := range leaders {
		names[i] = "@" + l.Name
	}
	leaderNames := strings.Join(names, " & ")

	var b strings.Builder
	if len(leaders) > 1 {
		fmt.Fprintf(&b, "🏆 Co-MVPs: %s with %d tasks each! ", leaderNames, maxScore)
	} else {
		fmt.Fprintf(&b, "🏆 Session MVP: %s with %d tasks! ", leaderNames, maxScore)
	}

	if len(others) > 0 {
		runnerUps := make([]string, len(others))
		for i, o := range others {
			runnerUps[i] = fmt.Sprintf("%s (%d)", o.Name, o.Count)
		}
		fmt.Fprintf(&b, "Everyone else did great too! - %s. ", strings.Join(runnerUps, ", "))
	}

	b.WriteString("Enjoy the break! ☕")
	return b.String()
}

func (s *Session) publishTimerLocked() {
	s.publishLocked(models.Event{Name: models.EventTimerUpdate, Data: models.TimerPayload{
		Seconds: s.state.TimerSeconds,
		Status:  s.state.TimerStatus,
		Mode:    s.state.TimerMode,
	}})
}
