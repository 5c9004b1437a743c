package models

// Timer modes and statuses as persisted and broadcast.
const (
	ModeWork  = "WORK"
	ModeBreak = "BREAK"

	StatusRunning = "running"
	StatusPaused  = "paused"
)

const (
	DefaultDailyGoal    = 20
	DefaultTimerSeconds = 1500
	DefaultTheme        = "pink"
	DefaultLayout       = "comfortable"
)

// Task is one entry in a user's list. IDs are dense 1..N within the
// owning user's list and get renumbered after pruning.
type Task struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// ChannelState is the full persisted document for one channel. The
// ticking handle lives on the session object, never in here.
type ChannelState struct {
	ActiveTasks    map[string][]Task `json:"activeTasks"`
	TotalCompleted int               `json:"totalCompleted"`
	DailyGoal      int               `json:"dailyGoal"`
	UserStats      map[string]int    `json:"userStats"`
	SessionStats   map[string]int    `json:"sessionStats"`
	Blocklist      []string          `json:"blocklist"`
	CurrentTheme   string            `json:"currentTheme"`
	CurrentLayout  string            `json:"currentLayout"`
	TimerSeconds   int               `json:"timerSeconds"`
	TimerMode      string            `json:"timerMode"`
	TimerStatus    string            `json:"timerStatus"`
}

// LeaderboardEntry is one row of the top-3 view.
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DefaultState returns a fresh channel document with all defaults set.
func DefaultState() *ChannelState {
	return &ChannelState{
		ActiveTasks:   make(map[string][]Task),
		DailyGoal:     DefaultDailyGoal,
		UserStats:     make(map[string]int),
		SessionStats:  make(map[string]int),
		Blocklist:     []string{},
		CurrentTheme:  DefaultTheme,
		CurrentLayout: DefaultLayout,
		TimerSeconds:  DefaultTimerSeconds,
		TimerMode:     ModeWork,
		TimerStatus:   StatusPaused,
	}
}

// Clone returns a deep copy safe to hand to viewers.
func (s *ChannelState) Clone() *ChannelState {
	c := *s
	c.ActiveTasks = make(map[string][]Task, len(s.ActiveTasks))
	for user, tasks := range s.ActiveTasks {
		c.ActiveTasks[user] = append([]Task(nil), tasks...)
	}
	c.UserStats = make(map[string]int, len(s.UserStats))
	for user, n := range s.UserStats {
		c.UserStats[user] = n
	}
	c.SessionStats = make(map[string]int, len(s.SessionStats))
	for user, n := range s.SessionStats {
		c.SessionStats[user] = n
	}
	c.Blocklist = append([]string{}, s.Blocklist...)
	return &c
}

// ValidTheme reports whether theme is one of the supported overlay themes.
func ValidTheme(theme string) bool {
	switch theme {
	case "pink", "blue", "purple", "gold":
		return true
	}
	return false
}

// ValidLayout reports whether layout is a supported overlay layout.
func ValidLayout(layout string) bool {
	switch layout {
	case "compact", "comfortable":
		return true
	}
	return false
}
