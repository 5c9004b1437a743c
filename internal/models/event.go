package models

// Event names form the stable contract with overlay/dashboard clients.
const (
	EventInitTasks         = "init-tasks"
	EventTimerUpdate       = "timer-update"
	EventTimerEnd          = "timer-end"
	EventRefreshTasks      = "refresh-tasks"
	EventMilestoneUpdate   = "milestone-update"
	EventLeaderboardUpdate = "leaderboard-update"
	EventGoalUpdate        = "goal-update"
	EventInProgressUpdate  = "in-progress-update"
	EventClearBoard        = "clear-board-ui"
	EventThemeUpdate       = "theme-update"
	EventLayoutUpdate      = "layout-update"
	EventBlocklistUpdate   = "blocklist-update"
)

// Event is one named message on a channel's topic. Data is the
// event-specific payload; nil for bare signals like timer-end.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

type TimerPayload struct {
	Seconds int    `json:"seconds"`
	Status  string `json:"status"`
	Mode    string `json:"mode"`
}

type TasksPayload struct {
	User  string `json:"user"`
	Tasks []Task `json:"tasks"`
}

type MilestonePayload struct {
	Total int `json:"total"`
}

type LeaderboardPayload struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type GoalPayload struct {
	DailyGoal int `json:"dailyGoal"`
}

type CountPayload struct {
	Count int `json:"count"`
}
