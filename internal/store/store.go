package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/skitch/coworkstreambot/internal/models"
)

// Store reads and writes per-channel documents as flat JSON files in
// one data directory. No logic lives here beyond defaulting on load.
type Store struct {
	dataDir string
}

// New creates the data directory if needed and returns a store over it.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dataDir: dataDir}, nil
}

func (s *Store) path(channel string) string {
	return filepath.Join(s.dataDir, channel+".json")
}

// Load returns the channel's persisted document merged over defaults.
// A missing file yields pure defaults; a malformed file is logged and
// also yields pure defaults, never an error.
func (s *Store) Load(channel string) *models.ChannelState {
	data, err := os.ReadFile(s.path(channel))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("read channel data %s: %v", channel, err)
		}
		return models.DefaultState()
	}

	state := models.DefaultState()
	if err := json.Unmarshal(data, state); err != nil {
		log.Printf("parse channel data %s: %v", channel, err)
		return models.DefaultState()
	}
	applyDefaults(state)
	return state
}

// Save overwrites the channel's document. Last writer wins; callers
// serialize saves per channel.
func (s *Store) Save(channel string, state *models.ChannelState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode channel data %s: %w", channel, err)
	}
	if err := os.WriteFile(s.path(channel), data, 0o644); err != nil {
		return fmt.Errorf("write channel data %s: %w", channel, err)
	}
	return nil
}

// applyDefaults backfills fields a persisted document may be missing
// or carry out of range. Field by field rather than a blind merge, so
// a malformed document cannot smuggle invalid values into a session.
func applyDefaults(s *models.ChannelState) {
	if s.ActiveTasks == nil {
		s.ActiveTasks = make(map[string][]models.Task)
	}
	if s.UserStats == nil {
		s.UserStats = make(map[string]int)
	}
	if s.SessionStats == nil {
		s.SessionStats = make(map[string]int)
	}
	if s.Blocklist == nil {
		s.Blocklist = []string{}
	}
	if s.TotalCompleted < 0 {
		s.TotalCompleted = 0
	}
	if s.DailyGoal < 1 {
		s.DailyGoal = models.DefaultDailyGoal
	}
	if !models.ValidTheme(s.CurrentTheme) {
		s.CurrentTheme = models.DefaultTheme
	}
	if !models.ValidLayout(s.CurrentLayout) {
		s.CurrentLayout = models.DefaultLayout
	}
	if s.TimerSeconds < 0 {
		s.TimerSeconds = 0
	}
	if s.TimerMode != models.ModeWork && s.TimerMode != models.ModeBreak {
		s.TimerMode = models.ModeWork
	}
	if s.TimerStatus != models.StatusRunning && s.TimerStatus != models.StatusPaused {
		s.TimerStatus = models.StatusPaused
	}
}
