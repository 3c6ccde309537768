package quota

import (
	"sync"
	"time"

	"github.com/j-veylop/zai-usage-tui/internal/config"
	"github.com/j-veylop/zai-usage-tui/internal/models"
)

// State is the shared refresh state: the current Config, FetchMode and Snapshot.
// The config is written by the owner of the config store; mode, snapshot and
// error are written only by Service. Everyone else reads.
type State struct {
	lastSuccess time.Time
	lastAttempt time.Time
	snapshot    *models.Snapshot
	lastError   string
	config      config.Config
	errorKind   ErrorKind
	mode        models.FetchMode
	mu          sync.RWMutex
}

// StateView is a consistent copy of State for rendering.
type StateView struct {
	LastSuccess time.Time
	LastAttempt time.Time
	Snapshot    *models.Snapshot
	LastError   string
	Config      config.Config
	ErrorKind   ErrorKind
	Mode        models.FetchMode
}

// NewState creates state in Idle mode holding cfg.
func NewState(cfg config.Config) *State {
	return &State{config: cfg, mode: models.ModeIdle}
}

// Mode returns the current fetch mode.
func (s *State) Mode() models.FetchMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Snapshot returns the last good snapshot, or nil. Callers must not mutate it.
func (s *State) Snapshot() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// LastError returns the display text of the last failed attempt.
func (s *State) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// Config returns the active configuration.
func (s *State) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// View returns a copy of every field under one lock.
func (s *State) View() StateView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StateView{
		LastSuccess: s.lastSuccess,
		LastAttempt: s.lastAttempt,
		Snapshot:    s.snapshot,
		LastError:   s.lastError,
		Config:      s.config,
		ErrorKind:   s.errorKind,
		Mode:        s.mode,
	}
}

// SetConfig replaces the active configuration wholesale.
func (s *State) SetConfig(cfg config.Config) {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
}

// SetConfigError records a failed config load or save. Mode and snapshot are unchanged.
func (s *State) SetConfigError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.errorKind = ConfigIOError
	s.mu.Unlock()
}

func (s *State) markNeedsConfig() {
	s.mu.Lock()
	s.mode = models.ModeNeedsConfig
	s.mu.Unlock()
}

// beginLoading switches to Loading and returns the mode it replaced.
func (s *State) beginLoading(at time.Time) models.FetchMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.mode
	s.mode = models.ModeLoading
	s.lastAttempt = at
	return prev
}

func (s *State) succeed(snap *models.Snapshot, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = models.ModeReady
	s.snapshot = snap
	s.lastError = ""
	s.errorKind = ErrorNone
	s.lastSuccess = at
}

// fail records err and moves to mode. The snapshot is left untouched.
func (s *State) fail(mode models.FetchMode, err error, kind ErrorKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	s.lastError = err.Error()
	s.errorKind = kind
}
