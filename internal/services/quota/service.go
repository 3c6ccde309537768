package quota

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/zai-usage-tui/internal/config"
	"github.com/j-veylop/zai-usage-tui/internal/logger"
	"github.com/j-veylop/zai-usage-tui/internal/models"
)

// Fetcher retrieves a usage snapshot for a configuration.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, cfg config.Config) (*models.Snapshot, error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc func(ctx context.Context, cfg config.Config) (*models.Snapshot, error)

// FetchSnapshot calls f.
func (f FetchFunc) FetchSnapshot(ctx context.Context, cfg config.Config) (*models.Snapshot, error) {
	return f(ctx, cfg)
}

// Refresh triggers, recorded with each attempt.
const (
	TriggerStartup  = "startup"
	TriggerTimer    = "timer"
	TriggerManual   = "manual"
	TriggerSignal   = "refresh-requested"
	TriggerSave     = "config-saved"
	TriggerReload   = "config-reloaded"
	TriggerSettings = "settings-test"
)

// Event represents a refresh service event.
type Event struct {
	Error    error
	Snapshot *models.Snapshot
	Attempt  *models.FetchAttempt
	Trigger  string
	Type     EventType
	Kind     ErrorKind
	Mode     models.FetchMode
}

// EventType defines the type of refresh event.
type EventType int

const (
	// EventRefreshing indicates a provider call has started; Mode is Loading.
	EventRefreshing EventType = iota
	// EventSnapshotUpdated indicates a successful fetch replaced the snapshot.
	EventSnapshotUpdated
	// EventRefreshFailed indicates a failed fetch; the previous snapshot is kept.
	EventRefreshFailed
	// EventNeedsConfig indicates no token is configured or the token was rejected.
	EventNeedsConfig
)

// Config holds configuration for the refresh service.
type Config struct {
	Timeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Timeout: defaultTimeout}
}

// Result is the outcome of one Refresh call.
type Result struct {
	Err      error
	Snapshot *models.Snapshot
	Kind     ErrorKind
	Mode     models.FetchMode
	// Skipped is set when the call did not run a fetch itself: another fetch
	// was in flight (the request is queued behind it) or the service is closed.
	Skipped bool
}

type pendingRefresh struct {
	cfg     config.Config
	trigger string
}

// Service performs fetch attempts, classifies their outcome and updates State.
// At most one fetch runs at a time; a refresh requested meanwhile is queued and
// runs once the current fetch completes. Repeated requests coalesce into one.
type Service struct {
	fetcher   Fetcher
	state     *State
	eventChan chan Event
	pending   *pendingRefresh
	now       func() time.Time
	config    Config
	stats     Stats
	mu        sync.Mutex
	inFlight  bool
	closed    bool
}

// New creates a refresh service writing into state.
func New(fetcher Fetcher, state *State, cfg Config) *Service {
	if cfg.Timeout <= 0 {
		cfg = DefaultConfig()
	}
	return &Service{
		fetcher:   fetcher,
		state:     state,
		eventChan: make(chan Event, 100),
		now:       time.Now,
		config:    cfg,
	}
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// State returns the shared state the service writes.
func (s *Service) State() *State {
	return s.state
}

// Refresh runs one fetch attempt for cfg and blocks until it is classified.
// If a fetch is already in flight the request is queued and Skipped is set.
func (s *Service) Refresh(ctx context.Context, cfg config.Config, trigger string) Result {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Result{Mode: s.state.Mode(), Skipped: true}
	}
	if s.inFlight {
		s.pending = &pendingRefresh{cfg: cfg, trigger: trigger}
		s.mu.Unlock()
		logger.Debug("Refresh queued behind in-flight fetch", "trigger", trigger)
		return Result{Mode: s.state.Mode(), Skipped: true}
	}
	s.inFlight = true
	s.mu.Unlock()

	for {
		res := s.run(ctx, cfg, trigger)

		s.mu.Lock()
		next := s.pending
		s.pending = nil
		if next == nil || s.closed {
			s.inFlight = false
			s.mu.Unlock()
			return res
		}
		s.mu.Unlock()

		cfg, trigger = next.cfg, next.trigger
	}
}

// InFlight reports whether a fetch is currently running.
func (s *Service) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

func (s *Service) run(ctx context.Context, cfg config.Config, trigger string) Result {
	started := s.now()
	attempt := &models.FetchAttempt{
		ID:        uuid.NewString(),
		StartedAt: started,
		Trigger:   trigger,
	}

	if !cfg.HasToken() {
		s.state.markNeedsConfig()
		attempt.Outcome = models.OutcomeSkipped
		s.sendEvent(Event{Type: EventNeedsConfig, Mode: models.ModeNeedsConfig, Trigger: trigger, Attempt: attempt})
		return Result{Mode: models.ModeNeedsConfig}
	}

	prev := s.state.beginLoading(started)
	s.sendEvent(Event{Type: EventRefreshing, Mode: models.ModeLoading, Trigger: trigger})

	fctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	snap, err := s.fetcher.FetchSnapshot(fctx, cfg)
	cancel()

	attempt.DurationMs = s.now().Sub(started).Milliseconds()

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		logger.Debug("Discarding fetch result after shutdown", "trigger", trigger)
		return Result{Mode: s.state.Mode(), Skipped: true}
	}

	if err == nil {
		s.state.succeed(snap, s.now())
		s.recordStats(ErrorNone)
		attempt.Outcome = models.OutcomeOK
		s.sendEvent(Event{
			Type:     EventSnapshotUpdated,
			Mode:     models.ModeReady,
			Snapshot: snap,
			Trigger:  trigger,
			Attempt:  attempt,
		})
		return Result{Mode: models.ModeReady, Snapshot: snap}
	}

	kind := Classify(err)
	mode := prev
	evType := EventRefreshFailed
	attempt.Outcome = models.OutcomeTransient
	if kind == CredentialError {
		mode = models.ModeNeedsConfig
		evType = EventNeedsConfig
		attempt.Outcome = models.OutcomeCredential
	}
	attempt.Error = err.Error()

	s.state.fail(mode, err, kind)
	s.recordStats(kind)
	logger.Warn("Usage refresh failed", "trigger", trigger, "kind", kind.String(), "error", err)
	s.sendEvent(Event{
		Type:    evType,
		Mode:    mode,
		Error:   err,
		Kind:    kind,
		Trigger: trigger,
		Attempt: attempt,
	})
	return Result{Mode: mode, Err: err, Kind: kind}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops accepting refreshes. A fetch still in flight completes but its
// result is discarded.
func (s *Service) Close() error {
	s.mu.Lock()
	s.closed = true
	s.pending = nil
	s.mu.Unlock()
	return nil
}

// Stats returns counters for attempts made by this process.
type Stats struct {
	Attempts        int
	Succeeded       int
	CredentialFails int
	TransientFails  int
}

func (s *Service) recordStats(kind ErrorKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Attempts++
	switch kind {
	case ErrorNone:
		s.stats.Succeeded++
	case CredentialError:
		s.stats.CredentialFails++
	default:
		s.stats.TransientFails++
	}
}

// GetStats returns current statistics.
func (s *Service) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
