// Package scheduler drives periodic usage refreshes.
package scheduler

import (
	"sync"
	"time"

	"github.com/j-veylop/zai-usage-tui/internal/config"
	"github.com/j-veylop/zai-usage-tui/internal/logger"
)

// Ticker is the subset of *time.Ticker the scheduler uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker wraps time.NewTicker.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Scheduler owns the single poll timer. Each Apply cancels the previous timer
// before starting a new one; an empty token leaves no timer running.
// The trigger func must not block.
type Scheduler struct {
	trigger   func()
	newTicker TickerFunc
	ticker    Ticker
	stopChan  chan struct{}
	interval  time.Duration
	gen       uint64
	mu        sync.Mutex
	closed    bool
}

// New creates a scheduler that calls trigger on every tick. A nil newTicker
// uses real time.
func New(trigger func(), newTicker TickerFunc) *Scheduler {
	if newTicker == nil {
		newTicker = NewRealTicker
	}
	return &Scheduler{trigger: trigger, newTicker: newTicker}
}

// Apply restarts the timer for cfg. Ticks start a full interval from now.
func (s *Scheduler) Apply(cfg config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	if s.closed {
		return
	}
	if !cfg.HasToken() {
		logger.Debug("Poll timer stopped, no token configured")
		return
	}

	s.gen++
	s.interval = cfg.Interval()
	s.ticker = s.newTicker(s.interval)
	s.stopChan = make(chan struct{})
	go s.loop(s.ticker, s.stopChan, s.gen)

	logger.Debug("Poll timer started", "interval", s.interval)
}

// Interval returns the active timer period, or 0 when no timer runs.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Running reports whether a timer is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticker != nil
}

func (s *Scheduler) loop(t Ticker, stop <-chan struct{}, gen uint64) {
	for {
		select {
		case <-t.C():
			if !s.current(gen) {
				return
			}
			s.trigger()
		case <-stop:
			return
		}
	}
}

// current reports whether gen is still the live timer; a tick racing a
// cancel must not fire.
func (s *Scheduler) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.ticker != nil && s.gen == gen
}

func (s *Scheduler) stopLocked() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stopChan)
	s.ticker = nil
	s.stopChan = nil
	s.interval = 0
}

// Close cancels the timer. Nothing fires afterwards and later Apply calls are no-ops.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.closed = true
	return nil
}
