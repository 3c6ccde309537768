package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/j-veylop/zai-usage-tui/internal/config"
)

type fakeTicker struct {
	ch      chan time.Time
	period  time.Duration
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeTicker) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (c *fakeClock) newTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time), period: d}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) all() []*fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*fakeTicker(nil), c.tickers...)
}

func withToken(minutes int) config.Config {
	return config.Config{AuthToken: "tok", BaseURL: config.DefaultBaseURL, RefreshIntervalMinutes: minutes}
}

func newTestScheduler() (*Scheduler, *fakeClock, chan struct{}) {
	clock := &fakeClock{}
	fired := make(chan struct{}, 10)
	s := New(func() { fired <- struct{}{} }, clock.newTicker)
	return s, clock, fired
}

func expectFire(t *testing.T, fired <-chan struct{}) {
	t.Helper()
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("expected trigger to fire")
	}
}

func expectNoFire(t *testing.T, fired <-chan struct{}) {
	t.Helper()
	select {
	case <-fired:
		t.Error("trigger fired for a replaced or stopped timer")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestScheduler_IntervalChangeRestartsTimer(t *testing.T) {
	s, clock, fired := newTestScheduler()
	defer s.Close()

	s.Apply(withToken(5))
	if got := s.Interval(); got != 5*time.Minute {
		t.Fatalf("Interval() = %v, want 5m", got)
	}

	s.Apply(withToken(1))
	if got := s.Interval(); got != time.Minute {
		t.Fatalf("Interval() = %v, want 1m", got)
	}

	tickers := clock.all()
	if len(tickers) != 2 {
		t.Fatalf("expected 2 tickers, got %d", len(tickers))
	}
	if !tickers[0].isStopped() {
		t.Error("old 5m ticker should be stopped")
	}
	if tickers[1].period != time.Minute {
		t.Errorf("new ticker period = %v, want 1m", tickers[1].period)
	}

	tickers[1].ch <- time.Now()
	expectFire(t, fired)

	// The old loop may still be alive to receive this tick; it must not fire.
	select {
	case tickers[0].ch <- time.Now():
	case <-time.After(50 * time.Millisecond):
	}
	expectNoFire(t, fired)
}

func TestScheduler_EmptyTokenCancels(t *testing.T) {
	s, clock, _ := newTestScheduler()
	defer s.Close()

	s.Apply(withToken(5))
	s.Apply(config.Config{RefreshIntervalMinutes: 5})

	if s.Running() {
		t.Error("no timer should run without a token")
	}
	if s.Interval() != 0 {
		t.Errorf("Interval() = %v, want 0", s.Interval())
	}
	if !clock.all()[0].isStopped() {
		t.Error("previous ticker should be stopped")
	}
	if len(clock.all()) != 1 {
		t.Error("no ticker should be created for an empty token")
	}
}

func TestScheduler_CloseStopsFiring(t *testing.T) {
	s, clock, fired := newTestScheduler()

	s.Apply(withToken(2))
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !clock.all()[0].isStopped() {
		t.Error("ticker should be stopped on Close")
	}

	s.Apply(withToken(2))
	if len(clock.all()) != 1 {
		t.Error("Apply after Close must not start a timer")
	}

	select {
	case clock.all()[0].ch <- time.Now():
	case <-time.After(50 * time.Millisecond):
	}
	expectNoFire(t, fired)
}

func TestScheduler_RealTicker(t *testing.T) {
	tk := NewRealTicker(10 * time.Millisecond)
	defer tk.Stop()
	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker did not tick")
	}
}
