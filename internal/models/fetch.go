package models

import "time"

// FetchMode is the single state the UI and scheduler both read.
type FetchMode int

const (
	ModeIdle FetchMode = iota
	ModeLoading
	ModeReady
	ModeNeedsConfig
)

func (m FetchMode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeLoading:
		return "loading"
	case ModeReady:
		return "ready"
	case ModeNeedsConfig:
		return "needs-config"
	default:
		return "unknown"
	}
}

// FetchOutcome classifies a finished fetch attempt.
type FetchOutcome string

const (
	OutcomeOK         FetchOutcome = "ok"
	OutcomeCredential FetchOutcome = "credential"
	OutcomeTransient  FetchOutcome = "transient"
	OutcomeSkipped    FetchOutcome = "skipped"
)

// FetchAttempt is one logged refresh (DB model). It carries no usage data.
type FetchAttempt struct {
	StartedAt  time.Time
	ID         string
	Trigger    string
	Outcome    FetchOutcome
	Error      string
	DurationMs int64
}

// FetchStats summarizes logged attempts.
type FetchStats struct {
	LastSuccess     time.Time
	Total           int
	Succeeded       int
	CredentialFails int
	TransientFails  int
	AvgDurationMs   float64
}

// SuccessRate returns succeeded/total as a percentage, or 0 with no attempts.
func (s FetchStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total) * 100
}
