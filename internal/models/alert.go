package models

import "fmt"

// Severity grades a usage alert.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// UsageAlert is an ephemeral notice that a limit crossed a threshold.
type UsageAlert struct {
	Kind       string   `json:"type"`
	Severity   Severity `json:"severity"`
	Percentage float64  `json:"percentage"`
}

// Title returns the notification title for the alert severity.
func (a UsageAlert) Title() string {
	if a.Severity == SeverityCritical {
		return "Critical Usage Alert"
	}
	return "Usage Warning"
}

// Body returns the notification body, e.g. "Token usage(5 Hour): 91.5% used".
func (a UsageAlert) Body() string {
	return fmt.Sprintf("%s: %.1f%% used", a.Kind, a.Percentage)
}
