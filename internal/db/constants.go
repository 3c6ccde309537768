package db

const (
	// timeLayout is how timestamps are stored: UTC, comparable with datetime('now').
	timeLayout = "2006-01-02 15:04:05"

	// DefaultRetentionDays bounds how long fetch attempts are kept.
	DefaultRetentionDays = 7
)
