package models

import "time"

// Run statuses in the history database
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one recorded batch execution
type Run struct {
	ID         int64      `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	Processed  int        `json:"processed"`
	Succeeded  int        `json:"succeeded"`
	Errored    int        `json:"errored"`
	Skipped    int        `json:"skipped"`
	Failure    string     `json:"failure,omitempty"`
}
