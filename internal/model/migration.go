package model

import "time"

// MigrationState is the lifecycle state of a migration script.
type MigrationState string

// Migration states. Scripts move from pending to applied only.
const (
	MigrationPending MigrationState = "pending"
	MigrationApplied MigrationState = "applied"
)

// Migration describes one versioned schema script.
type Migration struct {
	Version    int64          `json:"version"`
	Name       string         `json:"name"`
	Path       string         `json:"path"`
	State      MigrationState `json:"state"`
	AppliedAt  *time.Time     `json:"applied_at,omitempty"`
	DurationMs *float64       `json:"duration_ms,omitempty"`
}
