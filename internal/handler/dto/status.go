package dto

import (
	"time"

	"github.com/registra/registra/internal/model"
	"github.com/registra/registra/internal/repository"
)

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	UpdatedAt    time.Time    `json:"updated_at"`
	Dependencies Dependencies `json:"dependencies"`
}

// Dependencies reports the state of external services.
type Dependencies struct {
	Database DatabaseResponse `json:"database"`
}

// DatabaseResponse describes the PostgreSQL server.
type DatabaseResponse struct {
	Version           string `json:"version"`
	MaxConnections    int    `json:"max_connections"`
	OpenedConnections int    `json:"opened_connections"`
}

// ToStatusResponse builds the status body stamped with now.
func ToStatusResponse(now time.Time, db *repository.DatabaseStatus) StatusResponse {
	return StatusResponse{
		UpdatedAt: now.UTC(),
		Dependencies: Dependencies{
			Database: DatabaseResponse{
				Version:           db.Version,
				MaxConnections:    db.MaxConnections,
				OpenedConnections: db.OpenedConnections,
			},
		},
	}
}

// MigrationResponse describes one migration script.
type MigrationResponse struct {
	Version    int64      `json:"version"`
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	State      string     `json:"state"`
	AppliedAt  *time.Time `json:"applied_at,omitempty"`
	DurationMs *float64   `json:"duration_ms,omitempty"`
}

// ToMigrationResponses converts migrations to their API shape. The result
// is never nil so an empty list encodes as [].
func ToMigrationResponses(migrations []model.Migration) []MigrationResponse {
	out := make([]MigrationResponse, 0, len(migrations))
	for _, m := range migrations {
		out = append(out, MigrationResponse{
			Version:    m.Version,
			Name:       m.Name,
			Path:       m.Path,
			State:      string(m.State),
			AppliedAt:  m.AppliedAt,
			DurationMs: m.DurationMs,
		})
	}
	return out
}
