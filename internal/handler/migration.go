package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/registra/registra/internal/handler/dto"
	"github.com/registra/registra/internal/model"
)

// MigrationRunner lists and applies schema migrations.
// *migrator.Migrator satisfies it.
type MigrationRunner interface {
	ListPending(ctx context.Context) ([]model.Migration, error)
	RunPending(ctx context.Context) ([]model.Migration, error)
}

// MigrationHandler serves /api/v1/migrations.
type MigrationHandler struct {
	runner MigrationRunner
	logger *slog.Logger
}

// NewMigrationHandler creates a new MigrationHandler.
func NewMigrationHandler(runner MigrationRunner, logger *slog.Logger) *MigrationHandler {
	return &MigrationHandler{runner: runner, logger: logger}
}

// List handles GET /api/v1/migrations. It is a dry run.
func (h *MigrationHandler) List(w http.ResponseWriter, r *http.Request) {
	pending, err := h.runner.ListPending(r.Context())
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToMigrationResponses(pending))
}

// Apply handles POST /api/v1/migrations: 201 when something was applied,
// 200 when the schema was already current.
func (h *MigrationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	applied, err := h.runner.RunPending(r.Context())
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	status := http.StatusOK
	if len(applied) > 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, dto.ToMigrationResponses(applied))
}
