package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/registra/registra/internal/apperr"
	"github.com/registra/registra/internal/handler/dto"
	"github.com/registra/registra/internal/repository"
)

// DatabaseStatusReader reports PostgreSQL server details.
// *repository.Repository satisfies it.
type DatabaseStatusReader interface {
	DatabaseStatus(ctx context.Context) (*repository.DatabaseStatus, error)
}

// StatusHandler serves GET /api/v1/status.
type StatusHandler struct {
	db     DatabaseStatusReader
	logger *slog.Logger
	now    func() time.Time
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(db DatabaseStatusReader, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{db: db, logger: logger, now: time.Now}
}

// Get handles GET /api/v1/status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, err := h.db.DatabaseStatus(ctx)
	if err != nil {
		writeError(h.logger, w, r, apperr.Service("The database is unavailable.", err))
		return
	}

	writeJSON(w, http.StatusOK, dto.ToStatusResponse(h.now(), status))
}
