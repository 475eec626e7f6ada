package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/registra/registra/internal/handler/dto"
	"github.com/registra/registra/internal/model"
	"github.com/registra/registra/internal/service"
)

// UserService is the user model contract the handler depends on.
// *service.UserService satisfies it.
type UserService interface {
	Create(ctx context.Context, input service.CreateUserInput) (*model.User, error)
	Update(ctx context.Context, username string, patch model.UserPatch) (*model.User, error)
	FindOneByUsername(ctx context.Context, username string) (*model.User, error)
}

// UserHandler handles HTTP requests for user operations.
type UserHandler struct {
	svc    UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	user, err := h.svc.Create(r.Context(), req.ToInput())
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// Get handles GET /api/v1/users/{username}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.FindOneByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// Update handles PATCH /api/v1/users/{username}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	user, err := h.svc.Update(r.Context(), chi.URLParam(r, "username"), req.ToPatch())
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}
