// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/registra/registra/internal/apperr"
	"github.com/registra/registra/internal/metrics"
	"github.com/registra/registra/internal/model"
	"github.com/registra/registra/internal/repository"
)

// UserStore is the persistence contract the user service depends on.
// *repository.Repository satisfies it.
type UserStore interface {
	InsertUser(ctx context.Context, u *model.User) (*model.User, error)
	UpdateUser(ctx context.Context, u *model.User) (*model.User, error)
	FindUserByUsernameNormalized(ctx context.Context, usernameNormalized string) (*model.User, error)
	EmailNormalizedExists(ctx context.Context, emailNormalized string) (bool, error)
	UsernameNormalizedExists(ctx context.Context, usernameNormalized string) (bool, error)
}

// PasswordHasher hashes plaintext passwords. *password.Hasher satisfies it.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// Required fields for user creation, in reporting order.
var requiredUserFields = []string{"username", "email", "password"}

// UserService handles user business logic.
type UserService struct {
	store   UserStore
	hasher  PasswordHasher
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore, hasher PasswordHasher, recorder metrics.Recorder, logger *slog.Logger) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		store:   store,
		hasher:  hasher,
		metrics: recorder,
		logger:  logger,
	}
}

// CreateUserInput defines input for creating a user.
type CreateUserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NormalizeUsername returns the lookup key for a username.
func NormalizeUsername(username string) string {
	if username == "" {
		return username
	}
	return strings.ToLower(username)
}

// NormalizeEmail returns the lookup key for an email address: dots are
// removed from the local part, anything from the first "+" is dropped, and
// both parts are lowercased.
func NormalizeEmail(email string) string {
	if email == "" {
		return email
	}

	local, domain, hasDomain := strings.Cut(email, "@")
	local = strings.ReplaceAll(local, ".", "")
	if i := strings.IndexByte(local, '+'); i >= 0 {
		local = local[:i]
	}
	local = strings.ToLower(local)

	if !hasDomain {
		return local
	}
	return local + "@" + strings.ToLower(domain)
}

// Create validates input and stores a new user.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*model.User, error) {
	user := &model.User{
		Username:           input.Username,
		UsernameNormalized: NormalizeUsername(input.Username),
		Email:              input.Email,
		EmailNormalized:    NormalizeEmail(input.Email),
		Password:           input.Password,
	}

	if err := s.validateNew(ctx, user); err != nil {
		s.metrics.IncUserRejected()
		return nil, err
	}

	hash, err := s.hasher.Hash(user.Password)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.Password = hash
	user.ID = uuid.NewString()

	created, err := s.store.InsertUser(ctx, user)
	if err != nil {
		if vErr := duplicateError(err); vErr != nil {
			s.metrics.IncUserRejected()
			return nil, vErr
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.IncUserCreated()
	s.logger.InfoContext(ctx, "user_created",
		"user_id", created.ID,
		"username", created.UsernameNormalized,
	)

	return created, nil
}

// Update applies patch to the user currently named username. Only the
// fields present in patch are re-normalized and re-validated.
//
// The uniqueness checks do not exempt the user being updated, so setting
// an email or username to its current normalized value is rejected as a
// duplicate.
func (s *UserService) Update(ctx context.Context, username string, patch model.UserPatch) (*model.User, error) {
	current, err := s.FindOneByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if missing := missingPatchFields(patch); len(missing) > 0 {
		s.metrics.IncUserRejected()
		return nil, apperr.MissingFields(missing)
	}

	updated := *current

	if patch.Email != nil {
		updated.Email = *patch.Email
		updated.EmailNormalized = NormalizeEmail(*patch.Email)
		if err := validateEmailFormat(updated.Email); err != nil {
			s.metrics.IncUserRejected()
			return nil, err
		}
		if err := s.validateUniqueEmail(ctx, updated.EmailNormalized); err != nil {
			s.metrics.IncUserRejected()
			return nil, err
		}
	}

	if patch.Username != nil {
		updated.Username = *patch.Username
		updated.UsernameNormalized = NormalizeUsername(*patch.Username)
		if err := validateUsernameLength(updated.Username); err != nil {
			s.metrics.IncUserRejected()
			return nil, err
		}
		if err := s.validateUniqueUsername(ctx, updated.UsernameNormalized); err != nil {
			s.metrics.IncUserRejected()
			return nil, err
		}
	}

	if patch.Password != nil {
		hash, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		updated.Password = hash
	}

	saved, err := s.store.UpdateUser(ctx, &updated)
	if err != nil {
		if vErr := duplicateError(err); vErr != nil {
			s.metrics.IncUserRejected()
			return nil, vErr
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, userNotFound()
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.metrics.IncUserUpdated()
	s.logger.InfoContext(ctx, "user_updated",
		"user_id", saved.ID,
		"username_changed", patch.Username != nil,
		"email_changed", patch.Email != nil,
		"password_changed", patch.Password != nil,
	)

	return saved, nil
}

// FindOneByUsername looks a user up by normalized username.
func (s *UserService) FindOneByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.store.FindUserByUsernameNormalized(ctx, NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, userNotFound()
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// validateNew runs the creation rules: required fields first (all reported
// together), then format limits, then email and username uniqueness.
func (s *UserService) validateNew(ctx context.Context, user *model.User) error {
	values := map[string]string{
		"username": user.Username,
		"email":    user.Email,
		"password": user.Password,
	}

	var missing []string
	for _, field := range requiredUserFields {
		if values[field] == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return apperr.MissingFields(missing)
	}

	if err := validateEmailFormat(user.Email); err != nil {
		return err
	}
	if err := validateUsernameLength(user.Username); err != nil {
		return err
	}

	if err := s.validateUniqueEmail(ctx, user.EmailNormalized); err != nil {
		return err
	}
	return s.validateUniqueUsername(ctx, user.UsernameNormalized)
}

func (s *UserService) validateUniqueEmail(ctx context.Context, emailNormalized string) error {
	exists, err := s.store.EmailNormalizedExists(ctx, emailNormalized)
	if err != nil {
		return fmt.Errorf("validate email: %w", err)
	}
	if exists {
		return emailTaken()
	}
	return nil
}

func (s *UserService) validateUniqueUsername(ctx context.Context, usernameNormalized string) error {
	exists, err := s.store.UsernameNormalizedExists(ctx, usernameNormalized)
	if err != nil {
		return fmt.Errorf("validate username: %w", err)
	}
	if exists {
		return usernameTaken()
	}
	return nil
}

func validateEmailFormat(email string) error {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return apperr.Validation(
			"The email provided is invalid.",
			"Use a valid email to perform this operation.",
		)
	}
	if utf8.RuneCountInString(email) > model.MaxEmailLength {
		return apperr.Validation(
			fmt.Sprintf("The email must be at most %d characters long.", model.MaxEmailLength),
			"Use a shorter email to perform this operation.",
		)
	}
	return nil
}

func validateUsernameLength(username string) error {
	if utf8.RuneCountInString(username) > model.MaxUsernameLength {
		return apperr.Validation(
			fmt.Sprintf("The username must be at most %d characters long.", model.MaxUsernameLength),
			"Use a shorter username to perform this operation.",
		)
	}
	return nil
}

func missingPatchFields(patch model.UserPatch) []string {
	var missing []string
	if patch.Username != nil && *patch.Username == "" {
		missing = append(missing, "username")
	}
	if patch.Email != nil && *patch.Email == "" {
		missing = append(missing, "email")
	}
	if patch.Password != nil && *patch.Password == "" {
		missing = append(missing, "password")
	}
	return missing
}

// duplicateError translates a store-level unique violation into the same
// ValidationError the pre-checks return. Nil when err is not a violation.
func duplicateError(err error) error {
	switch {
	case errors.Is(err, repository.ErrEmailTaken):
		return emailTaken()
	case errors.Is(err, repository.ErrUsernameTaken):
		return usernameTaken()
	default:
		return nil
	}
}

func emailTaken() *apperr.Error {
	return apperr.Validation(
		"The email provided is already in use.",
		"Use a different email to perform this operation.",
	)
}

func usernameTaken() *apperr.Error {
	return apperr.Validation(
		"The username provided is already in use.",
		"Use a different username to perform this operation.",
	)
}

func userNotFound() *apperr.Error {
	return apperr.NotFound(
		"The username provided was not found in the system.",
		"Check that the username is spelled correctly.",
	)
}
