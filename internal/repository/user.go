package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/registra/registra/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already exists")
	ErrUsernameTaken = errors.New("username already exists")
)

const userColumns = `id::text, username, username_normalized, email, email_normalized, password, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.UsernameNormalized,
		&u.Email,
		&u.EmailNormalized,
		&u.Password,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

// mapUserWriteError converts unique violations into sentinel errors.
func mapUserWriteError(err error) error {
	constraint, ok := uniqueConstraint(err)
	if !ok {
		return err
	}
	if strings.Contains(constraint, "email") {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}

// InsertUser stores a new user and returns the row, including the
// server-assigned timestamps.
func (r *Repository) InsertUser(ctx context.Context, u *model.User) (*model.User, error) {
	query := `
		INSERT INTO users (id, username, username_normalized, email, email_normalized, password)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	var created *model.User
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		var err error
		created, err = scanUser(conn.QueryRow(ctx, query,
			u.ID,
			u.Username,
			u.UsernameNormalized,
			u.Email,
			u.EmailNormalized,
			u.Password,
		))
		return err
	})
	if err != nil {
		if mapped := mapUserWriteError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return created, nil
}

// UpdateUser overwrites the mutable columns of the user with u.ID and
// refreshes updated_at.
func (r *Repository) UpdateUser(ctx context.Context, u *model.User) (*model.User, error) {
	query := `
		UPDATE users
		SET
			username = $2,
			username_normalized = $3,
			email = $4,
			email_normalized = $5,
			password = $6,
			updated_at = timezone('utc', now())
		WHERE id = $1
		RETURNING ` + userColumns

	var updated *model.User
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		var err error
		updated, err = scanUser(conn.QueryRow(ctx, query,
			u.ID,
			u.Username,
			u.UsernameNormalized,
			u.Email,
			u.EmailNormalized,
			u.Password,
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if mapped := mapUserWriteError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return updated, nil
}

// FindUserByUsernameNormalized retrieves a user by normalized username.
func (r *Repository) FindUserByUsernameNormalized(ctx context.Context, usernameNormalized string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username_normalized = $1 LIMIT 1`

	var user *model.User
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		var err error
		user, err = scanUser(conn.QueryRow(ctx, query, usernameNormalized))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}

// EmailNormalizedExists reports whether any user has the normalized email.
func (r *Repository) EmailNormalizedExists(ctx context.Context, emailNormalized string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email_normalized = $1)`, emailNormalized)
}

// UsernameNormalizedExists reports whether any user has the normalized username.
func (r *Repository) UsernameNormalizedExists(ctx context.Context, usernameNormalized string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username_normalized = $1)`, usernameNormalized)
}

func (r *Repository) exists(ctx context.Context, query string, arg string) (bool, error) {
	var found bool
	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, query, arg).Scan(&found)
	})
	if err != nil {
		return false, fmt.Errorf("failed to check uniqueness: %w", err)
	}
	return found, nil
}
