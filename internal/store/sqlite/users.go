package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marklet/marklet/internal/domain"
	"github.com/marklet/marklet/internal/logger"
)

// UpsertUser finds or creates the user row for an OAuth (provider,
// subject) pair and returns the resulting identity. The email is
// refreshed on every login since providers let users change it.
func (s *Store) UpsertUser(ctx context.Context, provider, subject, email string) (domain.Identity, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM users WHERE provider = ? AND subject = ?`,
		provider, subject).Scan(&id)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.New().String()
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO users (id, email, provider, subject, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			id, email, provider, subject, time.Now().UTC())
		if err != nil {
			return domain.Identity{}, fmt.Errorf("inserting user: %w", err)
		}
		s.logger.Info("new user registered",
			logger.String("provider", provider),
			logger.String("user_id", id))

	case err != nil:
		return domain.Identity{}, fmt.Errorf("looking up user: %w", err)

	default:
		if _, err := s.db.ExecContext(ctx, `
			UPDATE users SET email = ? WHERE id = ?`, email, id); err != nil {
			return domain.Identity{}, fmt.Errorf("updating user email: %w", err)
		}
	}

	return domain.Identity{ID: id, Email: email}, nil
}

// GetUser returns the identity for a user id.
func (s *Store) GetUser(ctx context.Context, id string) (domain.Identity, error) {
	var ident domain.Identity
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email FROM users WHERE id = ?`, id).Scan(&ident.ID, &ident.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Identity{}, ErrNotFound
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("getting user: %w", err)
	}
	return ident, nil
}
