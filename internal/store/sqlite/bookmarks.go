package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marklet/marklet/internal/domain"
)

// ListBookmarks returns all bookmarks owned by ownerID, newest first.
// The id tiebreak keeps the order stable within one fetch when two rows
// share a created_at timestamp.
func (s *Store) ListBookmarks(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, url, owner_id, created_at
		FROM bookmarks
		WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := make([]domain.Bookmark, 0)
	for rows.Next() {
		var b domain.Bookmark
		if err := rows.Scan(&b.ID, &b.Title, &b.URL, &b.OwnerID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bookmarks: %w", err)
	}
	return bookmarks, nil
}

// InsertBookmark stores a new bookmark for ownerID and returns the
// created row with its server-assigned id and timestamp.
func (s *Store) InsertBookmark(ctx context.Context, ownerID string, draft domain.Draft) (domain.Bookmark, error) {
	b := domain.Bookmark{
		ID:        uuid.New().String(),
		Title:     draft.Title,
		URL:       draft.URL,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookmarks (id, title, url, owner_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.URL, b.OwnerID, b.CreatedAt)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("inserting bookmark: %w", err)
	}
	return b, nil
}

// DeleteBookmark removes the bookmark with the given id if and only if
// it is owned by ownerID. Deleting a foreign or missing row returns
// ErrNotFound and affects nothing.
func (s *Store) DeleteBookmark(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM bookmarks WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting bookmark: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting bookmark: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
