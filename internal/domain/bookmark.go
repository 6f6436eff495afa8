package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Bookmark represents a single saved link owned by one identity.
// The server is the source of truth; clients only hold mirrored copies.
type Bookmark struct {
	// ID is the canonical unique identifier, assigned by the server
	// at insert time. Stable for the lifetime of the row.
	ID string `json:"id"`

	// Title is the user-facing label for the link.
	Title string `json:"title"`

	// URL is the full external URL the bookmark points to.
	URL string `json:"url"`

	// OwnerID references the identity that owns this bookmark.
	// Every query and mutation is scoped by it.
	OwnerID string `json:"owner_id"`

	// CreatedAt is set by the server when the row is inserted.
	// Listings are ordered by it, newest first.
	CreatedAt time.Time `json:"created_at"`
}

// Draft is the client-supplied part of a bookmark, before the server
// assigns an ID, owner and timestamp.
type Draft struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Validate checks that a draft is complete enough to be stored.
// Both fields must be non-empty and the URL must parse as http(s).
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("bookmark title is required")
	}
	raw := strings.TrimSpace(d.URL)
	if raw == "" {
		return fmt.Errorf("bookmark url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid bookmark url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("bookmark url must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("bookmark url is missing a host")
	}
	return nil
}
