package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marklet/marklet/internal/auth"
	"github.com/marklet/marklet/internal/domain"
	"github.com/marklet/marklet/internal/feed"
	"github.com/marklet/marklet/internal/logger"
	"github.com/marklet/marklet/internal/sources/providers"
)

// BookmarkStore is the owner-scoped persistence boundary for bookmarks.
type BookmarkStore interface {
	ListBookmarks(ctx context.Context, ownerID string) ([]domain.Bookmark, error)
	InsertBookmark(ctx context.Context, ownerID string, draft domain.Draft) (domain.Bookmark, error)
	DeleteBookmark(ctx context.Context, ownerID, id string) error
}

// UserStore persists identities discovered through OAuth logins.
type UserStore interface {
	UpsertUser(ctx context.Context, provider, subject, email string) (domain.Identity, error)
	GetUser(ctx context.Context, id string) (domain.Identity, error)
}

// SessionStore tracks active sessions and pending OAuth state.
type SessionStore interface {
	SaveSession(ctx context.Context, jti, userID string, ttl time.Duration) error
	IsActive(ctx context.Context, jti string) (bool, error)
	DeleteSession(ctx context.Context, jti string) error
	SaveState(ctx context.Context, state, provider string, ttl time.Duration) error
	TakeState(ctx context.Context, state string) (string, error)
}

// ChangePublisher announces committed bookmark writes on the feed bus.
type ChangePublisher interface {
	BookmarksChanged(ctx context.Context, ownerID, op string) error
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	AllowedHosts []string // Host headers allowed to access the server
	AllowedCIDRS []string // IPs allowed to access healthz/readyz endpoints
	TrustProxy   bool     // true if running behind a trusted reverse proxy

	Bookmarks BookmarkStore
	Users     UserStore
	Sessions  SessionStore
	Publisher ChangePublisher
	Hub       *feed.Hub

	Tokens     *auth.Tokens
	Providers  *providers.Registry
	SessionTTL time.Duration

	WriteBurst        int // rate limit burst for insert/delete
	WriteRefillPerMin int // rate limit refill per minute

	RedisClient *redis.Client // health reporting only
}
