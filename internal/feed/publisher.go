package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher pushes change events onto the shared redis channel after
// a write has been committed. Every server replica's Hub receives
// them, so subscribers land on any replica and still see all changes.
type Publisher struct {
	client *redis.Client
}

// NewPublisher creates a publisher on the given redis client.
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// BookmarksChanged announces a committed insert or delete on the
// bookmarks collection of the given owner.
func (p *Publisher) BookmarksChanged(ctx context.Context, ownerID, op string) error {
	data, err := json.Marshal(Event{Table: "bookmarks", OwnerID: ownerID, Op: op})
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := p.client.Publish(ctx, Channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}
