package feed

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/marklet/marklet/internal/logger"
)

// subscriberBufferSize is the channel buffer for each subscriber.
// Slow consumers drop events instead of blocking the hub; a dropped
// notification at worst delays a resync until the next change.
const subscriberBufferSize = 16

// Hub fans incoming change events out to local subscribers, keyed by
// owner id. Events arrive from the shared redis channel, so a hub
// sees writes committed on any server replica.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan Event // ownerID -> subID -> ch
	logger      logger.Logger
}

// NewHub creates a hub with no subscribers.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]map[string]chan Event),
		logger:      log.Named("feed"),
	}
}

// Run consumes the redis change channel and dispatches events until
// ctx is cancelled. It blocks; run it on its own goroutine.
func (h *Hub) Run(ctx context.Context, client *redis.Client) error {
	pubsub := client.Subscribe(ctx, Channel)
	defer pubsub.Close()

	// Fail early if the subscription could not be established.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	h.logger.Info("change feed attached", logger.String("channel", Channel))

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				h.logger.Warn("discarding malformed change event", logger.Error(err))
				continue
			}
			h.Dispatch(ev)
		case <-ctx.Done():
			return nil
		}
	}
}

// Subscribe registers a subscriber for changes on one owner's rows.
// The returned channel receives events until Unsubscribe is called or
// ctx is cancelled, whichever comes first.
func (h *Hub) Subscribe(ctx context.Context, ownerID string) (<-chan Event, string) {
	subID := uuid.New().String()
	ch := make(chan Event, subscriberBufferSize)

	h.mu.Lock()
	if _, ok := h.subscribers[ownerID]; !ok {
		h.subscribers[ownerID] = make(map[string]chan Event)
	}
	h.subscribers[ownerID][subID] = ch
	h.mu.Unlock()

	h.logger.Debug("subscriber added",
		logger.String("owner_id", ownerID),
		logger.String("sub_id", subID))

	// Auto-cleanup on context cancellation
	go func() {
		<-ctx.Done()
		h.Unsubscribe(ownerID, subID)
	}()

	return ch, subID
}

// Dispatch delivers an event to every subscriber of its owner.
// Subscribers of other owners never see it. The sends happen under the
// read lock: Unsubscribe and Close close channels under the write lock,
// so a send can never race a close. The sends are non-blocking, so the
// lock is held only briefly even with slow subscribers.
func (h *Hub) Dispatch(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers[ev.OwnerID] {
		select {
		case ch <- ev:
		default:
			h.logger.Debug("dropped event for slow subscriber",
				logger.String("owner_id", ev.OwnerID))
		}
	}
}

// SubscriberCount reports how many subscriptions an owner currently has.
func (h *Hub) SubscriberCount(ownerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[ownerID])
}

// Unsubscribe removes a subscription and closes its channel. Safe to
// call more than once for the same subscription.
func (h *Hub) Unsubscribe(ownerID, subID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[ownerID]
	if !ok {
		return
	}
	ch, exists := subs[subID]
	if !exists {
		return
	}

	delete(subs, subID)
	close(ch)

	if len(subs) == 0 {
		delete(h.subscribers, ownerID)
	}

	h.logger.Debug("subscriber removed",
		logger.String("owner_id", ownerID),
		logger.String("sub_id", subID))
}

// Close closes all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ownerID, subs := range h.subscribers {
		for subID, ch := range subs {
			close(ch)
			delete(subs, subID)
		}
		delete(h.subscribers, ownerID)
	}
}
