package feed

// Change operations carried on the feed.
const (
	OpInsert = "insert"
	OpDelete = "delete"
)

// Channel is the redis pub/sub channel shared by all server replicas.
const Channel = "marklet:changes"

// Event is a row-level change notification. It carries no row data:
// subscribers are expected to refetch, not to apply deltas.
type Event struct {
	Table   string `json:"table"`
	OwnerID string `json:"owner_id"`
	Op      string `json:"op"`
}
