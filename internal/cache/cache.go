package cache

import "context"

// Deduper is a best-effort fast path for spotting redelivered webhook
// messages before they reach the database. The unique index on message_id
// remains the source of truth; a Deduper is allowed to forget.
type Deduper interface {
	Seen(ctx context.Context, messageID string) (bool, error)
	MarkSeen(ctx context.Context, messageID string) error
}
