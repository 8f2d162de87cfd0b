package repo

import (
	"context"
	"errors"
	"time"

	"github.com/ricardobn/wabridge/internal/model"
)

var (
	// ErrDuplicateMessage means a row with the same message_id already
	// exists. Duplicate policy is reject-second: the original row wins and
	// the caller decides whether the conflict matters.
	ErrDuplicateMessage = errors.New("duplicate message id")

	// ErrStoreUnavailable wraps connectivity and pool failures.
	ErrStoreUnavailable = errors.New("message store unavailable")
)

type MessageStore interface {
	Insert(ctx context.Context, msg model.StoredMessage) error
	ListRecent(ctx context.Context, limit, offset int) ([]model.StoredMessage, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
