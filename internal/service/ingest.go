package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ricardobn/wabridge/internal/cache"
	"github.com/ricardobn/wabridge/internal/repo"
	"github.com/ricardobn/wabridge/internal/webhook"
)

// Ingestion turns raw webhook deliveries into message log rows.
type Ingestion struct {
	store  repo.MessageStore
	dedup  cache.Deduper // nil when Redis is not configured
	logger *slog.Logger
}

func NewIngestion(store repo.MessageStore, dedup cache.Deduper, logger *slog.Logger) *Ingestion {
	return &Ingestion{store: store, dedup: dedup, logger: logger}
}

// Ingest parses a notification and persists each normalized message. The
// platform retries deliveries that are not acknowledged with a 200, so a
// failure on one message must never sink its batch siblings: per-message
// failures are logged and skipped, and the caller always acknowledges.
// Returns the number of messages actually stored.
func (p *Ingestion) Ingest(ctx context.Context, raw []byte) int {
	// Writes outlive the inbound connection. A dropped webhook request
	// should not abort a persistence already underway.
	ctx = context.WithoutCancel(ctx)

	msgs := webhook.ParseNotification(raw, p.logger)

	stored := 0
	for _, m := range msgs {
		if p.alreadySeen(ctx, m.MessageID) {
			p.logger.Info("skipping redelivered message", "message_id", m.MessageID)
			continue
		}

		if err := p.store.Insert(ctx, m); err != nil {
			if errors.Is(err, repo.ErrDuplicateMessage) {
				p.logger.Info("duplicate message already stored", "message_id", m.MessageID)
			} else {
				p.logger.Error("failed to store inbound message", "message_id", m.MessageID, "error", err)
			}
			continue
		}

		stored++
		p.markSeen(ctx, m.MessageID)
	}

	if len(msgs) > 0 {
		p.logger.Info("webhook batch processed", "parsed", len(msgs), "stored", stored)
	}
	return stored
}

// alreadySeen is best effort: a cache error means "not seen" and the
// database unique index catches the rest.
func (p *Ingestion) alreadySeen(ctx context.Context, messageID string) bool {
	if p.dedup == nil {
		return false
	}
	seen, err := p.dedup.Seen(ctx, messageID)
	if err != nil {
		p.logger.Warn("dedup cache lookup failed", "message_id", messageID, "error", err)
		return false
	}
	return seen
}

func (p *Ingestion) markSeen(ctx context.Context, messageID string) {
	if p.dedup == nil {
		return
	}
	if err := p.dedup.MarkSeen(ctx, messageID); err != nil {
		p.logger.Warn("dedup cache write failed", "message_id", messageID, "error", err)
	}
}
