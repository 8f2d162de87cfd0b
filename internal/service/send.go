package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/ricardobn/wabridge/internal/model"
	"github.com/ricardobn/wabridge/internal/repo"
)

// SendClient is the outbound side of the bridge.
type SendClient interface {
	SendText(ctx context.Context, to, body string) (remoteMessageID string, err error)
}

// Sending delivers outbound messages and records them in the log.
type Sending struct {
	client     SendClient
	store      repo.MessageStore
	ownPhoneID string
	logger     *slog.Logger
	now        func() time.Time
}

func NewSending(client SendClient, store repo.MessageStore, ownPhoneID string, logger *slog.Logger) *Sending {
	return &Sending{
		client:     client,
		store:      store,
		ownPhoneID: ownPhoneID,
		logger:     logger,
		now:        time.Now,
	}
}

// Send delivers one text message and persists a sent record. A failed send
// is returned as-is and nothing is stored: the log must never claim a
// message went out when it did not. A failed store after a successful send
// is only logged, since the message genuinely left the building.
func (s *Sending) Send(ctx context.Context, to, body string) (string, error) {
	remoteID, err := s.client.SendText(ctx, to, body)
	if err != nil {
		return "", err
	}

	rec := model.StoredMessage{
		MessageID: remoteID,
		FromPhone: s.ownPhoneID,
		ToPhone:   to,
		Body:      body,
		Type:      model.Sent,
		Timestamp: s.now().UTC(),
	}

	if err := s.store.Insert(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Error("sent message not recorded", "message_id", remoteID, "error", err)
	}

	return remoteID, nil
}
