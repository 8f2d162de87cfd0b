package webhook

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ricardobn/wabridge/internal/model"
)

const businessAccountObject = "whatsapp_business_account"

// Notification is the Cloud API webhook delivery envelope. Everything below
// the top level is optional on the wire; absent lists decode to nil and
// optional objects are pointers so presence can be checked explicitly.
type Notification struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

type ChangeValue struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         *Metadata `json:"metadata,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Message struct {
	From      string       `json:"from"`
	ID        string       `json:"id"`
	Timestamp string       `json:"timestamp"`
	Type      string       `json:"type"`
	Text      *TextContent `json:"text,omitempty"`
}

type TextContent struct {
	Body string `json:"body"`
}

// ParseNotification normalizes a raw webhook delivery into message records,
// preserving payload order. The platform batches: one delivery may carry
// several entries, each with several changes and messages, and any level may
// be absent. A malformed or unsupported sub-record is logged and skipped
// without affecting its siblings; the worst outcome is an empty slice.
func ParseNotification(raw []byte, logger *slog.Logger) []model.StoredMessage {
	var n Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		logger.Warn("webhook payload is not valid json", "error", err)
		return nil
	}

	if n.Object != businessAccountObject {
		logger.Warn("ignoring webhook for unexpected object", "object", n.Object)
		return nil
	}

	var out []model.StoredMessage
	for _, entry := range n.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			for _, msg := range change.Value.Messages {
				rec, err := normalize(msg, change.Value.Metadata)
				if err != nil {
					logger.Warn("skipping inbound message", "message_id", msg.ID, "reason", err)
					continue
				}
				out = append(out, rec)
			}
		}
	}
	return out
}

func normalize(msg Message, meta *Metadata) (model.StoredMessage, error) {
	var zero model.StoredMessage

	if msg.Type != "text" {
		// Media/interactive variants are unsupported, not an error.
		return zero, fmt.Errorf("unsupported message type %q", msg.Type)
	}
	if msg.ID == "" {
		return zero, fmt.Errorf("missing message id")
	}
	if msg.From == "" {
		return zero, fmt.Errorf("missing sender")
	}
	if msg.Text == nil || msg.Text.Body == "" {
		return zero, fmt.Errorf("missing text body")
	}
	if meta == nil || meta.DisplayPhoneNumber == "" {
		return zero, fmt.Errorf("missing metadata display_phone_number")
	}

	secs, err := strconv.ParseInt(msg.Timestamp, 10, 64)
	if err != nil {
		return zero, fmt.Errorf("invalid timestamp %q", msg.Timestamp)
	}

	return model.StoredMessage{
		MessageID: msg.ID,
		FromPhone: msg.From,
		ToPhone:   meta.DisplayPhoneNumber,
		Body:      msg.Text.Body,
		Type:      model.Received,
		Timestamp: time.Unix(secs, 0).UTC(),
	}, nil
}
