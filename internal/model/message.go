package model

import "time"

type MessageType string

const (
	Sent     MessageType = "sent"
	Received MessageType = "received"
)

// StoredMessage is one row of the message log. MessageID is the
// platform-assigned id and is unique across the table.
type StoredMessage struct {
	MessageID string
	FromPhone string
	ToPhone   string
	Body      string
	Type      MessageType
	Timestamp time.Time
}
