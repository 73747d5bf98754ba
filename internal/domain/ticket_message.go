package domain

import "time"

// MessageSenderType indicates who authored a thread message.
type MessageSenderType string

const (
	SenderTypeUser   MessageSenderType = "user"
	SenderTypeAgent  MessageSenderType = "agent"
	SenderTypeSystem MessageSenderType = "system"
)

// TicketMessage is one entry in a ticket's thread. The thread is append-only:
// entries are never mutated or deleted once created.
type TicketMessage struct {
	ID         string
	TicketID   string
	SenderType MessageSenderType
	SenderID   *string
	Body       string
	CreatedAt  time.Time
}
