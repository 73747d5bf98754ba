package sla

import (
	"fmt"
	"strings"
	"time"

	"github.com/learnstack/support-service/internal/domain"
)

// MaxReplyLength bounds the size of a single agent reply.
const MaxReplyLength = 2000

// RejectedReplyError reports a reply that violates policy. The ticket is left
// untouched when it is returned.
type RejectedReplyError struct {
	Reason string
}

func (e *RejectedReplyError) Error() string {
	return e.Reason
}

// ReplyMessage is the thread entry produced by an accepted reply.
type ReplyMessage struct {
	SenderID  string
	Body      string
	CreatedAt time.Time
}

// ReplyOutcome holds the ticket fields recomputed by an agent reply. Changed
// is false for a trimmed-empty reply, in which case no other field is
// meaningful and nothing may be persisted.
type ReplyOutcome struct {
	Changed          bool
	UpdatedAt        time.Time
	Overdue          bool
	HasAgentReply    bool
	LastAgentReplyAt time.Time
	Message          ReplyMessage
}

// ApplyAgentReply computes the state transition for an agent replying to a
// ticket. Status is deliberately left unchanged by a reply; only the SLA clock
// and the reply markers move. The transition is not idempotent: the same reply
// applied twice appends two messages and advances updatedAt twice.
func ApplyAgentReply(priority domain.TicketPriority, status domain.TicketStatus, agentID, replyText string, submittedAt time.Time) (ReplyOutcome, error) {
	body := strings.TrimSpace(replyText)
	if body == "" {
		return ReplyOutcome{}, nil
	}
	if len([]rune(body)) > MaxReplyLength {
		return ReplyOutcome{}, &RejectedReplyError{
			Reason: fmt.Sprintf("reply exceeds %d characters", MaxReplyLength),
		}
	}

	return ReplyOutcome{
		Changed:          true,
		UpdatedAt:        submittedAt,
		Overdue:          IsOverdue(submittedAt, priority, status, submittedAt),
		HasAgentReply:    true,
		LastAgentReplyAt: submittedAt,
		Message: ReplyMessage{
			SenderID:  agentID,
			Body:      body,
			CreatedAt: submittedAt,
		},
	}, nil
}
