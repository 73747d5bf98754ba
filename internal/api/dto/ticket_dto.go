package dto

import (
	"time"

	"github.com/learnstack/support-service/internal/domain"
	"github.com/learnstack/support-service/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title    string                `json:"title"`
	Message  string                `json:"message"`
	Priority domain.TicketPriority `json:"priority"`
}

// CreateMessageRequest payload for both user follow-ups and agent replies.
type CreateMessageRequest struct {
	Body string `json:"body"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status  domain.TicketStatus `json:"status"`
	Comment string              `json:"comment"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// ImportTicketsRequest payload.
type ImportTicketsRequest struct {
	Records []service.LegacyTicketRecord `json:"records"`
}

// TicketSummary response.
type TicketSummary struct {
	ID               string                `json:"id"`
	ExternalKey      string                `json:"external_key"`
	Title            string                `json:"title"`
	Status           domain.TicketStatus   `json:"status"`
	Priority         domain.TicketPriority `json:"priority"`
	Overdue          bool                  `json:"overdue"`
	HasAgentReply    bool                  `json:"has_agent_reply"`
	LastAgentReplyAt *time.Time            `json:"last_agent_reply_at"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID               string                  `json:"id"`
	ExternalKey      string                  `json:"external_key"`
	Title            string                  `json:"title"`
	Message          string                  `json:"message"`
	Status           domain.TicketStatus     `json:"status"`
	Priority         domain.TicketPriority   `json:"priority"`
	Overdue          bool                    `json:"overdue"`
	HasAgentReply    bool                    `json:"has_agent_reply"`
	LastAgentReplyAt *time.Time              `json:"last_agent_reply_at"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
	Messages         []TicketMessageResponse `json:"messages"`
}

// TicketMessageResponse represents a thread message.
type TicketMessageResponse struct {
	ID         string                   `json:"id"`
	SenderType domain.MessageSenderType `json:"sender_type"`
	SenderID   *string                  `json:"sender_id"`
	Body       string                   `json:"body"`
	CreatedAt  time.Time                `json:"created_at"`
}

// TicketHistoryResponse represents one audit entry.
type TicketHistoryResponse struct {
	ID            string                   `json:"id"`
	ChangeType    domain.TicketChangeType  `json:"change_type"`
	ChangedByType domain.MessageSenderType `json:"changed_by_type"`
	ChangedByID   *string                  `json:"changed_by_id"`
	OldValue      map[string]any           `json:"old_value"`
	NewValue      map[string]any           `json:"new_value"`
	CreatedAt     time.Time                `json:"created_at"`
}
