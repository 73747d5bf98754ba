package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/learnstack/support-service/internal/domain"
	"github.com/learnstack/support-service/internal/repository"
	"github.com/learnstack/support-service/internal/sla"
	"github.com/learnstack/support-service/internal/timeutil"
)

// LegacyTicketRecord is one ticket exported from the platform's former
// document store. Timestamp fields arrive in whatever shape the old backend
// persisted: epoch seconds, epoch milliseconds, date strings or nothing.
type LegacyTicketRecord struct {
	ExternalKey      string `json:"external_key"`
	RequesterID      string `json:"requester_id"`
	Title            string `json:"title"`
	Message          string `json:"message"`
	Priority         string `json:"priority"`
	Status           string `json:"status"`
	CreatedAt        any    `json:"created_at"`
	UpdatedAt        any    `json:"updated_at"`
	LastAgentReplyAt any    `json:"last_agent_reply_at"`
	HasAgentReply    bool   `json:"has_agent_reply"`
}

// ImportResult reports the outcome for one legacy record.
type ImportResult struct {
	ExternalKey string `json:"external_key"`
	TicketID    string `json:"ticket_id,omitempty"`
	Imported    bool   `json:"imported"`
	SLASkipped  bool   `json:"sla_skipped"`
	Reason      string `json:"reason,omitempty"`
}

// ImportService migrates legacy tickets into the relational store.
type ImportService struct {
	tickets repository.TicketRepository
	history repository.TicketHistoryRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewImportService builds the service.
func NewImportService(tickets repository.TicketRepository, history repository.TicketHistoryRepository, logger *zap.Logger, now func() time.Time) *ImportService {
	if now == nil {
		now = time.Now
	}
	return &ImportService{tickets: tickets, history: history, logger: logger, now: now}
}

// ImportTickets normalizes and persists a batch of legacy records. Records
// whose updated-at timestamp cannot be resolved are imported with SLA
// evaluation skipped and overdue left false; a record missing its required
// text fields is reported and skipped rather than failing the batch.
func (s *ImportService) ImportTickets(ctx context.Context, agentID string, records []LegacyTicketRecord) []ImportResult {
	results := make([]ImportResult, 0, len(records))
	now := s.now()

	for _, record := range records {
		result := ImportResult{ExternalKey: record.ExternalKey}

		title := strings.TrimSpace(record.Title)
		message := strings.TrimSpace(record.Message)
		if title == "" || message == "" || record.RequesterID == "" {
			result.Reason = "missing required fields"
			results = append(results, result)
			continue
		}

		priority := domain.TicketPriority(record.Priority)
		if _, ok := knownPriorities[priority]; !ok {
			priority = domain.TicketPriorityMedium
		}
		status := domain.TicketStatus(record.Status)
		if _, ok := knownStatuses[status]; !ok {
			status = domain.TicketStatusOpen
		}

		createdAt, createdKnown := timeutil.ToInstant(record.CreatedAt)
		if !createdKnown {
			createdAt = now
		}
		updatedAt, updatedKnown := timeutil.ToInstant(record.UpdatedAt)
		if !updatedKnown {
			updatedAt = createdAt
		}

		ticket := &domain.Ticket{
			ExternalKey:   record.ExternalKey,
			RequesterID:   record.RequesterID,
			Title:         title,
			Message:       message,
			Status:        status,
			Priority:      priority,
			HasAgentReply: record.HasAgentReply,
			CreatedAt:     createdAt,
			UpdatedAt:     updatedAt,
		}
		if replyAt, ok := timeutil.ToInstant(record.LastAgentReplyAt); ok {
			ticket.LastAgentReplyAt = &replyAt
			ticket.HasAgentReply = true
		}

		if updatedKnown {
			ticket.Overdue = sla.IsOverdue(updatedAt, priority, status, now)
		} else {
			// Unknown SLA clock: do not evaluate, treat as not overdue.
			result.SLASkipped = true
		}

		if ticket.ExternalKey == "" {
			ticket.ExternalKey = generateTicketKey()
			result.ExternalKey = ticket.ExternalKey
		}

		if err := s.tickets.Create(ctx, ticket); err != nil {
			s.logger.Warn("legacy ticket import failed",
				zap.String("external_key", ticket.ExternalKey), zap.Error(err))
			result.Reason = "persist failed"
			results = append(results, result)
			continue
		}
		s.recordImport(ctx, agentID, ticket, updatedKnown)

		result.TicketID = ticket.ID
		result.Imported = true
		results = append(results, result)
	}

	return results
}

func (s *ImportService) recordImport(ctx context.Context, agentID string, ticket *domain.Ticket, slaEvaluated bool) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:      ticket.ID,
		ChangedByType: domain.SenderTypeAgent,
		ChangedByID:   &agentID,
		ChangeType:    domain.ChangeTypeImport,
		OldValue:      map[string]any{},
		NewValue: map[string]any{
			"external_key":  ticket.ExternalKey,
			"sla_evaluated": slaEvaluated,
		},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("import history entry failed", zap.Error(err))
	}
}
