package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/learnstack/support-service/internal/domain"
	"github.com/learnstack/support-service/internal/events"
	"github.com/learnstack/support-service/internal/repository"
	"github.com/learnstack/support-service/internal/sla"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	messages   repository.TicketMessageRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.TicketMessageRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Now         func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title    string
	Message  string
	Priority domain.TicketPriority
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Overdue     *bool
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

var knownPriorities = map[domain.TicketPriority]struct{}{
	domain.TicketPriorityLow:    {},
	domain.TicketPriorityMedium: {},
	domain.TicketPriorityHigh:   {},
	domain.TicketPriorityUrgent: {},
}

var knownStatuses = map[domain.TicketStatus]struct{}{
	domain.TicketStatusOpen:     {},
	domain.TicketStatusPending:  {},
	domain.TicketStatusResolved: {},
	domain.TicketStatusClosed:   {},
}

// CreateTicket creates a ticket for a user. A fresh ticket starts with an
// elapsed time of zero, so overdue is always false at creation.
func (s *TicketService) CreateTicket(ctx context.Context, userID string, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	message := strings.TrimSpace(input.Message)
	if title == "" || message == "" {
		return nil, errors.New("title and message required")
	}

	priority := input.Priority
	if _, ok := knownPriorities[priority]; !ok {
		priority = domain.TicketPriorityMedium
	}

	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(),
		RequesterID: userID,
		Title:       title,
		Message:     message,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		Overdue:     false,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	msg := &domain.TicketMessage{
		TicketID:   ticket.ID,
		SenderType: domain.SenderTypeUser,
		SenderID:   &ticket.RequesterID,
		Body:       message,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    userActor(userID),
		Payload: events.TicketCreatedPayload{
			Priority: ticket.Priority,
			Title:    ticket.Title,
		},
	})
	return ticket, nil
}

// ListUserTickets returns paginated tickets for a requester.
func (s *TicketService) ListUserTickets(ctx context.Context, userID string, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := s.toRepoFilter(filter)
	repoFilter.RequesterID = &userID
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// ListTickets returns tickets for the agent workbench.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, s.toRepoFilter(filter))
}

// GetTicketForUser fetches a ticket ensuring ownership.
func (s *TicketService) GetTicketForUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, []domain.TicketMessage, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if ticket.RequesterID != userID {
		return nil, nil, errors.New("access denied")
	}
	msgs, err := s.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, msgs, nil
}

// GetTicket fetches a ticket with its thread for agents.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, []domain.TicketMessage, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, msgs, nil
}

// AddUserMessage appends a follow-up message from the requester. User
// messages do not move the SLA clock or the reply markers; those belong to
// agent replies only.
func (s *TicketService) AddUserMessage(ctx context.Context, userID, ticketID, body string) (*domain.TicketMessage, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.RequesterID != userID {
		return nil, errors.New("access denied")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, errors.New("message body required")
	}

	msg := &domain.TicketMessage{
		TicketID:   ticket.ID,
		SenderType: domain.SenderTypeUser,
		SenderID:   &userID,
		Body:       body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ReplyAsAgent applies the reply transition for an agent answering a ticket:
// the SLA clock resets to the submission instant, overdue is recomputed,
// reply markers are set and the reply joins the thread. Status is never
// changed by a reply. An empty reply is silently a no-op; an over-length
// reply is rejected without touching the ticket.
func (s *TicketService) ReplyAsAgent(ctx context.Context, agentID, ticketID, body string) (*domain.Ticket, *domain.TicketMessage, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}

	wasOverdue := ticket.Overdue
	outcome, err := sla.ApplyAgentReply(ticket.Priority, ticket.Status, agentID, body, s.now())
	if err != nil {
		return nil, nil, err
	}
	if !outcome.Changed {
		return ticket, nil, nil
	}

	ticket.UpdatedAt = outcome.UpdatedAt
	ticket.Overdue = outcome.Overdue
	ticket.HasAgentReply = outcome.HasAgentReply
	lastReply := outcome.LastAgentReplyAt
	ticket.LastAgentReplyAt = &lastReply
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, nil, err
	}

	msg := &domain.TicketMessage{
		TicketID:   ticket.ID,
		SenderType: domain.SenderTypeAgent,
		SenderID:   &agentID,
		Body:       outcome.Message.Body,
		CreatedAt:  outcome.Message.CreatedAt,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventAgentReplied,
		TicketID: ticket.ID,
		Actor:    agentActor(agentID),
		Payload: events.AgentRepliedPayload{
			MessageID:    msg.ID,
			OverdueReset: wasOverdue && !ticket.Overdue,
			BodyPreview:  stringPreview(msg.Body, 120),
		},
	})
	return ticket, msg, nil
}

// UpdateStatus performs a manual status change by an agent and refreshes the
// cached overdue flag against the new state.
func (s *TicketService) UpdateStatus(ctx context.Context, agentID, ticketID string, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error) {
	if _, ok := knownStatuses[newStatus]; !ok {
		return nil, errors.New("unknown status")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	now := s.now()
	ticket.Status = newStatus
	ticket.UpdatedAt = now
	ticket.Overdue = sla.IsOverdue(ticket.UpdatedAt, ticket.Priority, ticket.Status, now)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.recordStatusChange(ctx, agentID, ticket.ID, oldStatus, newStatus, comment); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    agentActor(agentID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
	return ticket, nil
}

// UpdatePriority changes ticket priority by an agent; overdue is recomputed
// under the new budget.
func (s *TicketService) UpdatePriority(ctx context.Context, agentID, ticketID string, newPriority domain.TicketPriority) (*domain.Ticket, error) {
	if _, ok := knownPriorities[newPriority]; !ok {
		return nil, errors.New("unknown priority")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldPriority := ticket.Priority
	now := s.now()
	ticket.Priority = newPriority
	ticket.UpdatedAt = now
	ticket.Overdue = sla.IsOverdue(ticket.UpdatedAt, ticket.Priority, ticket.Status, now)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.recordPriorityChange(ctx, agentID, ticket.ID, oldPriority, newPriority); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: ticket.ID,
		Actor:    agentActor(agentID),
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: newPriority,
		},
	})
	return ticket, nil
}

// CloseTicketAsUser lets a requester close their own resolved ticket.
func (s *TicketService) CloseTicketAsUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.RequesterID != userID {
		return nil, errors.New("access denied")
	}
	if ticket.Status != domain.TicketStatusResolved {
		return nil, errors.New("ticket cannot be closed in current status")
	}

	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusClosed
	ticket.UpdatedAt = s.now()
	ticket.Overdue = false
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    userActor(userID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Comment:   "closed by requester",
		},
	})
	return ticket, nil
}

// ListHistory returns audit entries for agents.
func (s *TicketService) ListHistory(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.history.ListByTicket(ctx, ticketID, limit, offset)
}

func (s *TicketService) toRepoFilter(filter TicketListFilter) repository.TicketFilter {
	return repository.TicketFilter{
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		Overdue:     filter.Overdue,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
}

func (s *TicketService) recordStatusChange(ctx context.Context, agentID, ticketID string, oldStatus, newStatus domain.TicketStatus, comment string) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: domain.SenderTypeAgent,
		ChangedByID:   &agentID,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue: map[string]any{
			"status": oldStatus,
		},
		NewValue: map[string]any{
			"status":  newStatus,
			"comment": comment,
		},
	}
	return s.history.Create(ctx, entry)
}

func (s *TicketService) recordPriorityChange(ctx context.Context, agentID, ticketID string, oldPriority, newPriority domain.TicketPriority) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: domain.SenderTypeAgent,
		ChangedByID:   &agentID,
		ChangeType:    domain.ChangeTypePriority,
		OldValue: map[string]any{
			"priority": oldPriority,
		},
		NewValue: map[string]any{
			"priority": newPriority,
		},
	}
	return s.history.Create(ctx, entry)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateTicketKey() string {
	return "SUP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func userActor(userID string) events.Actor {
	return events.Actor{
		Type:   domain.SubjectTypeUser,
		UserID: &userID,
	}
}

func agentActor(agentID string) events.Actor {
	return events.Actor{
		Type:    domain.SubjectTypeAgent,
		AgentID: &agentID,
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
