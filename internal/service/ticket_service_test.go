package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnstack/support-service/internal/domain"
	"github.com/learnstack/support-service/internal/events"
	"github.com/learnstack/support-service/internal/sla"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc        *TicketService
	tickets    *memTicketRepo
	messages   *memMessageRepo
	history    *memHistoryRepo
	dispatcher events.Dispatcher
	published  *[]events.Event
	now        *time.Time
}

func newFixture() *fixture {
	now := baseTime
	clock := func() time.Time { return now }

	tickets := newMemTicketRepo(clock)
	messages := newMemMessageRepo(clock)
	history := &memHistoryRepo{}
	dispatcher := events.NewInMemoryDispatcher()

	published := []events.Event{}
	record := func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventAgentReplied,
		events.EventTicketStatusChanged,
		events.EventTicketPriorityChanged,
	} {
		dispatcher.Subscribe(eventType, record)
	}

	f := &fixture{
		tickets:    tickets,
		messages:   messages,
		history:    history,
		dispatcher: dispatcher,
		published:  &published,
		now:        &now,
	}
	f.svc = NewTicketService(TicketDependencies{
		TicketRepo:  tickets,
		MessageRepo: messages,
		HistoryRepo: history,
		Dispatcher:  dispatcher,
		Now:         func() time.Time { return *f.now },
	})
	return f
}

func (f *fixture) advance(d time.Duration) {
	*f.now = f.now.Add(d)
}

func (f *fixture) seedTicket(t *testing.T, priority domain.TicketPriority, status domain.TicketStatus) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		ExternalKey: "SUP-SEED0001",
		RequesterID: "user-1",
		Title:       "cannot open course video",
		Message:     "the player shows a black screen",
		Status:      status,
		Priority:    priority,
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))
	return ticket
}

func TestCreateTicketStartsFresh(t *testing.T) {
	f := newFixture()

	ticket, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Title:    "  billing question  ",
		Message:  "charged twice for the same course",
		Priority: domain.TicketPriorityHigh,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityHigh, ticket.Priority)
	assert.False(t, ticket.Overdue)
	assert.False(t, ticket.HasAgentReply)
	assert.Equal(t, "billing question", ticket.Title)
	assert.True(t, strings.HasPrefix(ticket.ExternalKey, "SUP-"))

	// The opening message joins the thread.
	msgs, err := f.messages.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.SenderTypeUser, msgs[0].SenderType)

	require.Len(t, *f.published, 1)
	assert.Equal(t, events.EventTicketCreated, (*f.published)[0].Type)
}

func TestCreateTicketUnknownPriorityDefaultsToMedium(t *testing.T) {
	f := newFixture()

	ticket, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Title:    "question",
		Message:  "body",
		Priority: domain.TicketPriority("blocker"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
}

func TestCreateTicketRequiresTitleAndMessage(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{Title: "  ", Message: "x"})
	assert.Error(t, err)
}

func TestReplyAsAgentResetsOverdueClock(t *testing.T) {
	f := newFixture()
	seeded := f.seedTicket(t, domain.TicketPriorityUrgent, domain.TicketStatusPending)
	// Mark the cached flag the way the sweep would have.
	require.NoError(t, f.tickets.SetOverdue(context.Background(), seeded.ID, true))

	f.advance(100 * time.Hour)
	body := strings.Repeat("x", 50)
	ticket, msg, err := f.svc.ReplyAsAgent(context.Background(), "agent-7", seeded.ID, body)
	require.NoError(t, err)
	require.NotNil(t, msg)

	submittedAt := baseTime.Add(100 * time.Hour)
	assert.False(t, ticket.Overdue)
	assert.True(t, ticket.HasAgentReply)
	assert.Equal(t, submittedAt, ticket.UpdatedAt)
	require.NotNil(t, ticket.LastAgentReplyAt)
	assert.Equal(t, submittedAt, *ticket.LastAgentReplyAt)
	assert.Equal(t, domain.TicketStatusPending, ticket.Status)

	msgs, err := f.messages.ListByTicket(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.SenderTypeAgent, msgs[0].SenderType)
	assert.Equal(t, body, msgs[0].Body)

	require.Len(t, *f.published, 1)
	event := (*f.published)[0]
	assert.Equal(t, events.EventAgentReplied, event.Type)
	payload, ok := event.Payload.(events.AgentRepliedPayload)
	require.True(t, ok)
	assert.True(t, payload.OverdueReset)
}

func TestReplyAsAgentEmptyBodyIsNoop(t *testing.T) {
	f := newFixture()
	seeded := f.seedTicket(t, domain.TicketPriorityMedium, domain.TicketStatusOpen)

	ticket, msg, err := f.svc.ReplyAsAgent(context.Background(), "agent-1", seeded.ID, "   \n ")
	require.NoError(t, err)
	assert.Nil(t, msg)
	assert.False(t, ticket.HasAgentReply)
	assert.Equal(t, seeded.UpdatedAt, ticket.UpdatedAt)

	msgs, err := f.messages.ListByTicket(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Empty(t, *f.published)
}

func TestReplyAsAgentOverLimitRejected(t *testing.T) {
	f := newFixture()
	seeded := f.seedTicket(t, domain.TicketPriorityMedium, domain.TicketStatusOpen)

	_, _, err := f.svc.ReplyAsAgent(context.Background(), "agent-1", seeded.ID, strings.Repeat("a", 2001))
	var rejected *sla.RejectedReplyError
	require.ErrorAs(t, err, &rejected)

	// Ticket untouched.
	stored, err := f.tickets.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasAgentReply)
	assert.Equal(t, seeded.UpdatedAt, stored.UpdatedAt)
	msgs, _ := f.messages.ListByTicket(context.Background(), seeded.ID)
	assert.Empty(t, msgs)
}

func TestReplyAsAgentTwiceAppendsTwice(t *testing.T) {
	f := newFixture()
	seeded := f.seedTicket(t, domain.TicketPriorityLow, domain.TicketStatusOpen)

	_, _, err := f.svc.ReplyAsAgent(context.Background(), "agent-1", seeded.ID, "same reply")
	require.NoError(t, err)
	f.advance(time.Minute)
	_, _, err = f.svc.ReplyAsAgent(context.Background(), "agent-1", seeded.ID, "same reply")
	require.NoError(t, err)

	msgs, _ := f.messages.ListByTicket(context.Background(), seeded.ID)
	assert.Len(t, msgs, 2)
}

func TestUpdateStatusRefreshesOverdue(t *testing.T) {
	f := newFixture()
	seeded := f.seedTicket(t, domain.TicketPriorityUrgent, domain.TicketStatusOpen)
	require.NoError(t, f.tickets.SetOverdue(context.Background(), seeded.ID, true))

	f.advance(20 * time.Hour)
	ticket, err := f.svc.UpdateStatus(context.Background(), "agent-1", seeded.ID, domain.TicketStatusResolved, "fixed")
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusResolved, ticket.Status)
	assert.False(t, ticket.Overdue)
	assert.Len(t, f.history.entries, 1)
	assert.Equal(t, domain.ChangeTypeStatus, f.history.entries[0].ChangeType)
}

func TestUpdateStatusRejectsUnknown(t *testing.T) {
	f := newFixture()
	seeded := f.seedTicket(t, domain.TicketPriorityLow, domain.TicketStatusOpen)
	_, err := f.svc.UpdateStatus(context.Background(), "agent-1", seeded.ID, domain.TicketStatus("archived"), "")
	assert.Error(t, err)
}

func TestUpdatePriorityRecomputesUnderNewBudget(t *testing.T) {
	f := newFixture()
	seeded := f.seedTicket(t, domain.TicketPriorityLow, domain.TicketStatusOpen)

	f.advance(30 * time.Hour)
	ticket, err := f.svc.UpdatePriority(context.Background(), "agent-1", seeded.ID, domain.TicketPriorityUrgent)
	require.NoError(t, err)

	assert.Equal(t, domain.TicketPriorityUrgent, ticket.Priority)
	// The manual update advances the SLA clock, so the fresh window is clean.
	assert.False(t, ticket.Overdue)
	assert.Len(t, f.history.entries, 1)
	assert.Equal(t, domain.ChangeTypePriority, f.history.entries[0].ChangeType)
}

func TestCloseTicketAsUserOnlyWhenResolved(t *testing.T) {
	f := newFixture()
	open := f.seedTicket(t, domain.TicketPriorityLow, domain.TicketStatusOpen)
	_, err := f.svc.CloseTicketAsUser(context.Background(), "user-1", open.ID)
	assert.Error(t, err)

	resolved := f.seedTicket(t, domain.TicketPriorityLow, domain.TicketStatusResolved)
	ticket, err := f.svc.CloseTicketAsUser(context.Background(), "user-1", resolved.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, ticket.Status)
	assert.False(t, ticket.Overdue)
}

func TestCloseTicketAsUserEnforcesOwnership(t *testing.T) {
	f := newFixture()
	seeded := f.seedTicket(t, domain.TicketPriorityLow, domain.TicketStatusResolved)
	_, err := f.svc.CloseTicketAsUser(context.Background(), "someone-else", seeded.ID)
	assert.Error(t, err)
}

func TestAddUserMessageDoesNotTouchSLAFields(t *testing.T) {
	f := newFixture()
	seeded := f.seedTicket(t, domain.TicketPriorityHigh, domain.TicketStatusOpen)

	f.advance(time.Hour)
	msg, err := f.svc.AddUserMessage(context.Background(), "user-1", seeded.ID, "any update on this?")
	require.NoError(t, err)
	assert.Equal(t, domain.SenderTypeUser, msg.SenderType)

	stored, err := f.tickets.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.UpdatedAt, stored.UpdatedAt)
	assert.False(t, stored.HasAgentReply)
}

func TestGetTicketForUserEnforcesOwnership(t *testing.T) {
	f := newFixture()
	seeded := f.seedTicket(t, domain.TicketPriorityLow, domain.TicketStatusOpen)
	_, _, err := f.svc.GetTicketForUser(context.Background(), "intruder", seeded.ID)
	assert.Error(t, err)
}
