package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/learnstack/support-service/internal/domain"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestIsOverdueTerminalStatusNeverOverdue(t *testing.T) {
	priorities := []domain.TicketPriority{
		domain.TicketPriorityLow,
		domain.TicketPriorityMedium,
		domain.TicketPriorityHigh,
		domain.TicketPriorityUrgent,
	}
	elapsed := []time.Duration{
		-5 * time.Hour,
		0,
		time.Hour,
		10000 * time.Hour,
	}
	for _, status := range []domain.TicketStatus{domain.TicketStatusResolved, domain.TicketStatusClosed} {
		for _, priority := range priorities {
			for _, d := range elapsed {
				assert.False(t, IsOverdue(t0, priority, status, t0.Add(d)),
					"status=%s priority=%s elapsed=%s", status, priority, d)
			}
		}
	}
}

func TestIsOverdueBudgetsPerPriority(t *testing.T) {
	cases := []struct {
		priority domain.TicketPriority
		budget   time.Duration
	}{
		{domain.TicketPriorityUrgent, 8 * time.Hour},
		{domain.TicketPriorityHigh, 24 * time.Hour},
		{domain.TicketPriorityMedium, 48 * time.Hour},
		{domain.TicketPriorityLow, 72 * time.Hour},
	}
	for _, tc := range cases {
		t.Run(string(tc.priority), func(t *testing.T) {
			assert.False(t, IsOverdue(t0, tc.priority, domain.TicketStatusOpen, t0.Add(tc.budget-time.Minute)))
			assert.True(t, IsOverdue(t0, tc.priority, domain.TicketStatusOpen, t0.Add(tc.budget+time.Minute)))
			assert.True(t, IsOverdue(t0, tc.priority, domain.TicketStatusPending, t0.Add(tc.budget+time.Minute)))
		})
	}
}

func TestIsOverdueBoundaryIsStrict(t *testing.T) {
	// Exactly on budget is not overdue; any excess is.
	deadline := t0.Add(8 * time.Hour)
	assert.False(t, IsOverdue(t0, domain.TicketPriorityUrgent, domain.TicketStatusOpen, deadline))
	assert.True(t, IsOverdue(t0, domain.TicketPriorityUrgent, domain.TicketStatusOpen, deadline.Add(360*time.Millisecond)))
}

func TestIsOverdueUnknownPriorityDefaultsToMedium(t *testing.T) {
	unknown := domain.TicketPriority("critical")
	assert.False(t, IsOverdue(t0, unknown, domain.TicketStatusOpen, t0.Add(48*time.Hour)))
	assert.True(t, IsOverdue(t0, unknown, domain.TicketStatusOpen, t0.Add(48*time.Hour+time.Second)))
}

func TestBudgetFor(t *testing.T) {
	assert.Equal(t, 8*time.Hour, BudgetFor(domain.TicketPriorityUrgent))
	assert.Equal(t, 24*time.Hour, BudgetFor(domain.TicketPriorityHigh))
	assert.Equal(t, 48*time.Hour, BudgetFor(domain.TicketPriorityMedium))
	assert.Equal(t, 72*time.Hour, BudgetFor(domain.TicketPriorityLow))
	assert.Equal(t, 48*time.Hour, BudgetFor(domain.TicketPriority("")))
}

func TestOverdueLifecycleWithReplyReset(t *testing.T) {
	// A low-priority ticket opened at t0 breaches after 72h with no reply.
	createdAt := t0
	at80h := t0.Add(80 * time.Hour)
	assert.True(t, IsOverdue(createdAt, domain.TicketPriorityLow, domain.TicketStatusOpen, at80h))

	// An agent reply at t0+80h resets the clock.
	outcome, err := ApplyAgentReply(domain.TicketPriorityLow, domain.TicketStatusOpen, "agent-1", "looking into it", at80h)
	assert.NoError(t, err)
	assert.True(t, outcome.Changed)
	assert.False(t, outcome.Overdue)
	assert.False(t, IsOverdue(outcome.UpdatedAt, domain.TicketPriorityLow, domain.TicketStatusOpen, at80h.Add(time.Minute)))
}
