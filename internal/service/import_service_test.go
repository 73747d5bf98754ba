package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/learnstack/support-service/internal/domain"
)

func newImportFixture() (*ImportService, *memTicketRepo, *memHistoryRepo) {
	clock := func() time.Time { return baseTime }
	tickets := newMemTicketRepo(clock)
	history := &memHistoryRepo{}
	svc := NewImportService(tickets, history, zap.NewNop(), clock)
	return svc, tickets, history
}

func TestImportTicketsEpochSeconds(t *testing.T) {
	svc, tickets, _ := newImportFixture()

	// Stale low-priority ticket last touched well over its 72h budget.
	updatedAt := baseTime.Add(-80 * time.Hour)
	results := svc.ImportTickets(context.Background(), "agent-1", []LegacyTicketRecord{{
		ExternalKey: "SUP-LEGACY01",
		RequesterID: "user-1",
		Title:       "old ticket",
		Message:     "imported from the document store",
		Priority:    "low",
		Status:      "open",
		CreatedAt:   updatedAt.Add(-time.Hour).Unix(),
		UpdatedAt:   updatedAt.Unix(),
	}})

	require.Len(t, results, 1)
	assert.True(t, results[0].Imported)
	assert.False(t, results[0].SLASkipped)

	ticket, err := tickets.GetByExternalKey(context.Background(), "SUP-LEGACY01")
	require.NoError(t, err)
	assert.True(t, ticket.Overdue)
	assert.Equal(t, domain.TicketPriorityLow, ticket.Priority)
}

func TestImportTicketsUnknownTimestampSkipsSLA(t *testing.T) {
	svc, tickets, history := newImportFixture()

	results := svc.ImportTickets(context.Background(), "agent-1", []LegacyTicketRecord{{
		ExternalKey: "SUP-LEGACY02",
		RequesterID: "user-1",
		Title:       "mystery clock",
		Message:     "updated_at is garbage",
		Priority:    "urgent",
		Status:      "open",
		UpdatedAt:   "not-a-date",
	}})

	require.Len(t, results, 1)
	assert.True(t, results[0].Imported)
	assert.True(t, results[0].SLASkipped)

	ticket, err := tickets.GetByExternalKey(context.Background(), "SUP-LEGACY02")
	require.NoError(t, err)
	assert.False(t, ticket.Overdue)

	require.Len(t, history.entries, 1)
	assert.Equal(t, domain.ChangeTypeImport, history.entries[0].ChangeType)
	assert.Equal(t, false, history.entries[0].NewValue["sla_evaluated"])
}

func TestImportTicketsMillisecondEpoch(t *testing.T) {
	svc, tickets, _ := newImportFixture()

	recent := baseTime.Add(-time.Hour)
	results := svc.ImportTickets(context.Background(), "agent-1", []LegacyTicketRecord{{
		ExternalKey:      "SUP-LEGACY03",
		RequesterID:      "user-1",
		Title:            "recent ticket",
		Message:          "millisecond timestamps",
		Priority:         "urgent",
		Status:           "pending",
		UpdatedAt:        recent.UnixMilli(),
		LastAgentReplyAt: recent.UnixMilli(),
	}})

	require.Len(t, results, 1)
	assert.True(t, results[0].Imported)

	ticket, err := tickets.GetByExternalKey(context.Background(), "SUP-LEGACY03")
	require.NoError(t, err)
	assert.False(t, ticket.Overdue)
	assert.True(t, ticket.HasAgentReply)
	require.NotNil(t, ticket.LastAgentReplyAt)
	assert.Equal(t, recent.UnixMilli(), ticket.LastAgentReplyAt.UnixMilli())
}

func TestImportTicketsUnknownEnumsDegrade(t *testing.T) {
	svc, tickets, _ := newImportFixture()

	results := svc.ImportTickets(context.Background(), "agent-1", []LegacyTicketRecord{{
		ExternalKey: "SUP-LEGACY04",
		RequesterID: "user-1",
		Title:       "weird enums",
		Message:     "priority and status unknown",
		Priority:    "sev1",
		Status:      "triaged",
		UpdatedAt:   "2025-02-01T00:00:00Z",
	}})

	require.Len(t, results, 1)
	ticket, err := tickets.GetByExternalKey(context.Background(), "SUP-LEGACY04")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	// 2025-02-01 → baseTime is far past the 48h medium budget.
	assert.True(t, ticket.Overdue)
}

func TestImportTicketsMissingFieldsReported(t *testing.T) {
	svc, _, _ := newImportFixture()

	results := svc.ImportTickets(context.Background(), "agent-1", []LegacyTicketRecord{{
		ExternalKey: "SUP-LEGACY05",
		RequesterID: "user-1",
		Title:       "",
		Message:     "no title",
	}})

	require.Len(t, results, 1)
	assert.False(t, results[0].Imported)
	assert.Equal(t, "missing required fields", results[0].Reason)
}

func TestImportTicketsTerminalStatusNeverOverdue(t *testing.T) {
	svc, tickets, _ := newImportFixture()

	results := svc.ImportTickets(context.Background(), "agent-1", []LegacyTicketRecord{{
		ExternalKey: "SUP-LEGACY06",
		RequesterID: "user-1",
		Title:       "long closed",
		Message:     "ancient but resolved",
		Priority:    "urgent",
		Status:      "resolved",
		UpdatedAt:   "2020-01-01T00:00:00Z",
	}})

	require.Len(t, results, 1)
	ticket, err := tickets.GetByExternalKey(context.Background(), "SUP-LEGACY06")
	require.NoError(t, err)
	assert.False(t, ticket.Overdue)
}
