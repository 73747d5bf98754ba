package sla

import (
	"time"

	"github.com/learnstack/support-service/internal/domain"
)

// Response budgets in hours per priority tier.
const (
	BudgetUrgentHours = 8
	BudgetHighHours   = 24
	BudgetMediumHours = 48
	BudgetLowHours    = 72
)

var budgetHours = map[domain.TicketPriority]float64{
	domain.TicketPriorityUrgent: BudgetUrgentHours,
	domain.TicketPriorityHigh:   BudgetHighHours,
	domain.TicketPriorityMedium: BudgetMediumHours,
	domain.TicketPriorityLow:    BudgetLowHours,
}

// BudgetFor returns the response budget for a priority. Unrecognized
// priorities fall back to the medium budget rather than failing.
func BudgetFor(priority domain.TicketPriority) time.Duration {
	hours, ok := budgetHours[priority]
	if !ok {
		hours = BudgetMediumHours
	}
	return time.Duration(hours * float64(time.Hour))
}

// IsOverdue reports whether a ticket has exceeded its response-time budget.
// Tickets in a terminal status are never overdue, regardless of elapsed time.
// The caller supplies now so the computation stays deterministic under test.
func IsOverdue(lastUpdate time.Time, priority domain.TicketPriority, status domain.TicketStatus, now time.Time) bool {
	if status.IsTerminal() {
		return false
	}
	budget, ok := budgetHours[priority]
	if !ok {
		budget = BudgetMediumHours
	}
	return now.Sub(lastUpdate).Hours() > budget
}
