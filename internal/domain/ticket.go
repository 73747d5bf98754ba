package domain

import "time"

// TicketStatus enumerates lifecycle states for support tickets.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "open"
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusResolved TicketStatus = "resolved"
	TicketStatusClosed   TicketStatus = "closed"
)

// IsTerminal reports whether the status suppresses SLA tracking.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority enumerates SLA urgency tiers.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Ticket is the aggregate for support requests raised from the learning
// platform. Overdue is a write-time cache of the SLA evaluator's output: it is
// refreshed on agent reply, on status or priority change and by the background
// sweep, never on read.
type Ticket struct {
	ID               string
	ExternalKey      string
	RequesterID      string
	Title            string
	Message          string
	Status           TicketStatus
	Priority         TicketPriority
	Overdue          bool
	HasAgentReply    bool
	LastAgentReplyAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
