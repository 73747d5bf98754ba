package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus   TicketChangeType = "status_change"
	ChangeTypePriority TicketChangeType = "priority_change"
	ChangeTypeImport   TicketChangeType = "legacy_import"
)

// TicketHistory is an immutable audit trail entry for manual agent actions.
type TicketHistory struct {
	ID            string
	TicketID      string
	ChangedByType MessageSenderType
	ChangedByID   *string
	ChangeType    TicketChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
