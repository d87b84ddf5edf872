package models

import (
	"fmt"
	"time"
)

// TicketPriority is the urgency level of a support ticket.
type TicketPriority string

// Ticket priorities, lowest to highest.
const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Valid reports whether the priority is one of the known levels.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	default:
		return false
	}
}

// Escalated returns the next priority up the ladder. The second return is
// false when the ticket is already URGENT.
func (p TicketPriority) Escalated() (TicketPriority, bool) {
	switch p {
	case TicketPriorityLow:
		return TicketPriorityMedium, true
	case TicketPriorityMedium:
		return TicketPriorityHigh, true
	case TicketPriorityHigh:
		return TicketPriorityUrgent, true
	default:
		return p, false
	}
}

// TicketStatus is the workflow state of a support ticket.
type TicketStatus string

// Ticket workflow states.
const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketSLA is the response window promised at creation time.
const TicketSLA = 48 * time.Hour

// Ticket is a support request raised by any authenticated user.
type Ticket struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CentreID    uint           `gorm:"index;not null" json:"centre_id"`
	Number      string         `gorm:"size:32;uniqueIndex;not null" json:"number"`
	OpenedByID  uint           `gorm:"index;not null" json:"opened_by_id"`
	Type        string         `gorm:"size:64;not null" json:"type"`
	Priority    TicketPriority `gorm:"size:16;not null" json:"priority"`
	Status      TicketStatus   `gorm:"size:16;not null;default:OPEN" json:"status"`
	Subject     string         `gorm:"size:255;not null" json:"subject"`
	Description string         `gorm:"type:text" json:"description"`
	SLADueAt    time.Time      `gorm:"not null" json:"sla_due_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TicketSequence backs the per-year strictly increasing ticket number.
type TicketSequence struct {
	Year      int   `gorm:"primaryKey" json:"year"`
	LastValue int64 `gorm:"not null;default:0" json:"last_value"`
}

// FormatTicketNumber renders the canonical ticket number for a year/sequence pair.
func FormatTicketNumber(year int, seq int64) string {
	return fmt.Sprintf("TICK-%d-%04d", year, seq)
}
