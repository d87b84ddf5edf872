package models

import "time"

// Enrollment records one student's participation in one live session.
// ActiveMs only ever grows; presence events never decrement it.
type Enrollment struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CentreID     uint       `gorm:"index;not null" json:"centre_id"`
	SessionID    uint       `gorm:"index:idx_session_student,unique;not null" json:"session_id"`
	StudentID    uint       `gorm:"index:idx_session_student,unique;not null" json:"student_id"`
	JoinedAt     *time.Time `json:"joined_at"`
	LastActiveAt *time.Time `json:"last_active_at"`
	ActiveMs     int64      `gorm:"not null;default:0" json:"active_ms"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PresenceKind classifies a discrete connectivity signal.
type PresenceKind string

// Presence event kinds.
const (
	PresenceJoin       PresenceKind = "JOIN"
	PresenceHeartbeat  PresenceKind = "HEARTBEAT"
	PresenceLeave      PresenceKind = "LEAVE"
	PresenceDisconnect PresenceKind = "DISCONNECT"
)

// Valid reports whether the kind is one of the known presence signals.
func (k PresenceKind) Valid() bool {
	switch k {
	case PresenceJoin, PresenceHeartbeat, PresenceLeave, PresenceDisconnect:
		return true
	default:
		return false
	}
}

// PresenceEvent is an immutable log entry for one presence signal.
type PresenceEvent struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	EnrollmentID uint         `gorm:"index;not null" json:"enrollment_id"`
	SessionID    uint         `gorm:"index;not null" json:"session_id"`
	StudentID    uint         `gorm:"index;not null" json:"student_id"`
	Kind         PresenceKind `gorm:"size:16;not null" json:"kind"`
	OccurredAt   time.Time    `gorm:"not null" json:"occurred_at"`
	CreatedAt    time.Time    `json:"created_at"`
}
