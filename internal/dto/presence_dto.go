package dto

import (
	"time"

	"github.com/campushq/campus-api/internal/models"
)

// RecordPresenceRequest is the payload for a presence signal.
type RecordPresenceRequest struct {
	SessionID    uint   `json:"session_id" validate:"required"`
	EnrollmentID uint   `json:"enrollment_id" validate:"required"`
	Event        string `json:"event" validate:"required,oneof=JOIN HEARTBEAT LEAVE DISCONNECT"`
}

// RecordPresenceResponse returns the accumulated active time and the
// authoritative server timestamp that anchored the update.
type RecordPresenceResponse struct {
	ActiveMs  int64     `json:"active_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// EnrollmentResponse is the serialized representation of an enrollment.
type EnrollmentResponse struct {
	ID           uint       `json:"id"`
	SessionID    uint       `json:"session_id"`
	StudentID    uint       `json:"student_id"`
	JoinedAt     *time.Time `json:"joined_at"`
	LastActiveAt *time.Time `json:"last_active_at"`
	ActiveMs     int64      `json:"active_ms"`
}

// NewEnrollmentResponse converts a model into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:           model.ID,
		SessionID:    model.SessionID,
		StudentID:    model.StudentID,
		JoinedAt:     model.JoinedAt,
		LastActiveAt: model.LastActiveAt,
		ActiveMs:     model.ActiveMs,
	}
}

// EnrollRequest adds a student to a live session.
type EnrollRequest struct {
	StudentID uint `json:"student_id" validate:"required"`
}
