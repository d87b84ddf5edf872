package models

import "time"

// Course is a unit of teaching content owned by a centre.
type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CentreID    uint      `gorm:"index;not null" json:"centre_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Subject     string    `gorm:"size:64" json:"subject"`
	TeacherID   uint      `gorm:"index" json:"teacher_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Class groups students taking a course together.
type Class struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CentreID  uint      `gorm:"index;not null" json:"centre_id"`
	CourseID  uint      `gorm:"index;not null" json:"course_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	TeacherID uint      `gorm:"index" json:"teacher_id"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionStatus is the lifecycle state of a live session.
type SessionStatus string

// Live session lifecycle states.
const (
	SessionScheduled SessionStatus = "SCHEDULED"
	SessionLive      SessionStatus = "LIVE"
	SessionEnded     SessionStatus = "ENDED"
)

// LiveSession is a scheduled video lesson for one class.
type LiveSession struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	CentreID        uint          `gorm:"index;not null" json:"centre_id"`
	ClassID         uint          `gorm:"index;not null" json:"class_id"`
	Title           string        `gorm:"size:255;not null" json:"title"`
	ScheduledAt     time.Time     `gorm:"not null" json:"scheduled_at"`
	DurationMinutes int           `json:"duration_minutes"`
	Status          SessionStatus `gorm:"size:16;not null;default:SCHEDULED" json:"status"`
	MeetingURL      string        `gorm:"size:512" json:"meeting_url"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// CanTransitionTo reports whether the session may move to the target state.
// Sessions only move forward: SCHEDULED -> LIVE -> ENDED.
func (s LiveSession) CanTransitionTo(target SessionStatus) bool {
	switch s.Status {
	case SessionScheduled:
		return target == SessionLive
	case SessionLive:
		return target == SessionEnded
	default:
		return false
	}
}
