package models

import "time"

// CatchUpStatus is the workflow state of a catch-up task.
type CatchUpStatus string

// Catch-up workflow states.
const (
	CatchUpPending    CatchUpStatus = "PENDING"
	CatchUpInProgress CatchUpStatus = "IN_PROGRESS"
	CatchUpCompleted  CatchUpStatus = "COMPLETED"
	CatchUpOverdue    CatchUpStatus = "OVERDUE"
)

// CatchUp is remedial work assigned to a student with a due date. The daily
// sweep moves PENDING and IN_PROGRESS rows past their due date to OVERDUE;
// COMPLETED rows never transition.
type CatchUp struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	CentreID  uint          `gorm:"index;not null" json:"centre_id"`
	StudentID uint          `gorm:"index;not null" json:"student_id"`
	ClassID   uint          `gorm:"index" json:"class_id"`
	Title     string        `gorm:"size:255;not null" json:"title"`
	DueDate   time.Time     `gorm:"not null" json:"due_date"`
	Status    CatchUpStatus `gorm:"size:16;not null;default:PENDING" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
