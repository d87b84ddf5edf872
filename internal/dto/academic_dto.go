package dto

import (
	"time"

	"github.com/campushq/campus-api/internal/models"
)

// CourseCreateRequest describes the payload for creating a course.
type CourseCreateRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"omitempty"`
	Subject     string `json:"subject" validate:"required,min=2,max=64"`
	TeacherID   uint   `json:"teacher_id" validate:"required"`
}

// CourseResponse is the serialized representation of a course.
type CourseResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Subject     string    `json:"subject"`
	TeacherID   uint      `json:"teacher_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCourseResponse converts a model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		Subject:     model.Subject,
		TeacherID:   model.TeacherID,
		CreatedAt:   model.CreatedAt,
	}
}

// NewCourseResponseSlice converts a slice of models into DTOs.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}

	return responses
}

// ClassCreateRequest describes the payload for creating a class.
type ClassCreateRequest struct {
	CourseID  uint   `json:"course_id" validate:"required"`
	Name      string `json:"name" validate:"required,min=2,max=255"`
	TeacherID uint   `json:"teacher_id" validate:"required"`
	Capacity  int    `json:"capacity" validate:"omitempty,gt=0"`
}

// ClassResponse is the serialized representation of a class.
type ClassResponse struct {
	ID        uint      `json:"id"`
	CentreID  uint      `json:"centre_id"`
	CourseID  uint      `json:"course_id"`
	Name      string    `json:"name"`
	TeacherID uint      `json:"teacher_id"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
}

// NewClassResponse converts a model into a DTO.
func NewClassResponse(model models.Class) ClassResponse {
	return ClassResponse{
		ID:        model.ID,
		CentreID:  model.CentreID,
		CourseID:  model.CourseID,
		Name:      model.Name,
		TeacherID: model.TeacherID,
		Capacity:  model.Capacity,
		CreatedAt: model.CreatedAt,
	}
}

// NewClassResponseSlice converts a slice of models into DTOs.
func NewClassResponseSlice(classes []models.Class) []ClassResponse {
	responses := make([]ClassResponse, 0, len(classes))
	for _, class := range classes {
		responses = append(responses, NewClassResponse(class))
	}

	return responses
}

// SessionCreateRequest schedules a live session for a class.
type SessionCreateRequest struct {
	ClassID         uint   `json:"class_id" validate:"required"`
	Title           string `json:"title" validate:"required,min=3,max=255"`
	ScheduledAt     string `json:"scheduled_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0,lte=480"`
	MeetingURL      string `json:"meeting_url" validate:"omitempty,url"`
}

// SessionStatusRequest moves a session along its lifecycle.
type SessionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=LIVE ENDED"`
}

// SessionResponse is the serialized representation of a live session.
type SessionResponse struct {
	ID              uint                 `json:"id"`
	ClassID         uint                 `json:"class_id"`
	Title           string               `json:"title"`
	ScheduledAt     time.Time            `json:"scheduled_at"`
	DurationMinutes int                  `json:"duration_minutes"`
	Status          models.SessionStatus `json:"status"`
	MeetingURL      string               `json:"meeting_url"`
}

// NewSessionResponse converts a model into a DTO.
func NewSessionResponse(model models.LiveSession) SessionResponse {
	return SessionResponse{
		ID:              model.ID,
		ClassID:         model.ClassID,
		Title:           model.Title,
		ScheduledAt:     model.ScheduledAt,
		DurationMinutes: model.DurationMinutes,
		Status:          model.Status,
		MeetingURL:      model.MeetingURL,
	}
}

// NewSessionResponseSlice converts a slice of models into DTOs.
func NewSessionResponseSlice(sessions []models.LiveSession) []SessionResponse {
	responses := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, NewSessionResponse(session))
	}

	return responses
}
