package dto

import (
	"time"

	"github.com/campushq/campus-api/internal/models"
)

// CatchUpCreateRequest assigns a catch-up task to a student.
type CatchUpCreateRequest struct {
	StudentID uint   `json:"student_id" validate:"required"`
	ClassID   uint   `json:"class_id" validate:"omitempty"`
	Title     string `json:"title" validate:"required,min=3,max=255"`
	DueDate   string `json:"due_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

// CatchUpResponse is the serialized representation of a catch-up task.
type CatchUpResponse struct {
	ID        uint                 `json:"id"`
	StudentID uint                 `json:"student_id"`
	ClassID   uint                 `json:"class_id"`
	Title     string               `json:"title"`
	DueDate   time.Time            `json:"due_date"`
	Status    models.CatchUpStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}

// NewCatchUpResponse converts a model into a DTO.
func NewCatchUpResponse(model models.CatchUp) CatchUpResponse {
	return CatchUpResponse{
		ID:        model.ID,
		StudentID: model.StudentID,
		ClassID:   model.ClassID,
		Title:     model.Title,
		DueDate:   model.DueDate,
		Status:    model.Status,
		CreatedAt: model.CreatedAt,
	}
}

// NewCatchUpResponseSlice converts a slice of models into DTOs.
func NewCatchUpResponseSlice(catchUps []models.CatchUp) []CatchUpResponse {
	responses := make([]CatchUpResponse, 0, len(catchUps))
	for _, catchUp := range catchUps {
		responses = append(responses, NewCatchUpResponse(catchUp))
	}

	return responses
}
