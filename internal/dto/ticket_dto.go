package dto

import (
	"time"

	"github.com/campushq/campus-api/internal/models"
)

// TicketCreateRequest opens a new support ticket.
type TicketCreateRequest struct {
	Type        string `json:"type" validate:"required,min=2,max=64"`
	Priority    string `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
	Subject     string `json:"subject" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"required,min=3"`
}

// TicketResponse is the serialized representation of a ticket.
type TicketResponse struct {
	ID          uint                  `json:"id"`
	Number      string                `json:"number"`
	OpenedByID  uint                  `json:"opened_by_id"`
	Type        string                `json:"type"`
	Priority    models.TicketPriority `json:"priority"`
	Status      models.TicketStatus   `json:"status"`
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	SLADueAt    time.Time             `json:"sla_due_at"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// NewTicketResponse converts a model into a DTO.
func NewTicketResponse(model models.Ticket) TicketResponse {
	return TicketResponse{
		ID:          model.ID,
		Number:      model.Number,
		OpenedByID:  model.OpenedByID,
		Type:        model.Type,
		Priority:    model.Priority,
		Status:      model.Status,
		Subject:     model.Subject,
		Description: model.Description,
		SLADueAt:    model.SLADueAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewTicketResponseSlice converts a slice of models into DTOs.
func NewTicketResponseSlice(tickets []models.Ticket) []TicketResponse {
	responses := make([]TicketResponse, 0, len(tickets))
	for _, ticket := range tickets {
		responses = append(responses, NewTicketResponse(ticket))
	}

	return responses
}
