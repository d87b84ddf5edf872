package dto

import (
	"time"

	"github.com/campushq/campus-api/internal/models"
)

// AuditLogResponse is the serialized representation of a governance event.
type AuditLogResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  models.Role            `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewAuditLogResponse converts a model into a DTO.
func NewAuditLogResponse(model models.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:         model.ID,
		ActorID:    model.ActorID,
		ActorRole:  model.ActorRole,
		Action:     model.Action,
		EntityType: model.EntityType,
		EntityID:   model.EntityID,
		Metadata:   model.Metadata,
		CreatedAt:  model.CreatedAt,
	}
}

// NewAuditLogResponseSlice converts a slice of models into DTOs.
func NewAuditLogResponseSlice(entries []models.AuditLog) []AuditLogResponse {
	responses := make([]AuditLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, NewAuditLogResponse(entry))
	}

	return responses
}
