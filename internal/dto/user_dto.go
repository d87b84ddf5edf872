package dto

import (
	"time"

	"github.com/campushq/campus-api/internal/models"
)

// UserCreateRequest registers a new account in the caller's centre.
type UserCreateRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=255"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=student parent teacher supervisor admin"`
}

// LinkChildRequest attaches a student to a parent account.
type LinkChildRequest struct {
	ChildID uint `json:"child_id" validate:"required"`
}

// UserResponse is the serialized representation of an account.
type UserResponse struct {
	ID        uint        `json:"id"`
	CentreID  uint        `json:"centre_id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewUserResponse converts a model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:        model.ID,
		CentreID:  model.CentreID,
		Name:      model.Name,
		Email:     model.Email,
		Role:      model.Role,
		CreatedAt: model.CreatedAt,
	}
}

// NewUserResponseSlice converts a slice of models into DTOs.
func NewUserResponseSlice(users []models.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserResponse(user))
	}

	return responses
}
