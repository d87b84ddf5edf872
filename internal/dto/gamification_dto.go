package dto

import (
	"time"

	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/repository"
)

// AwardXPRequest grants experience points to a user.
type AwardXPRequest struct {
	UserID uint   `json:"user_id" validate:"required"`
	XP     int64  `json:"xp" validate:"required,gt=0,lte=10000"`
	Reason string `json:"reason" validate:"required,min=3,max=255"`
}

// DeductXPRequest removes experience points from a user. The magnitude is
// positive; the ledger records it as a negative transaction.
type DeductXPRequest struct {
	UserID uint   `json:"user_id" validate:"required"`
	XP     int64  `json:"xp" validate:"required,gt=0,lte=10000"`
	Reason string `json:"reason" validate:"required,min=3,max=255"`
}

// AwardBadgeRequest grants a named badge to a user.
type AwardBadgeRequest struct {
	UserID uint   `json:"user_id" validate:"required"`
	Name   string `json:"name" validate:"required,min=2,max=128"`
	Type   string `json:"type" validate:"required,min=2,max=64"`
}

// ProfileResponse is the serialized gamification profile.
type ProfileResponse struct {
	UserID         uint       `json:"user_id"`
	XP             int64      `json:"xp"`
	Level          int        `json:"level"`
	Streak         int        `json:"streak"`
	LastActivityAt *time.Time `json:"last_activity_at"`
}

// NewProfileResponse converts a model into a DTO.
func NewProfileResponse(model models.GamificationProfile) ProfileResponse {
	return ProfileResponse{
		UserID:         model.UserID,
		XP:             model.XP,
		Level:          model.Level,
		Streak:         model.Streak,
		LastActivityAt: model.LastActivityAt,
	}
}

// AwardedXP summarizes one award for the response payload.
type AwardedXP struct {
	XP      int64  `json:"xp"`
	Reason  string `json:"reason"`
	LevelUp bool   `json:"level_up"`
}

// AwardXPResponse is returned after a successful grant or deduction.
type AwardXPResponse struct {
	Profile ProfileResponse `json:"profile"`
	Awarded AwardedXP       `json:"awarded"`
}

// BadgeResponse is the serialized representation of a badge.
type BadgeResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBadgeResponse converts a model into a DTO.
func NewBadgeResponse(model models.Badge) BadgeResponse {
	return BadgeResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		Name:      model.Name,
		Type:      model.Type,
		CreatedAt: model.CreatedAt,
	}
}

// XPTransactionResponse is one serialized entry of the XP ledger.
type XPTransactionResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
	AwardedBy uint      `json:"awarded_by"`
	CreatedAt time.Time `json:"created_at"`
}

// NewXPTransactionResponse converts a model into a DTO.
func NewXPTransactionResponse(model models.XPTransaction) XPTransactionResponse {
	return XPTransactionResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		Amount:    model.Amount,
		Reason:    model.Reason,
		AwardedBy: model.AwardedBy,
		CreatedAt: model.CreatedAt,
	}
}

// NewXPTransactionResponseSlice converts a slice of models into DTOs.
func NewXPTransactionResponseSlice(entries []models.XPTransaction) []XPTransactionResponse {
	responses := make([]XPTransactionResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, NewXPTransactionResponse(entry))
	}

	return responses
}

// LeaderboardResponse wraps the ranked entries for one centre.
type LeaderboardResponse struct {
	CentreID uint                           `json:"centre_id"`
	Entries  []repository.LeaderboardEntry `json:"entries"`
}
