package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog captures governance events written alongside sensitive mutations
// such as ticket escalations, XP deductions and user creation. Append-only.
type AuditLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	CentreID   uint              `gorm:"index;not null" json:"centre_id"`
	ActorID    uint              `gorm:"not null" json:"actor_id"`
	ActorRole  Role              `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}
