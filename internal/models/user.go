package models

import "time"

// Role identifies the access level of a platform user.
type Role string

// Platform roles, ordered roughly by privilege.
const (
	RoleStudent    Role = "student"
	RoleParent     Role = "parent"
	RoleTeacher    Role = "teacher"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// IsStaff reports whether the role may act on tenant records it does not own.
func (r Role) IsStaff() bool {
	switch r {
	case RoleTeacher, RoleSupervisor, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// User represents a platform account scoped to one centre.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CentreID  uint      `gorm:"index;not null" json:"centre_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      Role      `gorm:"size:32;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParentLink connects a parent account to one of their children.
type ParentLink struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ParentID  uint      `gorm:"index:idx_parent_child,unique;not null" json:"parent_id"`
	ChildID   uint      `gorm:"index:idx_parent_child,unique;not null" json:"child_id"`
	CreatedAt time.Time `json:"created_at"`
}
