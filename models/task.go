package models

import (
	"time"

	"gorm.io/gorm"
)

// Task is a follow-up item for dealership staff, created manually or by the
// create_task workflow action.
type Task struct {
	gorm.Model
	DealershipID uint  `gorm:"not null;index" json:"dealership_id"`
	LeadID       *uint `gorm:"index" json:"lead_id,omitempty"`
	AssignedToID *uint `gorm:"index" json:"assigned_to_id,omitempty"`

	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Priority    string     `gorm:"default:'normal'" json:"priority"` // low, normal, high
	DueAt       *time.Time `json:"due_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Relations
	Lead       *Lead `gorm:"foreignKey:LeadID" json:"lead,omitempty"`
	AssignedTo *User `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
}
