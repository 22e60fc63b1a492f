package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification is an in-app message for one staff user, written by the
// notify_user workflow action and by system events.
type Notification struct {
	gorm.Model
	DealershipID uint  `gorm:"not null;index" json:"dealership_id"`
	UserID       uint  `gorm:"not null;index" json:"user_id"`
	LeadID       *uint `gorm:"index" json:"lead_id,omitempty"`

	Title  string     `gorm:"not null" json:"title"`
	Body   string     `gorm:"type:text" json:"body"`
	Kind   string     `gorm:"default:'info'" json:"kind"` // info, warning, workflow
	ReadAt *time.Time `json:"read_at,omitempty"`

	// Relations
	User User `json:"-"`
}
