package models

import (
	"gorm.io/gorm"
)

// User represents a dealership staff account
type User struct {
	gorm.Model
	DealershipID uint `gorm:"not null;index" json:"dealership_id"`

	// Authentication fields
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	TokenVersion int    `gorm:"default:0" json:"-"`

	// Profile information
	Name     *string `json:"name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Timezone string  `gorm:"default:'UTC'" json:"timezone"`
	Language string  `gorm:"default:'en'" json:"language"`

	// Account status
	IsActive bool   `gorm:"default:true" json:"is_active"`
	Role     string `gorm:"default:'agent'" json:"role"` // owner, manager, agent

	// Relations
	Dealership    Dealership     `json:"-"`
	AssignedLeads []Lead         `gorm:"foreignKey:AssignedToID" json:"assigned_leads,omitempty"`
	Tasks         []Task         `gorm:"foreignKey:AssignedToID" json:"tasks,omitempty"`
	Notifications []Notification `gorm:"foreignKey:UserID" json:"notifications,omitempty"`
}
