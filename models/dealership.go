package models

import "gorm.io/gorm"

// Dealership is the tenant boundary: every CRM record and every piece of
// automation configuration is scoped by DealershipID.
type Dealership struct {
	gorm.Model
	Name     string `gorm:"not null" json:"name"`
	Slug     string `gorm:"uniqueIndex;not null" json:"slug"`
	Timezone string `gorm:"default:'UTC'" json:"timezone"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	// API key for the public lead intake endpoint
	IntakeKey string `gorm:"uniqueIndex" json:"-"`

	// Relations
	Users     []User     `gorm:"foreignKey:DealershipID" json:"users,omitempty"`
	Workflows []Workflow `gorm:"foreignKey:DealershipID" json:"workflows,omitempty"`
	Leads     []Lead     `gorm:"foreignKey:DealershipID" json:"leads,omitempty"`
}
