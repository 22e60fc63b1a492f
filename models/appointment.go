package models

import (
	"time"

	"gorm.io/gorm"
)

// Appointment statuses
const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusNoShow    = "no_show"
	AppointmentStatusCanceled  = "canceled"
)

// Appointment represents a scheduled visit (test drive, trade-in appraisal...)
type Appointment struct {
	gorm.Model
	DealershipID uint  `gorm:"not null;index" json:"dealership_id"`
	LeadID       uint  `gorm:"not null;index" json:"lead_id"`
	AssignedToID *uint `gorm:"index" json:"assigned_to_id,omitempty"`

	Title       string    `gorm:"not null" json:"title"`
	Type        string    `json:"type"` // test_drive, appraisal, delivery, visit
	Notes       string    `gorm:"type:text" json:"notes"`
	ScheduledAt time.Time `gorm:"not null;index" json:"scheduled_at"`
	Status      string    `gorm:"default:'scheduled';index" json:"status"`

	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`

	// Relations
	Lead       Lead  `json:"-"`
	AssignedTo *User `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
}
