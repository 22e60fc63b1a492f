package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is one inbound or outbound conversation entry with a lead.
// Outbound delivery itself happens in the channel adapters; this row is the
// CRM-side record.
type Message struct {
	gorm.Model
	DealershipID uint  `gorm:"not null;index" json:"dealership_id"`
	LeadID       uint  `gorm:"not null;index" json:"lead_id"`
	UserID       *uint `gorm:"index" json:"user_id,omitempty"`

	Channel   string     `gorm:"not null" json:"channel"`   // email, sms, whatsapp
	Direction string     `gorm:"not null" json:"direction"` // inbound, outbound
	Subject   string     `json:"subject,omitempty"`
	Body      string     `gorm:"type:text" json:"body"`
	MessageID string     `gorm:"index" json:"message_id"` // provider id for tracking
	SentAt    *time.Time `json:"sent_at,omitempty"`

	// Relations
	Lead Lead `json:"-"`
}
