package models

import (
	"time"

	"gorm.io/gorm"
)

// Sale records a closed deal for a lead
type Sale struct {
	gorm.Model
	DealershipID uint  `gorm:"not null;index" json:"dealership_id"`
	LeadID       uint  `gorm:"not null;index" json:"lead_id"`
	SoldByID     *uint `gorm:"index" json:"sold_by_id,omitempty"`

	Vehicle     string     `gorm:"not null" json:"vehicle"`
	VIN         string     `json:"vin"`
	AmountCents int64      `gorm:"not null" json:"amount_cents"`
	Currency    string     `gorm:"default:'usd'" json:"currency"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	Status      string     `gorm:"default:'pending';index" json:"status"` // pending, closed, canceled

	// Relations
	Lead   Lead  `json:"-"`
	SoldBy *User `gorm:"foreignKey:SoldByID" json:"sold_by,omitempty"`
}
