package models

import (
	"time"

	"gorm.io/gorm"
)

// Lead statuses
const (
	LeadStatusNew         = "new"
	LeadStatusContacted   = "contacted"
	LeadStatusQualified   = "qualified"
	LeadStatusAppointment = "appointment"
	LeadStatusNegotiating = "negotiating"
	LeadStatusWon         = "won"
	LeadStatusLost        = "lost"
)

// ScoreHistoryCap bounds the per-lead score history log; older entries are
// dropped first.
const ScoreHistoryCap = 50

// Lead represents a prospective customer tracked through the sales funnel
type Lead struct {
	gorm.Model
	DealershipID uint `gorm:"not null;index" json:"dealership_id"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `gorm:"index" json:"email"`
	Phone     string `gorm:"index" json:"phone"`

	// Funnel state
	Status       string `gorm:"default:'new';index" json:"status"`
	Source       string `json:"source"` // web, phone, whatsapp, facebook, instagram, sms, email
	AssignedToID *uint  `gorm:"index" json:"assigned_to_id,omitempty"`

	// What the lead is shopping for
	VehicleOfInterest string `json:"vehicle_of_interest"`
	Budget            *int   `json:"budget,omitempty"`

	Tags             []string   `gorm:"type:jsonb;serializer:json" json:"tags"`
	InteractionCount int        `gorm:"default:0" json:"interaction_count"`
	LastContactAt    *time.Time `json:"last_contact_at"`

	// AI classification written by the external classifier
	AIPriority  string `json:"ai_priority"`  // high, medium, low
	AISentiment string `json:"ai_sentiment"` // positive, neutral, negative

	// Scoring
	AutomaticScore int                 `gorm:"default:0" json:"automatic_score"`
	ManualScore    *int                `json:"manual_score,omitempty"`
	CombinedScore  int                 `gorm:"default:0" json:"combined_score"`
	ScoreUpdatedAt *time.Time          `json:"score_updated_at,omitempty"`
	ScoreHistory   []ScoreHistoryEntry `gorm:"type:jsonb;serializer:json" json:"score_history,omitempty"`

	// Relations
	AssignedTo   *User         `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	Messages     []Message     `gorm:"foreignKey:LeadID" json:"messages,omitempty"`
	Appointments []Appointment `gorm:"foreignKey:LeadID" json:"appointments,omitempty"`
}

// ScoreHistoryEntry is one append-only log line of a lead's score changes
type ScoreHistoryEntry struct {
	Score     int       `json:"score"`
	Type      string    `json:"type"` // automatic, manual, combined
	Reason    string    `json:"reason,omitempty"`
	UpdatedBy *uint     `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins the lead's first and last name, falling back to whichever
// half is present.
func (l *Lead) FullName() string {
	switch {
	case l.FirstName != "" && l.LastName != "":
		return l.FirstName + " " + l.LastName
	case l.FirstName != "":
		return l.FirstName
	default:
		return l.LastName
	}
}

// HasTag reports whether the lead already carries the given tag
func (l *Lead) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
