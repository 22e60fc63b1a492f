package models

import "gorm.io/gorm"

// ScoringConfig is the per-dealership scoring singleton. Weights blend a
// manual override with the automatic score when both are present.
type ScoringConfig struct {
	gorm.Model
	DealershipID uint `gorm:"not null;uniqueIndex" json:"dealership_id"`

	// Defaults live in automation.DefaultScoringConfig, not in column
	// defaults: with a column default gorm omits zero values from the
	// INSERT, so a config saved with enabled=false would come back true.
	Enabled        bool `json:"enabled"`
	AutoCalculate  bool `json:"auto_calculate"`
	ManualOverride bool `json:"manual_override"`
	MaxScore       int  `json:"max_score"`

	AutomaticWeight float64 `json:"automatic_weight"`
	ManualWeight    float64 `json:"manual_weight"`

	// Relations
	Rules []ScoringRule `gorm:"foreignKey:DealershipID;references:DealershipID" json:"rules,omitempty"`
}

// ScoringRule awards a signed point delta to every lead matching its
// conditions. Rules are evaluated in ascending Priority order.
type ScoringRule struct {
	gorm.Model
	DealershipID uint `gorm:"not null;index" json:"dealership_id"`

	Name       string              `gorm:"not null" json:"name"`
	Enabled    bool                `json:"enabled"`
	Conditions []WorkflowCondition `gorm:"type:jsonb;serializer:json" json:"conditions"`
	Points     int                 `gorm:"not null" json:"points"`
	Priority   int                 `gorm:"default:0;index" json:"priority"`
}
