package automation

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"dealerflow/models"
)

// GormStore is the Postgres-backed Store used in production.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) GetWorkflow(dealershipID, workflowID uint) (*models.Workflow, error) {
	var workflow models.Workflow
	err := s.DB.Where("id = ? AND dealership_id = ?", workflowID, dealershipID).First(&workflow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &workflow, nil
}

func (s *GormStore) ListEnabledWorkflows(dealershipID uint, trigger string) ([]models.Workflow, error) {
	var workflows []models.Workflow
	err := s.DB.
		Where("dealership_id = ? AND trigger_event = ? AND enabled = ?", dealershipID, trigger, true).
		Order("id asc").
		Find(&workflows).Error
	return workflows, err
}

func (s *GormStore) CreateExecution(exec *models.WorkflowExecution) error {
	return s.DB.Create(exec).Error
}

func (s *GormStore) SaveExecution(exec *models.WorkflowExecution) error {
	return s.DB.Save(exec).Error
}

func (s *GormStore) MarkExecuted(dealershipID, workflowID uint, at time.Time) error {
	return s.DB.Model(&models.Workflow{}).
		Where("id = ? AND dealership_id = ?", workflowID, dealershipID).
		Updates(map[string]interface{}{
			"execution_count":  gorm.Expr("execution_count + 1"),
			"last_executed_at": at,
		}).Error
}

func (s *GormStore) GetLead(dealershipID, leadID uint) (*models.Lead, error) {
	var lead models.Lead
	err := s.DB.Where("id = ? AND dealership_id = ?", leadID, dealershipID).First(&lead).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// UpdateLead applies a narrow set of known field keys onto the lead row.
// Updates go through the struct so jsonb serializer columns round-trip
// correctly. Last writer wins; there is no compare-and-swap.
func (s *GormStore) UpdateLead(dealershipID, leadID uint, fields map[string]interface{}) error {
	var lead models.Lead
	if err := s.DB.Where("id = ? AND dealership_id = ?", leadID, dealershipID).First(&lead).Error; err != nil {
		return err
	}
	applyLeadFields(&lead, fields)
	return s.DB.Save(&lead).Error
}

func applyLeadFields(lead *models.Lead, fields map[string]interface{}) {
	for key, value := range fields {
		switch key {
		case "status":
			if v, ok := value.(string); ok {
				lead.Status = v
			}
		case "assigned_to_id":
			if v, ok := value.(uint); ok {
				lead.AssignedToID = &v
			}
		case "tags":
			if v, ok := value.([]string); ok {
				lead.Tags = v
			}
		case "interaction_count":
			if v, ok := value.(int); ok {
				lead.InteractionCount = v
			}
		case "last_contact_at":
			if v, ok := value.(time.Time); ok {
				lead.LastContactAt = &v
			}
		case "automatic_score":
			if v, ok := value.(int); ok {
				lead.AutomaticScore = v
			}
		case "manual_score":
			if v, ok := value.(int); ok {
				lead.ManualScore = &v
			}
		case "combined_score":
			if v, ok := value.(int); ok {
				lead.CombinedScore = v
			}
		case "score_updated_at":
			if v, ok := value.(time.Time); ok {
				lead.ScoreUpdatedAt = &v
			}
		case "score_history":
			if v, ok := value.([]models.ScoreHistoryEntry); ok {
				lead.ScoreHistory = v
			}
		}
	}
}

// GetScoringConfig loads the dealership's scoring configuration and its
// rules. A dealership that never saved one gets the defaults.
func (s *GormStore) GetScoringConfig(dealershipID uint) (*models.ScoringConfig, error) {
	var cfg models.ScoringConfig
	err := s.DB.Where("dealership_id = ?", dealershipID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = DefaultScoringConfig(dealershipID)
	} else if err != nil {
		return nil, err
	}

	var rules []models.ScoringRule
	if err := s.DB.Where("dealership_id = ?", dealershipID).Order("priority asc").Find(&rules).Error; err != nil {
		return nil, err
	}
	cfg.Rules = rules
	return &cfg, nil
}

// DefaultScoringConfig is what a dealership starts with before any tuning.
func DefaultScoringConfig(dealershipID uint) models.ScoringConfig {
	return models.ScoringConfig{
		DealershipID:    dealershipID,
		Enabled:         true,
		AutoCalculate:   true,
		ManualOverride:  true,
		MaxScore:        100,
		AutomaticWeight: 0.7,
		ManualWeight:    0.3,
	}
}

func (s *GormStore) CreateTask(task *models.Task) error {
	return s.DB.Create(task).Error
}

func (s *GormStore) CreateNotification(n *models.Notification) error {
	return s.DB.Create(n).Error
}
