package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"dealerflow/automation"
	"dealerflow/models"
	"dealerflow/utils"
)

type ScoringController struct {
	DB     *gorm.DB
	Engine *automation.Engine
	Logger *log.Logger
}

func NewScoringController(db *gorm.DB, engine *automation.Engine, logger *log.Logger) *ScoringController {
	return &ScoringController{
		DB:     db,
		Engine: engine,
		Logger: logger,
	}
}

// GetConfig returns the dealership's scoring configuration with its rules
func (sc *ScoringController) GetConfig(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var cfg models.ScoringConfig
	err := sc.DB.Where("dealership_id = ?", user.DealershipID).First(&cfg).Error
	if err != nil {
		cfg = automation.DefaultScoringConfig(user.DealershipID)
	}

	var rules []models.ScoringRule
	if err := sc.DB.Where("dealership_id = ?", user.DealershipID).Order("priority asc").Find(&rules).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch scoring rules", err)
	}
	cfg.Rules = rules
	return c.JSON(utils.SuccessResponse(cfg))
}

func (sc *ScoringController) UpdateConfig(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Enabled         *bool    `json:"enabled"`
		AutoCalculate   *bool    `json:"auto_calculate"`
		ManualOverride  *bool    `json:"manual_override"`
		MaxScore        *int     `json:"max_score" validate:"omitempty,gte=1,lte=1000"`
		AutomaticWeight *float64 `json:"automatic_weight" validate:"omitempty,gte=0,lte=1"`
		ManualWeight    *float64 `json:"manual_weight" validate:"omitempty,gte=0,lte=1"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var cfg models.ScoringConfig
	err := sc.DB.Where("dealership_id = ?", user.DealershipID).First(&cfg).Error
	if err != nil {
		cfg = automation.DefaultScoringConfig(user.DealershipID)
	}

	if input.Enabled != nil {
		cfg.Enabled = *input.Enabled
	}
	if input.AutoCalculate != nil {
		cfg.AutoCalculate = *input.AutoCalculate
	}
	if input.ManualOverride != nil {
		cfg.ManualOverride = *input.ManualOverride
	}
	if input.MaxScore != nil {
		cfg.MaxScore = *input.MaxScore
	}
	if input.AutomaticWeight != nil {
		cfg.AutomaticWeight = *input.AutomaticWeight
	}
	if input.ManualWeight != nil {
		cfg.ManualWeight = *input.ManualWeight
	}

	if err := sc.DB.Save(&cfg).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save scoring config", err)
	}
	return c.JSON(utils.SuccessResponse(cfg))
}

type scoringRuleInput struct {
	Name       string                     `json:"name" validate:"required,max=200"`
	Enabled    *bool                      `json:"enabled"`
	Conditions []models.WorkflowCondition `json:"conditions" validate:"required,min=1"`
	Points     int                        `json:"points" validate:"required"`
	Priority   int                        `json:"priority" validate:"gte=0"`
}

func (sc *ScoringController) CreateRule(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input scoringRuleInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	rule := models.ScoringRule{
		DealershipID: user.DealershipID,
		Name:         input.Name,
		Enabled:      true,
		Conditions:   input.Conditions,
		Points:       input.Points,
		Priority:     input.Priority,
	}
	if input.Enabled != nil {
		rule.Enabled = *input.Enabled
	}

	if err := sc.DB.Create(&rule).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create scoring rule", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(rule))
}

func (sc *ScoringController) UpdateRule(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var rule models.ScoringRule
	if err := sc.DB.Where("id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).First(&rule).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Scoring rule not found", nil)
	}

	var input scoringRuleInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	rule.Name = input.Name
	rule.Conditions = input.Conditions
	rule.Points = input.Points
	rule.Priority = input.Priority
	if input.Enabled != nil {
		rule.Enabled = *input.Enabled
	}

	if err := sc.DB.Save(&rule).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update scoring rule", err)
	}
	return c.JSON(utils.SuccessResponse(rule))
}

func (sc *ScoringController) DeleteRule(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	result := sc.DB.Where("id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).Delete(&models.ScoringRule{})
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete scoring rule", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Scoring rule not found", nil)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"deleted": true}))
}

// RecalculateAll re-scores every lead in the dealership. Useful after rule
// or weight changes.
func (sc *ScoringController) RecalculateAll(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var leadIDs []uint
	if err := sc.DB.Model(&models.Lead{}).Where("dealership_id = ?", user.DealershipID).Pluck("id", &leadIDs).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch leads", err)
	}

	updated := 0
	for _, id := range leadIDs {
		if err := sc.Engine.UpdateLeadScore(user.DealershipID, id, "bulk recalculation", &user.ID); err != nil {
			sc.Logger.Printf("Failed to re-score lead %d: %v", id, err)
			continue
		}
		updated++
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"updated": updated, "total": len(leadIDs)}))
}
