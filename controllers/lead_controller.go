package controller

import (
	"log"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"dealerflow/automation"
	"dealerflow/models"
	"dealerflow/utils"
)

type LeadController struct {
	DB     *gorm.DB
	Engine *automation.Engine
	Logger *log.Logger
}

func NewLeadController(db *gorm.DB, engine *automation.Engine, logger *log.Logger) *LeadController {
	return &LeadController{
		DB:     db,
		Engine: engine,
		Logger: logger,
	}
}

type leadInput struct {
	FirstName         string `json:"first_name" validate:"omitempty,max=100"`
	LastName          string `json:"last_name" validate:"omitempty,max=100"`
	Email             string `json:"email" validate:"omitempty,email"`
	Phone             string `json:"phone" validate:"omitempty,max=30"`
	Source            string `json:"source" validate:"omitempty,max=30"`
	VehicleOfInterest string `json:"vehicle_of_interest" validate:"omitempty,max=200"`
	Budget            *int   `json:"budget" validate:"omitempty,gte=0"`
	AssignedToID      *uint  `json:"assigned_to_id"`
}

// CreateLead creates a new lead, computes its initial score and fires the
// lead_created workflows.
func (lc *LeadController) CreateLead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input leadInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if input.Email == "" && input.Phone == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Either email or phone is required", nil)
	}

	lead, err := lc.createLead(user.DealershipID, input)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create lead", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(lead))
}

// IntakeLead is the public web-form endpoint, keyed by the dealership's
// intake key and rate limited per key and IP.
func (lc *LeadController) IntakeLead(c *fiber.Ctx) error {
	var dealership models.Dealership
	if err := lc.DB.Where("intake_key = ? AND is_active = ?", c.Params("apikey"), true).First(&dealership).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Unknown intake key", nil)
	}

	var input leadInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if input.Email == "" && input.Phone == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Either email or phone is required", nil)
	}
	if input.Email != "" {
		if err := checkmail.ValidateFormat(input.Email); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email address", err)
		}
	}
	if input.Source == "" {
		input.Source = "web"
	}

	lead, err := lc.createLead(dealership.ID, input)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create lead", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{"id": lead.ID}))
}

func (lc *LeadController) createLead(dealershipID uint, input leadInput) (*models.Lead, error) {
	lead := models.Lead{
		DealershipID:      dealershipID,
		FirstName:         input.FirstName,
		LastName:          input.LastName,
		Email:             strings.ToLower(input.Email),
		Phone:             input.Phone,
		Source:            input.Source,
		Status:            models.LeadStatusNew,
		VehicleOfInterest: input.VehicleOfInterest,
		Budget:            input.Budget,
		AssignedToID:      input.AssignedToID,
	}
	if err := lc.DB.Create(&lead).Error; err != nil {
		return nil, err
	}

	if err := lc.Engine.UpdateLeadScore(dealershipID, lead.ID, "lead created", nil); err != nil {
		lc.Logger.Printf("Failed to score new lead %d: %v", lead.ID, err)
	}

	// reload so the trigger data carries the scored lead
	if err := lc.DB.First(&lead, lead.ID).Error; err == nil {
		lc.Engine.FireTrigger(dealershipID, models.TriggerLeadCreated,
			automation.LeadTriggerData(&lead, map[string]interface{}{"trigger": models.TriggerLeadCreated}))
	}
	return &lead, nil
}

// ListLeads returns the dealership's leads with optional filters
func (lc *LeadController) ListLeads(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	query := lc.DB.Where("dealership_id = ?", user.DealershipID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if source := c.Query("source"); source != "" {
		query = query.Where("source = ?", source)
	}
	if assigned := c.QueryInt("assigned_to"); assigned > 0 {
		query = query.Where("assigned_to_id = ?", assigned)
	}

	var leads []models.Lead
	if err := query.Order("combined_score desc, created_at desc").Limit(200).Find(&leads).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch leads", err)
	}
	return c.JSON(utils.SuccessResponse(leads))
}

func (lc *LeadController) GetLead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var lead models.Lead
	if err := lc.DB.Where("id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).
		Preload("Messages").Preload("Appointments").First(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}
	return c.JSON(utils.SuccessResponse(lead))
}

// UpdateLead applies field changes and fires lead_updated, plus
// status_changed when the funnel status moved.
func (lc *LeadController) UpdateLead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var lead models.Lead
	if err := lc.DB.Where("id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).First(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}

	var input struct {
		leadInput
		Status *string `json:"status" validate:"omitempty,oneof=new contacted qualified appointment negotiating won lost"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	previousStatus := lead.Status
	applyLeadInput(&lead, input.leadInput)
	if input.Status != nil {
		lead.Status = *input.Status
	}

	if err := lc.DB.Save(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update lead", err)
	}

	lc.Engine.FireTrigger(user.DealershipID, models.TriggerLeadUpdated,
		automation.LeadTriggerData(&lead, map[string]interface{}{"trigger": models.TriggerLeadUpdated}))

	if input.Status != nil && *input.Status != previousStatus {
		lc.Engine.FireTrigger(user.DealershipID, models.TriggerStatusChanged,
			automation.LeadTriggerData(&lead, map[string]interface{}{
				"trigger":         models.TriggerStatusChanged,
				"previous_status": previousStatus,
				"new_status":      lead.Status,
			}))
	}

	return c.JSON(utils.SuccessResponse(lead))
}

// AssignLead reassigns the lead to another staff user
func (lc *LeadController) AssignLead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		UserID uint `json:"user_id" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var assignee models.User
	if err := lc.DB.Where("id = ? AND dealership_id = ?", input.UserID, user.DealershipID).First(&assignee).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Assignee not found", nil)
	}

	var lead models.Lead
	if err := lc.DB.Where("id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).First(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}

	lead.AssignedToID = &assignee.ID
	if err := lc.DB.Save(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to assign lead", err)
	}
	return c.JSON(utils.SuccessResponse(lead))
}

// SetManualScore lets a manager override the lead score
func (lc *LeadController) SetManualScore(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Score  int    `json:"score" validate:"gte=0,lte=100"`
		Reason string `json:"reason" validate:"omitempty,max=500"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var lead models.Lead
	if err := lc.DB.Where("id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).First(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}

	updatedBy := user.ID
	if err := lc.Engine.SetManualScore(user.DealershipID, lead.ID, input.Score, input.Reason, &updatedBy); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to set manual score", err)
	}

	if err := lc.DB.First(&lead, lead.ID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to reload lead", err)
	}
	return c.JSON(utils.SuccessResponse(lead))
}

// RecordClassification stores the AI classifier's verdict and re-scores
func (lc *LeadController) RecordClassification(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Priority  string `json:"priority" validate:"required,oneof=high medium low"`
		Sentiment string `json:"sentiment" validate:"required,oneof=positive neutral negative"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var lead models.Lead
	if err := lc.DB.Where("id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).First(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}

	lead.AIPriority = input.Priority
	lead.AISentiment = input.Sentiment
	if err := lc.DB.Save(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update lead", err)
	}

	if err := lc.Engine.UpdateLeadScore(user.DealershipID, lead.ID, "ai classification", nil); err != nil {
		lc.Logger.Printf("Failed to re-score lead %d after classification: %v", lead.ID, err)
	}
	return c.JSON(utils.SuccessResponse(lead))
}

func applyLeadInput(lead *models.Lead, input leadInput) {
	if input.FirstName != "" {
		lead.FirstName = input.FirstName
	}
	if input.LastName != "" {
		lead.LastName = input.LastName
	}
	if input.Email != "" {
		lead.Email = strings.ToLower(input.Email)
	}
	if input.Phone != "" {
		lead.Phone = input.Phone
	}
	if input.Source != "" {
		lead.Source = input.Source
	}
	if input.VehicleOfInterest != "" {
		lead.VehicleOfInterest = input.VehicleOfInterest
	}
	if input.Budget != nil {
		lead.Budget = input.Budget
	}
	if input.AssignedToID != nil {
		lead.AssignedToID = input.AssignedToID
	}
	now := time.Now()
	lead.LastContactAt = &now
}
