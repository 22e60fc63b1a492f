package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"dealerflow/automation"
	"dealerflow/models"
	"dealerflow/utils"
)

type WorkflowController struct {
	DB     *gorm.DB
	Engine *automation.Engine
	Logger *log.Logger
}

func NewWorkflowController(db *gorm.DB, engine *automation.Engine, logger *log.Logger) *WorkflowController {
	return &WorkflowController{
		DB:     db,
		Engine: engine,
		Logger: logger,
	}
}

var validTriggers = map[string]bool{
	models.TriggerLeadCreated:          true,
	models.TriggerLeadUpdated:          true,
	models.TriggerStatusChanged:        true,
	models.TriggerMessageReceived:      true,
	models.TriggerAppointmentScheduled: true,
	models.TriggerSaleClosed:           true,
}

type workflowInput struct {
	Name          string                     `json:"name" validate:"required,max=200"`
	Description   string                     `json:"description" validate:"omitempty,max=1000"`
	Enabled       *bool                      `json:"enabled"`
	Trigger       string                     `json:"trigger" validate:"required"`
	TriggerConfig map[string]interface{}     `json:"trigger_config"`
	Conditions    []models.WorkflowCondition `json:"conditions"`
	Actions       []models.WorkflowAction    `json:"actions" validate:"required,min=1"`
}

func (wc *WorkflowController) validateInput(input *workflowInput) error {
	if !validTriggers[input.Trigger] {
		return errors.New("unknown trigger event: " + input.Trigger)
	}
	for _, cond := range input.Conditions {
		switch cond.Operator {
		case models.OpEquals, models.OpNotEquals, models.OpGreaterThan, models.OpLessThan,
			models.OpContains, models.OpNotContains, models.OpExists, models.OpNotExists:
		default:
			return errors.New("unknown condition operator: " + cond.Operator)
		}
		if cond.Field == "" {
			return errors.New("condition field is required")
		}
	}
	for _, action := range input.Actions {
		if action.Type == "" {
			return errors.New("action type is required")
		}
		if action.DelaySeconds < 0 {
			return errors.New("action delay cannot be negative")
		}
	}
	return nil
}

func (wc *WorkflowController) CreateWorkflow(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input workflowInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if err := wc.validateInput(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid workflow definition", err)
	}

	workflow := models.Workflow{
		DealershipID:  user.DealershipID,
		Name:          input.Name,
		Description:   input.Description,
		Enabled:       true,
		Trigger:       input.Trigger,
		TriggerConfig: input.TriggerConfig,
		Conditions:    input.Conditions,
		Actions:       input.Actions,
	}
	if input.Enabled != nil {
		workflow.Enabled = *input.Enabled
	}

	if err := wc.DB.Create(&workflow).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create workflow", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(workflow))
}

func (wc *WorkflowController) ListWorkflows(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	query := wc.DB.Where("dealership_id = ?", user.DealershipID)
	if trigger := c.Query("trigger"); trigger != "" {
		query = query.Where("trigger_event = ?", trigger)
	}

	var workflows []models.Workflow
	if err := query.Order("id asc").Find(&workflows).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch workflows", err)
	}
	return c.JSON(utils.SuccessResponse(workflows))
}

func (wc *WorkflowController) GetWorkflow(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var workflow models.Workflow
	if err := wc.DB.Where("id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).First(&workflow).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Workflow not found", nil)
	}
	return c.JSON(utils.SuccessResponse(workflow))
}

func (wc *WorkflowController) UpdateWorkflow(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var workflow models.Workflow
	if err := wc.DB.Where("id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).First(&workflow).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Workflow not found", nil)
	}

	var input workflowInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if err := wc.validateInput(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid workflow definition", err)
	}

	workflow.Name = input.Name
	workflow.Description = input.Description
	workflow.Trigger = input.Trigger
	workflow.TriggerConfig = input.TriggerConfig
	workflow.Conditions = input.Conditions
	workflow.Actions = input.Actions
	if input.Enabled != nil {
		workflow.Enabled = *input.Enabled
	}

	if err := wc.DB.Save(&workflow).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update workflow", err)
	}
	return c.JSON(utils.SuccessResponse(workflow))
}

// ToggleWorkflow flips the enabled flag. Workflows are never physically
// deleted; disabling is the supported way to retire one.
func (wc *WorkflowController) ToggleWorkflow(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var workflow models.Workflow
	if err := wc.DB.Where("id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).First(&workflow).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Workflow not found", nil)
	}

	workflow.Enabled = !workflow.Enabled
	if err := wc.DB.Save(&workflow).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to toggle workflow", err)
	}
	return c.JSON(utils.SuccessResponse(workflow))
}

// TestRunWorkflow executes the workflow against caller-supplied trigger
// data and reports the outcome, including why a run was skipped.
func (wc *WorkflowController) TestRunWorkflow(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var workflow models.Workflow
	if err := wc.DB.Where("id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).First(&workflow).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Workflow not found", nil)
	}

	var triggerData map[string]interface{}
	if err := c.BodyParser(&triggerData); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid trigger data", err)
	}

	err := wc.Engine.ExecuteWorkflow(user.DealershipID, workflow.ID, triggerData)
	switch {
	case err == nil:
		return c.JSON(utils.SuccessResponse(fiber.Map{"outcome": "executed"}))
	case automation.IsPrecondition(err):
		return c.JSON(utils.SuccessResponse(fiber.Map{"outcome": "skipped", "reason": err.Error()}))
	default:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Workflow execution error", err)
	}
}

// ListExecutions returns the workflow's execution ledger, newest first
func (wc *WorkflowController) ListExecutions(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var workflow models.Workflow
	if err := wc.DB.Where("id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).First(&workflow).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Workflow not found", nil)
	}

	query := wc.DB.Where("workflow_id = ? AND dealership_id = ?", workflow.ID, user.DealershipID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var executions []models.WorkflowExecution
	if err := query.Order("started_at desc").Limit(100).Find(&executions).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch executions", err)
	}
	return c.JSON(utils.SuccessResponse(executions))
}
