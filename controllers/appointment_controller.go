package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"dealerflow/automation"
	"dealerflow/models"
	"dealerflow/utils"
)

type AppointmentController struct {
	DB     *gorm.DB
	Engine *automation.Engine
	Logger *log.Logger
}

func NewAppointmentController(db *gorm.DB, engine *automation.Engine, logger *log.Logger) *AppointmentController {
	return &AppointmentController{
		DB:     db,
		Engine: engine,
		Logger: logger,
	}
}

// CreateAppointment schedules a visit for a lead and fires the
// appointment_scheduled workflows.
func (ac *AppointmentController) CreateAppointment(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		LeadID       uint      `json:"lead_id" validate:"required"`
		Title        string    `json:"title" validate:"required,max=200"`
		Type         string    `json:"type" validate:"omitempty,oneof=test_drive appraisal delivery visit"`
		Notes        string    `json:"notes" validate:"omitempty,max=2000"`
		ScheduledAt  time.Time `json:"scheduled_at" validate:"required"`
		AssignedToID *uint     `json:"assigned_to_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var lead models.Lead
	if err := ac.DB.Where("id = ? AND dealership_id = ?", input.LeadID, user.DealershipID).First(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}

	appointment := models.Appointment{
		DealershipID: user.DealershipID,
		LeadID:       lead.ID,
		AssignedToID: input.AssignedToID,
		Title:        input.Title,
		Type:         input.Type,
		Notes:        input.Notes,
		ScheduledAt:  input.ScheduledAt,
		Status:       models.AppointmentStatusScheduled,
	}
	if err := ac.DB.Create(&appointment).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create appointment", err)
	}

	ac.Engine.FireTrigger(user.DealershipID, models.TriggerAppointmentScheduled,
		automation.LeadTriggerData(&lead, map[string]interface{}{
			"trigger":        models.TriggerAppointmentScheduled,
			"appointment_id": float64(appointment.ID),
			"scheduled_at":   appointment.ScheduledAt.Format(time.RFC3339),
		}))

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(appointment))
}

func (ac *AppointmentController) ListAppointments(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	query := ac.DB.Where("dealership_id = ?", user.DealershipID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if leadID := c.QueryInt("lead_id"); leadID > 0 {
		query = query.Where("lead_id = ?", leadID)
	}

	var appointments []models.Appointment
	if err := query.Order("scheduled_at asc").Limit(200).Find(&appointments).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch appointments", err)
	}
	return c.JSON(utils.SuccessResponse(appointments))
}

func (ac *AppointmentController) UpdateAppointmentStatus(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Status string `json:"status" validate:"required,oneof=scheduled confirmed completed no_show canceled"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var appointment models.Appointment
	if err := ac.DB.Where("id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).First(&appointment).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Appointment not found", nil)
	}

	appointment.Status = input.Status
	if err := ac.DB.Save(&appointment).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update appointment", err)
	}
	return c.JSON(utils.SuccessResponse(appointment))
}
