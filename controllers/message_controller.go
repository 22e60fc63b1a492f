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

type MessageController struct {
	DB        *gorm.DB
	Engine    *automation.Engine
	Messenger automation.Messenger
	Logger    *log.Logger
}

func NewMessageController(db *gorm.DB, engine *automation.Engine, messenger automation.Messenger, logger *log.Logger) *MessageController {
	return &MessageController{
		DB:        db,
		Engine:    engine,
		Messenger: messenger,
		Logger:    logger,
	}
}

// RecordInbound stores an inbound message from a lead, bumps the
// interaction counter, re-scores the lead and fires message_received.
func (mc *MessageController) RecordInbound(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Channel   string `json:"channel" validate:"required,oneof=email sms whatsapp"`
		Subject   string `json:"subject" validate:"omitempty,max=500"`
		Body      string `json:"body" validate:"required"`
		MessageID string `json:"message_id" validate:"omitempty,max=200"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var lead models.Lead
	if err := mc.DB.Where("id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).First(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}

	now := time.Now()
	message := models.Message{
		DealershipID: user.DealershipID,
		LeadID:       lead.ID,
		Channel:      input.Channel,
		Direction:    "inbound",
		Subject:      input.Subject,
		Body:         input.Body,
		MessageID:    input.MessageID,
		SentAt:       &now,
	}
	if err := mc.DB.Create(&message).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record message", err)
	}

	lead.InteractionCount++
	lead.LastContactAt = &now
	if err := mc.DB.Save(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update lead", err)
	}

	if err := mc.Engine.UpdateLeadScore(user.DealershipID, lead.ID, "inbound message", nil); err != nil {
		mc.Logger.Printf("Failed to re-score lead %d: %v", lead.ID, err)
	}

	mc.Engine.FireTrigger(user.DealershipID, models.TriggerMessageReceived,
		automation.LeadTriggerData(&lead, map[string]interface{}{
			"trigger": models.TriggerMessageReceived,
			"channel": input.Channel,
		}))

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(message))
}

// SendMessage sends an outbound message to the lead over the chosen channel
func (mc *MessageController) SendMessage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Channel string `json:"channel" validate:"required,oneof=email sms whatsapp"`
		Subject string `json:"subject" validate:"omitempty,max=500"`
		Body    string `json:"body" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var lead models.Lead
	if err := mc.DB.Where("id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).First(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}

	var err error
	switch input.Channel {
	case "email":
		err = mc.Messenger.SendEmail(user.DealershipID, &lead, input.Subject, input.Body)
	case "sms":
		err = mc.Messenger.SendSMS(user.DealershipID, &lead, input.Body)
	case "whatsapp":
		err = mc.Messenger.SendWhatsApp(user.DealershipID, &lead, input.Body)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to send message", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"sent": true}))
}

func (mc *MessageController) ListMessages(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var messages []models.Message
	if err := mc.DB.Where("lead_id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).
		Order("created_at asc").Find(&messages).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch messages", err)
	}
	return c.JSON(utils.SuccessResponse(messages))
}
