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

type SaleController struct {
	DB     *gorm.DB
	Engine *automation.Engine
	Logger *log.Logger
}

func NewSaleController(db *gorm.DB, engine *automation.Engine, logger *log.Logger) *SaleController {
	return &SaleController{
		DB:     db,
		Engine: engine,
		Logger: logger,
	}
}

func (sc *SaleController) CreateSale(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		LeadID      uint   `json:"lead_id" validate:"required"`
		Vehicle     string `json:"vehicle" validate:"required,max=200"`
		VIN         string `json:"vin" validate:"omitempty,max=17"`
		AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
		Currency    string `json:"currency" validate:"omitempty,len=3"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var lead models.Lead
	if err := sc.DB.Where("id = ? AND dealership_id = ?", input.LeadID, user.DealershipID).First(&lead).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}

	sale := models.Sale{
		DealershipID: user.DealershipID,
		LeadID:       lead.ID,
		SoldByID:     &user.ID,
		Vehicle:      input.Vehicle,
		VIN:          input.VIN,
		AmountCents:  input.AmountCents,
		Status:       "pending",
	}
	if input.Currency != "" {
		sale.Currency = input.Currency
	}

	if err := sc.DB.Create(&sale).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create sale", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(sale))
}

// CloseSale marks the deal as closed, moves the lead to won and fires the
// sale_closed workflows.
func (sc *SaleController) CloseSale(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var sale models.Sale
	if err := sc.DB.Where("id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).First(&sale).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Sale not found", nil)
	}
	if sale.Status == "closed" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Sale is already closed", nil)
	}

	now := time.Now()
	sale.Status = "closed"
	sale.ClosedAt = &now
	if err := sc.DB.Save(&sale).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to close sale", err)
	}

	var lead models.Lead
	if err := sc.DB.Where("id = ? AND dealership_id = ?", sale.LeadID, user.DealershipID).First(&lead).Error; err == nil {
		lead.Status = models.LeadStatusWon
		if err := sc.DB.Save(&lead).Error; err != nil {
			sc.Logger.Printf("Failed to mark lead %d as won: %v", lead.ID, err)
		}

		sc.Engine.FireTrigger(user.DealershipID, models.TriggerSaleClosed,
			automation.LeadTriggerData(&lead, map[string]interface{}{
				"trigger":      models.TriggerSaleClosed,
				"sale_id":      float64(sale.ID),
				"amount_cents": float64(sale.AmountCents),
			}))
	}

	return c.JSON(utils.SuccessResponse(sale))
}

func (sc *SaleController) ListSales(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	query := sc.DB.Where("dealership_id = ?", user.DealershipID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var sales []models.Sale
	if err := query.Order("created_at desc").Limit(200).Find(&sales).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch sales", err)
	}
	return c.JSON(utils.SuccessResponse(sales))
}
