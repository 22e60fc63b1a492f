package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	"dealerflow/models"
	"dealerflow/utils"
)

type NotificationController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewNotificationController(db *gorm.DB, logger *log.Logger) *NotificationController {
	return &NotificationController{
		DB:     db,
		Logger: logger,
	}
}

func (nc *NotificationController) ListNotifications(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	query := nc.DB.Where("dealership_id = ? AND user_id = ?", user.DealershipID, user.ID)
	if c.Query("unread") == "true" {
		query = query.Where("read_at IS NULL")
	}

	var notifications []models.Notification
	if err := query.Order("created_at desc").Limit(100).Find(&notifications).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch notifications", err)
	}
	return c.JSON(utils.SuccessResponse(notifications))
}

func (nc *NotificationController) MarkRead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var notification models.Notification
	if err := nc.DB.Where("id = ? AND dealership_id = ? AND user_id = ?",
		c.Params("id"), user.DealershipID, user.ID).First(&notification).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Notification not found", nil)
	}

	if notification.ReadAt == nil {
		now := time.Now()
		notification.ReadAt = &now
		if err := nc.DB.Save(&notification).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update notification", err)
		}
	}
	return c.JSON(utils.SuccessResponse(notification))
}

func (nc *NotificationController) MarkAllRead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	now := time.Now()
	result := nc.DB.Model(&models.Notification{}).
		Where("dealership_id = ? AND user_id = ? AND read_at IS NULL", user.DealershipID, user.ID).
		Update("read_at", &now)
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update notifications", result.Error)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"updated": result.RowsAffected}))
}

// HandleNotificationFeedWS streams new notifications for the connected user.
// The connection is upgraded behind the JWT middleware, so Locals carry the
// authenticated user.
func (nc *NotificationController) HandleNotificationFeedWS(c *websocket.Conn) {
	defer c.Close()

	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return
	}

	lastSeen := uint(0)
	var latest models.Notification
	if err := nc.DB.Where("user_id = ?", user.ID).Order("id desc").First(&latest).Error; err == nil {
		lastSeen = latest.ID
	}

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	// Detect client disconnect; reads are otherwise unused on this feed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			var fresh []models.Notification
			if err := nc.DB.Where("user_id = ? AND id > ?", user.ID, lastSeen).
				Order("id asc").Find(&fresh).Error; err != nil {
				nc.Logger.Printf("notification feed query failed: %v", err)
				continue
			}
			for _, n := range fresh {
				if err := c.WriteJSON(n); err != nil {
					return
				}
				lastSeen = n.ID
			}
		}
	}
}
