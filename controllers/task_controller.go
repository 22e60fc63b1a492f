package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"dealerflow/models"
	"dealerflow/utils"
)

type TaskController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewTaskController(db *gorm.DB, logger *log.Logger) *TaskController {
	return &TaskController{
		DB:     db,
		Logger: logger,
	}
}

func (tc *TaskController) ListTasks(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	query := tc.DB.Where("dealership_id = ?", user.DealershipID)
	if c.Query("mine") == "true" {
		query = query.Where("assigned_to_id = ?", user.ID)
	}
	if c.Query("open") == "true" {
		query = query.Where("completed_at IS NULL")
	}

	var tasks []models.Task
	if err := query.Order("due_at asc nulls last, created_at desc").Limit(200).Find(&tasks).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch tasks", err)
	}
	return c.JSON(utils.SuccessResponse(tasks))
}

func (tc *TaskController) CompleteTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var task models.Task
	if err := tc.DB.Where("id = ? AND dealership_id = ?", c.Params("id"), user.DealershipID).First(&task).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Task not found", nil)
	}
	if task.CompletedAt != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Task is already completed", nil)
	}

	now := time.Now()
	task.CompletedAt = &now
	if err := tc.DB.Save(&task).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to complete task", err)
	}
	return c.JSON(utils.SuccessResponse(task))
}
