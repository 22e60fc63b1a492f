package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	"dealerflow/automation"
	controller "dealerflow/controllers"
	"dealerflow/middleware"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Get("/me", controller.GetCurrentUser)

	authLogger.Println("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, engine *automation.Engine, messenger automation.Messenger) {
	// Initialize controllers with their respective loggers
	leadController := controller.NewLeadController(db, engine, log.New(os.Stdout, "LEAD: ", log.LstdFlags))
	workflowController := controller.NewWorkflowController(db, engine, log.New(os.Stdout, "WORKFLOW: ", log.LstdFlags))
	scoringController := controller.NewScoringController(db, engine, log.New(os.Stdout, "SCORING: ", log.LstdFlags))
	appointmentController := controller.NewAppointmentController(db, engine, log.New(os.Stdout, "APPOINTMENT: ", log.LstdFlags))
	saleController := controller.NewSaleController(db, engine, log.New(os.Stdout, "SALE: ", log.LstdFlags))
	messageController := controller.NewMessageController(db, engine, messenger, log.New(os.Stdout, "MESSAGE: ", log.LstdFlags))
	taskController := controller.NewTaskController(db, log.New(os.Stdout, "TASK: ", log.LstdFlags))
	notificationController := controller.NewNotificationController(db, log.New(os.Stdout, "NOTIFY: ", log.LstdFlags))

	// Public intake endpoint keyed by the dealership API key, rate limited per
	// key and client IP
	app.Post("/intake/:apikey/leads", middleware.IntakeRateLimiter(), leadController.IntakeLead)

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Lead routes
	lead := api.Group("/leads")
	lead.Post("/", leadController.CreateLead)
	lead.Get("/", leadController.ListLeads)
	lead.Get("/:id", leadController.GetLead)
	lead.Put("/:id", leadController.UpdateLead)
	lead.Post("/:id/assign", leadController.AssignLead)
	lead.Post("/:id/score", leadController.SetManualScore)
	lead.Post("/:id/classification", leadController.RecordClassification)
	lead.Get("/:id/messages", messageController.ListMessages)
	lead.Post("/:id/messages", messageController.SendMessage)
	lead.Post("/:id/messages/inbound", messageController.RecordInbound)

	// Workflow routes
	workflow := api.Group("/workflows")
	workflow.Post("/", workflowController.CreateWorkflow)
	workflow.Get("/", workflowController.ListWorkflows)
	workflow.Get("/:id", workflowController.GetWorkflow)
	workflow.Put("/:id", workflowController.UpdateWorkflow)
	workflow.Post("/:id/toggle", workflowController.ToggleWorkflow)
	workflow.Post("/:id/test-run", workflowController.TestRunWorkflow)
	workflow.Get("/:id/executions", workflowController.ListExecutions)

	// Scoring routes
	scoring := api.Group("/scoring")
	scoring.Get("/config", scoringController.GetConfig)
	scoring.Put("/config", scoringController.UpdateConfig)
	scoring.Post("/rules", scoringController.CreateRule)
	scoring.Put("/rules/:id", scoringController.UpdateRule)
	scoring.Delete("/rules/:id", scoringController.DeleteRule)
	scoring.Post("/recalculate", scoringController.RecalculateAll)

	// Appointment routes
	appointment := api.Group("/appointments")
	appointment.Post("/", appointmentController.CreateAppointment)
	appointment.Get("/", appointmentController.ListAppointments)
	appointment.Put("/:id/status", appointmentController.UpdateAppointmentStatus)

	// Sale routes
	sale := api.Group("/sales")
	sale.Post("/", saleController.CreateSale)
	sale.Get("/", saleController.ListSales)
	sale.Post("/:id/close", saleController.CloseSale)

	// Task routes
	task := api.Group("/tasks")
	task.Get("/", taskController.ListTasks)
	task.Post("/:id/complete", taskController.CompleteTask)

	// Notification routes
	notification := api.Group("/notifications")
	notification.Get("/", notificationController.ListNotifications)
	notification.Post("/read-all", notificationController.MarkAllRead)
	notification.Post("/:id/read", notificationController.MarkRead)

	// WebSocket route for the live notification feed; the upgrade runs behind
	// the JWT middleware so the connection carries the authenticated user
	app.Get("/api/v1/notifications/feed", middleware.Protected(), websocket.New(func(c *websocket.Conn) {
		notificationController.HandleNotificationFeedWS(c)
	}))

	log.Println("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, db *gorm.DB, engine *automation.Engine, messenger automation.Messenger) {
	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Setup auth routes
	SetupAuthRoutes(app, db)

	// Setup API routes
	SetupAPIRoutes(app, db, engine, messenger)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
