package automation

import (
	"time"

	"dealerflow/models"
)

// WorkflowStore is the workflow definition and execution-ledger contract.
// GetWorkflow returns (nil, nil) when no workflow matches.
type WorkflowStore interface {
	GetWorkflow(dealershipID, workflowID uint) (*models.Workflow, error)
	ListEnabledWorkflows(dealershipID uint, trigger string) ([]models.Workflow, error)
	CreateExecution(exec *models.WorkflowExecution) error
	SaveExecution(exec *models.WorkflowExecution) error
	MarkExecuted(dealershipID, workflowID uint, at time.Time) error
}

// LeadStore reads and partially updates lead documents. UpdateLead only
// accepts the field keys the engine writes; anything else is ignored.
type LeadStore interface {
	GetLead(dealershipID, leadID uint) (*models.Lead, error)
	UpdateLead(dealershipID, leadID uint, fields map[string]interface{}) error
}

// ScoringStore loads the per-dealership scoring configuration with its
// rules attached, falling back to defaults when none was saved yet.
type ScoringStore interface {
	GetScoringConfig(dealershipID uint) (*models.ScoringConfig, error)
}

type TaskStore interface {
	CreateTask(task *models.Task) error
}

type Notifier interface {
	CreateNotification(n *models.Notification) error
}

// Store bundles the persistence contracts the engine needs. The gorm
// implementation lives in store_gorm.go; tests use in-memory fakes.
type Store interface {
	WorkflowStore
	LeadStore
	ScoringStore
	TaskStore
	Notifier
}

// Messenger sends outbound messages to a lead. Implementations are
// fire-and-forget; the engine never retries a failed send.
type Messenger interface {
	SendEmail(dealershipID uint, lead *models.Lead, subject, body string) error
	SendSMS(dealershipID uint, lead *models.Lead, body string) error
	SendWhatsApp(dealershipID uint, lead *models.Lead, body string) error
}
