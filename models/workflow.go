package models

import (
	"time"

	"gorm.io/gorm"
)

// Workflow trigger events
const (
	TriggerLeadCreated          = "lead_created"
	TriggerLeadUpdated          = "lead_updated"
	TriggerStatusChanged        = "status_changed"
	TriggerMessageReceived      = "message_received"
	TriggerAppointmentScheduled = "appointment_scheduled"
	TriggerSaleClosed           = "sale_closed"
)

// Condition operators
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpExists      = "exists"
	OpNotExists   = "not_exists"
)

// ActionType tags the handler a workflow action dispatches to
type ActionType string

const (
	ActionChangeStatus    ActionType = "change_status"
	ActionAssignToUser    ActionType = "assign_to_user"
	ActionAddTag          ActionType = "add_tag"
	ActionUpdateScore     ActionType = "update_score"
	ActionSendEmail       ActionType = "send_email"
	ActionSendWhatsApp    ActionType = "send_whatsapp"
	ActionSendSMS         ActionType = "send_sms"
	ActionCreateTask      ActionType = "create_task"
	ActionNotifyUser      ActionType = "notify_user"
	ActionTriggerWorkflow ActionType = "trigger_workflow"
)

// Execution statuses
const (
	ExecutionStatusPending   = "pending"
	ExecutionStatusRunning   = "running"
	ExecutionStatusCompleted = "completed"
	ExecutionStatusFailed    = "failed"
)

// Workflow is a tenant-defined automation rule: a trigger event, a list of
// ANDed conditions over the trigger data, and an ordered list of actions.
// Workflows are soft-disabled via Enabled, never deleted.
type Workflow struct {
	gorm.Model
	DealershipID uint `gorm:"not null;index" json:"dealership_id"`

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	// no column default: a workflow created disabled must insert false
	Enabled bool `json:"enabled"`

	// "trigger" is reserved in Postgres, hence the column name
	Trigger       string                 `gorm:"column:trigger_event;not null;index" json:"trigger"`
	TriggerConfig map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"trigger_config,omitempty"`

	Conditions []WorkflowCondition `gorm:"type:jsonb;serializer:json" json:"conditions"`
	Actions    []WorkflowAction    `gorm:"type:jsonb;serializer:json" json:"actions"`

	ExecutionCount int        `gorm:"default:0" json:"execution_count"`
	LastExecutedAt *time.Time `json:"last_executed_at,omitempty"`

	// Relations
	Executions []WorkflowExecution `gorm:"foreignKey:WorkflowID" json:"executions,omitempty"`
}

// WorkflowCondition compares one trigger-data field against a value.
// Field is an attribute path ("lead.status"), not an expression.
type WorkflowCondition struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

// WorkflowAction is one step of a workflow: an action-type tag, a free-form
// config map interpreted by the matching handler, and an optional delay
// applied before dispatch.
type WorkflowAction struct {
	Type         ActionType             `json:"type"`
	Config       map[string]interface{} `json:"config"`
	DelaySeconds int                    `json:"delay_seconds,omitempty"`
}

// WorkflowExecution is the ledger entry for one workflow run. It is created
// with status running, transitions once to completed or failed, and is
// immutable afterwards.
type WorkflowExecution struct {
	gorm.Model
	WorkflowID   uint  `gorm:"not null;index" json:"workflow_id"`
	DealershipID uint  `gorm:"not null;index" json:"dealership_id"`
	LeadID       *uint `gorm:"index" json:"lead_id,omitempty"`

	TriggerData map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"trigger_data"`

	Status          string   `gorm:"not null;index" json:"status"`
	ActionsExecuted []string `gorm:"type:jsonb;serializer:json" json:"actions_executed"`
	ActionsFailed   []string `gorm:"type:jsonb;serializer:json" json:"actions_failed"`
	Error           string   `json:"error,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Relations
	Workflow Workflow `json:"-"`
}
