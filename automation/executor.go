package automation

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"dealerflow/models"
)

// ExecuteWorkflow runs one workflow against the trigger data.
//
// Precondition failures (workflow missing, disabled, conditions unmet) are
// returned before any ledger entry exists. Once an execution record is
// created, action failures are recorded in it and ExecuteWorkflow returns
// nil: the ledger is the only surface for them. Already-applied actions
// are never rolled back.
func (e *Engine) ExecuteWorkflow(dealershipID, workflowID uint, triggerData map[string]interface{}) error {
	return e.execute(dealershipID, workflowID, triggerData, map[uint]bool{})
}

func (e *Engine) execute(dealershipID, workflowID uint, triggerData map[string]interface{}, visited map[uint]bool) error {
	if visited[workflowID] {
		return fmt.Errorf("workflow %d: %w", workflowID, ErrWorkflowCycle)
	}
	visited[workflowID] = true

	workflow, err := e.store.GetWorkflow(dealershipID, workflowID)
	if err != nil {
		return fmt.Errorf("load workflow %d: %w", workflowID, err)
	}
	if workflow == nil {
		return ErrWorkflowNotFound
	}
	if !workflow.Enabled {
		return ErrWorkflowDisabled
	}
	if !EvaluateConditions(triggerData, workflow.Conditions) {
		// deliberate silent skip: unmet conditions leave no ledger entry
		return ErrConditionsNotMet
	}

	exec := &models.WorkflowExecution{
		WorkflowID:   workflow.ID,
		DealershipID: dealershipID,
		LeadID:       leadIDFromTrigger(triggerData),
		TriggerData:  triggerData,
		Status:       models.ExecutionStatusRunning,
		StartedAt:    time.Now(),
	}
	if err := e.store.CreateExecution(exec); err != nil {
		return fmt.Errorf("create execution record: %w", err)
	}

	log := e.logger.WithFields(logrus.Fields{
		"dealership_id": dealershipID,
		"workflow_id":   workflow.ID,
		"execution_id":  exec.ID,
	})
	log.WithField("actions", len(workflow.Actions)).Info("workflow execution started")

	for _, action := range workflow.Actions {
		if action.DelaySeconds > 0 {
			e.sleep(time.Duration(action.DelaySeconds) * time.Second)
		}

		if err := e.dispatch(dealershipID, action, triggerData, visited); err != nil {
			exec.Status = models.ExecutionStatusFailed
			exec.ActionsFailed = append(exec.ActionsFailed, string(action.Type))
			exec.Error = err.Error()
			log.WithError(err).WithField("action", action.Type).Warn("workflow action failed, aborting run")
			sentry.CaptureException(err)
			break
		}
		exec.ActionsExecuted = append(exec.ActionsExecuted, string(action.Type))
	}

	if exec.Status == models.ExecutionStatusRunning {
		exec.Status = models.ExecutionStatusCompleted
	}
	now := time.Now()
	exec.CompletedAt = &now
	if err := e.store.SaveExecution(exec); err != nil {
		log.WithError(err).Error("failed to persist execution record")
	}

	// counter and timestamp move regardless of the run's outcome
	if err := e.store.MarkExecuted(dealershipID, workflow.ID, now); err != nil {
		log.WithError(err).Error("failed to update workflow execution counter")
	}

	log.WithField("status", exec.Status).Info("workflow execution finished")
	return nil
}

// leadIDFromTrigger pulls the lead id out of the trigger data when present.
// JSON-decoded trigger data carries numbers as float64.
func leadIDFromTrigger(triggerData map[string]interface{}) *uint {
	raw, ok := triggerData["lead_id"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case float64:
		id := uint(v)
		return &id
	case int:
		id := uint(v)
		return &id
	case uint:
		return &v
	default:
		return nil
	}
}
