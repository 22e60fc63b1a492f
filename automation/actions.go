package automation

import (
	"fmt"
	"time"

	"dealerflow/models"
)

// ActionHandler executes one workflow action. Handlers mutate external
// state through the engine's stores and return an error on failure; the
// executor stops the run at the first failing action.
type ActionHandler func(dealershipID uint, action models.WorkflowAction, triggerData map[string]interface{}, visited map[uint]bool) error

func (e *Engine) registerHandlers() {
	e.handlers = map[models.ActionType]ActionHandler{
		models.ActionChangeStatus:    e.changeStatus,
		models.ActionAssignToUser:    e.assignToUser,
		models.ActionAddTag:          e.addTag,
		models.ActionUpdateScore:     e.updateScore,
		models.ActionSendEmail:       e.sendEmail,
		models.ActionSendWhatsApp:    e.sendWhatsApp,
		models.ActionSendSMS:         e.sendSMS,
		models.ActionCreateTask:      e.createTask,
		models.ActionNotifyUser:      e.notifyUser,
		models.ActionTriggerWorkflow: e.triggerWorkflow,
	}
}

func (e *Engine) dispatch(dealershipID uint, action models.WorkflowAction, triggerData map[string]interface{}, visited map[uint]bool) error {
	handler, ok := e.handlers[action.Type]
	if !ok {
		return fmt.Errorf("%q: %w", action.Type, ErrUnknownActionType)
	}
	return handler(dealershipID, action, triggerData, visited)
}

func (e *Engine) changeStatus(dealershipID uint, action models.WorkflowAction, triggerData map[string]interface{}, _ map[uint]bool) error {
	status := configString(action.Config, "status")
	if status == "" {
		return fmt.Errorf("change_status: missing status in config")
	}
	lead, err := e.leadFromTrigger(dealershipID, triggerData)
	if err != nil {
		return err
	}
	return e.store.UpdateLead(dealershipID, lead.ID, map[string]interface{}{"status": status})
}

func (e *Engine) assignToUser(dealershipID uint, action models.WorkflowAction, triggerData map[string]interface{}, _ map[uint]bool) error {
	userID, ok := configUint(action.Config, "user_id")
	if !ok {
		return fmt.Errorf("assign_to_user: missing user_id in config")
	}
	lead, err := e.leadFromTrigger(dealershipID, triggerData)
	if err != nil {
		return err
	}
	return e.store.UpdateLead(dealershipID, lead.ID, map[string]interface{}{"assigned_to_id": userID})
}

// addTag is idempotent per tag: a tag the lead already carries is left alone.
func (e *Engine) addTag(dealershipID uint, action models.WorkflowAction, triggerData map[string]interface{}, _ map[uint]bool) error {
	tag := configString(action.Config, "tag")
	if tag == "" {
		return fmt.Errorf("add_tag: missing tag in config")
	}
	lead, err := e.leadFromTrigger(dealershipID, triggerData)
	if err != nil {
		return err
	}
	if lead.HasTag(tag) {
		return nil
	}
	tags := append(append([]string{}, lead.Tags...), tag)
	return e.store.UpdateLead(dealershipID, lead.ID, map[string]interface{}{"tags": tags})
}

// updateScore recomputes the lead's automatic score; a manual override is
// left untouched and only re-blended.
func (e *Engine) updateScore(dealershipID uint, action models.WorkflowAction, triggerData map[string]interface{}, _ map[uint]bool) error {
	lead, err := e.leadFromTrigger(dealershipID, triggerData)
	if err != nil {
		return err
	}
	reason := configString(action.Config, "reason")
	if reason == "" {
		reason = "workflow action"
	}
	return e.UpdateLeadScore(dealershipID, lead.ID, reason, nil)
}

func (e *Engine) sendEmail(dealershipID uint, action models.WorkflowAction, triggerData map[string]interface{}, _ map[uint]bool) error {
	lead, err := e.leadFromTrigger(dealershipID, triggerData)
	if err != nil {
		return err
	}
	subject := configString(action.Config, "subject")
	body := configString(action.Config, "body")
	return e.messenger.SendEmail(dealershipID, lead, subject, body)
}

func (e *Engine) sendWhatsApp(dealershipID uint, action models.WorkflowAction, triggerData map[string]interface{}, _ map[uint]bool) error {
	lead, err := e.leadFromTrigger(dealershipID, triggerData)
	if err != nil {
		return err
	}
	return e.messenger.SendWhatsApp(dealershipID, lead, configString(action.Config, "body"))
}

func (e *Engine) sendSMS(dealershipID uint, action models.WorkflowAction, triggerData map[string]interface{}, _ map[uint]bool) error {
	lead, err := e.leadFromTrigger(dealershipID, triggerData)
	if err != nil {
		return err
	}
	return e.messenger.SendSMS(dealershipID, lead, configString(action.Config, "body"))
}

func (e *Engine) createTask(dealershipID uint, action models.WorkflowAction, triggerData map[string]interface{}, _ map[uint]bool) error {
	title := configString(action.Config, "title")
	if title == "" {
		return fmt.Errorf("create_task: missing title in config")
	}
	task := &models.Task{
		DealershipID: dealershipID,
		LeadID:       leadIDFromTrigger(triggerData),
		Title:        title,
		Description:  configString(action.Config, "description"),
	}
	if priority := configString(action.Config, "priority"); priority != "" {
		task.Priority = priority
	}
	if userID, ok := configUint(action.Config, "assign_to"); ok {
		task.AssignedToID = &userID
	}
	if hours, ok := configInt(action.Config, "due_in_hours"); ok {
		due := time.Now().Add(time.Duration(hours) * time.Hour)
		task.DueAt = &due
	}
	return e.store.CreateTask(task)
}

func (e *Engine) notifyUser(dealershipID uint, action models.WorkflowAction, triggerData map[string]interface{}, _ map[uint]bool) error {
	userID, ok := configUint(action.Config, "user_id")
	if !ok {
		return fmt.Errorf("notify_user: missing user_id in config")
	}
	title := configString(action.Config, "title")
	if title == "" {
		title = "Workflow notification"
	}
	return e.store.CreateNotification(&models.Notification{
		DealershipID: dealershipID,
		UserID:       userID,
		LeadID:       leadIDFromTrigger(triggerData),
		Title:        title,
		Body:         configString(action.Config, "message"),
		Kind:         "workflow",
	})
}

// triggerWorkflow chains into another workflow with the same trigger data.
// The visited set travels with the call so a workflow that reaches itself
// again, directly or through a chain, fails with ErrWorkflowCycle instead
// of recursing forever.
func (e *Engine) triggerWorkflow(dealershipID uint, action models.WorkflowAction, triggerData map[string]interface{}, visited map[uint]bool) error {
	workflowID, ok := configUint(action.Config, "workflow_id")
	if !ok {
		return fmt.Errorf("trigger_workflow: missing workflow_id in config")
	}
	return e.execute(dealershipID, workflowID, triggerData, visited)
}

func (e *Engine) leadFromTrigger(dealershipID uint, triggerData map[string]interface{}) (*models.Lead, error) {
	id := leadIDFromTrigger(triggerData)
	if id == nil {
		return nil, fmt.Errorf("trigger data carries no lead_id")
	}
	lead, err := e.store.GetLead(dealershipID, *id)
	if err != nil {
		return nil, fmt.Errorf("load lead %d: %w", *id, err)
	}
	if lead == nil {
		return nil, fmt.Errorf("lead %d: %w", *id, ErrLeadNotFound)
	}
	return lead, nil
}

// Config value helpers. Action config maps come from jsonb, so numbers are
// float64.

func configString(config map[string]interface{}, key string) string {
	if config == nil {
		return ""
	}
	s, _ := config[key].(string)
	return s
}

func configUint(config map[string]interface{}, key string) (uint, bool) {
	n, ok := configInt(config, key)
	if !ok || n < 0 {
		return 0, false
	}
	return uint(n), true
}

func configInt(config map[string]interface{}, key string) (int, bool) {
	if config == nil {
		return 0, false
	}
	switch v := config[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case uint:
		return int(v), true
	default:
		return 0, false
	}
}
