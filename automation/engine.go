package automation

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"dealerflow/models"
)

// Precondition failures: raised before any execution ledger entry exists.
// Callers treat these as "workflow not applicable", not as system errors.
var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrWorkflowDisabled = errors.New("workflow is disabled")
	ErrConditionsNotMet = errors.New("workflow conditions not met")
	ErrLeadNotFound     = errors.New("lead not found")
)

// ErrWorkflowCycle is returned when a trigger_workflow chain reaches a
// workflow already on the call path.
var ErrWorkflowCycle = errors.New("workflow cycle detected")

// ErrUnknownActionType marks an action whose type tag has no registered
// handler. It is an execution failure, not a no-op.
var ErrUnknownActionType = errors.New("unknown action type")

// IsPrecondition reports whether err is one of the failures that happen
// before an execution record is created.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrWorkflowDisabled) ||
		errors.Is(err, ErrConditionsNotMet)
}

// Engine runs workflows and computes lead scores. One engine serves all
// dealerships; every call is scoped by dealership id.
type Engine struct {
	store     Store
	messenger Messenger
	logger    *logrus.Logger

	handlers map[models.ActionType]ActionHandler

	// sleep implements per-action delays; tests swap it out
	sleep func(time.Duration)
}

func NewEngine(store Store, messenger Messenger, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	e := &Engine{
		store:     store,
		messenger: messenger,
		logger:    logger,
		sleep:     time.Sleep,
	}
	e.registerHandlers()
	return e
}

// FireTrigger runs every enabled workflow registered for the trigger.
// Precondition failures are silent skips; action failures are already
// audited in the ledger, so nothing propagates to the caller.
func (e *Engine) FireTrigger(dealershipID uint, trigger string, triggerData map[string]interface{}) {
	workflows, err := e.store.ListEnabledWorkflows(dealershipID, trigger)
	if err != nil {
		e.logger.WithError(err).WithField("trigger", trigger).Error("failed to list workflows for trigger")
		return
	}

	for _, wf := range workflows {
		if err := e.ExecuteWorkflow(dealershipID, wf.ID, triggerData); err != nil && !IsPrecondition(err) {
			e.logger.WithError(err).WithFields(logrus.Fields{
				"workflow_id": wf.ID,
				"trigger":     trigger,
			}).Error("workflow execution error")
		}
	}
}
