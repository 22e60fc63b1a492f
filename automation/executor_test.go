package automation

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealerflow/models"
)

// fakeStore is an in-memory Store for engine tests.
type fakeStore struct {
	workflows     map[uint]*models.Workflow
	leads         map[uint]*models.Lead
	config        *models.ScoringConfig
	executions    []*models.WorkflowExecution
	tasks         []*models.Task
	notifications []*models.Notification
	leadUpdates   []map[string]interface{}
	executedAt    map[uint]time.Time
	executedCount map[uint]int
	nextExecID    uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		workflows:     map[uint]*models.Workflow{},
		leads:         map[uint]*models.Lead{},
		executedAt:    map[uint]time.Time{},
		executedCount: map[uint]int{},
	}
}

func (s *fakeStore) GetWorkflow(dealershipID, workflowID uint) (*models.Workflow, error) {
	wf, ok := s.workflows[workflowID]
	if !ok || wf.DealershipID != dealershipID {
		return nil, nil
	}
	return wf, nil
}

func (s *fakeStore) ListEnabledWorkflows(dealershipID uint, trigger string) ([]models.Workflow, error) {
	var out []models.Workflow
	for _, wf := range s.workflows {
		if wf.DealershipID == dealershipID && wf.Trigger == trigger && wf.Enabled {
			out = append(out, *wf)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateExecution(exec *models.WorkflowExecution) error {
	s.nextExecID++
	exec.ID = s.nextExecID
	s.executions = append(s.executions, exec)
	return nil
}

func (s *fakeStore) SaveExecution(exec *models.WorkflowExecution) error {
	return nil
}

func (s *fakeStore) MarkExecuted(dealershipID, workflowID uint, at time.Time) error {
	s.executedAt[workflowID] = at
	s.executedCount[workflowID]++
	return nil
}

func (s *fakeStore) GetLead(dealershipID, leadID uint) (*models.Lead, error) {
	lead, ok := s.leads[leadID]
	if !ok || lead.DealershipID != dealershipID {
		return nil, nil
	}
	return lead, nil
}

func (s *fakeStore) UpdateLead(dealershipID, leadID uint, fields map[string]interface{}) error {
	s.leadUpdates = append(s.leadUpdates, fields)
	lead, ok := s.leads[leadID]
	if !ok {
		return errors.New("no such lead")
	}
	if status, ok := fields["status"].(string); ok {
		lead.Status = status
	}
	if tags, ok := fields["tags"].([]string); ok {
		lead.Tags = tags
	}
	if score, ok := fields["automatic_score"].(int); ok {
		lead.AutomaticScore = score
	}
	if score, ok := fields["combined_score"].(int); ok {
		lead.CombinedScore = score
	}
	if manual, ok := fields["manual_score"].(int); ok {
		lead.ManualScore = &manual
	}
	if history, ok := fields["score_history"].([]models.ScoreHistoryEntry); ok {
		lead.ScoreHistory = history
	}
	return nil
}

func (s *fakeStore) GetScoringConfig(dealershipID uint) (*models.ScoringConfig, error) {
	if s.config != nil {
		return s.config, nil
	}
	cfg := DefaultScoringConfig(dealershipID)
	return &cfg, nil
}

func (s *fakeStore) CreateTask(task *models.Task) error {
	s.tasks = append(s.tasks, task)
	return nil
}

func (s *fakeStore) CreateNotification(n *models.Notification) error {
	s.notifications = append(s.notifications, n)
	return nil
}

func testEngine(store *fakeStore) *Engine {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	e := NewEngine(store, NopMessenger{}, logger)
	e.sleep = func(time.Duration) {}
	return e
}

func testLead(id uint) *models.Lead {
	lead := &models.Lead{
		DealershipID: 1,
		Status:       models.LeadStatusNew,
		Source:       "web",
	}
	lead.ID = id
	return lead
}

func triggerFor(leadID uint) map[string]interface{} {
	return map[string]interface{}{"lead_id": float64(leadID)}
}

func TestExecuteWorkflowMissing(t *testing.T) {
	store := newFakeStore()
	e := testEngine(store)

	err := e.ExecuteWorkflow(1, 99, triggerFor(1))
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
	assert.Empty(t, store.executions)
}

func TestExecuteWorkflowDisabled(t *testing.T) {
	store := newFakeStore()
	wf := &models.Workflow{DealershipID: 1, Trigger: models.TriggerLeadCreated, Enabled: false}
	wf.ID = 7
	store.workflows[7] = wf
	e := testEngine(store)

	err := e.ExecuteWorkflow(1, 7, triggerFor(1))
	assert.ErrorIs(t, err, ErrWorkflowDisabled)
	assert.Empty(t, store.executions, "precondition failures must not create a ledger entry")
	assert.Zero(t, store.executedCount[7])
}

func TestExecuteWorkflowConditionsNotMet(t *testing.T) {
	store := newFakeStore()
	wf := &models.Workflow{
		DealershipID: 1,
		Trigger:      models.TriggerLeadCreated,
		Enabled:      true,
		Conditions: []models.WorkflowCondition{
			{Field: "lead.status", Operator: models.OpEquals, Value: "qualified"},
		},
	}
	wf.ID = 7
	store.workflows[7] = wf
	e := testEngine(store)

	data := map[string]interface{}{
		"lead_id": float64(1),
		"lead":    map[string]interface{}{"status": "new"},
	}
	err := e.ExecuteWorkflow(1, 7, data)
	assert.ErrorIs(t, err, ErrConditionsNotMet)
	assert.Empty(t, store.executions)
}

func TestExecuteWorkflowStopsAtFirstFailure(t *testing.T) {
	store := newFakeStore()
	store.leads[1] = testLead(1)
	wf := &models.Workflow{
		DealershipID: 1,
		Trigger:      models.TriggerLeadCreated,
		Enabled:      true,
		Actions: []models.WorkflowAction{
			{Type: "spy_ok"},
			{Type: "spy_fail"},
			{Type: "spy_never"},
		},
	}
	wf.ID = 7
	store.workflows[7] = wf
	e := testEngine(store)

	var ran []string
	e.handlers["spy_ok"] = func(uint, models.WorkflowAction, map[string]interface{}, map[uint]bool) error {
		ran = append(ran, "spy_ok")
		return nil
	}
	e.handlers["spy_fail"] = func(uint, models.WorkflowAction, map[string]interface{}, map[uint]bool) error {
		ran = append(ran, "spy_fail")
		return errors.New("boom")
	}
	e.handlers["spy_never"] = func(uint, models.WorkflowAction, map[string]interface{}, map[uint]bool) error {
		ran = append(ran, "spy_never")
		return nil
	}

	// once the ledger entry exists, the run reports success to the caller
	err := e.ExecuteWorkflow(1, 7, triggerFor(1))
	require.NoError(t, err)

	assert.Equal(t, []string{"spy_ok", "spy_fail"}, ran)

	require.Len(t, store.executions, 1)
	exec := store.executions[0]
	assert.Equal(t, models.ExecutionStatusFailed, exec.Status)
	assert.Equal(t, []string{"spy_ok"}, exec.ActionsExecuted)
	assert.Equal(t, []string{"spy_fail"}, exec.ActionsFailed)
	assert.Contains(t, exec.Error, "boom")
	assert.NotNil(t, exec.CompletedAt)

	// the counter moves regardless of the outcome
	assert.Equal(t, 1, store.executedCount[7])
}

func TestExecuteWorkflowCompletes(t *testing.T) {
	store := newFakeStore()
	store.leads[1] = testLead(1)
	wf := &models.Workflow{
		DealershipID: 1,
		Trigger:      models.TriggerLeadCreated,
		Enabled:      true,
		Actions: []models.WorkflowAction{
			{Type: models.ActionChangeStatus, Config: map[string]interface{}{"status": "contacted"}},
			{Type: models.ActionAddTag, Config: map[string]interface{}{"tag": "hot"}},
		},
	}
	wf.ID = 7
	store.workflows[7] = wf
	e := testEngine(store)

	require.NoError(t, e.ExecuteWorkflow(1, 7, triggerFor(1)))

	require.Len(t, store.executions, 1)
	exec := store.executions[0]
	assert.Equal(t, models.ExecutionStatusCompleted, exec.Status)
	assert.Equal(t, []string{"change_status", "add_tag"}, exec.ActionsExecuted)
	assert.Empty(t, exec.ActionsFailed)

	assert.Equal(t, "contacted", store.leads[1].Status)
	assert.Equal(t, []string{"hot"}, store.leads[1].Tags)

	leadID := exec.LeadID
	require.NotNil(t, leadID)
	assert.Equal(t, uint(1), *leadID)
}

func TestExecuteWorkflowUnknownActionFails(t *testing.T) {
	store := newFakeStore()
	store.leads[1] = testLead(1)
	wf := &models.Workflow{
		DealershipID: 1,
		Trigger:      models.TriggerLeadCreated,
		Enabled:      true,
		Actions:      []models.WorkflowAction{{Type: "launch_rocket"}},
	}
	wf.ID = 7
	store.workflows[7] = wf
	e := testEngine(store)

	require.NoError(t, e.ExecuteWorkflow(1, 7, triggerFor(1)))
	require.Len(t, store.executions, 1)
	assert.Equal(t, models.ExecutionStatusFailed, store.executions[0].Status)
	assert.Contains(t, store.executions[0].Error, "unknown action type")
}

func TestExecuteWorkflowDelaysBeforeEachAction(t *testing.T) {
	store := newFakeStore()
	store.leads[1] = testLead(1)
	wf := &models.Workflow{
		DealershipID: 1,
		Trigger:      models.TriggerLeadCreated,
		Enabled:      true,
		Actions: []models.WorkflowAction{
			{Type: models.ActionAddTag, Config: map[string]interface{}{"tag": "a"}, DelaySeconds: 30},
			{Type: models.ActionAddTag, Config: map[string]interface{}{"tag": "b"}},
		},
	}
	wf.ID = 7
	store.workflows[7] = wf
	e := testEngine(store)

	var slept []time.Duration
	e.sleep = func(d time.Duration) { slept = append(slept, d) }

	require.NoError(t, e.ExecuteWorkflow(1, 7, triggerFor(1)))
	assert.Equal(t, []time.Duration{30 * time.Second}, slept)
}

func TestAddTagIsIdempotent(t *testing.T) {
	store := newFakeStore()
	lead := testLead(1)
	lead.Tags = []string{"hot"}
	store.leads[1] = lead
	e := testEngine(store)

	action := models.WorkflowAction{Type: models.ActionAddTag, Config: map[string]interface{}{"tag": "hot"}}
	require.NoError(t, e.addTag(1, action, triggerFor(1), nil))
	assert.Empty(t, store.leadUpdates, "an already-present tag must not trigger a write")

	action.Config["tag"] = "cold"
	require.NoError(t, e.addTag(1, action, triggerFor(1), nil))
	require.Len(t, store.leadUpdates, 1)
	assert.Equal(t, []string{"hot", "cold"}, store.leads[1].Tags)
}

func TestTriggerWorkflowChains(t *testing.T) {
	store := newFakeStore()
	store.leads[1] = testLead(1)

	child := &models.Workflow{
		DealershipID: 1,
		Trigger:      models.TriggerLeadCreated,
		Enabled:      true,
		Actions: []models.WorkflowAction{
			{Type: models.ActionAddTag, Config: map[string]interface{}{"tag": "chained"}},
		},
	}
	child.ID = 2
	parent := &models.Workflow{
		DealershipID: 1,
		Trigger:      models.TriggerLeadCreated,
		Enabled:      true,
		Actions: []models.WorkflowAction{
			{Type: models.ActionTriggerWorkflow, Config: map[string]interface{}{"workflow_id": float64(2)}},
		},
	}
	parent.ID = 1
	store.workflows[1] = parent
	store.workflows[2] = child
	e := testEngine(store)

	require.NoError(t, e.ExecuteWorkflow(1, 1, triggerFor(1)))

	assert.Equal(t, []string{"chained"}, store.leads[1].Tags)
	// both runs get their own ledger entry
	assert.Len(t, store.executions, 2)
	assert.Equal(t, 1, store.executedCount[1])
	assert.Equal(t, 1, store.executedCount[2])
}

func TestTriggerWorkflowDetectsCycle(t *testing.T) {
	store := newFakeStore()
	store.leads[1] = testLead(1)

	a := &models.Workflow{
		DealershipID: 1,
		Trigger:      models.TriggerLeadCreated,
		Enabled:      true,
		Actions: []models.WorkflowAction{
			{Type: models.ActionTriggerWorkflow, Config: map[string]interface{}{"workflow_id": float64(2)}},
		},
	}
	a.ID = 1
	b := &models.Workflow{
		DealershipID: 1,
		Trigger:      models.TriggerLeadCreated,
		Enabled:      true,
		Actions: []models.WorkflowAction{
			{Type: models.ActionTriggerWorkflow, Config: map[string]interface{}{"workflow_id": float64(1)}},
		},
	}
	b.ID = 2
	store.workflows[1] = a
	store.workflows[2] = b
	e := testEngine(store)

	require.NoError(t, e.ExecuteWorkflow(1, 1, triggerFor(1)))

	// the inner run fails when the chain reaches workflow 1 again
	require.Len(t, store.executions, 2)
	inner := store.executions[1]
	assert.Equal(t, models.ExecutionStatusFailed, inner.Status)
	assert.Contains(t, inner.Error, ErrWorkflowCycle.Error())
}

func TestCreateTaskAction(t *testing.T) {
	store := newFakeStore()
	store.leads[1] = testLead(1)
	e := testEngine(store)

	action := models.WorkflowAction{
		Type: models.ActionCreateTask,
		Config: map[string]interface{}{
			"title":        "Call back",
			"priority":     "high",
			"assign_to":    float64(4),
			"due_in_hours": float64(24),
		},
	}
	require.NoError(t, e.createTask(1, action, triggerFor(1), nil))

	require.Len(t, store.tasks, 1)
	task := store.tasks[0]
	assert.Equal(t, "Call back", task.Title)
	assert.Equal(t, "high", task.Priority)
	require.NotNil(t, task.AssignedToID)
	assert.Equal(t, uint(4), *task.AssignedToID)
	require.NotNil(t, task.DueAt)
	require.NotNil(t, task.LeadID)
	assert.Equal(t, uint(1), *task.LeadID)
}

func TestNotifyUserAction(t *testing.T) {
	store := newFakeStore()
	e := testEngine(store)

	action := models.WorkflowAction{
		Type:   models.ActionNotifyUser,
		Config: map[string]interface{}{"user_id": float64(3), "message": "lead is hot"},
	}
	require.NoError(t, e.notifyUser(1, action, triggerFor(1), nil))

	require.Len(t, store.notifications, 1)
	n := store.notifications[0]
	assert.Equal(t, uint(3), n.UserID)
	assert.Equal(t, "Workflow notification", n.Title)
	assert.Equal(t, "workflow", n.Kind)
}

func TestFireTriggerRunsMatchingWorkflows(t *testing.T) {
	store := newFakeStore()
	store.leads[1] = testLead(1)

	matching := &models.Workflow{
		DealershipID: 1,
		Trigger:      models.TriggerLeadCreated,
		Enabled:      true,
		Actions: []models.WorkflowAction{
			{Type: models.ActionAddTag, Config: map[string]interface{}{"tag": "fresh"}},
		},
	}
	matching.ID = 1
	otherTrigger := &models.Workflow{DealershipID: 1, Trigger: models.TriggerSaleClosed, Enabled: true}
	otherTrigger.ID = 2
	store.workflows[1] = matching
	store.workflows[2] = otherTrigger
	e := testEngine(store)

	e.FireTrigger(1, models.TriggerLeadCreated, triggerFor(1))

	require.Len(t, store.executions, 1)
	assert.Equal(t, uint(1), store.executions[0].WorkflowID)
	assert.Equal(t, []string{"fresh"}, store.leads[1].Tags)
}
