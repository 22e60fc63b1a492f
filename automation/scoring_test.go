package automation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealerflow/models"
)

func TestCalculateAutomaticScoreHeuristics(t *testing.T) {
	store := newFakeStore()
	e := testEngine(store)

	lead := testLead(1)
	lead.Source = "phone"
	lead.InteractionCount = 6
	lead.AIPriority = "high"
	lead.AISentiment = "positive"
	store.leads[1] = lead

	// phone 20 + interactions (12 + 10 bonus) + priority 20 + sentiment 10
	score, err := e.CalculateAutomaticScore(1, lead)
	require.NoError(t, err)
	assert.Equal(t, 72, score)
}

func TestCalculateAutomaticScoreSourceTable(t *testing.T) {
	store := newFakeStore()
	e := testEngine(store)

	cases := map[string]int{
		"phone":      20,
		"whatsapp":   15,
		"facebook":   12,
		"instagram":  12,
		"web":        10,
		"sms":        10,
		"email":      8,
		"billboard":  5,
		"":           5,
	}
	for source, want := range cases {
		lead := testLead(1)
		lead.Source = source
		score, err := e.CalculateAutomaticScore(1, lead)
		require.NoError(t, err)
		assert.Equal(t, want, score, "source %q", source)
	}
}

func TestInteractionScoreCapped(t *testing.T) {
	assert.Equal(t, 0, interactionScore(0))
	assert.Equal(t, 4, interactionScore(2))
	assert.Equal(t, 20, interactionScore(5))
	assert.Equal(t, 28, interactionScore(9))
	// 2*10 + 10 + 15 = 45, capped at 30
	assert.Equal(t, 30, interactionScore(10))
	assert.Equal(t, 30, interactionScore(50))
}

func TestCalculateAutomaticScoreDisabled(t *testing.T) {
	store := newFakeStore()
	cfg := DefaultScoringConfig(1)
	cfg.Enabled = false
	store.config = &cfg
	e := testEngine(store)

	lead := testLead(1)
	lead.Source = "phone"
	score, err := e.CalculateAutomaticScore(1, lead)
	require.NoError(t, err)
	assert.Zero(t, score)

	cfg.Enabled = true
	cfg.AutoCalculate = false
	score, err = e.CalculateAutomaticScore(1, lead)
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestCalculateAutomaticScoreRules(t *testing.T) {
	store := newFakeStore()
	cfg := DefaultScoringConfig(1)
	cfg.Rules = []models.ScoringRule{
		{
			Name:    "big budget",
			Enabled: true,
			Conditions: []models.WorkflowCondition{
				{Field: "budget", Operator: models.OpGreaterThan, Value: float64(20000)},
			},
			Points:   25,
			Priority: 1,
		},
		{
			Name:    "disabled rule",
			Enabled: false,
			Conditions: []models.WorkflowCondition{
				{Field: "status", Operator: models.OpEquals, Value: "new"},
			},
			Points:   100,
			Priority: 0,
		},
		{
			Name:       "unconditional penalty",
			Enabled:    true,
			Conditions: nil,
			Points:     -3,
			Priority:   2,
		},
	}
	store.config = &cfg
	e := testEngine(store)

	lead := testLead(1)
	lead.Source = "web"
	budget := 30000
	lead.Budget = &budget

	// web 10 + rule 25 - penalty 3; the disabled rule never fires
	score, err := e.CalculateAutomaticScore(1, lead)
	require.NoError(t, err)
	assert.Equal(t, 32, score)
}

func TestCalculateAutomaticScoreClampsAtMax(t *testing.T) {
	store := newFakeStore()
	cfg := DefaultScoringConfig(1)
	cfg.MaxScore = 50
	cfg.Rules = []models.ScoringRule{
		{Name: "everything", Enabled: true, Points: 200},
	}
	store.config = &cfg
	e := testEngine(store)

	lead := testLead(1)
	score, err := e.CalculateAutomaticScore(1, lead)
	require.NoError(t, err)
	assert.Equal(t, 50, score)
}

func TestCombineScores(t *testing.T) {
	cfg := DefaultScoringConfig(1)

	// no manual override: combined is just the automatic score
	assert.Equal(t, 72, combineScores(&cfg, 72, nil))

	manual := 50
	// round(72*0.7 + 50*0.3) = round(65.4)
	assert.Equal(t, 65, combineScores(&cfg, 72, &manual))

	manual = 100
	// round(40*0.7 + 100*0.3) = round(58)
	assert.Equal(t, 58, combineScores(&cfg, 40, &manual))
}

func TestUpdateLeadScorePersistsAndLogs(t *testing.T) {
	store := newFakeStore()
	lead := testLead(1)
	lead.Source = "phone"
	lead.InteractionCount = 6
	lead.AIPriority = "high"
	lead.AISentiment = "positive"
	store.leads[1] = lead
	e := testEngine(store)

	require.NoError(t, e.UpdateLeadScore(1, 1, "inbound message", nil))

	assert.Equal(t, 72, lead.AutomaticScore)
	assert.Equal(t, 72, lead.CombinedScore)
	require.Len(t, lead.ScoreHistory, 1)
	assert.Equal(t, "automatic", lead.ScoreHistory[0].Type)
	assert.Equal(t, "inbound message", lead.ScoreHistory[0].Reason)
	assert.Equal(t, 72, lead.ScoreHistory[0].Score)
}

func TestUpdateLeadScoreBlendsManualOverride(t *testing.T) {
	store := newFakeStore()
	lead := testLead(1)
	lead.Source = "phone"
	lead.InteractionCount = 6
	lead.AIPriority = "high"
	lead.AISentiment = "positive"
	manual := 50
	lead.ManualScore = &manual
	store.leads[1] = lead
	e := testEngine(store)

	require.NoError(t, e.UpdateLeadScore(1, 1, "recalculation", nil))

	assert.Equal(t, 72, lead.AutomaticScore)
	assert.Equal(t, 65, lead.CombinedScore)
}

func TestSetManualScore(t *testing.T) {
	store := newFakeStore()
	lead := testLead(1)
	lead.AutomaticScore = 40
	store.leads[1] = lead
	e := testEngine(store)

	userID := uint(9)
	require.NoError(t, e.SetManualScore(1, 1, 100, "gut feeling", &userID))

	require.NotNil(t, lead.ManualScore)
	assert.Equal(t, 100, *lead.ManualScore)
	assert.Equal(t, 58, lead.CombinedScore)
	require.Len(t, lead.ScoreHistory, 1)
	assert.Equal(t, "manual", lead.ScoreHistory[0].Type)
	require.NotNil(t, lead.ScoreHistory[0].UpdatedBy)
	assert.Equal(t, uint(9), *lead.ScoreHistory[0].UpdatedBy)
}

func TestSetManualScoreRejectedWhenOverridesOff(t *testing.T) {
	store := newFakeStore()
	cfg := DefaultScoringConfig(1)
	cfg.ManualOverride = false
	store.config = &cfg
	store.leads[1] = testLead(1)
	e := testEngine(store)

	err := e.SetManualScore(1, 1, 80, "", nil)
	assert.Error(t, err)
	assert.Nil(t, store.leads[1].ManualScore)
}

func TestScoreHistoryCapped(t *testing.T) {
	store := newFakeStore()
	lead := testLead(1)
	for i := 0; i < models.ScoreHistoryCap; i++ {
		lead.ScoreHistory = append(lead.ScoreHistory, models.ScoreHistoryEntry{
			Score:     i,
			Type:      "automatic",
			UpdatedAt: time.Now(),
		})
	}
	store.leads[1] = lead
	e := testEngine(store)

	require.NoError(t, e.UpdateLeadScore(1, 1, "one more", nil))

	require.Len(t, lead.ScoreHistory, models.ScoreHistoryCap)
	// oldest entry dropped, newest appended
	assert.Equal(t, 1, lead.ScoreHistory[0].Score)
	assert.Equal(t, "one more", lead.ScoreHistory[models.ScoreHistoryCap-1].Reason)
}

func TestLeadTriggerData(t *testing.T) {
	lead := testLead(42)
	lead.Status = models.LeadStatusQualified

	data := LeadTriggerData(lead, map[string]interface{}{"previous_status": "new"})

	assert.Equal(t, float64(42), data["lead_id"])
	assert.Equal(t, "new", data["previous_status"])

	nested, ok := data["lead"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "qualified", nested["status"])

	// the nested document is addressable by the condition evaluator
	assert.True(t, EvaluateConditions(data, []models.WorkflowCondition{
		{Field: "lead.status", Operator: models.OpEquals, Value: "qualified"},
	}))
}
