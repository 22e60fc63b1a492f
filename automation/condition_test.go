package automation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dealerflow/models"
)

func TestEvaluateConditionEquals(t *testing.T) {
	record := map[string]interface{}{
		"status": "new",
		"budget": float64(25000),
	}

	assert.True(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "status", Operator: models.OpEquals, Value: "new",
	}))
	assert.False(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "status", Operator: models.OpEquals, Value: "won",
	}))

	// strict equality: no coercion between numbers and strings
	assert.False(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "budget", Operator: models.OpEquals, Value: "25000",
	}))
	assert.True(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "budget", Operator: models.OpEquals, Value: float64(25000),
	}))
}

func TestEvaluateConditionNotEquals(t *testing.T) {
	record := map[string]interface{}{"status": "new"}

	assert.True(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "status", Operator: models.OpNotEquals, Value: "won",
	}))
	assert.False(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "status", Operator: models.OpNotEquals, Value: "new",
	}))

	// a missing field is nil, which differs from any non-nil value
	assert.True(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "missing", Operator: models.OpNotEquals, Value: "anything",
	}))
}

func TestEvaluateConditionNumericComparisons(t *testing.T) {
	record := map[string]interface{}{
		"budget": float64(30000),
		"count":  "7",
		"name":   "Ana",
	}

	assert.True(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "budget", Operator: models.OpGreaterThan, Value: float64(20000),
	}))
	assert.False(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "budget", Operator: models.OpLessThan, Value: float64(20000),
	}))

	// numeric strings cast cleanly
	assert.True(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "count", Operator: models.OpGreaterThan, Value: float64(5),
	}))

	// a non-numeric operand fails the comparison in both directions
	assert.False(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "name", Operator: models.OpGreaterThan, Value: float64(1),
	}))
	assert.False(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "name", Operator: models.OpLessThan, Value: float64(1),
	}))
	assert.False(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "budget", Operator: models.OpGreaterThan, Value: "not a number",
	}))
	assert.False(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "budget", Operator: models.OpLessThan, Value: "not a number",
	}))
}

func TestEvaluateConditionContains(t *testing.T) {
	record := map[string]interface{}{
		"vehicle": "Toyota Corolla 2024",
		"budget":  float64(25000),
	}

	assert.True(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "vehicle", Operator: models.OpContains, Value: "Corolla",
	}))
	assert.False(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "vehicle", Operator: models.OpContains, Value: "Hilux",
	}))
	assert.True(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "vehicle", Operator: models.OpNotContains, Value: "Hilux",
	}))

	// non-string values are stringified before matching
	assert.True(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "budget", Operator: models.OpContains, Value: "250",
	}))
}

func TestEvaluateConditionExists(t *testing.T) {
	record := map[string]interface{}{
		"email": "ana@example.com",
		"phone": nil,
	}

	assert.True(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "email", Operator: models.OpExists,
	}))
	assert.False(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "phone", Operator: models.OpExists,
	}))
	assert.True(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "phone", Operator: models.OpNotExists,
	}))
	assert.True(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "missing", Operator: models.OpNotExists,
	}))
}

func TestEvaluateConditionDottedPaths(t *testing.T) {
	record := map[string]interface{}{
		"lead": map[string]interface{}{
			"status": "qualified",
			"assigned_to": map[string]interface{}{
				"role": "agent",
			},
		},
	}

	assert.True(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "lead.status", Operator: models.OpEquals, Value: "qualified",
	}))
	assert.True(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "lead.assigned_to.role", Operator: models.OpEquals, Value: "agent",
	}))

	// traversing through a non-map segment resolves to nil
	assert.False(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "lead.status.deeper", Operator: models.OpExists,
	}))
	assert.False(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "lead.missing", Operator: models.OpExists,
	}))
}

func TestEvaluateConditionUnknownOperator(t *testing.T) {
	record := map[string]interface{}{"status": "new"}

	assert.False(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "status", Operator: "regex_match", Value: "n.*",
	}))
	assert.False(t, EvaluateCondition(record, models.WorkflowCondition{
		Field: "status", Operator: "", Value: "new",
	}))
}

func TestEvaluateConditionsAllMustHold(t *testing.T) {
	record := map[string]interface{}{
		"status": "new",
		"budget": float64(30000),
	}

	conds := []models.WorkflowCondition{
		{Field: "status", Operator: models.OpEquals, Value: "new"},
		{Field: "budget", Operator: models.OpGreaterThan, Value: float64(20000)},
	}
	assert.True(t, EvaluateConditions(record, conds))

	conds = append(conds, models.WorkflowCondition{
		Field: "status", Operator: models.OpEquals, Value: "won",
	})
	assert.False(t, EvaluateConditions(record, conds))
}

func TestEvaluateConditionsEmptyListIsSatisfied(t *testing.T) {
	assert.True(t, EvaluateConditions(map[string]interface{}{}, nil))
	assert.True(t, EvaluateConditions(map[string]interface{}{}, []models.WorkflowCondition{}))
}
