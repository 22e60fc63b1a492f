package automation

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"dealerflow/models"
)

// EvaluateConditions reports whether every condition holds against the
// record. Conditions are ANDed; an empty list is vacuously satisfied.
func EvaluateConditions(record map[string]interface{}, conditions []models.WorkflowCondition) bool {
	for _, cond := range conditions {
		if !EvaluateCondition(record, cond) {
			return false
		}
	}
	return true
}

// EvaluateCondition compares one record field against the condition value.
// It is pure and never fails: an unknown operator or field simply yields
// false.
func EvaluateCondition(record map[string]interface{}, cond models.WorkflowCondition) bool {
	value := lookupField(record, cond.Field)

	switch cond.Operator {
	case models.OpEquals:
		return strictEqual(value, cond.Value)
	case models.OpNotEquals:
		return !strictEqual(value, cond.Value)
	case models.OpGreaterThan:
		a, aok := toNumber(value)
		b, bok := toNumber(cond.Value)
		return aok && bok && a > b
	case models.OpLessThan:
		a, aok := toNumber(value)
		b, bok := toNumber(cond.Value)
		return aok && bok && a < b
	case models.OpContains:
		return strings.Contains(toString(value), toString(cond.Value))
	case models.OpNotContains:
		return !strings.Contains(toString(value), toString(cond.Value))
	case models.OpExists:
		return value != nil
	case models.OpNotExists:
		return value == nil
	default:
		return false
	}
}

// lookupField resolves a dotted attribute path ("lead.status") into the
// record. A missing segment resolves to nil.
func lookupField(record map[string]interface{}, path string) interface{} {
	if path == "" {
		return nil
	}
	var current interface{} = record
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

// strictEqual is equality without type coercion: 5 and "5" are not equal.
func strictEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(a, b)
}

// toNumber applies a numeric cast. Anything that does not cast cleanly is
// NaN in the source semantics, so the second return is false and every
// comparison against it must fail.
func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
