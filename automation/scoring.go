package automation

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"dealerflow/models"
)

// Fixed per-source heuristic scores; a source outside the table scores 5.
var sourceScores = map[string]int{
	"phone":     20,
	"whatsapp":  15,
	"facebook":  12,
	"instagram": 12,
	"web":       10,
	"sms":       10,
	"email":     8,
}

const unknownSourceScore = 5

// CalculateAutomaticScore evaluates every enabled scoring rule against the
// lead in ascending priority order, adds the fixed heuristics, and clamps
// the result at MaxScore. There is no floor clamp: negative rule points can
// push the score below zero. Returns 0 immediately when scoring or
// auto-calculation is turned off.
func (e *Engine) CalculateAutomaticScore(dealershipID uint, lead *models.Lead) (int, error) {
	cfg, err := e.store.GetScoringConfig(dealershipID)
	if err != nil {
		return 0, fmt.Errorf("load scoring config: %w", err)
	}
	if cfg == nil || !cfg.Enabled || !cfg.AutoCalculate {
		return 0, nil
	}

	record := leadRecord(lead)

	rules := make([]models.ScoringRule, len(cfg.Rules))
	copy(rules, cfg.Rules)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })

	score := 0
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if EvaluateConditions(record, rule.Conditions) {
			score += rule.Points
		}
	}

	score += sourceScore(lead.Source)
	score += interactionScore(lead.InteractionCount)
	score += responseTimeScore(lead)
	score += classificationScore(lead)

	if score > cfg.MaxScore {
		score = cfg.MaxScore
	}
	return score, nil
}

// UpdateLeadScore recomputes the automatic score, blends it with any manual
// override per the configured weights, appends one history entry, and
// persists the result.
func (e *Engine) UpdateLeadScore(dealershipID, leadID uint, reason string, updatedBy *uint) error {
	lead, err := e.store.GetLead(dealershipID, leadID)
	if err != nil {
		return fmt.Errorf("load lead %d: %w", leadID, err)
	}
	if lead == nil {
		return fmt.Errorf("lead %d: %w", leadID, ErrLeadNotFound)
	}

	cfg, err := e.store.GetScoringConfig(dealershipID)
	if err != nil {
		return fmt.Errorf("load scoring config: %w", err)
	}

	automatic, err := e.CalculateAutomaticScore(dealershipID, lead)
	if err != nil {
		return err
	}
	combined := combineScores(cfg, automatic, lead.ManualScore)

	now := time.Now()
	history := appendHistory(lead.ScoreHistory, models.ScoreHistoryEntry{
		Score:     automatic,
		Type:      "automatic",
		Reason:    reason,
		UpdatedBy: updatedBy,
		UpdatedAt: now,
	})

	return e.store.UpdateLead(dealershipID, lead.ID, map[string]interface{}{
		"automatic_score":  automatic,
		"combined_score":   combined,
		"score_updated_at": now,
		"score_history":    history,
	})
}

// SetManualScore applies a manual override and re-blends the combined
// score. It fails when the dealership has manual overrides turned off.
func (e *Engine) SetManualScore(dealershipID, leadID uint, manual int, reason string, updatedBy *uint) error {
	cfg, err := e.store.GetScoringConfig(dealershipID)
	if err != nil {
		return fmt.Errorf("load scoring config: %w", err)
	}
	if cfg == nil || !cfg.ManualOverride {
		return fmt.Errorf("manual score overrides are disabled for this dealership")
	}

	lead, err := e.store.GetLead(dealershipID, leadID)
	if err != nil {
		return fmt.Errorf("load lead %d: %w", leadID, err)
	}
	if lead == nil {
		return fmt.Errorf("lead %d: %w", leadID, ErrLeadNotFound)
	}

	combined := combineScores(cfg, lead.AutomaticScore, &manual)

	now := time.Now()
	history := appendHistory(lead.ScoreHistory, models.ScoreHistoryEntry{
		Score:     manual,
		Type:      "manual",
		Reason:    reason,
		UpdatedBy: updatedBy,
		UpdatedAt: now,
	})

	return e.store.UpdateLead(dealershipID, lead.ID, map[string]interface{}{
		"manual_score":     manual,
		"combined_score":   combined,
		"score_updated_at": now,
		"score_history":    history,
	})
}

// combined = round(automatic*wA + manual*wM) when a manual override exists,
// otherwise just the automatic score.
func combineScores(cfg *models.ScoringConfig, automatic int, manual *int) int {
	if manual == nil || cfg == nil {
		return automatic
	}
	return int(math.Round(float64(automatic)*cfg.AutomaticWeight + float64(*manual)*cfg.ManualWeight))
}

func sourceScore(source string) int {
	if s, ok := sourceScores[source]; ok {
		return s
	}
	return unknownSourceScore
}

// interactionScore awards 2 points per interaction with engagement bonuses
// at 5 and 10 interactions; the whole term is capped at 30.
func interactionScore(count int) int {
	score := 2 * count
	if count >= 5 {
		score += 10
	}
	if count >= 10 {
		score += 15
	}
	if score > 30 {
		score = 30
	}
	return score
}

// responseTimeScore is a reserved hook for response-latency scoring;
// engagement timing data is not wired into leads yet.
func responseTimeScore(_ *models.Lead) int {
	return 0
}

func classificationScore(lead *models.Lead) int {
	score := 0
	switch lead.AIPriority {
	case "high":
		score += 20
	case "medium":
		score += 10
	case "low":
		score += 5
	}
	switch lead.AISentiment {
	case "positive":
		score += 10
	case "negative":
		score -= 5
	}
	return score
}

// appendHistory appends one entry and drops the oldest entries past the cap.
func appendHistory(history []models.ScoreHistoryEntry, entry models.ScoreHistoryEntry) []models.ScoreHistoryEntry {
	history = append(history, entry)
	if len(history) > models.ScoreHistoryCap {
		history = history[len(history)-models.ScoreHistoryCap:]
	}
	return history
}

// leadRecord flattens a lead into the generic record shape the condition
// evaluator consumes, with JSON field names and JSON number types.
func leadRecord(lead *models.Lead) map[string]interface{} {
	raw, err := json.Marshal(lead)
	if err != nil {
		return map[string]interface{}{}
	}
	var record map[string]interface{}
	if err := json.Unmarshal(raw, &record); err != nil {
		return map[string]interface{}{}
	}
	return record
}

// LeadTriggerData builds the trigger payload for lead-centric events. The
// lead document is nested under "lead" so conditions address fields as
// "lead.status"; extra entries are merged at the top level.
func LeadTriggerData(lead *models.Lead, extra map[string]interface{}) map[string]interface{} {
	data := map[string]interface{}{
		"lead_id": float64(lead.ID),
		"lead":    leadRecord(lead),
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}
