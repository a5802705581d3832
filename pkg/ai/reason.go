package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/lexguard/backend/internal/util"
	"github.com/lexguard/backend/pkg/common"
	"github.com/lexguard/backend/pkg/logger"
)

// DetectedConflict is a single conflict reported by the reasoning model.
// Involved entities are referenced by name and resolved against the
// persisted graph afterwards.
type DetectedConflict struct {
	Description         string   `json:"description" jsonschema_description:"Short description of the conflict"`
	Severity            string   `json:"severity" jsonschema:"enum=LOW,enum=MEDIUM,enum=HIGH,enum=CRITICAL" jsonschema_description:"Severity of the conflict"`
	Reasoning           string   `json:"reasoning" jsonschema_description:"Explanation of why the entities contradict each other"`
	LegalPrinciple      string   `json:"legal_principle" jsonschema_description:"Governing legal doctrine, or empty when none applies"`
	InvolvedEntityNames []string `json:"involved_entity_names" jsonschema_description:"Names of the conflicting entities as given in the input"`
}

// ConflictAnalysis is the structured output of a conflict reasoning run.
type ConflictAnalysis struct {
	Conflicts      []DetectedConflict `json:"conflicts" jsonschema_description:"Conflicts found between the entities"`
	OverallSummary string             `json:"overall_summary" jsonschema_description:"Summary of the analysis"`
}

// AnalyzeConflicts runs conflict reasoning over the given entities.
//
// Parse failures degrade gracefully: the result carries no conflicts and a
// summary describing the failure. Transport failures are retried maxTries
// times and then surfaced as an UnavailableError so callers can report a
// retryable condition.
func AnalyzeConflicts(
	ctx context.Context,
	client GraphAIClient,
	entities []common.Entity,
	maxTries int,
	opts ...GenerateOption,
) (ConflictAnalysis, error) {
	prompt := BuildReasoningPrompt(entities)

	result, err := util.RetryWithContext(ctx, maxTries, func(ctx context.Context) (ConflictAnalysis, error) {
		var analysis ConflictAnalysis
		err := client.GenerateCompletionWithFormat(
			ctx,
			"conflict_analysis",
			"Conflicts between entities of legal documents",
			prompt,
			&analysis,
			append([]GenerateOption{WithSystemPrompts(ReasoningSystemPrompt)}, opts...)...,
		)
		return analysis, err
	})
	if err != nil {
		if IsParseError(err) {
			logger.Warn("[AI] Conflict analysis returned unparseable output", "err", err)
			return ConflictAnalysis{
				Conflicts:      []DetectedConflict{},
				OverallSummary: fmt.Sprintf("Conflict analysis failed: %v", err),
			}, nil
		}
		return ConflictAnalysis{}, &UnavailableError{
			RetryAfter: 30 * time.Second,
			Err:        err,
		}
	}

	if result.Conflicts == nil {
		result.Conflicts = []DetectedConflict{}
	}

	return result, nil
}
