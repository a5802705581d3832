package graph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/lexguard/backend/pkg/ai"
	"github.com/lexguard/backend/pkg/common"
	"github.com/lexguard/backend/pkg/leaselock"
	"github.com/lexguard/backend/pkg/logger"
	"github.com/lexguard/backend/pkg/store"
)

// NoDocumentsSummary and NoEntitiesSummary are the analysis summaries for
// runs that had nothing to analyze.
const (
	NoDocumentsSummary = "No documents found for analysis"
	NoEntitiesSummary  = "No entities found for conflict analysis"
)

// AnalysisResult is the outcome of a conflict analysis run. Conflicts
// contains only the conflicts newly persisted by this run.
type AnalysisResult struct {
	Conflicts  []common.Conflict `json:"conflicts"`
	Summary    string            `json:"summary"`
	AnalyzedAt time.Time         `json:"analyzed_at"`
}

// AnalyzeConflicts runs conflict analysis over the entities of the given
// documents. Detected conflicts are resolved against the persisted graph,
// deduplicated and stored. Re-running the same analysis yields no new
// conflicts.
//
// Runs over the same document set are serialized through the lease lock
// when one is configured.
func (g *GraphClient) AnalyzeConflicts(
	ctx context.Context,
	documentIDs []string,
	aiClient ai.GraphAIClient,
	storeClient store.GraphStorage,
) (AnalysisResult, error) {
	documentIDs = store.DedupeStrings(documentIDs)

	var result AnalysisResult
	run := func(ctx context.Context) error {
		var err error
		result, err = g.analyzeConflicts(ctx, documentIDs, aiClient, storeClient)
		return err
	}

	if g.locks == nil {
		err := run(ctx)
		return result, err
	}

	err := g.locks.WithLease(ctx, analysisLockKey(documentIDs), leaselock.Options{
		TTL:  5 * time.Minute,
		Wait: true,
	}, run)
	return result, err
}

func (g *GraphClient) analyzeConflicts(
	ctx context.Context,
	documentIDs []string,
	aiClient ai.GraphAIClient,
	storeClient store.GraphStorage,
) (AnalysisResult, error) {
	analyzedAt := time.Now().UTC()

	docs, err := storeClient.FindDocumentsByIDs(ctx, documentIDs)
	if err != nil {
		return AnalysisResult{}, err
	}
	if len(docs) == 0 {
		return AnalysisResult{
			Conflicts:  []common.Conflict{},
			Summary:    NoDocumentsSummary,
			AnalyzedAt: analyzedAt,
		}, nil
	}

	entities := make([]common.Entity, 0)
	for _, doc := range docs {
		entities = append(entities, doc.Entities...)
	}
	if len(entities) == 0 {
		return AnalysisResult{
			Conflicts:  []common.Conflict{},
			Summary:    NoEntitiesSummary,
			AnalyzedAt: analyzedAt,
		}, nil
	}

	logger.Info("[Graph] Analyzing conflicts",
		"documents", len(docs),
		"entities", len(entities),
	)

	analysis, err := ai.AnalyzeConflicts(ctx, aiClient, entities, g.maxRetries)
	if err != nil {
		return AnalysisResult{}, err
	}

	persisted := make([]common.Conflict, 0, len(analysis.Conflicts))
	for _, detected := range analysis.Conflicts {
		conflict, ok, err := g.resolveAndSaveConflict(ctx, detected, entities, storeClient)
		if err != nil {
			return AnalysisResult{}, err
		}
		if ok {
			persisted = append(persisted, conflict)
		}
	}

	logger.Info("[Graph] Conflict analysis finished",
		"detected", len(analysis.Conflicts),
		"persisted", len(persisted),
	)

	return AnalysisResult{
		Conflicts:  persisted,
		Summary:    analysis.OverallSummary,
		AnalyzedAt: analyzedAt,
	}, nil
}

// resolveAndSaveConflict matches a detected conflict against the persisted
// entities and stores it unless no entity matched at all or it duplicates
// an existing conflict. The duplicate check only applies from two matched
// entities on; a single-entity conflict is always saved.
func (g *GraphClient) resolveAndSaveConflict(
	ctx context.Context,
	detected ai.DetectedConflict,
	entities []common.Entity,
	storeClient store.GraphStorage,
) (common.Conflict, bool, error) {
	involved := findInvolvedEntities(detected.InvolvedEntityNames, entities)
	if len(involved) == 0 {
		logger.Warn("[Graph] Discarding conflict with no matched entities",
			"description", detected.Description,
		)
		return common.Conflict{}, false, nil
	}

	if len(involved) >= 2 {
		involvedIDs := make([]string, len(involved))
		for i := range involved {
			involvedIDs[i] = involved[i].ID
		}

		existing, err := storeClient.FindConflictsInvolvingAnyOf(ctx, involvedIDs)
		if err != nil {
			return common.Conflict{}, false, err
		}
		if isDuplicateConflict(involvedIDs, detected.Description, existing) {
			logger.Debug("[Graph] Skipping duplicate conflict", "description", detected.Description)
			return common.Conflict{}, false, nil
		}
	}

	severity, err := common.ParseConflictSeverity(detected.Severity)
	if err != nil {
		logger.Warn("[Graph] Unknown conflict severity, defaulting to MEDIUM", "severity", detected.Severity)
		severity = common.SeverityMedium
	}

	conflict, err := storeClient.SaveConflict(ctx, common.Conflict{
		Description:    detected.Description,
		Severity:       severity,
		Reasoning:      detected.Reasoning,
		LegalPrinciple: detected.LegalPrinciple,
		Entities:       involved,
	})
	if err != nil {
		return common.Conflict{}, false, err
	}
	return conflict, true, nil
}

func analysisLockKey(documentIDs []string) string {
	sorted := make([]string, len(documentIDs))
	copy(sorted, documentIDs)
	sort.Strings(sorted)

	sum := sha256.Sum256([]byte(strings.Join(sorted, "\x00")))
	return "analysis:" + hex.EncodeToString(sum[:16])
}
