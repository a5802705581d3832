package graph

import (
	"context"
	"testing"

	"github.com/lexguard/backend/pkg/ai"
	"github.com/lexguard/backend/pkg/common"
)

const riderExtraction = `{
	"entities": [
		{
			"name": "Shortened Notice Period",
			"entity_type": "TIME_PERIOD",
			"value": "30 days",
			"source_context": "Notwithstanding the framework, notice is 30 days.",
			"relationships": []
		}
	],
	"document_summary": "Rider shortening the notice period."
}`

const noticeConflictAnalysis = `{
	"conflicts": [
		{
			"description": "Contradictory notice periods for termination",
			"severity": "HIGH",
			"reasoning": "The framework requires 90 days while the rider requires 30 days.",
			"legal_principle": "Lex Specialis",
			"involved_entity_names": ["Notice Period", "Shortened Notice Period"]
		}
	],
	"overall_summary": "One notice period conflict found."
}`

func newTestClient(t *testing.T) *GraphClient {
	t.Helper()
	client, err := NewGraphClient(NewGraphClientParams{})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestAnalyzeConflictsNoDocuments(t *testing.T) {
	client := newTestClient(t)
	storage := newMemStorage()
	aiClient := &fakeAIClient{}

	result, err := client.AnalyzeConflicts(context.Background(), []string{"missing"}, aiClient, storage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary != NoDocumentsSummary {
		t.Errorf("got summary %q", result.Summary)
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("expected no conflicts, got %+v", result.Conflicts)
	}
	if aiClient.calls != 0 {
		t.Errorf("the model must not be called without documents, got %d calls", aiClient.calls)
	}
}

func TestAnalyzeConflictsNoEntities(t *testing.T) {
	client := newTestClient(t)
	storage := newMemStorage()

	doc, err := mustIngest(IngestDocumentParams{
		Name:         "Empty",
		Content:      "content",
		DocumentType: common.DocumentTypeOther,
	}, storage, `{"entities": [], "document_summary": "nothing"}`)
	if err != nil {
		t.Fatal(err)
	}

	aiClient := &fakeAIClient{}
	result, err := client.AnalyzeConflicts(context.Background(), []string{doc.ID}, aiClient, storage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary != NoEntitiesSummary {
		t.Errorf("got summary %q", result.Summary)
	}
	if aiClient.calls != 0 {
		t.Errorf("the model must not be called without entities, got %d calls", aiClient.calls)
	}
}

func TestAnalyzeConflictsEndToEnd(t *testing.T) {
	client := newTestClient(t)
	storage := newMemStorage()

	framework, err := mustIngest(IngestDocumentParams{
		Name:         "Framework Agreement",
		Content:      "Termination requires 90 days written notice.",
		DocumentType: common.DocumentTypeContract,
	}, storage, frameworkExtraction)
	if err != nil {
		t.Fatal(err)
	}
	rider, err := mustIngest(IngestDocumentParams{
		Name:         "Rider",
		Content:      "Notwithstanding the framework, notice is 30 days.",
		DocumentType: common.DocumentTypeContract,
	}, storage, riderExtraction)
	if err != nil {
		t.Fatal(err)
	}

	aiClient := &fakeAIClient{responses: []string{noticeConflictAnalysis}}
	result, err := client.AnalyzeConflicts(context.Background(), []string{framework.ID, rider.ID}, aiClient, storage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(result.Conflicts))
	}
	conflict := result.Conflicts[0]
	if conflict.ID == "" {
		t.Error("conflict must be persisted with an id")
	}
	if conflict.Severity != common.SeverityHigh {
		t.Errorf("got severity %s", conflict.Severity)
	}
	if conflict.LegalPrinciple != "Lex Specialis" {
		t.Errorf("got legal principle %q", conflict.LegalPrinciple)
	}
	if len(conflict.Entities) != 2 {
		t.Fatalf("expected 2 involved entities, got %d", len(conflict.Entities))
	}
	if result.Summary != "One notice period conflict found." {
		t.Errorf("got summary %q", result.Summary)
	}

	stored, err := storage.FindAllConflicts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Errorf("expected 1 stored conflict, got %d", len(stored))
	}
}

func TestAnalyzeConflictsIdempotentRerun(t *testing.T) {
	client := newTestClient(t)
	storage := newMemStorage()

	framework, err := mustIngest(IngestDocumentParams{
		Name:         "Framework Agreement",
		Content:      "Termination requires 90 days written notice.",
		DocumentType: common.DocumentTypeContract,
	}, storage, frameworkExtraction)
	if err != nil {
		t.Fatal(err)
	}
	rider, err := mustIngest(IngestDocumentParams{
		Name:         "Rider",
		Content:      "Notwithstanding the framework, notice is 30 days.",
		DocumentType: common.DocumentTypeContract,
	}, storage, riderExtraction)
	if err != nil {
		t.Fatal(err)
	}

	ids := []string{framework.ID, rider.ID}

	first, err := client.AnalyzeConflicts(context.Background(), ids, &fakeAIClient{responses: []string{noticeConflictAnalysis}}, storage)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Conflicts) != 1 {
		t.Fatalf("first run should persist 1 conflict, got %d", len(first.Conflicts))
	}

	second, err := client.AnalyzeConflicts(context.Background(), ids, &fakeAIClient{responses: []string{noticeConflictAnalysis}}, storage)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Conflicts) != 0 {
		t.Errorf("re-running the same analysis must not add conflicts, got %d", len(second.Conflicts))
	}

	stored, err := storage.FindAllConflicts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Errorf("expected 1 stored conflict after rerun, got %d", len(stored))
	}
}

func TestAnalyzeConflictsPersistsSingleMatchedEntity(t *testing.T) {
	client := newTestClient(t)
	storage := newMemStorage()

	doc, err := mustIngest(IngestDocumentParams{
		Name:         "Framework Agreement",
		Content:      "Termination requires 90 days written notice.",
		DocumentType: common.DocumentTypeContract,
	}, storage, frameworkExtraction)
	if err != nil {
		t.Fatal(err)
	}

	// The model names a stored entity and an external regulation that was
	// never extracted; the unresolved name drops out but the conflict is
	// still saved against the one entity that matched.
	aiClient := &fakeAIClient{responses: []string{`{
		"conflicts": [
			{
				"description": "Notice period contradicts an external regulation",
				"severity": "HIGH",
				"reasoning": "r",
				"legal_principle": "",
				"involved_entity_names": ["Notice Period", "External Regulation"]
			}
		],
		"overall_summary": "s"
	}`}}

	result, err := client.AnalyzeConflicts(context.Background(), []string{doc.ID}, aiClient, storage)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("a single matched entity is enough to persist, got %+v", result.Conflicts)
	}
	if len(result.Conflicts[0].Entities) != 1 {
		t.Fatalf("expected 1 involved entity, got %d", len(result.Conflicts[0].Entities))
	}
	if result.Conflicts[0].Entities[0].Name != "Notice Period" {
		t.Errorf("got involved entity %q", result.Conflicts[0].Entities[0].Name)
	}
	stored, _ := storage.FindAllConflicts(context.Background())
	if len(stored) != 1 {
		t.Errorf("expected 1 stored conflict, got %d", len(stored))
	}
}

func TestAnalyzeConflictsDiscardsUnmatchedConflicts(t *testing.T) {
	client := newTestClient(t)
	storage := newMemStorage()

	doc, err := mustIngest(IngestDocumentParams{
		Name:         "Framework Agreement",
		Content:      "Termination requires 90 days written notice.",
		DocumentType: common.DocumentTypeContract,
	}, storage, frameworkExtraction)
	if err != nil {
		t.Fatal(err)
	}

	// none of the reported names resolves
	aiClient := &fakeAIClient{responses: []string{`{
		"conflicts": [
			{
				"description": "Phantom conflict",
				"severity": "LOW",
				"reasoning": "r",
				"legal_principle": "",
				"involved_entity_names": ["Unrelated Clause", "Another Unrelated Clause"]
			}
		],
		"overall_summary": "s"
	}`}}

	result, err := client.AnalyzeConflicts(context.Background(), []string{doc.ID}, aiClient, storage)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("conflicts with no matched entities must be discarded, got %+v", result.Conflicts)
	}
	stored, _ := storage.FindAllConflicts(context.Background())
	if len(stored) != 0 {
		t.Errorf("nothing should be persisted, got %d", len(stored))
	}
}

func TestAnalyzeConflictsDefaultsUnknownSeverity(t *testing.T) {
	client := newTestClient(t)
	storage := newMemStorage()

	doc, err := mustIngest(IngestDocumentParams{
		Name:         "Framework Agreement",
		Content:      "Termination requires 90 days written notice.",
		DocumentType: common.DocumentTypeContract,
	}, storage, frameworkExtraction)
	if err != nil {
		t.Fatal(err)
	}

	aiClient := &fakeAIClient{responses: []string{`{
		"conflicts": [
			{
				"description": "Notice period depends on a terminated right",
				"severity": "SEVERE",
				"reasoning": "r",
				"legal_principle": "",
				"involved_entity_names": ["Notice Period", "Termination Right"]
			}
		],
		"overall_summary": "s"
	}`}}

	result, err := client.AnalyzeConflicts(context.Background(), []string{doc.ID}, aiClient, storage)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(result.Conflicts))
	}
	if result.Conflicts[0].Severity != common.SeverityMedium {
		t.Errorf("unknown severities must default to MEDIUM, got %s", result.Conflicts[0].Severity)
	}
}

func TestAnalyzeConflictsPropagatesUnavailable(t *testing.T) {
	client := newTestClient(t)
	storage := newMemStorage()

	doc, err := mustIngest(IngestDocumentParams{
		Name:         "Framework Agreement",
		Content:      "Termination requires 90 days written notice.",
		DocumentType: common.DocumentTypeContract,
	}, storage, frameworkExtraction)
	if err != nil {
		t.Fatal(err)
	}

	aiClient := &fakeAIClient{err: errFake}
	_, err = client.AnalyzeConflicts(context.Background(), []string{doc.ID}, aiClient, storage)
	if err == nil {
		t.Fatal("expected an error when the model is unreachable")
	}
	if !ai.IsUnavailable(err) {
		t.Errorf("expected UnavailableError, got %T: %v", err, err)
	}
}

func TestAnalysisLockKeyOrderIndependent(t *testing.T) {
	a := analysisLockKey([]string{"d1", "d2", "d3"})
	b := analysisLockKey([]string{"d3", "d1", "d2"})
	if a != b {
		t.Error("lock key must not depend on document order")
	}
	c := analysisLockKey([]string{"d1", "d2"})
	if a == c {
		t.Error("different document sets must get different keys")
	}
}
