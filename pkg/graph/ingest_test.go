package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/lexguard/backend/pkg/common"
)

const frameworkExtraction = `{
	"entities": [
		{
			"name": "Notice Period",
			"entity_type": "TIME_PERIOD",
			"value": "90 days",
			"source_context": "Termination requires 90 days written notice.",
			"relationships": [
				{"target_entity_name": "Termination Right", "relationship_type": "DEPENDS_ON"}
			]
		},
		{
			"name": "Termination Right",
			"entity_type": "RIGHT",
			"value": "Either party may terminate",
			"source_context": "Either party may terminate this agreement.",
			"relationships": []
		}
	],
	"document_summary": "Framework agreement."
}`

func TestIngestDocumentBuildsEntityGraph(t *testing.T) {
	storage := newMemStorage()

	doc, err := mustIngest(IngestDocumentParams{
		Name:         "Framework Agreement",
		Content:      "Either party may terminate this agreement. Termination requires 90 days written notice.",
		DocumentType: common.DocumentTypeContract,
	}, storage, frameworkExtraction)
	if err != nil {
		t.Fatal(err)
	}

	if doc.ID == "" {
		t.Error("document must get an id")
	}
	if len(doc.Entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(doc.Entities))
	}

	var notice, right common.Entity
	for _, e := range doc.Entities {
		switch e.Name {
		case "Notice Period":
			notice = e
		case "Termination Right":
			right = e
		}
	}
	if notice.ID == "" || right.ID == "" {
		t.Fatalf("entities missing ids: %+v", doc.Entities)
	}
	if len(notice.Relations) != 1 {
		t.Fatalf("expected 1 relation on Notice Period, got %d", len(notice.Relations))
	}
	if notice.Relations[0].TargetEntityID != right.ID {
		t.Errorf("relation must point at the persisted target id, got %s", notice.Relations[0].TargetEntityID)
	}
	if notice.Relations[0].Type != common.RelationTypeDependsOn {
		t.Errorf("unexpected relation type %s", notice.Relations[0].Type)
	}

	if _, err := storage.FindDocumentByID(context.Background(), doc.ID); err != nil {
		t.Errorf("document should be persisted: %v", err)
	}
}

func TestIngestDocumentRelationWiring(t *testing.T) {
	storage := newMemStorage()

	doc, err := mustIngest(IngestDocumentParams{
		Name:         "Directive",
		Content:      "content",
		DocumentType: common.DocumentTypeInternalDirective,
	}, storage, `{
		"entities": [
			{
				"name": "Approval Requirement",
				"entity_type": "CONDITION",
				"value": "Board approval required",
				"source_context": "...",
				"relationships": [
					{"target_entity_name": "Nonexistent Entity", "relationship_type": "REFERENCES"},
					{"target_entity_name": "approval requirement", "relationship_type": "REFERENCES"},
					{"target_entity_name": "Approval Requirement", "relationship_type": "REFERENCES"}
				]
			}
		],
		"document_summary": "Directive."
	}`)
	if err != nil {
		t.Fatal(err)
	}

	if len(doc.Entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(doc.Entities))
	}

	// Target names resolve by exact lookup only, so the unknown name and
	// the case-mismatched one drop out. A relation back onto the entity
	// itself is legitimate and kept.
	relations := doc.Entities[0].Relations
	if len(relations) != 1 {
		t.Fatalf("expected 1 relation, got %+v", relations)
	}
	if relations[0].TargetEntityID != doc.Entities[0].ID {
		t.Errorf("self relation must target the entity's own id, got %s", relations[0].TargetEntityID)
	}
}

func TestIngestDocumentKeepsEveryDescriptor(t *testing.T) {
	storage := newMemStorage()

	doc, err := mustIngest(IngestDocumentParams{
		Name:         "Doc",
		Content:      "content",
		DocumentType: common.DocumentTypeOther,
	}, storage, `{
		"entities": [
			{"name": "Valid", "entity_type": "CLAUSE", "value": "v", "source_context": "", "relationships": []},
			{"name": "Odd", "entity_type": "SOMETHING_ELSE", "value": "v", "source_context": "", "relationships": []},
			{"name": "", "entity_type": "CLAUSE", "value": "v", "source_context": "", "relationships": []}
		],
		"document_summary": "Doc."
	}`)
	if err != nil {
		t.Fatal(err)
	}

	// Every extracted descriptor becomes an entity, including ones with
	// a type outside the known set or a blank name.
	if len(doc.Entities) != 3 {
		t.Fatalf("expected 3 entities, got %+v", doc.Entities)
	}
	for _, e := range doc.Entities {
		if e.Name == "Odd" && e.EntityType != common.EntityType("SOMETHING_ELSE") {
			t.Errorf("unrecognized type must be carried through, got %s", e.EntityType)
		}
	}
}

func TestIngestDocumentDuplicateNamesShadowInWiring(t *testing.T) {
	storage := newMemStorage()

	doc, err := mustIngest(IngestDocumentParams{
		Name:         "Doc",
		Content:      "content",
		DocumentType: common.DocumentTypeContract,
	}, storage, `{
		"entities": [
			{"name": "Payment Term", "entity_type": "TIME_PERIOD", "value": "14 days", "source_context": "", "relationships": []},
			{"name": "Payment Term", "entity_type": "TIME_PERIOD", "value": "30 days", "source_context": "", "relationships": []},
			{"name": "Late Fee", "entity_type": "PENALTY", "value": "5%", "source_context": "", "relationships": [
				{"target_entity_name": "Payment Term", "relationship_type": "DEPENDS_ON"}
			]}
		],
		"document_summary": "Doc."
	}`)
	if err != nil {
		t.Fatal(err)
	}

	if len(doc.Entities) != 3 {
		t.Fatalf("both same-named entities must be kept, got %+v", doc.Entities)
	}

	var second, fee common.Entity
	for _, e := range doc.Entities {
		if e.Name == "Payment Term" && e.Value == "30 days" {
			second = e
		}
		if e.Name == "Late Fee" {
			fee = e
		}
	}
	if len(fee.Relations) != 1 {
		t.Fatalf("expected 1 relation on Late Fee, got %+v", fee.Relations)
	}
	if fee.Relations[0].TargetEntityID != second.ID {
		t.Errorf("the later entity shadows the earlier one for wiring, got %s", fee.Relations[0].TargetEntityID)
	}
}

func TestIngestDocumentSurvivesExtractionFailure(t *testing.T) {
	storage := newMemStorage()
	client, err := NewGraphClient(NewGraphClientParams{})
	if err != nil {
		t.Fatal(err)
	}
	aiClient := &fakeAIClient{err: errFake}

	doc, err := client.IngestDocument(context.Background(), IngestDocumentParams{
		Name:         "Unreachable Model",
		Content:      "content",
		DocumentType: common.DocumentTypeContract,
	}, aiClient, storage)
	if err != nil {
		t.Fatalf("ingestion must not fail on extraction errors: %v", err)
	}
	if len(doc.Entities) != 0 {
		t.Errorf("expected no entities, got %+v", doc.Entities)
	}
	if _, err := storage.FindDocumentByID(context.Background(), doc.ID); err != nil {
		t.Errorf("document should still be persisted: %v", err)
	}
}

func TestIngestDocumentPromptContainsContent(t *testing.T) {
	storage := newMemStorage()
	client, err := NewGraphClient(NewGraphClientParams{})
	if err != nil {
		t.Fatal(err)
	}
	aiClient := &fakeAIClient{responses: []string{`{"entities": [], "document_summary": "x"}`}}

	_, err = client.IngestDocument(context.Background(), IngestDocumentParams{
		Name:         "Supply Contract",
		Content:      "The supplier shall deliver within 14 days.",
		DocumentType: common.DocumentTypeContract,
	}, aiClient, storage)
	if err != nil {
		t.Fatal(err)
	}

	if len(aiClient.prompts) != 1 {
		t.Fatalf("expected one extraction call, got %d", len(aiClient.prompts))
	}
	if !strings.Contains(aiClient.prompts[0], "deliver within 14 days") {
		t.Error("extraction prompt should carry the document content")
	}
}

func TestDeleteDocument(t *testing.T) {
	storage := newMemStorage()
	client, err := NewGraphClient(NewGraphClientParams{})
	if err != nil {
		t.Fatal(err)
	}

	doc, err := mustIngest(IngestDocumentParams{
		Name:         "Doc",
		Content:      "content",
		DocumentType: common.DocumentTypeOther,
	}, storage, `{"entities": [], "document_summary": "x"}`)
	if err != nil {
		t.Fatal(err)
	}

	deleted, err := client.DeleteDocument(context.Background(), doc.ID, storage)
	if err != nil {
		t.Fatal(err)
	}
	if !deleted {
		t.Error("expected deletion to be reported")
	}

	deleted, err = client.DeleteDocument(context.Background(), doc.ID, storage)
	if err != nil {
		t.Fatal(err)
	}
	if deleted {
		t.Error("second deletion must report false")
	}
}
