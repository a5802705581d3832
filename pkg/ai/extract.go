package ai

import (
	"context"
	"fmt"

	"github.com/lexguard/backend/pkg/common"
	"github.com/lexguard/backend/pkg/logger"
)

// ExtractedRelation is a relationship between two extracted entities,
// identified by the target entity's name within the same extraction.
type ExtractedRelation struct {
	TargetEntityName string `json:"target_entity_name" jsonschema_description:"Name of the related entity, matching another entity's name exactly"`
	RelationshipType string `json:"relationship_type" jsonschema:"enum=DEFINES,enum=REFERENCES,enum=OVERRIDES,enum=CONFLICTS_WITH,enum=DEPENDS_ON" jsonschema_description:"Type of the relationship"`
}

// ExtractedEntity is a single entity emitted by the extraction model.
type ExtractedEntity struct {
	Name          string              `json:"name" jsonschema_description:"Short, stable label for the entity"`
	EntityType    string              `json:"entity_type" jsonschema:"enum=TIME_PERIOD,enum=MONETARY_VALUE,enum=PARTY,enum=OBLIGATION,enum=RIGHT,enum=CONDITION,enum=PENALTY,enum=CLAUSE" jsonschema_description:"Category of the entity"`
	Value         string              `json:"value" jsonschema_description:"Concrete content of the entity"`
	SourceContext string              `json:"source_context" jsonschema_description:"Sentence or clause the entity was extracted from"`
	Relationships []ExtractedRelation `json:"relationships" jsonschema_description:"Relationships to other extracted entities"`
}

// ExtractionResult is the structured output of a document extraction run.
type ExtractionResult struct {
	Entities        []ExtractedEntity `json:"entities" jsonschema_description:"Entities found in the document"`
	DocumentSummary string            `json:"document_summary" jsonschema_description:"Short summary of the document"`
}

// ExtractEntities runs entity extraction over a single document. Extraction
// is fail-soft: any model or parsing failure yields an empty entity list and
// a summary describing the failure, never an error. Ingestion must not be
// blocked by a flaky model.
func ExtractEntities(
	ctx context.Context,
	client GraphAIClient,
	docName string,
	docType common.DocumentType,
	content string,
	opts ...GenerateOption,
) ExtractionResult {
	prompt := BuildExtractionPrompt(docName, docType, content)

	var result ExtractionResult
	err := client.GenerateCompletionWithFormat(
		ctx,
		"entity_extraction",
		"Entities extracted from a legal document",
		prompt,
		&result,
		append([]GenerateOption{WithSystemPrompts(ExtractionSystemPrompt)}, opts...)...,
	)
	if err != nil {
		logger.Warn("[AI] Entity extraction failed", "document", docName, "err", err)
		return ExtractionResult{
			Entities:        []ExtractedEntity{},
			DocumentSummary: fmt.Sprintf("Entity extraction failed: %v", err),
		}
	}

	if result.Entities == nil {
		result.Entities = []ExtractedEntity{}
	}

	return result
}
