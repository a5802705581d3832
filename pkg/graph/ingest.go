package graph

import (
	"context"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/lexguard/backend/pkg/ai"
	"github.com/lexguard/backend/pkg/common"
	"github.com/lexguard/backend/pkg/logger"
	"github.com/lexguard/backend/pkg/store"
)

// IngestDocumentParams describes a document to ingest.
type IngestDocumentParams struct {
	Name         string
	Content      string
	DocumentType common.DocumentType
}

// IngestDocument extracts entities from the document and persists the
// document together with its entity graph. Extraction failures degrade to
// an entity-less document; ingestion itself only fails on storage errors.
func (g *GraphClient) IngestDocument(
	ctx context.Context,
	params IngestDocumentParams,
	aiClient ai.GraphAIClient,
	storeClient store.GraphStorage,
) (common.Document, error) {
	logger.Info("[Graph] Ingesting document", "name", params.Name, "type", params.DocumentType)

	promptContent := ai.TruncateToTokens(params.Content, g.maxPromptTokens)
	extraction := ai.ExtractEntities(ctx, aiClient, params.Name, params.DocumentType, promptContent)

	entities := buildEntityGraph(extraction.Entities)

	doc := common.Document{
		ID:           gonanoid.Must(),
		Name:         params.Name,
		Content:      params.Content,
		DocumentType: params.DocumentType,
		Entities:     entities,
	}

	saved, err := storeClient.SaveDocument(ctx, doc)
	if err != nil {
		return common.Document{}, err
	}

	logger.Info("[Graph] Document ingested",
		"id", saved.ID,
		"entities", len(saved.Entities),
	)
	return saved, nil
}

// DeleteDocument removes a document and its entities from the graph.
// Conflicts that referenced those entities lose the links but remain.
func (g *GraphClient) DeleteDocument(
	ctx context.Context,
	id string,
	storeClient store.GraphStorage,
) (bool, error) {
	deleted, err := storeClient.DeleteDocument(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		logger.Info("[Graph] Document deleted", "id", id)
	}
	return deleted, nil
}

// buildEntityGraph turns extracted entities into persistable ones in two
// passes: the first assigns ids and indexes entities by name, the second
// wires relations. Every descriptor becomes an entity; only relations
// whose target name does not resolve within the batch are dropped.
// Targets resolve by exact name lookup, and duplicate names shadow each
// other in the index (the last descriptor wins for relation wiring).
func buildEntityGraph(extracted []ai.ExtractedEntity) []common.Entity {
	entities := make([]common.Entity, 0, len(extracted))
	byName := make(map[string]int, len(extracted))

	for _, e := range extracted {
		entityType, err := common.ParseEntityType(e.EntityType)
		if err != nil {
			logger.Warn("[Graph] Keeping entity with unrecognized type", "name", e.Name, "type", e.EntityType)
			entityType = common.EntityType(strings.ToUpper(strings.TrimSpace(e.EntityType)))
		}

		entities = append(entities, common.Entity{
			ID:            gonanoid.Must(),
			Name:          e.Name,
			EntityType:    entityType,
			Value:         e.Value,
			SourceContext: e.SourceContext,
		})
		byName[e.Name] = len(entities) - 1
	}

	for _, e := range extracted {
		sourceIdx, ok := byName[e.Name]
		if !ok {
			continue
		}
		for _, r := range e.Relationships {
			targetIdx, ok := byName[r.TargetEntityName]
			if !ok {
				logger.Debug("[Graph] Dropping relation with unresolved target",
					"source", e.Name,
					"target", r.TargetEntityName,
				)
				continue
			}
			relationType, err := common.ParseRelationType(r.RelationshipType)
			if err != nil {
				relationType = common.RelationType(strings.ToUpper(strings.TrimSpace(r.RelationshipType)))
			}
			entities[sourceIdx].Relations = append(entities[sourceIdx].Relations, common.EntityRelation{
				TargetEntityID: entities[targetIdx].ID,
				Type:           relationType,
			})
		}
	}

	return entities
}
