package pgx

import (
	"context"
	"errors"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/lexguard/backend/pkg/common"
	"github.com/lexguard/backend/pkg/store"
)

const entityColumns = `id, document_id, name, entity_type, value, source_context`

// FindEntityByID returns a single entity with its outgoing relations.
func (s *GraphDBStorage) FindEntityByID(ctx context.Context, id string) (common.Entity, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT `+entityColumns+`
		FROM entities WHERE id = $1`, id)

	entity, _, err := scanEntity(row)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return common.Entity{}, store.ErrNotFound
		}
		return common.Entity{}, err
	}

	relations, err := s.loadRelations(ctx, []string{id})
	if err != nil {
		return common.Entity{}, err
	}
	entity.Relations = relations[id]
	return entity, nil
}

// FindEntities returns all entities, optionally filtered by type.
func (s *GraphDBStorage) FindEntities(ctx context.Context, entityType *common.EntityType) ([]common.Entity, error) {
	var (
		rows pgxv5.Rows
		err  error
	)
	if entityType != nil {
		rows, err = s.conn.Query(ctx, `
			SELECT `+entityColumns+`
			FROM entities WHERE entity_type = $1
			ORDER BY name, id`, string(*entityType))
	} else {
		rows, err = s.conn.Query(ctx, `
			SELECT `+entityColumns+`
			FROM entities ORDER BY name, id`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities, _, err := collectEntities(rows)
	if err != nil {
		return nil, err
	}
	return s.attachRelations(ctx, entities)
}

// FindEntitiesByDocumentID returns the entities of a single document.
func (s *GraphDBStorage) FindEntitiesByDocumentID(ctx context.Context, documentID string) ([]common.Entity, error) {
	byDoc, err := s.loadEntitiesForDocuments(ctx, []string{documentID})
	if err != nil {
		return nil, err
	}
	entities := byDoc[documentID]
	if entities == nil {
		entities = []common.Entity{}
	}
	return entities, nil
}

// loadEntitiesForDocuments loads the entities of the given documents,
// relations included, keyed by document id.
func (s *GraphDBStorage) loadEntitiesForDocuments(ctx context.Context, documentIDs []string) (map[string][]common.Entity, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT `+entityColumns+`
		FROM entities WHERE document_id = ANY($1)
		ORDER BY name, id`, documentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities, docIDs, err := collectEntities(rows)
	if err != nil {
		return nil, err
	}

	entityIDs := make([]string, len(entities))
	for i := range entities {
		entityIDs[i] = entities[i].ID
	}
	relations, err := s.loadRelations(ctx, entityIDs)
	if err != nil {
		return nil, err
	}

	byDoc := make(map[string][]common.Entity, len(documentIDs))
	for i := range entities {
		entities[i].Relations = relations[entities[i].ID]
		byDoc[docIDs[i]] = append(byDoc[docIDs[i]], entities[i])
	}
	return byDoc, nil
}

func (s *GraphDBStorage) attachRelations(ctx context.Context, entities []common.Entity) ([]common.Entity, error) {
	if len(entities) == 0 {
		return entities, nil
	}
	ids := make([]string, len(entities))
	for i := range entities {
		ids[i] = entities[i].ID
	}
	relations, err := s.loadRelations(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range entities {
		entities[i].Relations = relations[entities[i].ID]
	}
	return entities, nil
}

// relationChunkSize bounds the id array bound to ANY($1) when loading
// relations for full entity listings.
const relationChunkSize = 1000

func (s *GraphDBStorage) loadRelations(ctx context.Context, entityIDs []string) (map[string][]common.EntityRelation, error) {
	relations := make(map[string][]common.EntityRelation)

	err := store.ChunkRange(len(entityIDs), relationChunkSize, func(start, end int) error {
		rows, err := s.conn.Query(ctx, `
			SELECT source_entity_id, target_entity_id, relation_type
			FROM entity_relations WHERE source_entity_id = ANY($1)
			ORDER BY source_entity_id, target_entity_id`, entityIDs[start:end])
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				sourceID     string
				targetID     string
				relationType string
			)
			if err := rows.Scan(&sourceID, &targetID, &relationType); err != nil {
				return err
			}
			relations[sourceID] = append(relations[sourceID], common.EntityRelation{
				TargetEntityID: targetID,
				Type:           common.RelationType(relationType),
			})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return relations, nil
}

func scanEntity(row pgxv5.Row) (common.Entity, string, error) {
	var (
		entity     common.Entity
		documentID string
		entityType string
	)
	err := row.Scan(&entity.ID, &documentID, &entity.Name, &entityType, &entity.Value, &entity.SourceContext)
	if err != nil {
		return common.Entity{}, "", err
	}
	entity.EntityType = common.EntityType(entityType)
	return entity, documentID, nil
}

func collectEntities(rows pgxv5.Rows) ([]common.Entity, []string, error) {
	entities := make([]common.Entity, 0)
	docIDs := make([]string, 0)
	for rows.Next() {
		entity, docID, err := scanEntity(rows)
		if err != nil {
			return nil, nil, err
		}
		entities = append(entities, entity)
		docIDs = append(docIDs, docID)
	}
	return entities, docIDs, rows.Err()
}
