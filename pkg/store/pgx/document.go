package pgx

import (
	"context"
	"errors"
	"time"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/lexguard/backend/pkg/common"
	"github.com/lexguard/backend/pkg/logger"
	"github.com/lexguard/backend/pkg/store"
)

// SaveDocument persists a document with its entities and relations in one
// transaction. Re-saving an existing id replaces its entity set.
func (s *GraphDBStorage) SaveDocument(ctx context.Context, doc common.Document) (common.Document, error) {
	if doc.ID == "" {
		doc.ID = newID()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	for i := range doc.Entities {
		if doc.Entities[i].ID == "" {
			doc.Entities[i].ID = newID()
		}
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return common.Document{}, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO documents (id, name, content, document_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			content = EXCLUDED.content,
			document_type = EXCLUDED.document_type`,
		doc.ID, doc.Name, doc.Content, string(doc.DocumentType), doc.CreatedAt,
	)
	if err != nil {
		return common.Document{}, err
	}

	// entity_relations rows go with them via cascade
	_, err = tx.Exec(ctx, `DELETE FROM entities WHERE document_id = $1`, doc.ID)
	if err != nil {
		return common.Document{}, err
	}

	for _, e := range doc.Entities {
		_, err = tx.Exec(ctx, `
			INSERT INTO entities (id, document_id, name, entity_type, value, source_context)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			e.ID, doc.ID, e.Name, string(e.EntityType), e.Value, e.SourceContext,
		)
		if err != nil {
			return common.Document{}, err
		}
	}

	for _, e := range doc.Entities {
		for _, r := range e.Relations {
			_, err = tx.Exec(ctx, `
				INSERT INTO entity_relations (source_entity_id, target_entity_id, relation_type)
				VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING`,
				e.ID, r.TargetEntityID, string(r.Type),
			)
			if err != nil {
				return common.Document{}, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return common.Document{}, err
	}

	logger.Debug("[Store] Saved document", "id", doc.ID, "entities", len(doc.Entities))
	return doc, nil
}

// FindDocumentByID returns a document with its entities and relations.
func (s *GraphDBStorage) FindDocumentByID(ctx context.Context, id string) (common.Document, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT id, name, content, document_type, created_at
		FROM documents WHERE id = $1`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return common.Document{}, store.ErrNotFound
		}
		return common.Document{}, err
	}

	entities, err := s.loadEntitiesForDocuments(ctx, []string{id})
	if err != nil {
		return common.Document{}, err
	}
	doc.Entities = entities[id]
	return doc, nil
}

// FindDocumentsByIDs returns the documents matching the given ids, entities
// included. Unknown ids are silently skipped.
func (s *GraphDBStorage) FindDocumentsByIDs(ctx context.Context, ids []string) ([]common.Document, error) {
	ids = store.DedupeStrings(ids)
	if len(ids) == 0 {
		return []common.Document{}, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT id, name, content, document_type, created_at
		FROM documents WHERE id = ANY($1)
		ORDER BY created_at, id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs, err := collectDocuments(rows)
	if err != nil {
		return nil, err
	}

	return s.attachEntities(ctx, docs)
}

// FindAllDocuments returns every document, entities included.
func (s *GraphDBStorage) FindAllDocuments(ctx context.Context) ([]common.Document, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, name, content, document_type, created_at
		FROM documents ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs, err := collectDocuments(rows)
	if err != nil {
		return nil, err
	}

	return s.attachEntities(ctx, docs)
}

// DeleteDocument removes a document and, via cascade, its entities and
// their conflict links. It reports whether a row was deleted.
func (s *GraphDBStorage) DeleteDocument(ctx context.Context, id string) (bool, error) {
	tag, err := s.conn.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	deleted := tag.RowsAffected() > 0
	if deleted {
		logger.Debug("[Store] Deleted document", "id", id)
	}
	return deleted, nil
}

func (s *GraphDBStorage) attachEntities(ctx context.Context, docs []common.Document) ([]common.Document, error) {
	if len(docs) == 0 {
		return docs, nil
	}
	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = docs[i].ID
	}
	entities, err := s.loadEntitiesForDocuments(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Entities = entities[docs[i].ID]
	}
	return docs, nil
}

func scanDocument(row pgxv5.Row) (common.Document, error) {
	var (
		doc     common.Document
		docType string
	)
	if err := row.Scan(&doc.ID, &doc.Name, &doc.Content, &docType, &doc.CreatedAt); err != nil {
		return common.Document{}, err
	}
	doc.DocumentType = common.DocumentType(docType)
	return doc, nil
}

func collectDocuments(rows pgxv5.Rows) ([]common.Document, error) {
	docs := make([]common.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
