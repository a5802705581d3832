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

const conflictColumns = `id, description, severity, reasoning, legal_principle, detected_at`

// SaveConflict persists a conflict and its entity links in one transaction.
func (s *GraphDBStorage) SaveConflict(ctx context.Context, conflict common.Conflict) (common.Conflict, error) {
	if conflict.ID == "" {
		conflict.ID = newID()
	}
	if conflict.DetectedAt.IsZero() {
		conflict.DetectedAt = time.Now().UTC()
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return common.Conflict{}, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO conflicts (id, description, severity, reasoning, legal_principle, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			description = EXCLUDED.description,
			severity = EXCLUDED.severity,
			reasoning = EXCLUDED.reasoning,
			legal_principle = EXCLUDED.legal_principle`,
		conflict.ID, conflict.Description, string(conflict.Severity),
		conflict.Reasoning, conflict.LegalPrinciple, conflict.DetectedAt,
	)
	if err != nil {
		return common.Conflict{}, err
	}

	_, err = tx.Exec(ctx, `DELETE FROM conflict_entities WHERE conflict_id = $1`, conflict.ID)
	if err != nil {
		return common.Conflict{}, err
	}

	for _, e := range conflict.Entities {
		_, err = tx.Exec(ctx, `
			INSERT INTO conflict_entities (conflict_id, entity_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			conflict.ID, e.ID,
		)
		if err != nil {
			return common.Conflict{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return common.Conflict{}, err
	}

	logger.Debug("[Store] Saved conflict",
		"id", conflict.ID,
		"severity", conflict.Severity,
		"entities", len(conflict.Entities),
	)
	return conflict, nil
}

// FindConflictByID returns a conflict with its involved entities.
func (s *GraphDBStorage) FindConflictByID(ctx context.Context, id string) (common.Conflict, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT `+conflictColumns+`
		FROM conflicts WHERE id = $1`, id)

	conflict, err := scanConflict(row)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return common.Conflict{}, store.ErrNotFound
		}
		return common.Conflict{}, err
	}

	conflicts, err := s.attachConflictEntities(ctx, []common.Conflict{conflict})
	if err != nil {
		return common.Conflict{}, err
	}
	return conflicts[0], nil
}

// FindAllConflicts returns every conflict with its involved entities.
func (s *GraphDBStorage) FindAllConflicts(ctx context.Context) ([]common.Conflict, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT `+conflictColumns+`
		FROM conflicts ORDER BY detected_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conflicts, err := collectConflicts(rows)
	if err != nil {
		return nil, err
	}
	return s.attachConflictEntities(ctx, conflicts)
}

// FindConflictsBySeverity returns the conflicts with the given severity.
func (s *GraphDBStorage) FindConflictsBySeverity(ctx context.Context, severity common.ConflictSeverity) ([]common.Conflict, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT `+conflictColumns+`
		FROM conflicts WHERE severity = $1
		ORDER BY detected_at DESC, id`, string(severity))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conflicts, err := collectConflicts(rows)
	if err != nil {
		return nil, err
	}
	return s.attachConflictEntities(ctx, conflicts)
}

// DeleteConflict removes a conflict and reports whether a row was deleted.
func (s *GraphDBStorage) DeleteConflict(ctx context.Context, id string) (bool, error) {
	tag, err := s.conn.Exec(ctx, `DELETE FROM conflicts WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FindConflictsInvolvingEntity returns the conflicts linked to an entity.
func (s *GraphDBStorage) FindConflictsInvolvingEntity(ctx context.Context, entityID string) ([]common.Conflict, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT `+conflictColumns+`
		FROM conflicts
		WHERE id IN (SELECT conflict_id FROM conflict_entities WHERE entity_id = $1)
		ORDER BY detected_at, id`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conflicts, err := collectConflicts(rows)
	if err != nil {
		return nil, err
	}
	return s.attachConflictEntities(ctx, conflicts)
}

// FindConflictsInvolvingAnyOf returns the conflicts that involve at least
// two entities out of the given id set.
func (s *GraphDBStorage) FindConflictsInvolvingAnyOf(ctx context.Context, entityIDs []string) ([]common.Conflict, error) {
	entityIDs = store.DedupeStrings(entityIDs)
	if len(entityIDs) < 2 {
		return []common.Conflict{}, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT `+conflictColumns+`
		FROM conflicts
		WHERE id IN (
			SELECT conflict_id FROM conflict_entities
			WHERE entity_id = ANY($1)
			GROUP BY conflict_id
			HAVING COUNT(DISTINCT entity_id) >= 2
		)
		ORDER BY detected_at, id`, entityIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conflicts, err := collectConflicts(rows)
	if err != nil {
		return nil, err
	}
	return s.attachConflictEntities(ctx, conflicts)
}

// FindConflictsForDocuments returns the distinct conflicts that involve any
// entity of the given documents.
func (s *GraphDBStorage) FindConflictsForDocuments(ctx context.Context, documentIDs []string) ([]common.Conflict, error) {
	documentIDs = store.DedupeStrings(documentIDs)
	if len(documentIDs) == 0 {
		return []common.Conflict{}, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT `+conflictColumns+`
		FROM conflicts
		WHERE id IN (
			SELECT DISTINCT ce.conflict_id
			FROM conflict_entities ce
			JOIN entities e ON e.id = ce.entity_id
			WHERE e.document_id = ANY($1)
		)
		ORDER BY detected_at, id`, documentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conflicts, err := collectConflicts(rows)
	if err != nil {
		return nil, err
	}
	return s.attachConflictEntities(ctx, conflicts)
}

func (s *GraphDBStorage) attachConflictEntities(ctx context.Context, conflicts []common.Conflict) ([]common.Conflict, error) {
	if len(conflicts) == 0 {
		return conflicts, nil
	}

	ids := make([]string, len(conflicts))
	for i := range conflicts {
		ids[i] = conflicts[i].ID
	}

	rows, err := s.conn.Query(ctx, `
		SELECT ce.conflict_id, `+prefixedEntityColumns("e")+`
		FROM conflict_entities ce
		JOIN entities e ON e.id = ce.entity_id
		WHERE ce.conflict_id = ANY($1)
		ORDER BY ce.conflict_id, e.name, e.id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byConflict := make(map[string][]common.Entity, len(conflicts))
	for rows.Next() {
		var (
			conflictID string
			entity     common.Entity
			documentID string
			entityType string
		)
		err := rows.Scan(&conflictID, &entity.ID, &documentID, &entity.Name, &entityType, &entity.Value, &entity.SourceContext)
		if err != nil {
			return nil, err
		}
		entity.EntityType = common.EntityType(entityType)
		byConflict[conflictID] = append(byConflict[conflictID], entity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range conflicts {
		entities := byConflict[conflicts[i].ID]
		if entities == nil {
			entities = []common.Entity{}
		}
		conflicts[i].Entities = entities
	}
	return conflicts, nil
}

func prefixedEntityColumns(alias string) string {
	return alias + ".id, " + alias + ".document_id, " + alias + ".name, " +
		alias + ".entity_type, " + alias + ".value, " + alias + ".source_context"
}

func scanConflict(row pgxv5.Row) (common.Conflict, error) {
	var (
		conflict common.Conflict
		severity string
	)
	err := row.Scan(
		&conflict.ID, &conflict.Description, &severity,
		&conflict.Reasoning, &conflict.LegalPrinciple, &conflict.DetectedAt,
	)
	if err != nil {
		return common.Conflict{}, err
	}
	conflict.Severity = common.ConflictSeverity(severity)
	return conflict, nil
}

func collectConflicts(rows pgxv5.Rows) ([]common.Conflict, error) {
	conflicts := make([]common.Conflict, 0)
	for rows.Next() {
		conflict, err := scanConflict(rows)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, conflict)
	}
	return conflicts, rows.Err()
}
