package store

import (
	"context"
	"errors"

	"github.com/lexguard/backend/pkg/common"
)

// ErrNotFound is returned by lookups when no record matches the given id.
var ErrNotFound = errors.New("record not found")

// GraphStorage defines the interface for persisting and querying the
// document graph. Documents own their extracted entities, entities carry
// relations to other entities, and conflicts reference the entities they
// involve.
type GraphStorage interface {
	// SaveDocument persists a document together with its entities and
	// entity relations in one transaction. Missing ids are assigned.
	SaveDocument(ctx context.Context, doc common.Document) (common.Document, error)
	FindDocumentByID(ctx context.Context, id string) (common.Document, error)
	FindDocumentsByIDs(ctx context.Context, ids []string) ([]common.Document, error)
	FindAllDocuments(ctx context.Context) ([]common.Document, error)
	// DeleteDocument removes a document with its entities and reports
	// whether a document was actually deleted.
	DeleteDocument(ctx context.Context, id string) (bool, error)

	FindEntityByID(ctx context.Context, id string) (common.Entity, error)
	// FindEntities returns all entities, optionally filtered by type.
	FindEntities(ctx context.Context, entityType *common.EntityType) ([]common.Entity, error)
	FindEntitiesByDocumentID(ctx context.Context, documentID string) ([]common.Entity, error)

	SaveConflict(ctx context.Context, conflict common.Conflict) (common.Conflict, error)
	FindConflictByID(ctx context.Context, id string) (common.Conflict, error)
	FindAllConflicts(ctx context.Context) ([]common.Conflict, error)
	FindConflictsBySeverity(ctx context.Context, severity common.ConflictSeverity) ([]common.Conflict, error)
	DeleteConflict(ctx context.Context, id string) (bool, error)

	FindConflictsInvolvingEntity(ctx context.Context, entityID string) ([]common.Conflict, error)
	// FindConflictsInvolvingAnyOf returns conflicts that involve at least
	// two entities out of the given id set. A conflict touching only one
	// of the ids is not a candidate for deduplication.
	FindConflictsInvolvingAnyOf(ctx context.Context, entityIDs []string) ([]common.Conflict, error)
	// FindConflictsForDocuments returns the distinct conflicts involving
	// any entity of the given documents.
	FindConflictsForDocuments(ctx context.Context, documentIDs []string) ([]common.Conflict, error)
}
