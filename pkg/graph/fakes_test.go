package graph

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lexguard/backend/pkg/ai"
	"github.com/lexguard/backend/pkg/common"
	"github.com/lexguard/backend/pkg/store"
)

var errFake = errors.New("fake ai failure")

// fakeAIClient pops one canned response per structured generation call.
type fakeAIClient struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.next(), nil
}

func (f *fakeAIClient) GenerateCompletionWithFormat(ctx context.Context, name string, description string, prompt string, out any, opts ...ai.GenerateOption) error {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return f.err
	}
	return ai.UnmarshalFlexible(f.next(), out)
}

func (f *fakeAIClient) next() string {
	if len(f.responses) == 0 {
		return `{}`
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp
}

func (f *fakeAIClient) ResetMetrics() {}

func (f *fakeAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

// memStorage is an in-memory store.GraphStorage for orchestration tests.
type memStorage struct {
	docs      map[string]common.Document
	conflicts map[string]common.Conflict
	nextID    int
}

func newMemStorage() *memStorage {
	return &memStorage{
		docs:      make(map[string]common.Document),
		conflicts: make(map[string]common.Conflict),
	}
}

func (m *memStorage) id() string {
	m.nextID++
	return "gen-" + strconv.Itoa(m.nextID)
}

func (m *memStorage) SaveDocument(ctx context.Context, doc common.Document) (common.Document, error) {
	if doc.ID == "" {
		doc.ID = m.id()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	for i := range doc.Entities {
		if doc.Entities[i].ID == "" {
			doc.Entities[i].ID = m.id()
		}
	}
	m.docs[doc.ID] = doc
	return doc, nil
}

func (m *memStorage) FindDocumentByID(ctx context.Context, id string) (common.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return common.Document{}, store.ErrNotFound
	}
	return doc, nil
}

func (m *memStorage) FindDocumentsByIDs(ctx context.Context, ids []string) ([]common.Document, error) {
	docs := make([]common.Document, 0, len(ids))
	seen := make(map[string]struct{})
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if doc, ok := m.docs[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *memStorage) FindAllDocuments(ctx context.Context) ([]common.Document, error) {
	docs := make([]common.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, doc)
	}
	return docs, nil
}

func (m *memStorage) DeleteDocument(ctx context.Context, id string) (bool, error) {
	if _, ok := m.docs[id]; !ok {
		return false, nil
	}
	delete(m.docs, id)
	return true, nil
}

func (m *memStorage) FindEntityByID(ctx context.Context, id string) (common.Entity, error) {
	for _, doc := range m.docs {
		for _, e := range doc.Entities {
			if e.ID == id {
				return e, nil
			}
		}
	}
	return common.Entity{}, store.ErrNotFound
}

func (m *memStorage) FindEntities(ctx context.Context, entityType *common.EntityType) ([]common.Entity, error) {
	entities := make([]common.Entity, 0)
	for _, doc := range m.docs {
		for _, e := range doc.Entities {
			if entityType == nil || e.EntityType == *entityType {
				entities = append(entities, e)
			}
		}
	}
	return entities, nil
}

func (m *memStorage) FindEntitiesByDocumentID(ctx context.Context, documentID string) ([]common.Entity, error) {
	doc, ok := m.docs[documentID]
	if !ok {
		return []common.Entity{}, nil
	}
	return doc.Entities, nil
}

func (m *memStorage) SaveConflict(ctx context.Context, conflict common.Conflict) (common.Conflict, error) {
	if conflict.ID == "" {
		conflict.ID = m.id()
	}
	if conflict.DetectedAt.IsZero() {
		conflict.DetectedAt = time.Now().UTC()
	}
	m.conflicts[conflict.ID] = conflict
	return conflict, nil
}

func (m *memStorage) FindConflictByID(ctx context.Context, id string) (common.Conflict, error) {
	conflict, ok := m.conflicts[id]
	if !ok {
		return common.Conflict{}, store.ErrNotFound
	}
	return conflict, nil
}

func (m *memStorage) FindAllConflicts(ctx context.Context) ([]common.Conflict, error) {
	conflicts := make([]common.Conflict, 0, len(m.conflicts))
	for _, c := range m.conflicts {
		conflicts = append(conflicts, c)
	}
	return conflicts, nil
}

func (m *memStorage) FindConflictsBySeverity(ctx context.Context, severity common.ConflictSeverity) ([]common.Conflict, error) {
	conflicts := make([]common.Conflict, 0)
	for _, c := range m.conflicts {
		if c.Severity == severity {
			conflicts = append(conflicts, c)
		}
	}
	return conflicts, nil
}

func (m *memStorage) DeleteConflict(ctx context.Context, id string) (bool, error) {
	if _, ok := m.conflicts[id]; !ok {
		return false, nil
	}
	delete(m.conflicts, id)
	return true, nil
}

func (m *memStorage) FindConflictsInvolvingEntity(ctx context.Context, entityID string) ([]common.Conflict, error) {
	conflicts := make([]common.Conflict, 0)
	for _, c := range m.conflicts {
		for _, e := range c.Entities {
			if e.ID == entityID {
				conflicts = append(conflicts, c)
				break
			}
		}
	}
	return conflicts, nil
}

func (m *memStorage) FindConflictsInvolvingAnyOf(ctx context.Context, entityIDs []string) ([]common.Conflict, error) {
	idSet := make(map[string]struct{}, len(entityIDs))
	for _, id := range entityIDs {
		idSet[id] = struct{}{}
	}

	conflicts := make([]common.Conflict, 0)
	for _, c := range m.conflicts {
		hits := 0
		for _, e := range c.Entities {
			if _, ok := idSet[e.ID]; ok {
				hits++
			}
		}
		if hits >= 2 {
			conflicts = append(conflicts, c)
		}
	}
	return conflicts, nil
}

func (m *memStorage) FindConflictsForDocuments(ctx context.Context, documentIDs []string) ([]common.Conflict, error) {
	entityIDs := make(map[string]struct{})
	for _, docID := range documentIDs {
		doc, ok := m.docs[docID]
		if !ok {
			continue
		}
		for _, e := range doc.Entities {
			entityIDs[e.ID] = struct{}{}
		}
	}

	conflicts := make([]common.Conflict, 0)
	for _, c := range m.conflicts {
		for _, e := range c.Entities {
			if _, ok := entityIDs[e.ID]; ok {
				conflicts = append(conflicts, c)
				break
			}
		}
	}
	return conflicts, nil
}

var _ store.GraphStorage = (*memStorage)(nil)

func mustIngest(params IngestDocumentParams, storage *memStorage, extraction string) (common.Document, error) {
	client, err := NewGraphClient(NewGraphClientParams{})
	if err != nil {
		return common.Document{}, err
	}
	aiClient := &fakeAIClient{responses: []string{extraction}}
	doc, err := client.IngestDocument(context.Background(), params, aiClient, storage)
	if err != nil {
		return common.Document{}, fmt.Errorf("ingest %q: %w", params.Name, err)
	}
	return doc, nil
}
