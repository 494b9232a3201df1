package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is a mutex-guarded in-memory store used for tests and local
// development. Documents are deep-copied on the way in and out so callers
// never share state with the store.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]Document
}

// NewMemory creates an empty in-memory store with the four collections.
func NewMemory() *Memory {
	return &Memory{
		collections: map[string][]Document{
			Users:       {},
			Courses:     {},
			Students:    {},
			Attendances: {},
		},
	}
}

func (m *Memory) SaveUser(ctx context.Context, user Document) (SaveUserOutcome, error) {
	email, _ := user["email"].(string)

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, stored := range m.collections[Users] {
		if stored["email"] == email {
			if status, _ := user["status"].(string); status == StatusRequested {
				stored["status"] = status
				stored[timestampField] = nowMillis()
				return SaveUserOutcome{Result: &UpdateResult{
					Acknowledged:  true,
					MatchedCount:  1,
					ModifiedCount: 1,
				}}, nil
			}
			return SaveUserOutcome{Existing: cloneDoc(stored)}, nil
		}
	}

	doc := stamped(user)
	id := uuid.NewString()
	doc["_id"] = id
	m.collections[Users] = append(m.collections[Users], doc)
	return SaveUserOutcome{Result: &UpdateResult{
		Acknowledged:  true,
		UpsertedCount: 1,
		UpsertedID:    id,
	}}, nil
}

func (m *Memory) InsertOne(ctx context.Context, collection string, doc Document) (InsertOneResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := cloneDoc(doc)
	id := uuid.NewString()
	stored["_id"] = id
	m.collections[collection] = append(m.collections[collection], stored)
	return InsertOneResult{Acknowledged: true, InsertedID: id}, nil
}

func (m *Memory) InsertMany(ctx context.Context, collection string, docs []Document) (InsertManyResult, error) {
	if len(docs) == 0 {
		return InsertManyResult{}, ErrEmptyBatch
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]any, 0, len(docs))
	for _, doc := range docs {
		stored := cloneDoc(doc)
		id := uuid.NewString()
		stored["_id"] = id
		m.collections[collection] = append(m.collections[collection], stored)
		ids = append(ids, id)
	}
	return InsertManyResult{Acknowledged: true, InsertedIDs: ids}, nil
}

func (m *Memory) FindUser(ctx context.Context, email string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, stored := range m.collections[Users] {
		if stored["email"] == email {
			return cloneDoc(stored), nil
		}
	}
	return nil, nil
}

func (m *Memory) FindAll(ctx context.Context, collection string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := m.collections[collection]
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, cloneDoc(doc))
	}
	return out, nil
}

func (m *Memory) UpdateUser(ctx context.Context, email string, fields Document) (UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, stored := range m.collections[Users] {
		if stored["email"] == email {
			for k, v := range stamped(fields) {
				stored[k] = v
			}
			return UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return UpdateResult{Acknowledged: true}, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close(ctx context.Context) error { return nil }

func cloneDoc(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Document:
		return cloneDoc(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
