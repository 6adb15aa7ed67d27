package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process SubmissionStore.
type Memory struct {
	mu    sync.RWMutex
	items map[string]Submission
	now   func() time.Time
}

// Ensure interface compliance.
var _ SubmissionStore = (*Memory)(nil)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]Submission),
		now:   time.Now,
	}
}

// Save assigns an id and timestamp when missing and stores a copy.
func (m *Memory) Save(ctx context.Context, sub Submission) (Submission, error) {
	if err := ctx.Err(); err != nil {
		return Submission{}, err
	}
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = m.now().UTC()
	}
	sub.Payload = sub.Payload.Clone()

	m.mu.Lock()
	m.items[sub.ID] = sub
	m.mu.Unlock()
	return sub, nil
}

// Get returns a stored submission.
func (m *Memory) Get(ctx context.Context, id string) (Submission, error) {
	if err := ctx.Err(); err != nil {
		return Submission{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.items[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	sub.Payload = sub.Payload.Clone()
	return sub, nil
}

// List returns up to limit submissions, newest first. limit <= 0 means all.
func (m *Memory) List(ctx context.Context, limit int) ([]Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]Submission, 0, len(m.items))
	for _, sub := range m.items {
		sub.Payload = sub.Payload.Clone()
		out = append(out, sub)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
