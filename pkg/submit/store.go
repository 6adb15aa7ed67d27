package submit

import (
	"context"
	"fmt"

	"github.com/goliatone/go-dynform/pkg/schema"
	"github.com/goliatone/go-dynform/pkg/store"
)

// Store persists payloads into a SubmissionStore.
type Store struct {
	store store.SubmissionStore
	title string
}

// NewStore returns a submitter that records payloads under title.
func NewStore(s store.SubmissionStore, title string) *Store {
	return &Store{store: s, title: title}
}

// Submit implements Submitter.
func (s *Store) Submit(ctx context.Context, payload schema.Values) error {
	if s.store == nil {
		return fmt.Errorf("submit: store not configured")
	}
	if _, err := s.store.Save(ctx, store.Submission{
		SchemaTitle: s.title,
		Payload:     payload,
	}); err != nil {
		return fmt.Errorf("submit: save submission: %w", err)
	}
	return nil
}
