// Package store persists submitted form payloads.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-dynform/pkg/schema"
)

// ErrNotFound is returned when a submission id is unknown.
var ErrNotFound = errors.New("store: submission not found")

// Submission is one recorded payload.
type Submission struct {
	ID          string        `json:"id"`
	SchemaTitle string        `json:"schemaTitle,omitempty"`
	Payload     schema.Values `json:"payload"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// SubmissionStore records and lists submissions. List returns newest first.
type SubmissionStore interface {
	Save(ctx context.Context, sub Submission) (Submission, error)
	Get(ctx context.Context, id string) (Submission, error)
	List(ctx context.Context, limit int) ([]Submission, error)
}
