package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dynform/pkg/schema"
)

func TestMemorySaveAssignsIDAndTimestamp(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	saved, err := m.Save(context.Background(), Submission{Payload: schema.Values{"a": "1"}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" {
		t.Fatalf("expected generated id")
	}
	if saved.CreatedAt.IsZero() {
		t.Fatalf("expected timestamp")
	}

	got, err := m.Get(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(saved, got); diff != "" {
		t.Fatalf("stored submission mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryPayloadIsCopied(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	payload := schema.Values{"a": "1"}
	saved, err := m.Save(context.Background(), Submission{Payload: payload})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	payload["a"] = "mutated"

	got, _ := m.Get(context.Background(), saved.ID)
	if got.Payload["a"] != "1" {
		t.Fatalf("expected stored payload to be isolated, got %v", got.Payload["a"])
	}
}

func TestMemoryListNewestFirstWithLimit(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		if _, err := m.Save(context.Background(), Submission{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	list, err := m.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, sub := range list {
		ids = append(ids, sub.ID)
	}
	if diff := cmp.Diff([]string{"third", "second"}, ids); diff != "" {
		t.Fatalf("list order mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryGetMissing(t *testing.T) {
	t.Parallel()

	_, err := NewMemory().Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
