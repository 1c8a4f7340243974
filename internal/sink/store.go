package sink

import (
	"context"
	"fmt"

	"github.com/nerrad567/neurobot-client/internal/chat"
)

// Store appends transcript entries to a persistent chat store.
type Store struct {
	store chat.Store
}

// NewStore creates a transcript persister on store.
func NewStore(store chat.Store) *Store {
	return &Store{store: store}
}

// Name implements Sink.
func (s *Store) Name() string { return "store" }

// Handle implements Sink. Only chat entries are persisted.
func (s *Store) Handle(ctx context.Context, ev Event) error {
	if ev.Kind != KindChat || ev.Entry == nil {
		return nil
	}
	entry := *ev.Entry
	if err := s.store.Create(ctx, &entry); err != nil {
		return fmt.Errorf("persisting chat entry: %w", err)
	}
	return nil
}
