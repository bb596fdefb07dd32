package store

import (
	"context"

	"github.com/applypilot/applypilot/internal/model"
)

// NopStore is a no-op store used in dry-run mode. Nothing is persisted and
// every job appears new on each run.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) HasJob(context.Context, string) (bool, error)         { return false, nil }
func (s *NopStore) InsertJob(context.Context, model.Job) error           { return nil }
func (s *NopStore) UnprocessedJobs(context.Context) ([]model.Job, error) { return nil, nil }
func (s *NopStore) InsertApplication(context.Context, *model.Application) error {
	return nil
}
func (s *NopStore) Applications(context.Context) ([]model.ApplicationRecord, error) {
	return nil, nil
}
func (s *NopStore) Close() error { return nil }
