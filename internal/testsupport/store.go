package testsupport

import (
	"context"
	"testing"

	"wraptrack/internal/config"
	"wraptrack/internal/job"
	"wraptrack/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewJob creates a job for tests using the provided store.
func NewJob(t testing.TB, st *store.Store, title, customer string) *job.Job {
	t.Helper()

	j, err := st.CreateJob(context.Background(), title, customer)
	if err != nil {
		t.Fatalf("store.CreateJob: %v", err)
	}
	return j
}
