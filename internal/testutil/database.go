package testutil

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"prax-go/internal/database"
	"prax-go/internal/prax"
)

// NewTestStore creates an in-memory SQLite store with the schema applied.
// The store is closed when the test completes.
func NewTestStore(t *testing.T, clock prax.Clock) *database.SQLiteStore {
	t.Helper()

	sqlDB, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := sqlDB.Exec(database.Schema); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	store := database.NewSQLiteStoreFromDB(sqlDB, clock)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// ErrInjectedCommit is the commit failure produced by FailingStore.
var ErrInjectedCommit = errors.New("injected commit failure")

// FailingStore wraps a RecordStore so that the next n commits fail. A failed
// commit rolls the transaction back.
type FailingStore struct {
	prax.RecordStore
	failures atomic.Int32
}

// NewFailingStore wraps store.
func NewFailingStore(store prax.RecordStore) *FailingStore {
	return &FailingStore{RecordStore: store}
}

// FailCommits makes the next n commits fail.
func (s *FailingStore) FailCommits(n int) {
	s.failures.Store(int32(n))
}

func (s *FailingStore) Begin(ctx context.Context) (prax.StoreTx, error) {
	tx, err := s.RecordStore.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &failingTx{StoreTx: tx, store: s}, nil
}

type failingTx struct {
	prax.StoreTx
	store *FailingStore
}

func (t *failingTx) Commit() error {
	if t.store.failures.Add(-1) >= 0 {
		t.StoreTx.Rollback()
		return errors.Join(prax.ErrStorageCommit, ErrInjectedCommit)
	}
	t.store.failures.Store(0)
	return t.StoreTx.Commit()
}
