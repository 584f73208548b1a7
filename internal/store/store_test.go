package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentnet/hub/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, store.Migrate(db))
	return store.New(db)
}
