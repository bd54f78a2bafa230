// Package testutil provides test utilities for database setup.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/registra-io/registra/internal/infrastructure/sqlite"
)

// NewTestDB opens a fully migrated in-memory database and registers its
// cleanup with the test.
func NewTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	db, err := sqlite.NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}
