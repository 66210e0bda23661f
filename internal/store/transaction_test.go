package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow-api/internal/mocks"
	"github.com/phrazzld/taskflow-api/internal/store"
)

func TestRunInTransaction(t *testing.T) {
	t.Parallel()

	t.Run("commits when the function succeeds", func(t *testing.T) {
		t.Parallel()

		called := false
		err := store.RunInTransaction(context.Background(), mocks.NewDB(),
			func(_ context.Context, tx *sql.Tx) error {
				require.NotNil(t, tx)
				called = true
				return nil
			})

		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("returns the function's error after rollback", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		err := store.RunInTransaction(context.Background(), mocks.NewDB(),
			func(context.Context, *sql.Tx) error { return boom })

		assert.ErrorIs(t, err, boom)
	})

	t.Run("wraps a commit failure", func(t *testing.T) {
		t.Parallel()

		err := store.RunInTransaction(context.Background(), mocks.NewCommitFailDB(),
			func(context.Context, *sql.Tx) error { return nil })

		assert.ErrorIs(t, err, store.ErrTransactionFailed)
	})

	t.Run("rolls back and re-panics on panic", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			_ = store.RunInTransaction(context.Background(), mocks.NewDB(),
				func(context.Context, *sql.Tx) error { panic("kaboom") })
		})
	})
}
