package blob_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/medsupply/internal/config"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/blob"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store, err := blob.New(ctx, config.Storage{Driver: config.StorageDriverLocal, LocalDir: t.TempDir()})
	require.NoError(t, err)

	t.Run("Should put and get a blob", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "productos/a/cert.pdf", strings.NewReader("%PDF-1.4"), 8, "application/pdf"))

		rc, err := store.Get(ctx, "productos/a/cert.pdf")
		require.NoError(t, err)
		defer rc.Close()

		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4", string(b))
	})

	t.Run("Should return not found for unknown key", func(t *testing.T) {
		_, err := store.Get(ctx, "missing.csv")
		assert.ErrorIs(t, err, blob.ErrNotFound)
	})

	t.Run("Should delete idempotently", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "tmp.csv", strings.NewReader("a,b"), 3, "text/csv"))
		require.NoError(t, store.Delete(ctx, "tmp.csv"))
		require.NoError(t, store.Delete(ctx, "tmp.csv"))

		_, err := store.Get(ctx, "tmp.csv")
		assert.ErrorIs(t, err, blob.ErrNotFound)
	})

	t.Run("Should reject keys escaping the root", func(t *testing.T) {
		err := store.Put(ctx, "../outside.txt", strings.NewReader("x"), 1, "text/plain")
		assert.Error(t, err)
	})
}
