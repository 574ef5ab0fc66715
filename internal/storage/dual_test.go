package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atchyuteswar/ZenReader/internal/entities"
)

func TestDualRouting(t *testing.T) {
	ctx := context.Background()

	t.Run("signed out, books live locally", func(t *testing.T) {
		local := setupLocal(t)
		dual := NewDual(local, nil)

		book := newLocalBook("Offline", time.Now())
		require.NoError(t, dual.SaveBook(ctx, book))

		books, err := local.ListBooks(ctx)
		require.NoError(t, err)
		assert.Len(t, books, 1)
	})

	t.Run("signed in, book reads hit the server", func(t *testing.T) {
		local := setupLocal(t)

		listed := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			listed = true
			json.NewEncoder(w).Encode([]entities.Book{{ID: "b1", Title: "Synced"}})
		}))
		t.Cleanup(server.Close)

		dual := NewDual(local, NewRemote(server.URL, "token"))
		books, err := dual.ListBooks(ctx)
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "Synced", books[0].Title)
		assert.True(t, listed)
	})

	t.Run("signing out reverts to the local library", func(t *testing.T) {
		local := setupLocal(t)
		require.NoError(t, local.SaveBook(ctx, newLocalBook("Mine", time.Now())))

		dual := NewDual(local, NewRemote("http://127.0.0.1:0", "token"))
		dual.SignOut()

		books, err := dual.ListBooks(ctx)
		require.NoError(t, err)
		assert.Len(t, books, 1)
	})

	t.Run("annotations stay local even when signed in", func(t *testing.T) {
		local := setupLocal(t)
		book := newLocalBook("Annotated", time.Now())
		require.NoError(t, local.SaveBook(ctx, book))

		dual := NewDual(local, NewRemote("http://127.0.0.1:0", "token"))
		h := entities.Highlight{Range: "rng:0000:00000001:00000005", Color: "#ffeb3b"}
		require.NoError(t, dual.AddHighlight(ctx, book.ID, h))

		got, err := local.GetBook(ctx, book.ID)
		require.NoError(t, err)
		assert.Len(t, got.Highlights, 1)
	})

	t.Run("ensure local annotations seeds a shadow document", func(t *testing.T) {
		local := setupLocal(t)
		dual := NewDual(local, NewRemote("http://127.0.0.1:0", "token"))

		remoteBook := &entities.LocalBook{ID: "server-id-1", Title: "Synced", Data: []byte("bytes")}
		require.NoError(t, dual.EnsureLocalAnnotations(ctx, remoteBook))

		shadow, err := local.GetBook(ctx, "server-id-1")
		require.NoError(t, err)
		assert.Empty(t, shadow.Data, "shadow must not duplicate content held remotely")

		// Idempotent: a second call does not overwrite annotations.
		h := entities.Highlight{Range: "rng:0000:00000001:00000005"}
		require.NoError(t, dual.AddHighlight(ctx, "server-id-1", h))
		require.NoError(t, dual.EnsureLocalAnnotations(ctx, remoteBook))
		shadow, err = local.GetBook(ctx, "server-id-1")
		require.NoError(t, err)
		assert.Len(t, shadow.Highlights, 1)
	})
}
