package files

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Run("save and open round-trip", func(t *testing.T) {
		store, err := NewStore(t.TempDir())
		require.NoError(t, err)

		path, err := store.Save("my book.epub", bytes.NewReader([]byte("epub-bytes")))
		require.NoError(t, err)
		assert.Equal(t, ".epub", filepath.Ext(path))
		assert.True(t, strings.HasPrefix(filepath.Base(path), "book-"))

		f, err := store.Open(path)
		require.NoError(t, err)
		defer f.Close()
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, []byte("epub-bytes"), data)
	})

	t.Run("stored names never collide", func(t *testing.T) {
		store, err := NewStore(t.TempDir())
		require.NoError(t, err)

		first, err := store.Save("a.epub", bytes.NewReader([]byte("one")))
		require.NoError(t, err)
		second, err := store.Save("a.epub", bytes.NewReader([]byte("two")))
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("remove deletes the file", func(t *testing.T) {
		store, err := NewStore(t.TempDir())
		require.NoError(t, err)

		path, err := store.Save("a.epub", bytes.NewReader([]byte("one")))
		require.NoError(t, err)
		require.NoError(t, store.Remove(path))

		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("creates the base directory", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "nested", "uploads")
		_, err := NewStore(base)
		require.NoError(t, err)

		info, err := os.Stat(base)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("requires a base directory", func(t *testing.T) {
		_, err := NewStore("  ")
		assert.Error(t, err)
	})
}
