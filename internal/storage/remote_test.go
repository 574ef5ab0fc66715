package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atchyuteswar/ZenReader/internal/entities"
)

// fakeServer mimics the sync server's book API closely enough to exercise
// the client's wire format.
type fakeServer struct {
	*httptest.Server

	token    string
	lastAuth string

	uploadedTitle  string
	uploadedAuthor string
	uploadedData   []byte

	progressBody map[string]any
	books        []entities.Book
	downloads    map[string][]byte
	deleted      []string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	s := &fakeServer{token: "test-token", downloads: map[string][]byte{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/books", func(w http.ResponseWriter, r *http.Request) {
		s.lastAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		s.uploadedTitle = r.FormValue("title")
		s.uploadedAuthor = r.FormValue("author")

		file, _, err := r.FormFile("book")
		require.NoError(t, err)
		defer file.Close()
		s.uploadedData, err = io.ReadAll(file)
		require.NoError(t, err)

		json.NewEncoder(w).Encode(entities.Book{ID: "server-id-1", Title: s.uploadedTitle})
	})
	mux.HandleFunc("GET /api/books", func(w http.ResponseWriter, r *http.Request) {
		s.lastAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(s.books)
	})
	mux.HandleFunc("DELETE /api/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.deleted = append(s.deleted, r.PathValue("id"))
		json.NewEncoder(w).Encode(map[string]string{"message": "Book deleted"})
	})
	mux.HandleFunc("PUT /api/books/{id}/progress", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&s.progressBody))
		json.NewEncoder(w).Encode(map[string]string{"message": "Progress updated"})
	})
	mux.HandleFunc("GET /api/books/{id}/download", func(w http.ResponseWriter, r *http.Request) {
		data, ok := s.downloads[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Book not found"})
			return
		}
		w.Write(data)
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Server.Close)
	return s
}

func TestRemote(t *testing.T) {
	ctx := context.Background()

	t.Run("save uploads multipart content and adopts the server id", func(t *testing.T) {
		server := newFakeServer(t)
		remote := NewRemote(server.URL, "test-token")

		book := &entities.LocalBook{
			ID:     "local-id",
			Title:  "Uploaded",
			Author: "Author",
			Data:   []byte("epub-bytes"),
		}
		require.NoError(t, remote.SaveBook(ctx, book))

		assert.Equal(t, "Bearer test-token", server.lastAuth)
		assert.Equal(t, "Uploaded", server.uploadedTitle)
		assert.Equal(t, "Author", server.uploadedAuthor)
		assert.Equal(t, []byte("epub-bytes"), server.uploadedData)
		assert.Equal(t, "server-id-1", book.ID)
	})

	t.Run("list maps server books", func(t *testing.T) {
		server := newFakeServer(t)
		now := time.Now()
		server.books = []entities.Book{
			{ID: "b1", Title: "First", AddedAt: now, ProgressPercentage: 12.5},
		}
		remote := NewRemote(server.URL, "test-token")

		books, err := remote.ListBooks(ctx)
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "First", books[0].Title)
		assert.InDelta(t, 12.5, books[0].ProgressPercentage, 0.001)
	})

	t.Run("get fetches metadata and content together", func(t *testing.T) {
		server := newFakeServer(t)
		server.books = []entities.Book{{ID: "b1", Title: "First"}}
		server.downloads["b1"] = []byte("epub-bytes")
		remote := NewRemote(server.URL, "test-token")

		book, err := remote.GetBook(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, "First", book.Title)
		assert.Equal(t, []byte("epub-bytes"), book.Data)
	})

	t.Run("get for an id the server does not list", func(t *testing.T) {
		server := newFakeServer(t)
		remote := NewRemote(server.URL, "test-token")

		_, err := remote.GetBook(ctx, "missing")
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("progress is sent as JSON", func(t *testing.T) {
		server := newFakeServer(t)
		remote := NewRemote(server.URL, "test-token")

		require.NoError(t, remote.UpdateProgress(ctx, "b1", "loc:0002:00000007", 42.5))
		assert.Equal(t, "loc:0002:00000007", server.progressBody["progress"])
		assert.InDelta(t, 42.5, server.progressBody["progress_percentage"].(float64), 0.001)
	})

	t.Run("delete addresses the book id", func(t *testing.T) {
		server := newFakeServer(t)
		remote := NewRemote(server.URL, "test-token")

		require.NoError(t, remote.DeleteBook(ctx, "b1"))
		assert.Equal(t, []string{"b1"}, server.deleted)
	})

	t.Run("annotations are not a remote concern", func(t *testing.T) {
		server := newFakeServer(t)
		remote := NewRemote(server.URL, "test-token")

		err := remote.AddHighlight(ctx, "b1", entities.Highlight{Range: "rng:0000:00000001:00000002"})
		assert.ErrorIs(t, err, ErrAnnotationsUnsupported)
		err = remote.AddBookmark(ctx, "b1", entities.Bookmark{Position: "loc:0000:00000001"})
		assert.ErrorIs(t, err, ErrAnnotationsUnsupported)
	})
}
