package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atchyuteswar/ZenReader/internal/entities"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUser(t *testing.T, db *Database, email string) *entities.User {
	t.Helper()
	user := &entities.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      "Reader",
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.CreateUser(user))
	return user
}

func newTestBook(t *testing.T, db *Database, userID, title string, addedAt time.Time) *entities.Book {
	t.Helper()
	book := &entities.Book{
		ID:       uuid.NewString(),
		UserID:   userID,
		Title:    title,
		Author:   "Author",
		FilePath: "/tmp/" + title + ".epub",
		AddedAt:  addedAt,
	}
	require.NoError(t, db.CreateBook(book))
	return book
}

func TestUsers(t *testing.T) {
	t.Run("create and fetch by email and id", func(t *testing.T) {
		db := setupTestDB(t)
		user := newTestUser(t, db, "a@x.com")

		byEmail, err := db.GetUserByEmail("a@x.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		byID, err := db.GetUserByID(user.ID)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", byID.Email)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		db := setupTestDB(t)
		newTestUser(t, db, "a@x.com")

		err := db.CreateUser(&entities.User{ID: uuid.NewString(), Email: "a@x.com"})
		assert.Error(t, err)
	})

	t.Run("link google account", func(t *testing.T) {
		db := setupTestDB(t)
		user := newTestUser(t, db, "a@x.com")

		require.NoError(t, db.LinkGoogleAccount(user.ID, "google-sub-1"))

		stored, err := db.GetUserByID(user.ID)
		require.NoError(t, err)
		assert.Equal(t, "google-sub-1", stored.GoogleID)
	})
}

func TestBooks(t *testing.T) {
	t.Run("list is scoped to the owner and newest first", func(t *testing.T) {
		db := setupTestDB(t)
		owner := newTestUser(t, db, "a@x.com")
		other := newTestUser(t, db, "b@x.com")

		now := time.Now()
		newTestBook(t, db, owner.ID, "Older", now.Add(-time.Hour))
		newTestBook(t, db, owner.ID, "Newer", now)
		newTestBook(t, db, other.ID, "Foreign", now)

		books, err := db.ListBooksForUser(owner.ID)
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, "Newer", books[0].Title)
		assert.Equal(t, "Older", books[1].Title)
	})

	t.Run("fetching someone else's book looks like not found", func(t *testing.T) {
		db := setupTestDB(t)
		owner := newTestUser(t, db, "a@x.com")
		other := newTestUser(t, db, "b@x.com")
		book := newTestBook(t, db, owner.ID, "Mine", time.Now())

		_, err := db.GetBookForUser(book.ID, other.ID)
		assert.ErrorIs(t, err, ErrBookNotFound)

		got, err := db.GetBookForUser(book.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mine", got.Title)
	})

	t.Run("delete", func(t *testing.T) {
		db := setupTestDB(t)
		owner := newTestUser(t, db, "a@x.com")
		book := newTestBook(t, db, owner.ID, "Mine", time.Now())

		require.NoError(t, db.DeleteBook(book.ID, owner.ID))
		assert.ErrorIs(t, db.DeleteBook(book.ID, owner.ID), ErrBookNotFound)

		_, err := db.GetBookForUser(book.ID, owner.ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("progress updates are last-write-wins", func(t *testing.T) {
		db := setupTestDB(t)
		owner := newTestUser(t, db, "a@x.com")
		book := newTestBook(t, db, owner.ID, "Mine", time.Now())

		require.NoError(t, db.UpdateProgress(book.ID, owner.ID, "loc:0001:00000100", 10))
		require.NoError(t, db.UpdateProgress(book.ID, owner.ID, "loc:0002:00000200", 25.5))

		got, err := db.GetBookForUser(book.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, "loc:0002:00000200", got.Progress)
		assert.InDelta(t, 25.5, got.ProgressPercentage, 0.001)
		require.NotNil(t, got.LastRead)
	})

	t.Run("progress update for a missing book", func(t *testing.T) {
		db := setupTestDB(t)
		owner := newTestUser(t, db, "a@x.com")

		err := db.UpdateProgress(uuid.NewString(), owner.ID, "loc:0000:00000000", 0)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})
}
