// Package storage persists the reading library. Two backends implement the
// same Store contract: a local sqlite document store used without an
// account, and a remote client speaking to the sync server. Dual picks
// between them per call.
package storage

import (
	"context"
	"errors"

	"github.com/Atchyuteswar/ZenReader/internal/entities"
)

var (
	// ErrBookNotFound is returned for any lookup of a book id the
	// backend does not hold.
	ErrBookNotFound = errors.New("book not found")

	// ErrAnnotationsUnsupported marks backends that cannot hold
	// highlights or bookmarks. The remote API does not carry them yet,
	// so annotation writes must be routed locally.
	ErrAnnotationsUnsupported = errors.New("backend does not store annotations")
)

// Store is the library contract the reading session works against.
type Store interface {
	// SaveBook inserts the book or fully replaces an existing one with
	// the same id.
	SaveBook(ctx context.Context, book *entities.LocalBook) error

	// ListBooks returns the library newest-first. Raw EPUB content is
	// omitted from listings.
	ListBooks(ctx context.Context) ([]entities.LocalBook, error)

	// GetBook returns one book including its EPUB content.
	GetBook(ctx context.Context, id string) (*entities.LocalBook, error)

	DeleteBook(ctx context.Context, id string) error

	// UpdateProgress records the reading position. Last write wins.
	UpdateProgress(ctx context.Context, id, progress string, percentage float64) error

	AddHighlight(ctx context.Context, id string, h entities.Highlight) error
	RemoveHighlight(ctx context.Context, id, rangeToken string) error
	AddBookmark(ctx context.Context, id string, b entities.Bookmark) error
	RemoveBookmark(ctx context.Context, id, position string) error
}
