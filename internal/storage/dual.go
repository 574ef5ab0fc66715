package storage

import (
	"context"
	"errors"

	"github.com/Atchyuteswar/ZenReader/internal/entities"
)

// Dual routes library operations to the remote backend while a user is
// signed in and to the local one otherwise. Annotations always live
// locally because the server does not hold them.
type Dual struct {
	local  *Local
	remote *Remote
}

// NewDual wraps the local library; remote may be nil (signed out).
func NewDual(local *Local, remote *Remote) *Dual {
	return &Dual{local: local, remote: remote}
}

// SignIn switches book operations to the remote backend.
func (d *Dual) SignIn(remote *Remote) { d.remote = remote }

// SignOut reverts all operations to the local library.
func (d *Dual) SignOut() { d.remote = nil }

func (d *Dual) books() Store {
	if d.remote != nil {
		return d.remote
	}
	return d.local
}

func (d *Dual) SaveBook(ctx context.Context, book *entities.LocalBook) error {
	return d.books().SaveBook(ctx, book)
}

func (d *Dual) ListBooks(ctx context.Context) ([]entities.LocalBook, error) {
	return d.books().ListBooks(ctx)
}

func (d *Dual) GetBook(ctx context.Context, id string) (*entities.LocalBook, error) {
	return d.books().GetBook(ctx, id)
}

func (d *Dual) DeleteBook(ctx context.Context, id string) error {
	return d.books().DeleteBook(ctx, id)
}

func (d *Dual) UpdateProgress(ctx context.Context, id, progress string, percentage float64) error {
	return d.books().UpdateProgress(ctx, id, progress, percentage)
}

// Annotation operations bypass the routing: they are local regardless of
// sign-in state. A remote book id may have no local document yet; the
// caller seeds one through EnsureLocalAnnotations before annotating.
func (d *Dual) AddHighlight(ctx context.Context, id string, h entities.Highlight) error {
	return d.local.AddHighlight(ctx, id, h)
}

func (d *Dual) RemoveHighlight(ctx context.Context, id, rangeToken string) error {
	return d.local.RemoveHighlight(ctx, id, rangeToken)
}

func (d *Dual) AddBookmark(ctx context.Context, id string, b entities.Bookmark) error {
	return d.local.AddBookmark(ctx, id, b)
}

func (d *Dual) RemoveBookmark(ctx context.Context, id, position string) error {
	return d.local.RemoveBookmark(ctx, id, position)
}

// EnsureLocalAnnotations guarantees a local document exists for the book
// so annotation writes have somewhere to land, without duplicating the
// EPUB content already held remotely.
func (d *Dual) EnsureLocalAnnotations(ctx context.Context, book *entities.LocalBook) error {
	_, err := d.local.GetBook(ctx, book.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrBookNotFound) {
		return err
	}
	shadow := *book
	shadow.Data = nil
	return d.local.SaveBook(ctx, &shadow)
}
