package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/Atchyuteswar/ZenReader/internal/entities"
)

// Local keeps the library on disk with no account involved. Each book is
// one JSON document - content, progress and annotations together - keyed
// by id, the way a browser-side key-value store would hold it.
type Local struct {
	db *gorm.DB
}

// NewLocal opens (or creates) the library database at path.
func NewLocal(path string) (*Local, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local library: %w", err)
	}
	if err := db.AutoMigrate(&entities.LocalBookRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate local library: %w", err)
	}
	return &Local{db: db}, nil
}

func (l *Local) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (l *Local) SaveBook(ctx context.Context, book *entities.LocalBook) error {
	doc, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("failed to encode book: %w", err)
	}
	row := entities.LocalBookRow{ID: book.ID, AddedAt: book.AddedAt, Doc: doc}
	err = l.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save book: %w", err)
	}
	return nil
}

func (l *Local) ListBooks(ctx context.Context) ([]entities.LocalBook, error) {
	var rows []entities.LocalBookRow
	err := l.db.WithContext(ctx).Order("added_at DESC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	books := make([]entities.LocalBook, 0, len(rows))
	for _, row := range rows {
		var book entities.LocalBook
		if err := json.Unmarshal(row.Doc, &book); err != nil {
			return nil, fmt.Errorf("failed to decode book %s: %w", row.ID, err)
		}
		book.Data = nil
		books = append(books, book)
	}
	return books, nil
}

func (l *Local) GetBook(ctx context.Context, id string) (*entities.LocalBook, error) {
	row, err := l.getRow(ctx, id)
	if err != nil {
		return nil, err
	}
	var book entities.LocalBook
	if err := json.Unmarshal(row.Doc, &book); err != nil {
		return nil, fmt.Errorf("failed to decode book %s: %w", id, err)
	}
	return &book, nil
}

func (l *Local) DeleteBook(ctx context.Context, id string) error {
	result := l.db.WithContext(ctx).Delete(&entities.LocalBookRow{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete book: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (l *Local) UpdateProgress(ctx context.Context, id, progress string, percentage float64) error {
	return l.mutate(ctx, id, func(book *entities.LocalBook) {
		now := time.Now()
		book.Progress = progress
		book.ProgressPercentage = percentage
		book.LastRead = &now
	})
}

func (l *Local) AddHighlight(ctx context.Context, id string, h entities.Highlight) error {
	return l.mutate(ctx, id, func(book *entities.LocalBook) {
		for i, existing := range book.Highlights {
			if existing.Range == h.Range {
				book.Highlights[i] = h
				return
			}
		}
		book.Highlights = append(book.Highlights, h)
	})
}

func (l *Local) RemoveHighlight(ctx context.Context, id, rangeToken string) error {
	return l.mutate(ctx, id, func(book *entities.LocalBook) {
		kept := book.Highlights[:0]
		for _, h := range book.Highlights {
			if h.Range != rangeToken {
				kept = append(kept, h)
			}
		}
		book.Highlights = kept
	})
}

func (l *Local) AddBookmark(ctx context.Context, id string, b entities.Bookmark) error {
	return l.mutate(ctx, id, func(book *entities.LocalBook) {
		for _, existing := range book.Bookmarks {
			if existing.Position == b.Position {
				return
			}
		}
		book.Bookmarks = append(book.Bookmarks, b)
	})
}

func (l *Local) RemoveBookmark(ctx context.Context, id, position string) error {
	return l.mutate(ctx, id, func(book *entities.LocalBook) {
		kept := book.Bookmarks[:0]
		for _, b := range book.Bookmarks {
			if b.Position != position {
				kept = append(kept, b)
			}
		}
		book.Bookmarks = kept
	})
}

func (l *Local) getRow(ctx context.Context, id string) (*entities.LocalBookRow, error) {
	var row entities.LocalBookRow
	err := l.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	return &row, nil
}

// mutate applies a read-modify-write on one book document. The local
// library has a single writer, so no row locking is needed.
func (l *Local) mutate(ctx context.Context, id string, apply func(*entities.LocalBook)) error {
	book, err := l.GetBook(ctx, id)
	if err != nil {
		return err
	}
	apply(book)
	return l.SaveBook(ctx, book)
}
