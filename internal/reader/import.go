package reader

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Atchyuteswar/ZenReader/internal/entities"
	"github.com/Atchyuteswar/ZenReader/internal/epub"
	"github.com/Atchyuteswar/ZenReader/internal/storage"
)

// ImportEPUB adds raw EPUB content to the library: metadata and cover are
// pulled from the file itself, with the filename as the title of last
// resort. Returns the stored book without its content bytes.
func ImportEPUB(ctx context.Context, store storage.Store, data []byte, fallbackTitle string) (*entities.LocalBook, error) {
	doc, err := epub.OpenBytes(data)
	if err != nil {
		return nil, fmt.Errorf("not a readable epub: %w", err)
	}
	defer doc.Close()

	title := doc.Title
	if title == "" {
		title = fallbackTitle
	}
	if title == "" {
		title = "Untitled"
	}

	book := &entities.LocalBook{
		ID:      uuid.NewString(),
		Title:   title,
		Author:  doc.Author,
		Cover:   doc.Cover,
		Data:    data,
		AddedAt: time.Now(),
	}
	if err := store.SaveBook(ctx, book); err != nil {
		return nil, err
	}

	stored := *book
	stored.Data = nil
	return &stored, nil
}
