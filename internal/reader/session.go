// Package reader drives one reading session: position tracking, progress
// saving, highlights, bookmarks, search and footnote handling over an
// opened document and the backing library store.
package reader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/Atchyuteswar/ZenReader/internal/entities"
	"github.com/Atchyuteswar/ZenReader/internal/epub"
	"github.com/Atchyuteswar/ZenReader/internal/storage"
)

var (
	ErrSessionClosed    = errors.New("reading session is closed")
	ErrNoSelection      = errors.New("no text selected")
	ErrNoPendingRemoval = errors.New("no highlight pending removal")
)

const (
	defaultSaveInterval    = 60 * time.Second
	defaultLocationSamples = 1000

	// reviewSlack is how far (in percentage points) the position may lag
	// the furthest point reached before the session counts as reviewing
	// earlier pages rather than reading on.
	reviewSlack = 1.0
)

// Mode says whether the user is breaking new ground or revisiting.
type Mode string

const (
	ModeReading   Mode = "Reading"
	ModeReviewing Mode = "Reviewing"
)

// Status is a point-in-time snapshot of the session for display.
type Status struct {
	BookID     string
	Title      string
	Author     string
	Position   string
	Percent    float64
	Furthest   float64
	Chapter    string
	Mode       Mode
	Highlights []entities.Highlight
	Bookmarks  []entities.Bookmark
}

// Options tune a session; zero values take the defaults.
type Options struct {
	SaveInterval    time.Duration
	LocationSamples int
}

// annotationSeeder is implemented by stores that keep annotations apart
// from book content and need a local document created before the first
// annotation write.
type annotationSeeder interface {
	EnsureLocalAnnotations(ctx context.Context, book *entities.LocalBook) error
}

// Session is the reading controller for one book. All methods are safe
// for concurrent use; progress saves run in the background and the final
// save happens on Close.
type Session struct {
	store storage.Store
	doc   *epub.Document

	mu        sync.Mutex
	closed    bool
	book      *entities.LocalBook
	position  string
	percent   float64
	furthest  float64
	chapter   string
	selection string // range token of the active selection
	selText   string
	pending   string // range token of a highlight awaiting delete confirmation

	saves  sync.WaitGroup
	ticker *time.Ticker
	done   chan struct{}
	loop   sync.WaitGroup
}

// Open loads a book from the store, indexes it, and restores the saved
// reading position. The caller must Close the session to release the
// document and flush progress.
func Open(ctx context.Context, store storage.Store, bookID string, opts Options) (*Session, error) {
	if opts.SaveInterval <= 0 {
		opts.SaveInterval = defaultSaveInterval
	}
	if opts.LocationSamples <= 0 {
		opts.LocationSamples = defaultLocationSamples
	}

	book, err := store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	doc, err := epub.OpenBytes(book.Data)
	if err != nil {
		return nil, err
	}
	if err := doc.BuildLocations(opts.LocationSamples); err != nil {
		doc.Close()
		return nil, err
	}
	// A remote book has no local document yet; seed one so annotation
	// writes have somewhere to land.
	if seeder, ok := store.(annotationSeeder); ok {
		if err := seeder.EnsureLocalAnnotations(ctx, book); err != nil {
			doc.Close()
			return nil, err
		}
	}

	s := &Session{
		store:    store,
		doc:      doc,
		book:     book,
		furthest: book.ProgressPercentage,
		done:     make(chan struct{}),
	}

	// A stale or foreign token falls back to the start of the book
	// rather than failing the open.
	position := book.Progress
	if position == "" {
		position = doc.FirstPosition()
	}
	if _, err := doc.PercentFromPosition(position); err != nil {
		log.Printf("reader: saved position unusable, restarting from beginning: %v", err)
		position = doc.FirstPosition()
	}
	s.relocate(position)

	s.ticker = time.NewTicker(opts.SaveInterval)
	s.loop.Add(1)
	go s.saveLoop()

	return s, nil
}

// Document exposes the opened document for navigation display (TOC).
func (s *Session) Document() *epub.Document { return s.doc }

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	mode := ModeReading
	if s.percent < s.furthest-reviewSlack {
		mode = ModeReviewing
	}
	return Status{
		BookID:     s.book.ID,
		Title:      s.book.Title,
		Author:     s.book.Author,
		Position:   s.position,
		Percent:    s.percent,
		Furthest:   s.furthest,
		Chapter:    s.chapter,
		Mode:       mode,
		Highlights: append([]entities.Highlight(nil), s.book.Highlights...),
		Bookmarks:  append([]entities.Bookmark(nil), s.book.Bookmarks...),
	}
}

// HandleRelocated records a new reading position reported by the
// rendering surface and schedules a progress save.
func (s *Session) HandleRelocated(position string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.relocate(position)
	s.scheduleSave()
	return nil
}

// relocate updates position-derived state. Callers hold the lock (or the
// session is not yet shared).
func (s *Session) relocate(position string) {
	percent, err := s.doc.PercentFromPosition(position)
	if err != nil {
		log.Printf("reader: ignoring bad position %q: %v", position, err)
		return
	}
	s.position = position
	s.percent = percent
	if percent > s.furthest {
		s.furthest = percent
	}
	if href, err := s.doc.SectionHref(position); err == nil {
		s.chapter = chapterLabel(s.doc.TOC(), href)
	}
}

// NextPage and PrevPage step one location forward or back.
func (s *Session) NextPage() error { return s.step((*epub.Document).NextPosition) }
func (s *Session) PrevPage() error { return s.step((*epub.Document).PrevPosition) }

func (s *Session) step(move func(*epub.Document, string) (string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	next, err := move(s.doc, s.position)
	if err != nil {
		return err
	}
	s.relocate(next)
	s.scheduleSave()
	return nil
}

// GoToPercent scrubs to an arbitrary point in the book.
func (s *Session) GoToPercent(percent float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	position, err := s.doc.PositionFromPercent(percent)
	if err != nil {
		return err
	}
	s.relocate(position)
	s.scheduleSave()
	return nil
}

// ReturnToFurthest jumps back to the furthest point reached, i.e. leaves
// review mode.
func (s *Session) ReturnToFurthest() error {
	s.mu.Lock()
	furthest := s.furthest
	s.mu.Unlock()
	return s.GoToPercent(furthest)
}

// Select records a text selection. The selected text is resolved now so
// a following AddHighlight captures it even if the selection is gone.
func (s *Session) Select(rangeToken string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrSessionClosed
	}
	text, err := s.doc.RangeText(rangeToken)
	if err != nil {
		return "", err
	}
	s.selection = rangeToken
	s.selText = text
	return text, nil
}

// ClearSelection drops the active selection without highlighting.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = ""
	s.selText = ""
}

// AddHighlight turns the active selection into a highlight. Highlighting
// the same range again replaces the color instead of stacking.
func (s *Session) AddHighlight(ctx context.Context, color string) (entities.Highlight, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return entities.Highlight{}, ErrSessionClosed
	}
	if s.selection == "" {
		s.mu.Unlock()
		return entities.Highlight{}, ErrNoSelection
	}
	h := entities.Highlight{
		Range:     s.selection,
		Color:     NormalizeColor(color),
		Text:      s.selText,
		CreatedAt: time.Now(),
	}
	s.applyHighlight(h)
	s.selection = ""
	s.selText = ""
	bookID := s.book.ID
	s.mu.Unlock()

	if err := s.store.AddHighlight(ctx, bookID, h); err != nil {
		return entities.Highlight{}, fmt.Errorf("failed to save highlight: %w", err)
	}
	return h, nil
}

func (s *Session) applyHighlight(h entities.Highlight) {
	for i, existing := range s.book.Highlights {
		if existing.Range == h.Range {
			s.book.Highlights[i] = h
			return
		}
	}
	s.book.Highlights = append(s.book.Highlights, h)
}

// HighlightTapped marks an existing highlight for removal; the actual
// delete waits for ConfirmRemoveHighlight so a stray tap does nothing.
func (s *Session) HighlightTapped(rangeToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	for _, h := range s.book.Highlights {
		if h.Range == rangeToken {
			s.pending = rangeToken
			return nil
		}
	}
	return fmt.Errorf("no highlight at %q", rangeToken)
}

// ConfirmRemoveHighlight deletes the highlight marked by HighlightTapped.
func (s *Session) ConfirmRemoveHighlight(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.pending == "" {
		s.mu.Unlock()
		return ErrNoPendingRemoval
	}
	token := s.pending
	s.pending = ""
	kept := s.book.Highlights[:0]
	for _, h := range s.book.Highlights {
		if h.Range != token {
			kept = append(kept, h)
		}
	}
	s.book.Highlights = kept
	bookID := s.book.ID
	s.mu.Unlock()

	if err := s.store.RemoveHighlight(ctx, bookID, token); err != nil {
		return fmt.Errorf("failed to remove highlight: %w", err)
	}
	return nil
}

// CancelRemoveHighlight dismisses a pending removal.
func (s *Session) CancelRemoveHighlight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = ""
}

// ToggleBookmark adds a bookmark at the current position, or removes the
// one already there. Labels carry the location number, e.g. "Page 42".
func (s *Session) ToggleBookmark(ctx context.Context) (added bool, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrSessionClosed
	}
	position := s.position
	bookID := s.book.ID

	for i, b := range s.book.Bookmarks {
		if b.Position == position {
			s.book.Bookmarks = append(s.book.Bookmarks[:i], s.book.Bookmarks[i+1:]...)
			s.mu.Unlock()
			if err := s.store.RemoveBookmark(ctx, bookID, position); err != nil {
				return false, fmt.Errorf("failed to remove bookmark: %w", err)
			}
			return false, nil
		}
	}

	location, err := s.doc.LocationOf(position)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	bookmark := entities.Bookmark{
		Position:  position,
		Label:     fmt.Sprintf("Page %d", location),
		CreatedAt: time.Now(),
	}
	s.book.Bookmarks = append(s.book.Bookmarks, bookmark)
	s.mu.Unlock()

	if err := s.store.AddBookmark(ctx, bookID, bookmark); err != nil {
		return false, fmt.Errorf("failed to save bookmark: %w", err)
	}
	return true, nil
}

// GoToBookmark relocates to a saved bookmark.
func (s *Session) GoToBookmark(b entities.Bookmark) error {
	return s.HandleRelocated(b.Position)
}

// Search runs a full-text search over the book.
func (s *Session) Search(ctx context.Context, query string) []epub.SearchResult {
	return s.doc.Search(ctx, query)
}

// GoToSearchResult relocates to a search match.
func (s *Session) GoToSearchResult(r epub.SearchResult) error {
	position, err := epub.PositionOfRange(r.Range)
	if err != nil {
		return err
	}
	return s.HandleRelocated(position)
}

// LinkTapped handles an internal link. Footnote references resolve to
// overlay text without moving the position; ordinary links navigate.
func (s *Session) LinkTapped(ctx context.Context, link epub.Link) (overlay string, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrSessionClosed
	}
	current := ""
	if href, hrefErr := s.doc.SectionHref(s.position); hrefErr == nil {
		current = href
	}
	s.mu.Unlock()

	if epub.IsFootnoteLink(link) {
		return s.doc.ResolveFragment(link.Href, current)
	}

	// Plain navigation: jump to the start of the target section.
	position, err := s.positionOfHref(link.Href)
	if err != nil {
		return "", err
	}
	return "", s.HandleRelocated(position)
}

// GoToTOCEntry navigates to a table-of-contents target.
func (s *Session) GoToTOCEntry(entry epub.TOCEntry) error {
	position, err := s.positionOfHref(entry.Href)
	if err != nil {
		return err
	}
	return s.HandleRelocated(position)
}

func (s *Session) positionOfHref(href string) (string, error) {
	for i, section := range s.doc.Sections() {
		if sameSection(section, href) {
			return s.doc.SectionStart(i)
		}
	}
	return "", fmt.Errorf("link target %q not in document", href)
}

// sameSection compares hrefs ignoring fragments and relative prefixes.
func sameSection(section, href string) bool {
	href = strings.SplitN(href, "#", 2)[0]
	if href == "" {
		return false
	}
	return section == href || path.Base(section) == path.Base(href)
}

// Close stops the save loop, flushes progress one last time, and releases
// the document. Safe to call once; later calls are no-ops.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.ticker.Stop()
	close(s.done)
	s.loop.Wait()
	s.saves.Wait()

	err := s.saveProgress(ctx)
	if closeErr := s.doc.Close(); err == nil {
		err = closeErr
	}
	return err
}

// scheduleSave fires a background progress save. Callers hold the lock.
// Failures are logged, never surfaced: losing one save is recoverable,
// interrupting reading is not.
func (s *Session) scheduleSave() {
	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		if err := s.saveProgress(context.Background()); err != nil {
			log.Printf("reader: progress save failed: %v", err)
		}
	}()
}

func (s *Session) saveLoop() {
	defer s.loop.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.ticker.C:
			if err := s.saveProgress(context.Background()); err != nil {
				log.Printf("reader: periodic save failed: %v", err)
			}
		}
	}
}

// saveProgress writes the current position and percentage. The furthest
// marker is session state only; a library listing reflects where the
// reader actually is, even after scrubbing backward.
func (s *Session) saveProgress(ctx context.Context) error {
	s.mu.Lock()
	bookID := s.book.ID
	position := s.position
	percent := s.percent
	s.mu.Unlock()
	return s.store.UpdateProgress(ctx, bookID, position, percent)
}

func chapterLabel(entries []epub.TOCEntry, href string) string {
	for _, entry := range entries {
		if sameSection(entry.Href, href) {
			return entry.Label
		}
		if label := chapterLabel(entry.Children, href); label != "" {
			return label
		}
	}
	return ""
}
