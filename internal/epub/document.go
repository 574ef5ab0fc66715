// Package epub is the boundary to the third-party EPUB library. Everything
// the rest of the application sees - table-of-contents entries, section
// lists, position and range tokens - is validated and converted into
// explicit types here; the library's loosely-typed trees never escape.
package epub

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/kapmahc/epub"
)

// TOCEntry is one node of the table of contents: a label, the target
// document reference, and ordered children.
type TOCEntry struct {
	Label    string
	Href     string
	Children []TOCEntry
}

// Document is an opened EPUB: metadata, the ordered content sections (the
// spine), and the table of contents.
type Document struct {
	book     *epub.Book
	tempPath string // set when opened from bytes

	Title  string
	Author string
	Cover  string // base64 data URL, empty when the book has none

	sections []string // spine hrefs in document order
	toc      []TOCEntry

	mu        sync.Mutex
	textCache map[int]string

	locations *locations
}

// Open reads an EPUB from disk.
func Open(filePath string) (*Document, error) {
	book, err := epub.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	return newDocument(book, "")
}

// OpenBytes reads an EPUB from raw content, as handed over by the storage
// layer. The bytes are staged in a temporary file for the underlying
// library; Close removes it.
func OpenBytes(data []byte) (*Document, error) {
	tmp, err := os.CreateTemp("", "zenreader-*.epub")
	if err != nil {
		return nil, fmt.Errorf("failed to stage epub: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to stage epub: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to stage epub: %w", err)
	}

	book, err := epub.Open(tmp.Name())
	if err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	return newDocument(book, tmp.Name())
}

func newDocument(book *epub.Book, tempPath string) (*Document, error) {
	d := &Document{
		book:      book,
		tempPath:  tempPath,
		textCache: make(map[int]string),
	}

	if len(book.Opf.Metadata.Title) > 0 {
		d.Title = strings.TrimSpace(book.Opf.Metadata.Title[0])
	}
	if len(book.Opf.Metadata.Creator) > 0 {
		d.Author = strings.TrimSpace(book.Opf.Metadata.Creator[0].Data)
	}

	manifest := make(map[string]epub.Manifest, len(book.Opf.Manifest))
	for _, item := range book.Opf.Manifest {
		manifest[item.ID] = item
	}
	for _, ref := range book.Opf.Spine.Items {
		item, ok := manifest[ref.IDref]
		if !ok || item.Href == "" {
			continue
		}
		d.sections = append(d.sections, item.Href)
	}
	if len(d.sections) == 0 {
		d.Close()
		return nil, fmt.Errorf("epub has no readable sections")
	}

	d.toc = convertNavPoints(d.book.Ncx.Points)
	d.Cover = d.extractCover()

	return d, nil
}

// Close releases the underlying archive and any staged temp file.
func (d *Document) Close() error {
	d.book.Close()
	if d.tempPath != "" {
		os.Remove(d.tempPath)
	}
	return nil
}

// TOC returns the table of contents tree. The slice is empty, not nil-panicky,
// for books without navigation.
func (d *Document) TOC() []TOCEntry {
	return d.toc
}

// Sections returns the spine hrefs in document order.
func (d *Document) Sections() []string {
	return d.sections
}

func convertNavPoints(points []epub.NavPoint) []TOCEntry {
	entries := make([]TOCEntry, 0, len(points))
	for _, p := range points {
		label := strings.TrimSpace(p.Text)
		href := strings.TrimSpace(p.Content.Src)
		if label == "" && href == "" {
			continue
		}
		entries = append(entries, TOCEntry{
			Label:    label,
			Href:     href,
			Children: convertNavPoints(p.Points),
		})
	}
	return entries
}

// sectionText extracts and caches the plain text of one spine section.
func (d *Document) sectionText(index int) (string, error) {
	if index < 0 || index >= len(d.sections) {
		return "", fmt.Errorf("section %d out of range", index)
	}

	d.mu.Lock()
	if text, ok := d.textCache[index]; ok {
		d.mu.Unlock()
		return text, nil
	}
	d.mu.Unlock()

	rc, err := d.book.Open(d.sections[index])
	if err != nil {
		return "", fmt.Errorf("failed to open section %s: %w", d.sections[index], err)
	}
	defer rc.Close()

	text, err := extractText(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read section %s: %w", d.sections[index], err)
	}

	d.mu.Lock()
	d.textCache[index] = text
	d.mu.Unlock()
	return text, nil
}

// sectionIndexByHref matches a (possibly relative) href against the spine,
// ignoring any fragment suffix.
func (d *Document) sectionIndexByHref(href string) (int, bool) {
	href = strings.SplitN(href, "#", 2)[0]
	if href == "" {
		return 0, false
	}
	for i, s := range d.sections {
		if s == href || path.Base(s) == path.Base(href) {
			return i, true
		}
	}
	return 0, false
}

func (d *Document) extractCover() string {
	var href, mediaType string
	for _, item := range d.book.Opf.Manifest {
		if !strings.HasPrefix(item.MediaType, "image/") {
			continue
		}
		if strings.Contains(item.Properties, "cover-image") ||
			strings.EqualFold(item.ID, "cover") ||
			strings.Contains(strings.ToLower(item.Href), "cover") {
			href, mediaType = item.Href, item.MediaType
			break
		}
	}
	if href == "" {
		return ""
	}

	rc, err := d.book.Open(href)
	if err != nil {
		return ""
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil || len(data) == 0 {
		return ""
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
