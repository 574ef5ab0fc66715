package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Atchyuteswar/ZenReader/internal/entities"
)

// Remote talks to the sync server's book API on behalf of a signed-in
// user. It implements Store over the server's per-user library; the
// server does not carry annotations, so those calls report
// ErrAnnotationsUnsupported and the caller keeps them locally.
type Remote struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewRemote builds a client for the server at baseURL authenticating with
// the given bearer token.
func NewRemote(baseURL, token string) *Remote {
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *Remote) SaveBook(ctx context.Context, book *entities.LocalBook) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("book", book.Title+".epub")
	if err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(book.Data); err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}
	writer.WriteField("title", book.Title)
	writer.WriteField("author", book.Author)
	writer.WriteField("cover", book.Cover)
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/books", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var uploaded entities.Book
	if err := r.do(req, &uploaded); err != nil {
		return err
	}
	// The server assigns its own id; adopt it so later calls address the
	// same book.
	if uploaded.ID != "" {
		book.ID = uploaded.ID
	}
	return nil
}

func (r *Remote) ListBooks(ctx context.Context) ([]entities.LocalBook, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/books", nil)
	if err != nil {
		return nil, err
	}
	var remote []entities.Book
	if err := r.do(req, &remote); err != nil {
		return nil, err
	}
	books := make([]entities.LocalBook, 0, len(remote))
	for _, b := range remote {
		books = append(books, fromRemote(b))
	}
	return books, nil
}

func (r *Remote) GetBook(ctx context.Context, id string) (*entities.LocalBook, error) {
	// The server exposes listing and download, not single-book metadata.
	books, err := r.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range books {
		if books[i].ID != id {
			continue
		}
		data, err := r.download(ctx, id)
		if err != nil {
			return nil, err
		}
		books[i].Data = data
		return &books[i], nil
	}
	return nil, ErrBookNotFound
}

func (r *Remote) DeleteBook(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.baseURL+"/api/books/"+id, nil)
	if err != nil {
		return err
	}
	return r.do(req, nil)
}

func (r *Remote) UpdateProgress(ctx context.Context, id, progress string, percentage float64) error {
	payload, err := json.Marshal(map[string]any{
		"progress":            progress,
		"progress_percentage": percentage,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		r.baseURL+"/api/books/"+id+"/progress", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return r.do(req, nil)
}

func (r *Remote) AddHighlight(ctx context.Context, id string, h entities.Highlight) error {
	return ErrAnnotationsUnsupported
}

func (r *Remote) RemoveHighlight(ctx context.Context, id, rangeToken string) error {
	return ErrAnnotationsUnsupported
}

func (r *Remote) AddBookmark(ctx context.Context, id string, b entities.Bookmark) error {
	return ErrAnnotationsUnsupported
}

func (r *Remote) RemoveBookmark(ctx context.Context, id, position string) error {
	return ErrAnnotationsUnsupported
}

func (r *Remote) download(ctx context.Context, id string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.baseURL+"/api/books/"+id+"/download", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, r.asError(resp)
	}
	return io.ReadAll(resp.Body)
}

// do sends an authenticated request and decodes a JSON response into out
// when out is non-nil.
func (r *Remote) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+r.token)
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return r.asError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}

func (r *Remote) asError(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return ErrBookNotFound
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("server rejected request: %s", payload.Error)
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}

func fromRemote(b entities.Book) entities.LocalBook {
	return entities.LocalBook{
		ID:                 b.ID,
		Title:              b.Title,
		Author:             b.Author,
		Cover:              b.Cover,
		AddedAt:            b.AddedAt,
		LastRead:           b.LastRead,
		Progress:           b.Progress,
		ProgressPercentage: b.ProgressPercentage,
	}
}
