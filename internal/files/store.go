package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store keeps uploaded book files on disk under a single base directory.
// Files are written under randomized, collision-resistant names; the caller
// persists the returned path in the book record.
type Store struct {
	baseDir string
}

func NewStore(baseDir string) (*Store, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Save writes the upload to a new file named after the current time and a
// random suffix, keeping the original extension. Returns the stored path.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	ext := filepath.Ext(filepath.Base(originalName))
	name := fmt.Sprintf("book-%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
	target := filepath.Join(s.baseDir, name)

	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("write file: %w", err)
	}
	return target, nil
}

// Open returns the stored file for streaming.
func (s *Store) Open(path string) (*os.File, error) {
	return os.Open(path)
}

// Remove deletes a stored file.
func (s *Store) Remove(path string) error {
	return os.Remove(path)
}
