package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Atchyuteswar/ZenReader/internal/reader"
)

// ImportCommand adds EPUB files to the library, uploading them to the
// sync server when one is configured.
type ImportCommand struct {
	LibraryPath string
	ServerURL   string
	Token       string
	Files       []string
}

// NewImportCommand creates a new ImportCommand
func NewImportCommand() *ImportCommand {
	return &ImportCommand{}
}

// ParseFlags parses command line flags
func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.LibraryPath, "library", defaultLibraryPath(), "Path to the local library database")
	fs.StringVar(&cmd.ServerURL, "server", defaultServerURL(), "Base URL of the sync server; empty keeps books local")
	fs.StringVar(&cmd.Token, "token", defaultServerToken(), "Bearer token for the sync server")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import [options] <file.epub> [more.epub ...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Add EPUB files to the library. Title, author and cover are\n")
		fmt.Fprintf(os.Stderr, "read from the files themselves.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.Files = fs.Args()
	if len(cmd.Files) == 0 {
		fs.Usage()
		return fmt.Errorf("no files given")
	}
	return nil
}

// Run imports every file, continuing past individual failures.
func (cmd *ImportCommand) Run(ctx context.Context) error {
	store, closeStore, err := openStore(cmd.LibraryPath, cmd.ServerURL, cmd.Token)
	if err != nil {
		return err
	}
	defer closeStore()

	failed := 0
	for _, file := range cmd.Files {
		data, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", file, err)
			failed++
			continue
		}
		title := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		book, err := reader.ImportEPUB(ctx, store, data, title)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", file, err)
			failed++
			continue
		}
		fmt.Printf("imported %q by %s (%s)\n", book.Title, orUnknown(book.Author), book.ID)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to import", failed, len(cmd.Files))
	}
	return nil
}

func defaultLibraryPath() string {
	if p := os.Getenv("LOCAL_LIBRARY_PATH"); p != "" {
		return p
	}
	return "./data/library.db"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown author"
	}
	return s
}
