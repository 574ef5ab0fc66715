package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
)

// ListCommand prints the library, newest first.
type ListCommand struct {
	LibraryPath string
	ServerURL   string
	Token       string
}

// NewListCommand creates a new ListCommand
func NewListCommand() *ListCommand {
	return &ListCommand{}
}

// ParseFlags parses command line flags
func (cmd *ListCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)

	fs.StringVar(&cmd.LibraryPath, "library", defaultLibraryPath(), "Path to the local library database")
	fs.StringVar(&cmd.ServerURL, "server", defaultServerURL(), "Base URL of the sync server; empty keeps books local")
	fs.StringVar(&cmd.Token, "token", defaultServerToken(), "Bearer token for the sync server")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s list [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List the books in the library.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run prints one line per book.
func (cmd *ListCommand) Run(ctx context.Context) error {
	store, closeStore, err := openStore(cmd.LibraryPath, cmd.ServerURL, cmd.Token)
	if err != nil {
		return err
	}
	defer closeStore()

	books, err := store.ListBooks(ctx)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Println("library is empty; use the import command to add books")
		return nil
	}
	for _, book := range books {
		fmt.Printf("%s  %5.1f%%  %q by %s\n", book.ID, book.ProgressPercentage, book.Title, orUnknown(book.Author))
	}
	return nil
}
