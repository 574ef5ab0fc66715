package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Atchyuteswar/ZenReader/internal/epub"
	"github.com/Atchyuteswar/ZenReader/internal/reader"
)

// ReadCommand opens an interactive reading session on a book from the
// library. With a server configured the book and its progress live on
// the server; highlights and bookmarks stay in the local library.
type ReadCommand struct {
	LibraryPath  string
	ServerURL    string
	Token        string
	BookID       string
	SaveInterval time.Duration
	Samples      int
}

// NewReadCommand creates a new ReadCommand
func NewReadCommand() *ReadCommand {
	return &ReadCommand{}
}

// ParseFlags parses command line flags
func (cmd *ReadCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("read", flag.ExitOnError)

	fs.StringVar(&cmd.LibraryPath, "library", defaultLibraryPath(), "Path to the local library database")
	fs.StringVar(&cmd.ServerURL, "server", defaultServerURL(), "Base URL of the sync server; empty keeps books local")
	fs.StringVar(&cmd.Token, "token", defaultServerToken(), "Bearer token for the sync server")
	fs.DurationVar(&cmd.SaveInterval, "save-interval", 60*time.Second, "How often reading progress is saved in the background")
	fs.IntVar(&cmd.Samples, "samples", 1000, "Number of location slices used for pagination")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s read [options] <book-id>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Open a book from the library and read it interactively.\n")
		fmt.Fprintf(os.Stderr, "Use the list command to find book ids.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nSession commands:\n")
		fmt.Fprintf(os.Stderr, "  n / p            next / previous page\n")
		fmt.Fprintf(os.Stderr, "  goto <percent>   jump to a point in the book\n")
		fmt.Fprintf(os.Stderr, "  back             return to the furthest point reached\n")
		fmt.Fprintf(os.Stderr, "  search <text>    full-text search\n")
		fmt.Fprintf(os.Stderr, "  mark             toggle a bookmark at the current position\n")
		fmt.Fprintf(os.Stderr, "  toc              show the table of contents\n")
		fmt.Fprintf(os.Stderr, "  status           show position, chapter and annotations\n")
		fmt.Fprintf(os.Stderr, "  quit             save and exit\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one book id")
	}
	cmd.BookID = fs.Arg(0)
	return nil
}

// Run drives the session until quit or EOF.
func (cmd *ReadCommand) Run(ctx context.Context) error {
	store, closeStore, err := openStore(cmd.LibraryPath, cmd.ServerURL, cmd.Token)
	if err != nil {
		return err
	}
	defer closeStore()

	session, err := reader.Open(ctx, store, cmd.BookID, reader.Options{
		SaveInterval:    cmd.SaveInterval,
		LocationSamples: cmd.Samples,
	})
	if err != nil {
		return err
	}
	defer session.Close(context.Background())

	status := session.Status()
	fmt.Printf("%q by %s - %.1f%% read\n", status.Title, orUnknown(status.Author), status.Percent)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		verb, rest, _ := strings.Cut(line, " ")

		var err error
		switch verb {
		case "n", "next":
			err = session.NextPage()
		case "p", "prev":
			err = session.PrevPage()
		case "goto":
			err = cmd.goTo(session, rest)
		case "back":
			err = session.ReturnToFurthest()
		case "search":
			cmd.printSearch(ctx, session, rest)
		case "mark":
			err = cmd.toggleBookmark(ctx, session)
		case "toc":
			printTOC(session.Document().TOC(), 0)
		case "status":
			printStatus(session.Status())
		case "quit", "q", "exit":
			return session.Close(context.Background())
		default:
			fmt.Printf("unknown command %q\n", verb)
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			continue
		}
		if verb != "status" && verb != "toc" && verb != "search" {
			s := session.Status()
			fmt.Printf("%.1f%% - %s [%s]\n", s.Percent, orChapter(s.Chapter), s.Mode)
		}
	}
	return scanner.Err()
}

func (cmd *ReadCommand) goTo(session *reader.Session, arg string) error {
	percent, err := strconv.ParseFloat(strings.TrimSuffix(arg, "%"), 64)
	if err != nil {
		return fmt.Errorf("goto expects a percentage, e.g. goto 42.5")
	}
	return session.GoToPercent(percent)
}

func (cmd *ReadCommand) printSearch(ctx context.Context, session *reader.Session, query string) {
	results := session.Search(ctx, query)
	if len(results) == 0 {
		fmt.Println("no matches")
		return
	}
	for i, r := range results {
		fmt.Printf("%3d. [%s] %s\n", i+1, r.Section, r.Excerpt)
	}
}

func (cmd *ReadCommand) toggleBookmark(ctx context.Context, session *reader.Session) error {
	added, err := session.ToggleBookmark(ctx)
	if err != nil {
		return err
	}
	if added {
		fmt.Println("bookmark added")
	} else {
		fmt.Println("bookmark removed")
	}
	return nil
}

func printStatus(s reader.Status) {
	fmt.Printf("%q by %s\n", s.Title, orUnknown(s.Author))
	fmt.Printf("  position: %.1f%% (furthest %.1f%%) [%s]\n", s.Percent, s.Furthest, s.Mode)
	if s.Chapter != "" {
		fmt.Printf("  chapter:  %s\n", s.Chapter)
	}
	for _, h := range s.Highlights {
		fmt.Printf("  highlight (%s): %s\n", reader.ColorName(h.Color), h.Text)
	}
	for _, b := range s.Bookmarks {
		fmt.Printf("  bookmark: %s\n", b.Label)
	}
}

func printTOC(entries []epub.TOCEntry, depth int) {
	for _, entry := range entries {
		fmt.Printf("%s%s\n", strings.Repeat("  ", depth+1), entry.Label)
		printTOC(entry.Children, depth+1)
	}
}

func orChapter(chapter string) string {
	if chapter == "" {
		return "(no chapter)"
	}
	return chapter
}
