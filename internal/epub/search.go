package epub

import (
	"context"
	"log"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"
)

const excerptRadius = 40

// SearchResult is one match: where it is and a short excerpt around it.
type SearchResult struct {
	Range   string `json:"range"`
	Excerpt string `json:"excerpt"`
	Section string `json:"section"`
}

// Search scans every spine section for the query, case-insensitively, and
// returns matches in document order. Sections run concurrently; a section
// that cannot be read is logged and contributes no matches rather than
// failing the whole search.
func (d *Document) Search(ctx context.Context, query string) []SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	perSection := make([][]SearchResult, len(d.sections))
	group, ctx := errgroup.WithContext(ctx)
	for i := range d.sections {
		i := i
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return nil
			}
			text, err := d.sectionText(i)
			if err != nil {
				log.Printf("search: skipping section %s: %v", d.sections[i], err)
				return nil
			}
			perSection[i] = searchSection(text, query, i, d.sections[i])
			return nil
		})
	}
	group.Wait()

	var results []SearchResult
	for _, matches := range perSection {
		results = append(results, matches...)
	}
	return results
}

func searchSection(text, query string, section int, href string) []SearchResult {
	runes := []rune(text)
	lowered := []rune(strings.ToLower(text))
	needle := []rune(strings.ToLower(query))
	if len(needle) == 0 || len(needle) > len(lowered) {
		return nil
	}

	var results []SearchResult
	for i := 0; i+len(needle) <= len(lowered); i++ {
		if string(lowered[i:i+len(needle)]) != string(needle) {
			continue
		}
		end := i + len(needle)
		results = append(results, SearchResult{
			Range:   mintRange(section, i, end),
			Excerpt: excerpt(runes, i, end),
			Section: href,
		})
		i = end - 1
	}
	return results
}

// excerpt cuts a window around the match, widened to word boundaries.
func excerpt(runes []rune, start, end int) string {
	from := start - excerptRadius
	if from < 0 {
		from = 0
	}
	to := end + excerptRadius
	if to > len(runes) {
		to = len(runes)
	}
	for from > 0 && !unicode.IsSpace(runes[from-1]) {
		from--
	}
	for to < len(runes) && !unicode.IsSpace(runes[to]) {
		to++
	}
	return strings.TrimSpace(string(runes[from:to]))
}
