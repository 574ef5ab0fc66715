package epub

import (
	"fmt"
	"strings"
)

// Link describes an anchor inside a section, as the rendering layer saw
// it. Only the attributes the footnote heuristics look at are carried.
type Link struct {
	Href     string
	EpubType string // epub:type attribute
	Role     string
	Class    string
}

// IsFootnoteLink applies the markup conventions publishers actually use
// for footnote references. Semantic attributes win; the href shape is the
// fallback for books without them.
func IsFootnoteLink(l Link) bool {
	if strings.Contains(l.EpubType, "noteref") {
		return true
	}
	if l.Role == "doc-noteref" {
		return true
	}
	class := strings.ToLower(l.Class)
	if strings.Contains(class, "footnote") || strings.Contains(class, "note") {
		return true
	}
	href := strings.ToLower(l.Href)
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[i+1:]
	}
	return strings.Contains(href, "fn") || strings.Contains(href, "note")
}

// ResolveFragment loads the text a link target points at without moving
// the reading position: the note body is looked up out of band so it can
// be shown in an overlay. currentSection anchors hrefs that are only a
// fragment.
func (d *Document) ResolveFragment(href string, currentSection string) (string, error) {
	filePart, fragment := href, ""
	if i := strings.IndexByte(href, '#'); i >= 0 {
		filePart, fragment = href[:i], href[i+1:]
	}
	if filePart == "" {
		filePart = currentSection
	}

	index, ok := d.sectionIndexByHref(filePart)
	if !ok {
		return "", fmt.Errorf("link target %q not in document", href)
	}

	if fragment == "" {
		return d.sectionText(index)
	}

	rc, err := d.book.Open(d.sections[index])
	if err != nil {
		return "", fmt.Errorf("failed to open section %s: %w", d.sections[index], err)
	}
	defer rc.Close()

	text, found, err := findElementText(rc, fragment)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("fragment %q not found in %s", fragment, d.sections[index])
	}
	return text, nil
}
