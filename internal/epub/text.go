package epub

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// extractText flattens an XHTML section into plain text. Script and style
// content is dropped and runs of whitespace collapse to single spaces so
// that rune offsets stay stable across renderings.
func extractText(r io.Reader) (string, error) {
	node, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse section: %w", err)
	}
	var b strings.Builder
	collectText(node, &b)
	return collapseWhitespace(b.String()), nil
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
	if n.Type == html.ElementNode && isBlockElement(n.Data) {
		b.WriteString(" ")
	}
}

func isBlockElement(tag string) bool {
	switch tag {
	case "p", "div", "section", "article", "li", "br", "tr",
		"h1", "h2", "h3", "h4", "h5", "h6", "blockquote":
		return true
	}
	return false
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// findElementText locates the element with the given id and returns the
// flattened text of its subtree.
func findElementText(r io.Reader, id string) (string, bool, error) {
	node, err := html.Parse(r)
	if err != nil {
		return "", false, fmt.Errorf("failed to parse section: %w", err)
	}
	target := findByID(node, id)
	if target == nil {
		return "", false, nil
	}
	var b strings.Builder
	collectText(target, &b)
	return collapseWhitespace(b.String()), true, nil
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}
