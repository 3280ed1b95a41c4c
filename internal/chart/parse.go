package chart

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/desertthunder/chartlist/internal/models"
	"golang.org/x/net/html"
)

// Billboard page classes. The current layout renders one list item per row;
// the legacy layout renders parallel song/artist spans.
const (
	modernItemClass   = "o-chart-results-list__item"
	modernArtistClass = "c-label"
	legacySongClass   = "chart-element__information__song"
	legacyArtistClass = "chart-element__information__artist"
)

// DefaultLegacyThreshold is the entry count below which the legacy layout is also parsed.
const DefaultLegacyThreshold = 50

var whitespaceRegex = regexp.MustCompile(`\s+`)

// ParseChart extracts chart entries from a chart page.
//
// The modern layout is parsed first. When it yields fewer than legacyThreshold entries
// the legacy layout is parsed as well and its entries appended. The result is filtered
// and deduplicated in first-seen order.
func ParseChart(r io.Reader, legacyThreshold int) ([]models.ChartEntry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse chart document: %w", err)
	}

	entries := parseModern(doc)
	if len(entries) < legacyThreshold {
		entries = append(entries, parseLegacy(doc)...)
	}

	return Dedupe(entries), nil
}

func parseModern(doc *html.Node) []models.ChartEntry {
	var entries []models.ChartEntry
	items := findAll(doc, func(n *html.Node) bool {
		return isElement(n, "li") && hasClass(n, modernItemClass)
	})

	for _, item := range items {
		title := findFirst(item, func(n *html.Node) bool { return isElement(n, "h3") })
		artist := findFirst(item, func(n *html.Node) bool {
			return isElement(n, "span") && hasClass(n, modernArtistClass)
		})
		if title == nil || artist == nil || isRestricted(item) {
			continue
		}

		entry := models.ChartEntry{Title: textOf(title), Artist: textOf(artist)}
		if keepEntry(entry) {
			entries = append(entries, entry)
		}
	}

	return entries
}

func parseLegacy(doc *html.Node) []models.ChartEntry {
	titles := findAll(doc, func(n *html.Node) bool {
		return isElement(n, "span") && hasClass(n, legacySongClass)
	})
	artists := findAll(doc, func(n *html.Node) bool {
		return isElement(n, "span") && hasClass(n, legacyArtistClass)
	})

	n := min(len(titles), len(artists))
	entries := make([]models.ChartEntry, 0, n)
	for i := range n {
		if isRestricted(rowOf(titles[i])) {
			continue
		}

		entry := models.ChartEntry{Title: textOf(titles[i]), Artist: textOf(artists[i])}
		if keepEntry(entry) {
			entries = append(entries, entry)
		}
	}

	return entries
}

// Dedupe removes repeated (title, artist) pairs, keeping the first occurrence.
func Dedupe(entries []models.ChartEntry) []models.ChartEntry {
	seen := make(map[models.ChartEntry]struct{}, len(entries))
	out := make([]models.ChartEntry, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// keepEntry drops page furniture: empty or single-character fields and numeric-only titles.
func keepEntry(e models.ChartEntry) bool {
	if utf8.RuneCountInString(e.Title) <= 1 || utf8.RuneCountInString(e.Artist) <= 1 {
		return false
	}
	return !isNumeric(e.Title)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// isRestricted reports whether n, one of its ancestors or one of its descendants is marked as
// access-restricted.
func isRestricted(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if restrictedMarker(p) {
			return true
		}
	}
	return findFirst(n, restrictedMarker) != nil
}

func restrictedMarker(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if attr(n, "data-restricted") == "true" {
		return true
	}
	for _, class := range strings.Fields(attr(n, "class")) {
		if strings.Contains(class, "paywall") || strings.Contains(class, "restricted") ||
			strings.Contains(class, "locked") {
			return true
		}
	}
	return false
}

// rowOf returns the closest enclosing list item of n, or n itself.
func rowOf(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if isElement(p, "li") {
			return p
		}
	}
	return n
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// findAll returns every node under root (root included) matching pred, in document order.
func findAll(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if pred(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// findFirst returns the first node under root (root included) matching pred, or nil.
func findFirst(root *html.Node, pred func(*html.Node) bool) *html.Node {
	if pred(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := findFirst(c, pred); n != nil {
			return n
		}
	}
	return nil
}

// textOf concatenates the text under n and collapses whitespace.
func textOf(n *html.Node) string {
	var buf strings.Builder
	for _, t := range findAll(n, func(c *html.Node) bool { return c.Type == html.TextNode }) {
		buf.WriteString(t.Data)
	}
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(buf.String(), " "))
}
