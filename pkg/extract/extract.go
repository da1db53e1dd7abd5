// Package extract pulls candidate image URLs out of a search-results page.
// The provider embeds result metadata as escaped JSON in the markup, so the
// primary strategy looks for the escaped "murl" marker that precedes each
// original-image URL. Two fallbacks cover markup variations.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// markerToken precedes each original-image URL in the escaped result JSON.
const markerToken = `murl&quot;:&quot;`

// closingToken terminates the URL started by markerToken.
const closingToken = `&quot;`

// Strategy extracts raw URL candidates from an HTML document. Strategies
// must not fail: malformed markup yields an empty slice.
type Strategy interface {
	Name() string
	Extract(html string) []string
}

// Extractor runs an ordered list of strategies, returning the first
// non-empty filtered result.
type Extractor struct {
	strategies []Strategy
}

// New returns an extractor with the default strategy order: marker scan,
// DOM image elements, then the naive line scan.
func New() *Extractor {
	return &Extractor{
		strategies: []Strategy{
			MarkerStrategy{},
			DOMStrategy{},
			LineStrategy{},
		},
	}
}

// NewWithStrategies returns an extractor over an explicit strategy chain.
func NewWithStrategies(strategies ...Strategy) *Extractor {
	return &Extractor{strategies: strategies}
}

// Extract tries each strategy in order and returns the first result that
// survives scheme filtering and de-duplication. A document matching no
// strategy yields an empty slice, never an error.
func (e *Extractor) Extract(html string) []string {
	for _, s := range e.strategies {
		if urls := filterCandidates(s.Extract(html)); len(urls) > 0 {
			return urls
		}
	}
	return []string{}
}

// filterCandidates keeps only http(s) URLs and removes duplicates while
// preserving first-seen order.
func filterCandidates(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, u := range raw {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// MarkerStrategy scans the whole document for the escaped JSON marker.
type MarkerStrategy struct{}

func (MarkerStrategy) Name() string { return "marker" }

func (MarkerStrategy) Extract(html string) []string {
	var urls []string
	rest := html
	for {
		idx := strings.Index(rest, markerToken)
		if idx < 0 {
			break
		}
		rest = rest[idx+len(markerToken):]
		end := strings.Index(rest, closingToken)
		if end < 0 {
			break
		}
		urls = append(urls, rest[:end])
		rest = rest[end+len(closingToken):]
	}
	return urls
}

// DOMStrategy queries the document's image elements for a source attribute.
type DOMStrategy struct{}

func (DOMStrategy) Name() string { return "dom" }

func (DOMStrategy) Extract(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var urls []string
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok && src != "" {
			urls = append(urls, src)
			return
		}
		if src, ok := sel.Attr("data-src"); ok && src != "" {
			urls = append(urls, src)
		}
	})
	return urls
}

// LineStrategy is the naive line-by-line split on the marker token, kept as
// the last resort for markup the other strategies miss.
type LineStrategy struct{}

func (LineStrategy) Name() string { return "line" }

func (LineStrategy) Extract(html string) []string {
	var urls []string
	for _, line := range strings.Split(html, "\n") {
		if !strings.Contains(line, markerToken) {
			continue
		}
		parts := strings.Split(line, markerToken)
		for _, part := range parts[1:] {
			if end := strings.Index(part, closingToken); end >= 0 {
				urls = append(urls, part[:end])
			}
		}
	}
	return urls
}
