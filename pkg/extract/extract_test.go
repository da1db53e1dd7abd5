package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func markerDoc(urls ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><div>")
	for _, u := range urls {
		b.WriteString(`{&quot;murl&quot;:&quot;` + u + `&quot;,&quot;turl&quot;:&quot;https://thumb.example/t.jpg&quot;}`)
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

func TestMarkerStrategyExtractsURLs(t *testing.T) {
	html := markerDoc("https://img.example/a.jpg", "https://img.example/b.jpg")

	urls := MarkerStrategy{}.Extract(html)
	assert.Equal(t, "https://img.example/a.jpg", urls[0])
	assert.Contains(t, urls, "https://img.example/b.jpg")
}

func TestExtractDeduplicatesPreservingOrder(t *testing.T) {
	html := markerDoc(
		"https://img.example/a.jpg",
		"https://img.example/b.jpg",
		"https://img.example/a.jpg",
	)

	urls := NewWithStrategies(MarkerStrategy{}).Extract(html)
	assert.Equal(t, []string{"https://img.example/a.jpg", "https://img.example/b.jpg"}, urls)
}

func TestExtractFiltersNonHTTPSchemes(t *testing.T) {
	html := markerDoc(
		"ftp://img.example/a.jpg",
		"data:image/png;base64,AAAA",
		"https://img.example/b.jpg",
		"http://img.example/c.jpg",
	)

	urls := NewWithStrategies(MarkerStrategy{}).Extract(html)
	assert.Equal(t, []string{"https://img.example/b.jpg", "http://img.example/c.jpg"}, urls)
}

func TestDOMStrategyFallback(t *testing.T) {
	html := `<html><body>
		<img src="https://img.example/a.jpg">
		<img data-src="https://img.example/b.jpg">
		<img>
	</body></html>`

	urls := New().Extract(html)
	assert.Equal(t, []string{"https://img.example/a.jpg", "https://img.example/b.jpg"}, urls)
}

func TestLineStrategyFallback(t *testing.T) {
	line := `var data = [{&quot;murl&quot;:&quot;https://img.example/a.jpg&quot;}]`
	urls := LineStrategy{}.Extract("prefix\n" + line + "\nsuffix")
	assert.Equal(t, []string{"https://img.example/a.jpg"}, urls)
}

func TestMarkerTakesPrecedenceOverDOM(t *testing.T) {
	html := `<html><body>
		<img src="https://thumb.example/thumb.jpg">
		<div>{&quot;murl&quot;:&quot;https://img.example/full.jpg&quot;}</div>
	</body></html>`

	urls := New().Extract(html)
	assert.Equal(t, []string{"https://img.example/full.jpg"}, urls)
}

func TestExtractReturnsEmptyOnNoMatches(t *testing.T) {
	urls := New().Extract("<html><body><p>nothing here</p></body></html>")
	assert.NotNil(t, urls)
	assert.Empty(t, urls)
}

func TestExtractToleratesMalformedMarkup(t *testing.T) {
	assert.Empty(t, New().Extract(""))
	assert.Empty(t, New().Extract("<<<<>>> not html at all & murl&quot;:&quot;"))

	// Unterminated marker URL is dropped, valid ones survive
	html := markerDoc("https://img.example/a.jpg") + `{&quot;murl&quot;:&quot;https://img.example/trunc`
	urls := NewWithStrategies(MarkerStrategy{}).Extract(html)
	assert.Contains(t, urls, "https://img.example/a.jpg")
	assert.NotContains(t, urls, "https://img.example/trunc")
}
