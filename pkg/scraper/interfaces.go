package scraper

import "context"

// SearchClient fetches the search-results page markup for a query.
type SearchClient interface {
	SearchHTML(ctx context.Context, query string) (string, error)
}

// CandidateValidator fetches a single candidate URL and confirms the
// payload decodes as an image.
type CandidateValidator interface {
	FetchValidate(ctx context.Context, url string) ([]byte, string, error)
}

// ResultExtractor yields candidate image URLs from results-page markup.
type ResultExtractor interface {
	Extract(html string) []string
}
