package search

import "github.com/stwalsh4118/schoolfinder/internal/models"

// DefaultDisplayCap is the number of results a view renders at most.
const DefaultDisplayCap = 100

// Page is a display-capped view over a full result set.
type Page struct {
	Schools   []models.School
	Total     int
	Displayed int
}

// Truncated reports whether the page holds fewer schools than matched.
func (p Page) Truncated() bool {
	return p.Displayed < p.Total
}

// Cap limits results to at most limit entries for display while keeping
// the true match count. A non-positive limit falls back to DefaultDisplayCap.
func Cap(results []models.School, limit int) Page {
	if limit <= 0 {
		limit = DefaultDisplayCap
	}
	shown := results
	if len(shown) > limit {
		shown = shown[:limit]
	}
	if shown == nil {
		shown = []models.School{}
	}
	return Page{
		Schools:   shown,
		Total:     len(results),
		Displayed: len(shown),
	}
}
