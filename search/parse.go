package search

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseResults scans the engine's result containers in document order and
// keeps those with both a title and a link, stopping at limit. Markup that
// does not match yields an empty, non-nil slice.
func ParseResults(html, pageURL string, engine Engine, limit int) []SearchResult {
	results := make([]SearchResult, 0, limit)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return results
	}
	base, _ := url.Parse(pageURL)

	doc.Find(engine.ResultSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(results) >= limit {
			return false
		}

		title := s.Find(engine.TitleSelector).First()
		link := s.Find(engine.LinkSelector).First()
		if title.Length() == 0 || link.Length() == 0 {
			return true
		}

		r := SearchResult{
			Title:   strings.TrimSpace(title.Text()),
			URL:     resolveHref(base, link.AttrOr("href", "")),
			Snippet: strings.TrimSpace(s.Find(engine.SnippetSelector).First().Text()),
		}
		if r.Title == "" || r.URL == "" {
			return true
		}

		results = append(results, r)
		return len(results) < limit
	})

	return results
}

// resolveHref mirrors the anchor's href property: the attribute resolved
// against the document URL.
func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
