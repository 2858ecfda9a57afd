package search

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"browserd/browser"

	"go.uber.org/zap"
)

// MaxResults caps how many results a search returns.
const MaxResults = 10

type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type SearchResponse struct {
	Query     string         `json:"query"`
	Results   []SearchResult `json:"results"`
	Timestamp string         `json:"timestamp"`
	Engine    string         `json:"engine"`
}

type SearchRequest struct {
	Query   string         `json:"query"`
	Options map[string]any `json:"options,omitempty"`
}

// Searcher runs a query against one engine on a page it is handed.
type Searcher struct {
	engine     Engine
	navTimeout time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

func NewSearcher(engine Engine, navTimeout time.Duration, logger *zap.Logger) *Searcher {
	return &Searcher{
		engine:     engine,
		navTimeout: navTimeout,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Searcher) Search(ctx context.Context, page browser.Page, query string) (*SearchResponse, error) {
	searchURL := fmt.Sprintf(s.engine.URLTemplate, url.QueryEscape(query))

	s.logger.Info("Navigating to search",
		zap.String("url", searchURL),
		zap.String("engine", s.engine.Name))

	if err := page.Navigate(ctx, searchURL, s.navTimeout); err != nil {
		return nil, err
	}

	snap, err := page.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	results := ParseResults(snap.HTML, snap.URL, s.engine, MaxResults)
	if len(results) == 0 {
		s.logger.Warn("No results found",
			zap.String("query", query),
			zap.String("current_url", snap.URL),
			zap.String("title", snap.Title),
			zap.Int("dom_length", len(snap.HTML)))
	} else {
		s.logger.Info("Successfully extracted results",
			zap.Int("total_results", len(results)),
			zap.String("selector_used", s.engine.ResultSelector))
	}

	return &SearchResponse{
		Query:     query,
		Results:   results,
		Timestamp: s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Engine:    s.engine.ID,
	}, nil
}
