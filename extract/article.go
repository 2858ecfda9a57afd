package extract

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"browserd/browser"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

type Article struct {
	Title    string `json:"title"`
	Byline   string `json:"byline"`
	Excerpt  string `json:"excerpt"`
	SiteName string `json:"site_name"`
	Language string `json:"language"`
	Content  string `json:"content"`
	Markdown string `json:"markdown"`
	URL      string `json:"url"`
	Method   string `json:"method"`
}

var errNoArticle = errors.New("no article content found")

// Reader turns a rendered page into an article using trafilatura, with
// readability as a fallback.
type Reader struct {
	limit      int
	navTimeout time.Duration
	logger     *zap.Logger
}

func NewReader(logger *zap.Logger) *Reader {
	return &Reader{
		limit:      MaxContentLength,
		navTimeout: NavigationTimeout,
		logger:     logger,
	}
}

func (r *Reader) Read(ctx context.Context, page browser.Page, url string) (*Article, error) {
	if err := page.Navigate(ctx, url, r.navTimeout); err != nil {
		return nil, err
	}

	snap, err := page.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	article, err := r.Parse(snap.HTML, snap.URL)
	if err != nil {
		return nil, err
	}
	if article.Title == "" {
		article.Title = snap.Title
	}
	return article, nil
}

// Parse extracts an article from raw html fetched from pageURL.
func (r *Reader) Parse(rawHTML, pageURL string) (*Article, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		r.logger.Error("failed to parse URL", zap.String("url", pageURL), zap.Error(err))
		return nil, err
	}

	article, err := r.withTrafilatura(rawHTML, parsedURL)
	if err != nil {
		r.logger.Debug("trafilatura: falling back to readability",
			zap.String("url", pageURL),
			zap.Error(err))
		article, err = r.withReadability(rawHTML, parsedURL)
		if err != nil {
			return nil, err
		}
	}

	article.URL = pageURL
	article.Content = Truncate(article.Content, r.limit)
	article.Markdown = Truncate(article.Markdown, r.limit)

	r.logger.Info("article_extraction_result",
		zap.String("url", pageURL),
		zap.String("method", article.Method),
		zap.String("title", article.Title),
		zap.Int("word_count", len(strings.Fields(article.Content))))

	return article, nil
}

func (r *Reader) withTrafilatura(rawHTML string, pageURL *url.URL) (*Article, error) {
	result, err := trafilatura.Extract(strings.NewReader(rawHTML), trafilatura.Options{
		OriginalURL: pageURL,
	})
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(result.ContentText)
	if text == "" || result.ContentNode == nil {
		return nil, errNoArticle
	}

	nodeHTML, err := renderNode(result.ContentNode)
	if err != nil {
		return nil, err
	}

	return &Article{
		Title:    result.Metadata.Title,
		Byline:   result.Metadata.Author,
		Excerpt:  result.Metadata.Description,
		SiteName: result.Metadata.Sitename,
		Language: result.Metadata.Language,
		Content:  text,
		Markdown: r.markdown(nodeHTML),
		Method:   "trafilatura",
	}, nil
}

func (r *Reader) withReadability(rawHTML string, pageURL *url.URL) (*Article, error) {
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(rawHTML), pageURL)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, errNoArticle
	}

	return &Article{
		Title:    article.Title,
		Byline:   article.Byline,
		Excerpt:  article.Excerpt,
		SiteName: article.SiteName,
		Content:  text,
		Markdown: r.markdown(article.Content),
		Method:   "readability",
	}, nil
}

func (r *Reader) markdown(fragment string) string {
	md, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		r.logger.Debug("markdown conversion failed", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(md)
}

func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
