package extract

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"browserd/browser/browsertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const paragraph = `The shared browser process serves every request, but each request
works in a tab of its own. Tabs are opened when a request arrives and closed as soon
as the routine that used them returns, whether it succeeded or not. This keeps one
slow or broken page from leaking state into the next request that arrives.`

func articlePage() string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Tabs and sessions</title>
<meta name="author" content="Jane Doe"></head><body>
<nav><a href="/">Home</a><a href="/about">About</a></nav>
<article><h1>Tabs and sessions</h1>`)
	for range 8 {
		b.WriteString("<p>" + paragraph + "</p>\n")
	}
	b.WriteString(`</article><footer>All rights reserved</footer></body></html>`)
	return b.String()
}

func TestReader_Parse(t *testing.T) {
	r := NewReader(zaptest.NewLogger(t))

	article, err := r.Parse(articlePage(), "https://example.com/tabs")
	require.NoError(t, err)

	assert.Contains(t, []string{"trafilatura", "readability"}, article.Method)
	assert.Contains(t, article.Content, "each request")
	assert.NotContains(t, article.Content, "All rights reserved")
	assert.NotEmpty(t, article.Markdown)
	assert.Equal(t, "https://example.com/tabs", article.URL)
	assert.LessOrEqual(t, utf8.RuneCountInString(article.Content), MaxContentLength)
}

func TestReader_ParseTruncates(t *testing.T) {
	r := NewReader(zaptest.NewLogger(t))
	r.limit = 50

	article, err := r.Parse(articlePage(), "https://example.com/tabs")
	require.NoError(t, err)

	assert.LessOrEqual(t, utf8.RuneCountInString(article.Content), 50)
	assert.LessOrEqual(t, utf8.RuneCountInString(article.Markdown), 50)
}

func TestReader_ParseEmpty(t *testing.T) {
	r := NewReader(zaptest.NewLogger(t))

	_, err := r.Parse(`<html><body></body></html>`, "https://example.com/empty")
	assert.Error(t, err)
}

func TestReader_Read(t *testing.T) {
	opener := browsertest.NewOpener(browsertest.Site{
		"https://example.com/tabs": {HTML: articlePage(), Title: "Tabs and sessions"},
	})
	p, err := opener.NewPage(context.Background())
	require.NoError(t, err)

	article, err := NewReader(zaptest.NewLogger(t)).Read(context.Background(), p, "https://example.com/tabs")
	require.NoError(t, err)

	assert.NotEmpty(t, article.Title)
	assert.Equal(t, "https://example.com/tabs", article.URL)
}
