package search

// Engine describes how to query a search engine and where its results live
// in the rendered DOM. Selectors are matched in document order.
type Engine struct {
	ID              string
	Name            string
	URLTemplate     string
	ResultSelector  string
	TitleSelector   string
	LinkSelector    string
	SnippetSelector string
}

var Google = Engine{
	ID:              "google",
	Name:            "Google",
	URLTemplate:     "https://www.google.com/search?q=%s&num=10",
	ResultSelector:  `div.g, div[data-ved]`,
	TitleSelector:   `h3, a > h3`,
	LinkSelector:    `a[href]`,
	SnippetSelector: `span[data-ved], div[data-ved] span`,
}
