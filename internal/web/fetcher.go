package web

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

const (
	DefaultTimeout  = 30 * time.Second
	MaxResponseSize = 2 * 1024 * 1024 // 2MB
)

// Page is a fetched and parsed document. URL is the final URL after any
// redirects, which callers compare against the requested one to detect
// soft not-found pages.
type Page struct {
	URL   string
	Title string
	Doc   *goquery.Document
}

// Navigator fetches a URL and returns the rendered document. Implementations
// must scope whatever session they hold to the single call and release it on
// every exit path.
type Navigator interface {
	Navigate(ctx context.Context, rawURL string) (*Page, error)
}

// FetchError wraps a navigation or network failure for a specific URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return "fetch " + e.URL + ": " + e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher is the colly-backed Navigator. Each Navigate call builds its own
// collector so concurrent calls never share session state.
type Fetcher struct {
	timeout time.Duration
	maxBody int
}

type FetcherOption func(*Fetcher)

// WithTimeout sets the per-request timeout for every navigation stage.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{timeout: DefaultTimeout, maxBody: MaxResponseSize}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) Navigate(ctx context.Context, rawURL string) (*Page, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, &FetchError{URL: rawURL, Err: errors.New("url must start with http:// or https://")}
	}

	c := colly.NewCollector(colly.AllowURLRevisit())
	c.Context = ctx
	c.SetRequestTimeout(f.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", NextUserAgent())
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	var body []byte
	var finalURL string
	c.OnResponse(func(r *colly.Response) {
		finalURL = r.Request.URL.String()
		body = append([]byte(nil), r.Body...)
	})

	if err := c.Visit(rawURL); err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if len(body) == 0 {
		return nil, &FetchError{URL: rawURL, Err: errors.New("empty response body")}
	}
	if len(body) > f.maxBody {
		body = body[:f.maxBody]
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	return &Page{
		URL:   finalURL,
		Title: strings.TrimSpace(doc.Find("head > title").First().Text()),
		Doc:   doc,
	}, nil
}
