package web

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	defaultBaseURL      = "https://www.meshdesignsystem.com"
	defaultStorybookURL = "https://storybook.meshdesignsystem.com"
	tokensReferencePath = "/design-tokens/tokens-reference"
)

// ErrComponentNotFound means every URL candidate for a component either
// failed to resolve or resolved to a page with nothing extractable.
var ErrComponentNotFound = errors.New("web: component not found")

// PropInfo describes a single component prop as documented on the site.
type PropInfo struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Default     string `json:"default,omitempty"`
}

// ComponentDetail is the normalized record produced for one component.
// It is never mutated after extraction.
type ComponentDetail struct {
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Props          map[string]PropInfo `json:"props"`
	CodeExamples   []string            `json:"codeExamples"`
	SourceURL      string              `json:"sourceUrl"`
	DesignGuidance string              `json:"designGuidance"`
}

// Scraper extracts design-system metadata from the documentation site.
// Every extraction point is speculative: the site's structure is outside
// our control, so each heuristic degrades independently to the next one
// and finally to builtin defaults.
type Scraper struct {
	nav          Navigator
	baseURL      string
	storybookURL string
	tokensURL    string
	log          *zap.Logger
}

type ScraperOption func(*Scraper)

// WithBaseURL overrides the documentation site root.
func WithBaseURL(u string) ScraperOption {
	return func(s *Scraper) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithStorybookURL overrides the alternate-host documentation root.
func WithStorybookURL(u string) ScraperOption {
	return func(s *Scraper) { s.storybookURL = strings.TrimRight(u, "/") }
}

// WithTokensURL overrides the design-tokens reference page.
func WithTokensURL(u string) ScraperOption {
	return func(s *Scraper) { s.tokensURL = u }
}

// WithLogger sets the logger used for fallback and degradation notices.
func WithLogger(log *zap.Logger) ScraperOption {
	return func(s *Scraper) {
		if log != nil {
			s.log = log
		}
	}
}

func NewScraper(nav Navigator, opts ...ScraperOption) *Scraper {
	s := &Scraper{
		nav:          nav,
		baseURL:      defaultBaseURL,
		storybookURL: defaultStorybookURL,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tokensURL == "" {
		s.tokensURL = s.baseURL + tokensReferencePath
	}
	return s
}

// ListComponents returns the component names found on the index page,
// de-duplicated in insertion order. When the primary link heuristic finds
// nothing it falls back to a keyword scan, and then to the builtin list.
// A fetch failure also yields the builtin list; the result is never empty.
func (s *Scraper) ListComponents(ctx context.Context) []string {
	page, err := s.nav.Navigate(ctx, s.baseURL+"/components")
	if err != nil {
		s.log.Warn("components index fetch failed, using builtin list", zap.Error(err))
		return BuiltinComponents()
	}
	names := componentLinkNames(page.Doc)
	if len(names) == 0 {
		names = componentKeywordNames(page.Doc)
	}
	if len(names) == 0 {
		s.log.Warn("no component names found on index page, using builtin list",
			zap.String("url", page.URL))
		return BuiltinComponents()
	}
	s.log.Debug("scraped component list", zap.Int("count", len(names)))
	return names
}

// componentLinkNames collects anchor text from links into the components
// section of the site.
func componentLinkNames(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var names []string
	doc.Find(`a[href*="/components/"]`).Each(func(_ int, a *goquery.Selection) {
		name := singleLine(a.Text())
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	})
	return names
}

var componentKeywords = []string{"button", "card", "input", "modal", "tab"}

// componentKeywordNames is the secondary heuristic: short heading and text
// nodes mentioning a UI-component keyword.
func componentKeywordNames(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var names []string
	doc.Find("h1, h2, h3, h4, a, span").Each(func(_ int, sel *goquery.Selection) {
		text := singleLine(sel.Text())
		if text == "" || len(text) >= 50 {
			return
		}
		lower := strings.ToLower(text)
		for _, kw := range componentKeywords {
			if strings.Contains(lower, kw) {
				if _, ok := seen[text]; !ok {
					seen[text] = struct{}{}
					names = append(names, text)
				}
				break
			}
		}
	})
	return names
}

// ComponentDetails resolves name against an ordered set of URL variants and
// extracts the first page that yields a description or at least one prop or
// code example. It returns ErrComponentNotFound when every candidate fails.
func (s *Scraper) ComponentDetails(ctx context.Context, name string) (*ComponentDetail, error) {
	for _, candidate := range s.detailCandidates(name) {
		page, err := s.nav.Navigate(ctx, candidate)
		if err != nil {
			s.log.Debug("detail candidate failed", zap.String("url", candidate), zap.Error(err))
			continue
		}
		if isNotFoundPage(page, candidate) {
			s.log.Debug("detail candidate resolved to not-found page",
				zap.String("url", candidate), zap.String("resolved", page.URL))
			continue
		}
		detail := extractDetail(page, name)
		if detail.Description != "" || len(detail.Props) > 0 || len(detail.CodeExamples) > 0 {
			return detail, nil
		}
	}
	return nil, ErrComponentNotFound
}

// detailCandidates derives the URL variants tried for a component name,
// most likely first.
func (s *Scraper) detailCandidates(name string) []string {
	lower := strings.ToLower(strings.TrimSpace(name))
	hyphen := strings.ReplaceAll(lower, " ", "-")
	underscore := strings.ReplaceAll(lower, " ", "_")
	return []string{
		s.baseURL + "/components/" + hyphen,
		s.baseURL + "/components/" + underscore,
		s.storybookURL + "/?path=/docs/" + hyphen,
	}
}

// isNotFoundPage flags soft 404s: the site redirects unknown component
// paths rather than returning an error status.
func isNotFoundPage(page *Page, requested string) bool {
	if page.URL != "" && page.URL != requested {
		return true
	}
	return strings.Contains(page.Title, "404")
}

// singleLine trims and collapses internal whitespace/newlines to single spaces.
func singleLine(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}
