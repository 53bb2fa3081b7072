package web

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Token kinds accepted by DesignTokens.
const (
	KindAll        = "all"
	KindColors     = "colors"
	KindTypography = "typography"
	KindSpacing    = "spacing"
)

// TokenSet holds the design tokens grouped by category. Only the requested
// categories are populated.
type TokenSet struct {
	Colors     map[string]string `json:"colors,omitempty"`
	Typography map[string]string `json:"typography,omitempty"`
	Spacing    map[string]string `json:"spacing,omitempty"`
}

// DesignTokens fetches the tokens reference page and extracts the requested
// categories, each with its own heuristic and its own static fallback. A
// failed page fetch yields the full builtin set regardless of kind.
func (s *Scraper) DesignTokens(ctx context.Context, kind string) *TokenSet {
	page, err := s.nav.Navigate(ctx, s.tokensURL)
	if err != nil {
		s.log.Warn("tokens reference fetch failed, using builtin token set", zap.Error(err))
		return BuiltinTokens()
	}
	tokens := &TokenSet{}
	if kind == KindAll || kind == KindColors {
		tokens.Colors = extractColorTokens(page.Doc)
	}
	if kind == KindAll || kind == KindTypography {
		tokens.Typography = extractTypographyTokens(page.Doc)
	}
	if kind == KindAll || kind == KindSpacing {
		tokens.Spacing = extractSpacingTokens(page.Doc)
	}
	return tokens
}

var (
	colorClassRe    = regexp.MustCompile(`(?i)color|swatch`)
	typoClassRe     = regexp.MustCompile(`(?i)typography|font`)
	spacingClassRe  = regexp.MustCompile(`(?i)spacing|margin|padding`)
	hexColorRe      = regexp.MustCompile(`#[0-9A-Fa-f]{6}`)
	fontFamilyRe    = regexp.MustCompile(`(?i)font-family:\s*([^;}"]+)`)
	spacingValueRe  = regexp.MustCompile(`\d+(?:px|rem|em)`)
	spacingBuckets = []string{"small", "medium", "large"}
)

// byClassPattern selects elements among tags whose class attribute matches
// re. goquery has no regex selector, so this filters by attribute.
func byClassPattern(doc *goquery.Document, tags string, re *regexp.Regexp) *goquery.Selection {
	return doc.Find(tags).FilterFunction(func(_ int, sel *goquery.Selection) bool {
		cls, ok := sel.Attr("class")
		return ok && re.MatchString(cls)
	})
}

// extractColorTokens reads color swatches: element text is the token name,
// the first hex value in the inline style is the token value.
func extractColorTokens(doc *goquery.Document) map[string]string {
	colors := make(map[string]string)
	byClassPattern(doc, "div, span", colorClassRe).Each(func(_ int, sel *goquery.Selection) {
		name := singleLine(sel.Text())
		style, _ := sel.Attr("style")
		if hex := hexColorRe.FindString(style); hex != "" && name != "" {
			colors[name] = hex
		}
	})
	if len(colors) == 0 {
		return fallbackColorTokens()
	}
	return colors
}

// extractTypographyTokens looks for font-family declarations inside
// typography sections.
func extractTypographyTokens(doc *goquery.Document) map[string]string {
	typography := make(map[string]string)
	byClassPattern(doc, "div, section", typoClassRe).Each(func(_ int, sel *goquery.Selection) {
		text := sel.Text()
		if m := fontFamilyRe.FindStringSubmatch(text); m != nil {
			typography["fontFamily"] = strings.TrimSpace(m[1])
		} else if strings.Contains(strings.ToLower(text), "font-family") {
			typography["fontFamily"] = fallbackFontStack
		}
	})
	if len(typography) == 0 {
		return fallbackTypographyTokens()
	}
	return typography
}

// extractSpacingTokens buckets the first three pixel/rem/em values found in
// spacing sections as small/medium/large.
func extractSpacingTokens(doc *goquery.Document) map[string]string {
	spacing := make(map[string]string)
	byClassPattern(doc, "div, section", spacingClassRe).Each(func(_ int, sel *goquery.Selection) {
		values := spacingValueRe.FindAllString(sel.Text(), len(spacingBuckets))
		for i, v := range values {
			spacing[spacingBuckets[i]] = v
		}
	})
	if len(spacing) == 0 {
		return fallbackSpacingTokens()
	}
	return spacing
}
