package web

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// A strategy inspects a document and reports whether it produced a value.
// Ordered from most to least specific, strategies tolerate partial site
// redesigns: a layout change knocks out one selector, not the pipeline.
type strategy func(*goquery.Document) (string, bool)

// firstOf folds strategies left and keeps the first hit.
func firstOf(doc *goquery.Document, strategies ...strategy) string {
	for _, st := range strategies {
		if v, ok := st(doc); ok {
			return v
		}
	}
	return ""
}

// selectorText builds a strategy returning the text of the first element
// matching sel, when non-empty.
func selectorText(sel string) strategy {
	return func(doc *goquery.Document) (string, bool) {
		text := singleLine(doc.Find(sel).First().Text())
		return text, text != ""
	}
}

var descriptionStrategies = []strategy{
	selectorText("p:first-of-type"),
	selectorText(".description"),
	selectorText(`[class*="description"]`),
	selectorText("h1 + p"),
	selectorText("h2 + p"),
}

// extractDetail runs the four independent sub-pipelines against a resolved
// page. Any of them may come back empty; that is degradation, not failure.
func extractDetail(page *Page, name string) *ComponentDetail {
	detail := &ComponentDetail{
		Name:      name,
		Props:     make(map[string]PropInfo),
		SourceURL: page.URL,
	}
	detail.Description = firstOf(page.Doc, descriptionStrategies...)
	extractProps(page.Doc, detail.Props)
	detail.CodeExamples = extractCodeExamples(page.Doc, name)
	detail.DesignGuidance = extractGuidance(page.Doc)
	return detail
}

// Header synonyms recognized in prop tables, case-insensitive.
var (
	propNameHeaders    = []string{"name", "prop", "property"}
	propTypeHeaders    = []string{"type", "data type"}
	propDescHeaders    = []string{"description", "desc"}
	propDefaultHeaders = []string{"default", "default value"}
)

// extractProps scans every table on the page, keeps those whose headers
// name a prop column, and merges their rows into out. Later tables
// overwrite earlier ones for same-named props.
func extractProps(doc *goquery.Document, out map[string]PropInfo) {
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if !isPropTable(table) {
			return
		}
		for name, info := range propsFromTable(table) {
			out[name] = info
		}
	})
}

func isPropTable(table *goquery.Selection) bool {
	qualified := false
	table.Find("th").Each(func(_ int, th *goquery.Selection) {
		header := strings.ToLower(singleLine(th.Text()))
		for _, syn := range propNameHeaders {
			if header == syn {
				qualified = true
			}
		}
	})
	return qualified
}

// propsFromTable maps rows to prop records using best-effort alignment of
// the header row against the known column synonyms.
func propsFromTable(table *goquery.Selection) map[string]PropInfo {
	rows := table.Find("tr")
	if rows.Length() == 0 {
		return nil
	}
	var headers []string
	rows.First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, strings.ToLower(singleLine(cell.Text())))
	})
	nameIdx := indexOfAny(headers, propNameHeaders)
	typeIdx := indexOfAny(headers, propTypeHeaders)
	descIdx := indexOfAny(headers, propDescHeaders)
	defaultIdx := indexOfAny(headers, propDefaultHeaders)
	if nameIdx < 0 {
		return nil
	}

	props := make(map[string]PropInfo)
	rows.Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		var cells []string
		row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, singleLine(cell.Text()))
		})
		if len(cells) < 2 || nameIdx >= len(cells) {
			return
		}
		name := cells[nameIdx]
		if name == "" {
			return
		}
		props[name] = PropInfo{
			Type:        cellAt(cells, typeIdx),
			Description: cellAt(cells, descIdx),
			Default:     cellAt(cells, defaultIdx),
		}
	})
	return props
}

func indexOfAny(headers, synonyms []string) int {
	for i, h := range headers {
		for _, syn := range synonyms {
			if h == syn {
				return i
			}
		}
	}
	return -1
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

// Snippets shorter than this are assumed to be inline fragments, not
// usable examples.
const minExampleLen = 10

// extractCodeExamples keeps preformatted blocks that mention the target
// component, in document order.
func extractCodeExamples(doc *goquery.Document, name string) []string {
	needle := strings.ToLower(name)
	var examples []string
	doc.Find("pre, code").Each(func(_ int, sel *goquery.Selection) {
		code := strings.TrimSpace(sel.Text())
		if len(code) > minExampleLen && strings.Contains(strings.ToLower(code), needle) {
			examples = append(examples, code)
		}
	})
	return examples
}

var guidanceSelectors = []string{
	".guidance",
	".guidelines",
	`[class*="guidance"]`,
	`[class*="guideline"]`,
}

// extractGuidance returns the first non-empty guidance section, converted
// to markdown so list and emphasis structure survives. Falls back to plain
// text when conversion fails.
func extractGuidance(doc *goquery.Document) string {
	for _, selector := range guidanceSelectors {
		sel := doc.Find(selector).First()
		plain := singleLine(sel.Text())
		if plain == "" {
			continue
		}
		if html, err := goquery.OuterHtml(sel); err == nil {
			if md, err := htmltomarkdown.ConvertString(html); err == nil && strings.TrimSpace(md) != "" {
				return strings.TrimSpace(md)
			}
		}
		return plain
	}
	return ""
}
