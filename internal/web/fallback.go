package web

// Builtin fallbacks. The scraper promises non-empty results for the list
// and token operations even when the site is unreachable or redesigned out
// from under every heuristic; these are the values it falls back on.

// builtinComponentList mirrors the component inventory from the design
// system's published documentation.
var builtinComponentList = []string{
	"Accordion", "Alert", "Autocomplete", "Button", "Card",
	"Checkbox", "Checkbox Group", "Copy", "Date Picker",
	"Date Textbox", "Divider", "Error Template", "Expander",
	"Expander Group", "Feature Panel", "File Upload", "Footer",
	"Fonts", "Form", "Form Control", "Grow Layout", "Header",
	"Header Footer Layout", "Heading", "Hero Panel", "Icons",
	"Info Box", "Link", "Loader", "Logo", "Modal", "ModeProvider",
	"Overlay", "Product Card", "Progress Stepper", "Radio",
	"Radio Button", "Radio Group", "React HTML", "Select",
	"Simple Table", "Skip Link", "Table", "Tabs", "Tag",
	"Textarea", "Textbox", "Theme", "Tooltip", "Utility Button",
	"Villain Panel",
}

// BuiltinComponents returns a copy of the builtin component list.
func BuiltinComponents() []string {
	return append([]string(nil), builtinComponentList...)
}

const fallbackFontStack = "Inter, system-ui, sans-serif"

// BuiltinTokens returns the full three-category static token set used when
// the tokens reference page cannot be fetched at all.
func BuiltinTokens() *TokenSet {
	return &TokenSet{
		Colors: map[string]string{
			"primary":   "#0066CC",
			"secondary": "#6C757D",
			"success":   "#28A745",
		},
		Typography: fallbackTypographyTokens(),
		Spacing:    fallbackSpacingTokens(),
	}
}

// Per-category fallbacks, used when the page fetched but a category's
// heuristic matched nothing.

func fallbackColorTokens() map[string]string {
	return map[string]string{"primary": "#0066CC", "secondary": "#6C757D"}
}

func fallbackTypographyTokens() map[string]string {
	return map[string]string{"fontFamily": fallbackFontStack}
}

func fallbackSpacingTokens() map[string]string {
	return map[string]string{"small": "8px", "medium": "16px", "large": "24px"}
}
