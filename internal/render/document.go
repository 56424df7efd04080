package render

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"sitebuilder-backend/internal/models"
)

// Page is the data handed to a page layout.
type Page struct {
	Title      string
	Slug       string
	Template   string
	Body       template.HTML
	StyleCSS   template.CSS
	Theme      models.Theme
	Head       template.HTML
	Scripts    []string
	Preview    bool
	Animations bool
}

const defaultLayout = `<!DOCTYPE html>
<html lang="en" data-theme="{{.Theme}}" data-template="{{.Template}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{if .StyleCSS}}<style>{{.StyleCSS}}</style>{{end}}
{{.Head}}
</head>
<body class="site{{if .Preview}} site--preview{{end}}{{if .Animations}} site--animated{{end}}">
<main class="site__main">{{.Body}}</main>
{{range .Scripts}}<script src="{{.}}" defer></script>
{{end}}</body>
</html>
`

var defaultLayoutTemplate = template.Must(template.New("layout").Parse(defaultLayout))

// DefaultLayout returns the built-in page layout.
func DefaultLayout() *template.Template {
	return defaultLayoutTemplate
}

// NewPage assembles layout data for a rendered block list.
func NewPage(content models.PageContent, meta models.SiteMetadata, body template.HTML) Page {
	templateName := content.Template
	if templateName == "" {
		templateName = meta.Template
	}
	theme := meta.UserTheme
	if !theme.IsExplicit() {
		theme = models.ThemeAuto
	}
	return Page{
		Title:      content.Title,
		Slug:       content.Slug,
		Template:   templateName,
		Body:       body,
		StyleCSS:   StyleCSS(meta),
		Theme:      theme,
		Animations: meta.ScrollAnimations.Enabled,
	}
}

// Document executes layout with page, falling back to the built-in layout.
func Document(w io.Writer, layout *template.Template, page Page) error {
	if layout == nil {
		layout = defaultLayoutTemplate
	}
	if err := layout.Execute(w, page); err != nil {
		return fmt.Errorf("failed to render page layout: %w", err)
	}
	return nil
}

// StyleCSS returns the palette and typography custom properties of a site.
func StyleCSS(meta models.SiteMetadata) template.CSS {
	var sb strings.Builder
	sb.WriteString(meta.Palette.CSS())

	typography := typographyVariables(meta.Typography)
	if len(typography) > 0 {
		sb.WriteString(":root{")
		for _, declaration := range typography {
			sb.WriteString(declaration)
			sb.WriteString(";")
		}
		sb.WriteString("}")
	}
	// The values have been stripped of declaration terminators.
	return template.CSS(sb.String())
}

var fontReplacer = strings.NewReplacer(";", "", "{", "", "}", "", "<", "", ">", "", "\\", "")

func typographyVariables(typography models.Typography) []string {
	var declarations []string
	if font := strings.TrimSpace(fontReplacer.Replace(typography.HeadingFont)); font != "" {
		declarations = append(declarations, "--font-heading:"+font)
	}
	if font := strings.TrimSpace(fontReplacer.Replace(typography.BodyFont)); font != "" {
		declarations = append(declarations, "--font-body:"+font)
	}
	if typography.BaseSizePx > 0 {
		declarations = append(declarations, "--font-size-base:"+strconv.Itoa(typography.BaseSizePx)+"px")
	}
	return declarations
}
