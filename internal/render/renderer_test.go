package render

import (
	"bytes"
	"html/template"
	"reflect"
	"strings"
	"testing"

	"sitebuilder-backend/internal/blocks"
	"sitebuilder-backend/internal/models"
)

func newTestRenderer() *Renderer {
	return NewRenderer(blocks.NewTemplateRegistry(blocks.DefaultRegistry()))
}

func TestRenderSkipsUnknownBlockTypes(t *testing.T) {
	renderer := newTestRenderer()
	list := []models.Block{
		models.NewBlock("q1", "quote", map[string]interface{}{"text": "first"}),
		models.NewBlock("bad", "does-not-exist", nil),
		models.NewBlock("q2", "quote", map[string]interface{}{"text": "second"}),
	}

	output := renderer.Render(list, Context{}, Options{})
	html := string(output.HTML)
	if !strings.Contains(html, "first") || !strings.Contains(html, "second") {
		t.Fatalf("expected sibling blocks to render, got %s", html)
	}
	if !reflect.DeepEqual(output.Rendered, []string{"q1", "q2"}) {
		t.Fatalf("unexpected rendered ids: %v", output.Rendered)
	}
	if len(output.Skipped) != 1 || output.Skipped[0].ID != "bad" {
		t.Fatalf("unexpected skipped blocks: %+v", output.Skipped)
	}
}

func TestRenderDebugIDsAndHighlight(t *testing.T) {
	renderer := newTestRenderer()
	list := []models.Block{
		models.NewBlock("q1", "quote", map[string]interface{}{"text": "first"}),
		models.NewBlock("q2", "quote", map[string]interface{}{"text": "second"}),
	}

	plain := string(renderer.Render(list, Context{}, Options{HighlightBlockID: "q1"}).HTML)
	if strings.Contains(plain, "data-block-id") || strings.Contains(plain, "block__badge") {
		t.Fatalf("expected no debug attributes without WithDebugIDs, got %s", plain)
	}

	debug := string(renderer.Render(list, Context{}, Options{WithDebugIDs: true, HighlightBlockID: "q2"}).HTML)
	for _, fragment := range []string{
		`data-block-id="q1"`,
		`data-block-id="q2"`,
		`data-block-type="quote"`,
		`block--highlighted`,
		`<span class="block__badge"`,
	} {
		if !strings.Contains(debug, fragment) {
			t.Fatalf("expected %q in output %s", fragment, debug)
		}
	}
	if strings.Count(debug, "block__badge") != 1 {
		t.Fatalf("expected a single highlight badge")
	}
}

func TestRenderNestedChildrenCarryDebugIDs(t *testing.T) {
	renderer := newTestRenderer()
	container := models.NewBlock("cols", "two-columns", map[string]interface{}{
		"leftColumn": []interface{}{
			map[string]interface{}{"id": "child", "type": "quote", "data": map[string]interface{}{"text": "nested"}},
			map[string]interface{}{"id": "ghost", "type": "nope"},
		},
	})

	output := renderer.Render([]models.Block{container}, Context{}, Options{WithDebugIDs: true})
	html := string(output.HTML)
	if !strings.Contains(html, `data-block-id="child"`) {
		t.Fatalf("expected nested child wrapper, got %s", html)
	}
	if !reflect.DeepEqual(output.Rendered, []string{"child", "cols"}) {
		t.Fatalf("unexpected rendered ids: %v", output.Rendered)
	}
	if len(output.Skipped) != 1 || output.Skipped[0].ID != "ghost" {
		t.Fatalf("expected nested unknown block to be skipped, got %+v", output.Skipped)
	}
}

func TestRenderUsesTemplateOverride(t *testing.T) {
	base := blocks.DefaultRegistry()
	overrides := blocks.NewTemplateRegistry(base)
	if err := overrides.Override("studio", "quote", func(ctx blocks.RenderContext, block models.Block) template.HTML {
		return template.HTML("<q>" + template.HTMLEscapeString(block.String("text")) + "</q>")
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	renderer := NewRenderer(overrides)
	list := []models.Block{models.NewBlock("q", "quote", map[string]interface{}{"text": "hi"})}

	if html := string(renderer.Render(list, Context{}, Options{Template: "studio"}).HTML); !strings.Contains(html, "<q>hi</q>") {
		t.Fatalf("expected override output, got %s", html)
	}
	if html := string(renderer.Render(list, Context{}, Options{}).HTML); strings.Contains(html, "<q>") {
		t.Fatalf("expected default component without template, got %s", html)
	}
}

func TestRenderScrollAnimations(t *testing.T) {
	renderer := newTestRenderer()
	list := []models.Block{models.NewBlock("c", "content-block", map[string]interface{}{"body": "**bold**"})}
	blur := false

	html := string(renderer.Render(list, Context{
		ScrollAnimations: models.ScrollAnimations{Enabled: true, Preset: "fade-in", Blur: &blur},
	}, Options{}).HTML)
	for _, fragment := range []string{
		`data-animation="fade-in"`,
		`data-animation-blur="false"`,
		`data-animation-target="ContentBlock"`,
		`<strong>bold</strong>`,
	} {
		if !strings.Contains(html, fragment) {
			t.Fatalf("expected %q in output %s", fragment, html)
		}
	}

	disabled := string(renderer.Render(list, Context{
		ScrollAnimations: models.ScrollAnimations{Enabled: true, Preset: "none"},
	}, Options{}).HTML)
	if strings.Contains(disabled, "data-animation") {
		t.Fatalf("expected no animation boundary for preset none, got %s", disabled)
	}
}

func TestRenderMarkdownIsSanitised(t *testing.T) {
	renderer := newTestRenderer()
	list := []models.Block{models.NewBlock("c", "content-block", map[string]interface{}{
		"body": "hello <script>alert(1)</script> [x](javascript:alert(1))",
	})}

	html := string(renderer.Render(list, Context{}, Options{}).HTML)
	if strings.Contains(html, "<script>") || strings.Contains(html, "javascript:") {
		t.Fatalf("expected markdown output to be sanitised, got %s", html)
	}
}

func TestRenderThemeAttribute(t *testing.T) {
	renderer := newTestRenderer()
	list := []models.Block{
		models.NewBlock("s", "services", map[string]interface{}{"items": []interface{}{map[string]interface{}{"title": "A"}}}),
		{ID: "q", Type: "quote", Theme: models.ThemeLight, Data: map[string]interface{}{"text": "x"}},
	}

	html := string(renderer.Render(list, Context{}, Options{}).HTML)
	if !strings.Contains(html, `data-block-theme="dark"`) || !strings.Contains(html, `data-block-theme="light"`) {
		t.Fatalf("expected inferred themes in output %s", html)
	}
}

func TestDocumentUsesDefaultLayout(t *testing.T) {
	meta := models.SiteMetadata{
		Palette:    models.Palette{"primary": "#ff0000"},
		Typography: models.Typography{HeadingFont: "Inter; }", BaseSizePx: 18},
		UserTheme:  models.ThemeDark,
	}
	page := NewPage(models.PageContent{Slug: "home", Title: "Home <1>"}, meta, template.HTML("<p>body</p>"))

	var buf bytes.Buffer
	if err := Document(&buf, nil, page); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := buf.String()
	for _, fragment := range []string{
		`data-theme="dark"`,
		`<title>Home &lt;1&gt;</title>`,
		`--color-primary:#ff0000`,
		`--font-heading:Inter`,
		`--font-size-base:18px`,
		`<p>body</p>`,
	} {
		if !strings.Contains(html, fragment) {
			t.Fatalf("expected %q in document %s", fragment, html)
		}
	}
}
