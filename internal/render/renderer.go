package render

import (
	"bytes"
	"html/template"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"sitebuilder-backend/internal/blocks"
	"sitebuilder-backend/internal/constants"
	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/pkg/logger"
)

// Context carries the site-wide configuration blocks are rendered with.
type Context struct {
	Typography       models.Typography
	ScrollAnimations models.ScrollAnimations
	Palette          models.Palette
	UserTheme        models.Theme
}

// ContextFromMetadata builds a render context from site metadata.
func ContextFromMetadata(meta models.SiteMetadata) Context {
	return Context{
		Typography:       meta.Typography,
		ScrollAnimations: meta.ScrollAnimations,
		Palette:          meta.Palette,
		UserTheme:        meta.UserTheme,
	}
}

// Options tune a single render call.
type Options struct {
	// Template selects the override tier. Empty means the default template.
	Template string
	// WithDebugIDs marks every block wrapper with its id and type so the
	// preview can map clicks and selections back to blocks.
	WithDebugIDs bool
	// HighlightBlockID draws an outline and type badge around one block.
	// It only has an effect together with WithDebugIDs.
	HighlightBlockID string
}

// Skipped describes a block that produced no output.
type Skipped struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Output is the result of rendering a block list.
type Output struct {
	HTML     template.HTML
	Rendered []string
	Skipped  []Skipped
}

// Renderer turns block lists into HTML through the template override registry.
type Renderer struct {
	overrides *blocks.TemplateRegistry
	sanitizer *bluemonday.Policy
	markdown  goldmark.Markdown
}

// NewRenderer creates a renderer resolving components through overrides.
func NewRenderer(overrides *blocks.TemplateRegistry) *Renderer {
	return &Renderer{
		overrides: overrides,
		sanitizer: bluemonday.UGCPolicy(),
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Overrides returns the template override registry used for resolution.
func (r *Renderer) Overrides() *blocks.TemplateRegistry {
	if r == nil {
		return nil
	}
	return r.overrides
}

// Render renders blocks in order. A block whose type resolves to no
// component is logged and skipped; its siblings still render.
func (r *Renderer) Render(list []models.Block, ctx Context, opts Options) Output {
	pass := &renderPass{renderer: r, ctx: ctx, opts: opts}

	var sb strings.Builder
	for index, block := range list {
		html, ok := pass.renderBlock(block, index, 0)
		if !ok {
			continue
		}
		if ctx.ScrollAnimations.Enabled {
			html = animate(block, html, ctx.ScrollAnimations)
		}
		sb.WriteString(string(html))
	}

	return Output{
		HTML:     template.HTML(sb.String()),
		Rendered: pass.rendered,
		Skipped:  pass.skipped,
	}
}

// renderPass is the blocks.RenderContext handed to components during one Render call.
type renderPass struct {
	renderer *Renderer
	ctx      Context
	opts     Options
	depth    int
	rendered []string
	skipped  []Skipped
}

func (p *renderPass) SanitizeHTML(input string) string {
	return p.renderer.sanitizer.Sanitize(input)
}

func (p *renderPass) Markdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := p.renderer.markdown.Convert([]byte(source), &buf); err != nil {
		logger.Warn("Failed to convert markdown", map[string]interface{}{"error": err.Error()})
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(p.renderer.sanitizer.SanitizeBytes(buf.Bytes()))
}

func (p *renderPass) RenderChildren(children []models.Block) template.HTML {
	var sb strings.Builder
	p.depth++
	for index, child := range children {
		html, ok := p.renderBlock(child, index, p.depth)
		if ok {
			sb.WriteString(string(html))
		}
	}
	p.depth--
	return template.HTML(sb.String())
}

func (p *renderPass) Palette() models.Palette {
	return p.ctx.Palette
}

func (p *renderPass) renderBlock(block models.Block, index, depth int) (template.HTML, bool) {
	component, ok := p.renderer.overrides.ResolveComponent(p.opts.Template, block.Type)
	if !ok {
		logger.Warn("Skipping block with unknown type", map[string]interface{}{
			"block_id":   block.ID,
			"block_type": block.Type,
			"template":   p.opts.Template,
		})
		p.skipped = append(p.skipped, Skipped{ID: block.ID, Type: block.Type})
		return "", false
	}

	inner := component(p, block)
	p.rendered = append(p.rendered, block.ID)
	return p.wrap(block, index, depth, inner), true
}

// wrap adds the block wrapper element carrying theme and, when requested,
// debug attributes.
func (p *renderPass) wrap(block models.Block, index, depth int, inner template.HTML) template.HTML {
	theme := InferTheme(block, p.ctx.UserTheme)
	highlighted := p.opts.WithDebugIDs && p.opts.HighlightBlockID != "" && p.opts.HighlightBlockID == block.ID

	classes := []string{"block", "block--" + template.HTMLEscapeString(block.Type)}
	if highlighted {
		classes = append(classes, "block--highlighted")
	}

	var sb strings.Builder
	sb.WriteString(`<div class="` + strings.Join(classes, " ") + `"`)
	sb.WriteString(` data-block-theme="` + string(theme) + `"`)
	if depth == 0 {
		sb.WriteString(` data-block-index="` + strconv.Itoa(index) + `"`)
	}
	if p.opts.WithDebugIDs {
		sb.WriteString(` data-block-id="` + template.HTMLEscapeString(block.ID) + `"`)
		sb.WriteString(` data-block-type="` + template.HTMLEscapeString(block.Type) + `"`)
	}
	if highlighted {
		sb.WriteString(` style="outline:2px solid #3b82f6;outline-offset:-2px;position:relative"`)
	}
	sb.WriteString(`>`)
	if highlighted {
		sb.WriteString(`<span class="block__badge" style="position:absolute;top:0;left:0;z-index:10;padding:2px 6px;font:12px/1.4 sans-serif;color:#fff;background:#3b82f6">`)
		sb.WriteString(template.HTMLEscapeString(block.Type))
		sb.WriteString(`</span>`)
	}
	sb.WriteString(string(inner))
	sb.WriteString(`</div>`)
	return template.HTML(sb.String())
}

// animate wraps a root block in the scroll animation boundary.
func animate(block models.Block, html template.HTML, config models.ScrollAnimations) template.HTML {
	preset := constants.NormaliseBlockAnimation(config.Preset)
	if preset == "none" {
		return html
	}
	blur := constants.NormaliseBlockAnimationBlur(config.Blur)

	var sb strings.Builder
	sb.WriteString(`<div class="block-animation block-animation--` + preset + `"`)
	sb.WriteString(` data-animation="` + preset + `"`)
	sb.WriteString(` data-animation-blur="` + strconv.FormatBool(blur) + `"`)
	sb.WriteString(` data-animation-target="` + AnimationClassName(block.Type) + `">`)
	sb.WriteString(string(html))
	sb.WriteString(`</div>`)
	return template.HTML(sb.String())
}
