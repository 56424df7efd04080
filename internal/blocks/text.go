package blocks

import (
	"html/template"
	"strconv"
	"strings"

	"sitebuilder-backend/internal/models"
)

// RegisterText registers the content, scrolling text and quote blocks.
func RegisterText(reg *Registry) {
	if reg == nil {
		return
	}

	reg.MustRegister(NewBuilder("content-block").
		WithLabel("Content").
		WithDescription("Rich text written in markdown").
		WithCategory("content").
		WithIcon("align-left").
		WithComponent(renderContentBlock).
		AddStringField("title", "Title", false, "").
		AddTextField("body", "Body", "").
		AddEnumField("align", "Alignment", []string{"left", "center", "right"}, "left").
		MustBuild())

	reg.MustRegister(NewBuilder("scrolling-text").
		WithLabel("Scrolling text").
		WithDescription("A marquee line of large text").
		WithCategory("content").
		WithIcon("type").
		WithComponent(renderScrollingText).
		AddStringField("text", "Text", true, "Scrolling text").
		AddEnumField("direction", "Direction", []string{"left", "right"}, "left").
		AddNumberField("speed", "Speed", 50).
		MustBuild())

	reg.MustRegister(NewBuilder("quote").
		WithLabel("Quote").
		WithDescription("A testimonial or pull quote").
		WithCategory("content").
		WithIcon("message-square").
		WithComponent(renderQuote).
		AddTextField("text", "Quote", "").
		AddStringField("author", "Author", false, "").
		AddStringField("role", "Role", false, "").
		MustBuild())
}

func renderContentBlock(ctx RenderContext, block models.Block) template.HTML {
	content := block.Data
	title := getString(content, "title")
	body := firstString(content, "body", "content", "text")
	if title == "" && body == "" {
		return placeholder(block.Type, "This block has no content yet")
	}
	align := getString(content, "align")
	switch align {
	case "left", "center", "right":
	default:
		align = "left"
	}

	class := block.Type
	var sb strings.Builder
	sb.WriteString(`<section class="` + class + ` ` + class + `--` + align + `">`)
	writeHeading(ctx, &sb, class, title)
	if body != "" {
		sb.WriteString(`<div class="` + elementClass(class, "body") + `">`)
		sb.WriteString(string(ctx.Markdown(body)))
		sb.WriteString(`</div>`)
	}
	sb.WriteString(`</section>`)
	return template.HTML(sb.String())
}

func renderScrollingText(ctx RenderContext, block models.Block) template.HTML {
	content := block.Data
	text := getString(content, "text")
	if text == "" {
		return placeholder(block.Type, "Add text to scroll")
	}
	direction := getString(content, "direction")
	if direction != "right" {
		direction = "left"
	}
	speed := getInt(content, "speed", 50)
	if speed <= 0 {
		speed = 50
	}

	class := block.Type
	sanitized := ctx.SanitizeHTML(text)
	var sb strings.Builder
	sb.WriteString(`<div class="` + class + `" data-direction="` + direction + `" data-speed="` + strconv.Itoa(speed) + `">`)
	sb.WriteString(`<div class="` + elementClass(class, "track") + `">`)
	// Two copies let the marquee loop without a gap.
	for i := 0; i < 2; i++ {
		sb.WriteString(`<span class="` + elementClass(class, "item") + `"`)
		if i > 0 {
			sb.WriteString(` aria-hidden="true"`)
		}
		sb.WriteString(`>` + sanitized + `</span>`)
	}
	sb.WriteString(`</div>`)
	sb.WriteString(`</div>`)
	return template.HTML(sb.String())
}

func renderQuote(ctx RenderContext, block models.Block) template.HTML {
	content := block.Data
	text := firstString(content, "text", "quote")
	if text == "" {
		return placeholder(block.Type, "Add the quote text")
	}

	class := block.Type
	var sb strings.Builder
	sb.WriteString(`<figure class="` + class + `">`)
	sb.WriteString(`<blockquote class="` + elementClass(class, "text") + `">` + ctx.SanitizeHTML(text) + `</blockquote>`)
	author := getString(content, "author")
	role := getString(content, "role")
	if author != "" || role != "" {
		sb.WriteString(`<figcaption class="` + elementClass(class, "caption") + `">`)
		if author != "" {
			sb.WriteString(`<span class="` + elementClass(class, "author") + `">` + template.HTMLEscapeString(author) + `</span>`)
		}
		if role != "" {
			sb.WriteString(`<span class="` + elementClass(class, "role") + `">` + template.HTMLEscapeString(role) + `</span>`)
		}
		sb.WriteString(`</figcaption>`)
	}
	sb.WriteString(`</figure>`)
	return template.HTML(sb.String())
}
