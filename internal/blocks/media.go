package blocks

import (
	"html/template"
	"strconv"
	"strings"

	"sitebuilder-backend/internal/models"
)

// RegisterMedia registers the image, gallery grid and carousel blocks.
func RegisterMedia(reg *Registry) {
	if reg == nil {
		return
	}

	reg.MustRegister(NewBuilder("image").
		WithLabel("Image").
		WithDescription("A single image with optional caption and link").
		WithCategory("media").
		WithIcon("image").
		WithComponent(renderImage).
		AddImageField("src", "Image", true).
		AddStringField("alt", "Alternative text", false, "").
		AddStringField("caption", "Caption", false, "").
		AddStringField("link", "Link", false, "").
		AddEnumField("size", "Size", []string{"full", "wide", "narrow"}, "full").
		MustBuild())

	reg.MustRegister(NewBuilder("gallery-grid").
		WithLabel("Gallery grid").
		WithDescription("Images laid out in a responsive grid").
		WithCategory("media").
		WithIcon("grid").
		WithComponent(renderGalleryGrid).
		AddListField("images", "Images").
		AddNumberField("columns", "Columns", 3).
		AddEnumField("gap", "Gap", []string{"none", "small", "medium", "large"}, "medium").
		MustBuild())

	reg.MustRegister(NewBuilder("carousel").
		WithLabel("Carousel").
		WithDescription("Images shown one at a time with navigation").
		WithCategory("media").
		WithIcon("film").
		WithComponent(renderCarousel).
		AddListField("images", "Images").
		AddBooleanField("autoplay", "Autoplay", false).
		AddNumberField("interval", "Interval (ms)", 5000).
		MustBuild())
}

func renderImage(ctx RenderContext, block models.Block) template.HTML {
	content := block.Data
	src := safeURL(firstString(content, "src", "url", "image"))
	if src == "" {
		return placeholder(block.Type, "No image selected")
	}
	alt := getString(content, "alt")
	caption := getString(content, "caption")
	link := safeURL(getString(content, "link"))
	size := getString(content, "size")
	switch size {
	case "full", "wide", "narrow":
	default:
		size = "full"
	}

	class := block.Type
	var sb strings.Builder
	sb.WriteString(`<figure class="` + class + ` ` + class + `--` + size + `">`)
	if link != "" {
		sb.WriteString(`<a class="` + elementClass(class, "link") + `" href="` + link + `">`)
	}
	writeImage(&sb, elementClass(class, "img"), src, alt)
	if link != "" {
		sb.WriteString(`</a>`)
	}
	if caption != "" {
		sb.WriteString(`<figcaption class="` + elementClass(class, "caption") + `">` + ctx.SanitizeHTML(caption) + `</figcaption>`)
	}
	sb.WriteString(`</figure>`)
	return template.HTML(sb.String())
}

func renderGalleryGrid(ctx RenderContext, block models.Block) template.HTML {
	content := block.Data
	items := getItems(content, "images")
	if len(items) == 0 {
		return placeholder(block.Type, "No images selected")
	}

	columns := getInt(content, "columns", 3)
	if columns < 1 {
		columns = 1
	}
	if columns > 6 {
		columns = 6
	}
	gap := getString(content, "gap")
	switch gap {
	case "none", "small", "medium", "large":
	default:
		gap = "medium"
	}

	class := block.Type
	var sb strings.Builder
	sb.WriteString(`<div class="` + class + ` ` + class + `--gap-` + gap + `" style="--gallery-columns:` + strconv.Itoa(columns) + `">`)
	for _, item := range items {
		src := imageSource(item)
		if src == "" {
			continue
		}
		sb.WriteString(`<figure class="` + elementClass(class, "item") + `">`)
		writeImage(&sb, elementClass(class, "img"), src, getString(item, "alt"))
		if caption := getString(item, "caption"); caption != "" {
			sb.WriteString(`<figcaption class="` + elementClass(class, "caption") + `">` + ctx.SanitizeHTML(caption) + `</figcaption>`)
		}
		sb.WriteString(`</figure>`)
	}
	sb.WriteString(`</div>`)
	return template.HTML(sb.String())
}

func renderCarousel(ctx RenderContext, block models.Block) template.HTML {
	content := block.Data
	items := getItems(content, "images")
	if len(items) == 0 {
		return placeholder(block.Type, "No images selected")
	}

	interval := getInt(content, "interval", 5000)
	if interval < 1000 {
		interval = 1000
	}

	class := block.Type
	var sb strings.Builder
	sb.WriteString(`<div class="` + class + `" data-autoplay="` + strconv.FormatBool(parseBool(content["autoplay"], false)) + `" data-interval="` + strconv.Itoa(interval) + `">`)
	sb.WriteString(`<div class="` + elementClass(class, "track") + `">`)
	slide := 0
	for _, item := range items {
		src := imageSource(item)
		if src == "" {
			continue
		}
		sb.WriteString(`<div class="` + elementClass(class, "slide") + `" data-slide="` + strconv.Itoa(slide) + `">`)
		writeImage(&sb, elementClass(class, "img"), src, getString(item, "alt"))
		if caption := getString(item, "caption"); caption != "" {
			sb.WriteString(`<p class="` + elementClass(class, "caption") + `">` + ctx.SanitizeHTML(caption) + `</p>`)
		}
		sb.WriteString(`</div>`)
		slide++
	}
	sb.WriteString(`</div>`)
	if slide > 1 {
		sb.WriteString(`<button type="button" class="` + elementClass(class, "prev") + `" aria-label="Previous">&#8249;</button>`)
		sb.WriteString(`<button type="button" class="` + elementClass(class, "next") + `" aria-label="Next">&#8250;</button>`)
	}
	sb.WriteString(`</div>`)
	return template.HTML(sb.String())
}
