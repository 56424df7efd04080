package blocks

import (
	"html/template"
	"strconv"
	"strings"

	"sitebuilder-backend/internal/constants"
	"sitebuilder-backend/internal/models"
)

// RegisterHeroes registers the three hero block types.
func RegisterHeroes(reg *Registry) {
	if reg == nil {
		return
	}

	reg.MustRegister(NewBuilder(constants.BlockTypeHeroSimple).
		WithLabel("Hero").
		WithDescription("Headline, subtitle, background image and call-to-action button").
		WithCategory("hero").
		WithIcon("star").
		WithComponent(renderHeroSimple).
		AddStringField("title", "Title", true, "Welcome").
		AddStringField("subtitle", "Subtitle", false, "").
		AddImageField("image", "Background image", false).
		AddStringField("buttonText", "Button text", false, "").
		AddStringField("buttonUrl", "Button link", false, "").
		MustBuild())

	reg.MustRegister(NewBuilder(constants.BlockTypeHeroFloatingGallery).
		WithLabel("Hero with floating gallery").
		WithDescription("Large headline over a cluster of floating images").
		WithCategory("hero").
		WithIcon("images").
		WithComponent(renderHeroFloatingGallery).
		AddStringField("title", "Title", true, "Selected work").
		AddStringField("subtitle", "Subtitle", false, "").
		AddListField("images", "Images").
		MustBuild())

	reg.MustRegister(NewBuilder(constants.BlockTypeMouseImageGallery).
		WithLabel("Mouse trail gallery").
		WithDescription("Images that follow the cursor behind a headline").
		WithCategory("hero").
		WithIcon("mouse-pointer").
		WithComponent(renderMouseImageGallery).
		AddStringField("title", "Title", true, "Hello").
		AddListField("images", "Images").
		AddNumberField("threshold", "Distance between images (px)", 80).
		MustBuild())
}

func renderHeroSimple(ctx RenderContext, block models.Block) template.HTML {
	content := block.Data
	title := getString(content, "title")
	if title == "" {
		return placeholder(block.Type, "Add a title to this hero")
	}
	subtitle := getString(content, "subtitle")
	image := safeURL(firstString(content, "image", "backgroundImage", "src"))
	buttonText := getString(content, "buttonText")
	buttonURL := safeURL(firstString(content, "buttonUrl", "buttonLink"))

	class := block.Type
	var sb strings.Builder
	sb.WriteString(`<section class="hero ` + class + `">`)
	if image != "" {
		sb.WriteString(`<div class="` + elementClass(class, "media") + `">`)
		writeImage(&sb, elementClass(class, "image"), image, title)
		sb.WriteString(`</div>`)
	}
	sb.WriteString(`<div class="` + elementClass(class, "content") + `">`)
	sb.WriteString(`<h1 class="` + elementClass(class, "title") + `">` + ctx.SanitizeHTML(title) + `</h1>`)
	if subtitle != "" {
		sb.WriteString(`<p class="` + elementClass(class, "subtitle") + `">` + ctx.SanitizeHTML(subtitle) + `</p>`)
	}
	if buttonText != "" && buttonURL != "" {
		sb.WriteString(`<a class="` + elementClass(class, "button") + `" href="` + buttonURL + `">`)
		sb.WriteString(template.HTMLEscapeString(buttonText))
		sb.WriteString(`</a>`)
	}
	sb.WriteString(`</div>`)
	sb.WriteString(`</section>`)
	return template.HTML(sb.String())
}

func renderHeroFloatingGallery(ctx RenderContext, block models.Block) template.HTML {
	return renderImageHero(ctx, block, "floating")
}

func renderMouseImageGallery(ctx RenderContext, block models.Block) template.HTML {
	return renderImageHero(ctx, block, "trail")
}

// renderImageHero renders the headline and image set shared by the gallery
// heroes. The motion itself is applied client-side from the data attributes.
func renderImageHero(ctx RenderContext, block models.Block, motion string) template.HTML {
	content := block.Data
	title := getString(content, "title")
	items := getItems(content, "images")
	if title == "" && len(items) == 0 {
		return placeholder(block.Type, "No images selected")
	}

	class := block.Type
	var sb strings.Builder
	sb.WriteString(`<section class="hero ` + class + `" data-motion="` + motion + `"`)
	if motion == "trail" {
		sb.WriteString(` data-threshold="` + strconv.Itoa(getInt(content, "threshold", 80)) + `"`)
	}
	sb.WriteString(`>`)

	sb.WriteString(`<div class="` + elementClass(class, "images") + `">`)
	for i, item := range items {
		src := imageSource(item)
		if src == "" {
			continue
		}
		sb.WriteString(`<figure class="` + elementClass(class, "item") + `" data-index="` + strconv.Itoa(i) + `">`)
		writeImage(&sb, elementClass(class, "image"), src, getString(item, "alt"))
		sb.WriteString(`</figure>`)
	}
	sb.WriteString(`</div>`)

	if title != "" {
		sb.WriteString(`<div class="` + elementClass(class, "content") + `">`)
		sb.WriteString(`<h1 class="` + elementClass(class, "title") + `">` + ctx.SanitizeHTML(title) + `</h1>`)
		if subtitle := getString(content, "subtitle"); subtitle != "" {
			sb.WriteString(`<p class="` + elementClass(class, "subtitle") + `">` + ctx.SanitizeHTML(subtitle) + `</p>`)
		}
		sb.WriteString(`</div>`)
	}

	sb.WriteString(`</section>`)
	return template.HTML(sb.String())
}
