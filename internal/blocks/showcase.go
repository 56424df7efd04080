package blocks

import (
	"html/template"
	"strings"

	"sitebuilder-backend/internal/models"
)

// RegisterShowcase registers the services, projects and logos blocks.
func RegisterShowcase(reg *Registry) {
	if reg == nil {
		return
	}

	reg.MustRegister(NewBuilder("services").
		WithLabel("Services").
		WithDescription("A list of services with short descriptions").
		WithCategory("content").
		WithIcon("briefcase").
		WithComponent(renderServices).
		AddStringField("title", "Title", false, "Services").
		AddListField("items", "Services").
		MustBuild())

	reg.MustRegister(NewBuilder("projects").
		WithLabel("Projects").
		WithDescription("Project cards with cover image and link").
		WithCategory("content").
		WithIcon("folder").
		WithComponent(renderProjects).
		AddStringField("title", "Title", false, "Projects").
		AddListField("items", "Projects").
		MustBuild())

	reg.MustRegister(NewBuilder("logos").
		WithLabel("Logos").
		WithDescription("A row of client or partner logos").
		WithCategory("media").
		WithIcon("award").
		WithComponent(renderLogos).
		AddStringField("title", "Title", false, "").
		AddListField("logos", "Logos").
		MustBuild())
}

func renderServices(ctx RenderContext, block models.Block) template.HTML {
	content := block.Data
	items := getItems(content, "items")
	if len(items) == 0 {
		items = getItems(content, "services")
	}
	if len(items) == 0 {
		return placeholder(block.Type, "No services added")
	}

	class := block.Type
	var sb strings.Builder
	sb.WriteString(`<section class="` + class + `">`)
	writeHeading(ctx, &sb, class, getString(content, "title"))
	sb.WriteString(`<ol class="` + elementClass(class, "list") + `">`)
	for _, item := range items {
		title := firstString(item, "title", "name")
		if title == "" {
			continue
		}
		sb.WriteString(`<li class="` + elementClass(class, "item") + `">`)
		sb.WriteString(`<h3 class="` + elementClass(class, "item-title") + `">` + ctx.SanitizeHTML(title) + `</h3>`)
		if description := getString(item, "description"); description != "" {
			sb.WriteString(`<p class="` + elementClass(class, "item-description") + `">` + ctx.SanitizeHTML(description) + `</p>`)
		}
		sb.WriteString(`</li>`)
	}
	sb.WriteString(`</ol>`)
	sb.WriteString(`</section>`)
	return template.HTML(sb.String())
}

func renderProjects(ctx RenderContext, block models.Block) template.HTML {
	content := block.Data
	items := getItems(content, "items")
	if len(items) == 0 {
		items = getItems(content, "projects")
	}
	if len(items) == 0 {
		return placeholder(block.Type, "No projects added")
	}

	class := block.Type
	var sb strings.Builder
	sb.WriteString(`<section class="` + class + `">`)
	writeHeading(ctx, &sb, class, getString(content, "title"))
	sb.WriteString(`<div class="` + elementClass(class, "grid") + `">`)
	for _, item := range items {
		title := firstString(item, "title", "name")
		if title == "" {
			continue
		}
		link := safeURL(firstString(item, "url", "link"))
		tag := "div"
		if link != "" {
			tag = "a"
		}
		sb.WriteString(`<` + tag + ` class="` + elementClass(class, "card") + `"`)
		if link != "" {
			sb.WriteString(` href="` + link + `"`)
		}
		sb.WriteString(`>`)
		if cover := safeURL(firstString(item, "image", "cover", "src")); cover != "" {
			writeImage(&sb, elementClass(class, "cover"), cover, title)
		}
		sb.WriteString(`<h3 class="` + elementClass(class, "card-title") + `">` + ctx.SanitizeHTML(title) + `</h3>`)
		if description := getString(item, "description"); description != "" {
			sb.WriteString(`<p class="` + elementClass(class, "card-description") + `">` + ctx.SanitizeHTML(description) + `</p>`)
		}
		sb.WriteString(`</` + tag + `>`)
	}
	sb.WriteString(`</div>`)
	sb.WriteString(`</section>`)
	return template.HTML(sb.String())
}

func renderLogos(ctx RenderContext, block models.Block) template.HTML {
	content := block.Data
	items := getItems(content, "logos")
	if len(items) == 0 {
		items = getItems(content, "images")
	}
	if len(items) == 0 {
		return placeholder(block.Type, "No logos added")
	}

	class := block.Type
	var sb strings.Builder
	sb.WriteString(`<section class="` + class + `">`)
	writeHeading(ctx, &sb, class, getString(content, "title"))
	sb.WriteString(`<ul class="` + elementClass(class, "list") + `">`)
	for _, item := range items {
		src := imageSource(item)
		if src == "" {
			continue
		}
		sb.WriteString(`<li class="` + elementClass(class, "item") + `">`)
		link := safeURL(getString(item, "link"))
		if link != "" {
			sb.WriteString(`<a href="` + link + `">`)
		}
		writeImage(&sb, elementClass(class, "img"), src, firstString(item, "alt", "name"))
		if link != "" {
			sb.WriteString(`</a>`)
		}
		sb.WriteString(`</li>`)
	}
	sb.WriteString(`</ul>`)
	sb.WriteString(`</section>`)
	return template.HTML(sb.String())
}

func writeHeading(ctx RenderContext, sb *strings.Builder, class, title string) {
	if title == "" {
		return
	}
	sb.WriteString(`<h2 class="` + elementClass(class, "title") + `">` + ctx.SanitizeHTML(title) + `</h2>`)
}
