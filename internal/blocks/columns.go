package blocks

import (
	"html/template"
	"strings"

	"sitebuilder-backend/internal/constants"
	"sitebuilder-backend/internal/models"
)

// RegisterColumns registers the two, three and four column containers.
func RegisterColumns(reg *Registry) {
	if reg == nil {
		return
	}

	containers := []struct {
		blockType   string
		label       string
		description string
	}{
		{constants.BlockTypeTwoColumns, "Two columns", "Place blocks side by side in two columns"},
		{constants.BlockTypeThreeColumns, "Three columns", "Place blocks side by side in three columns"},
		{constants.BlockTypeFourColumns, "Four columns", "Place blocks side by side in four columns"},
	}

	for _, container := range containers {
		builder := NewBuilder(container.blockType).
			WithLabel(container.label).
			WithDescription(container.description).
			WithCategory("layout").
			WithIcon("columns").
			WithComponent(renderColumns).
			AddEnumField("gap", "Gap", []string{"none", "small", "medium", "large"}, "medium").
			AddEnumField("align", "Vertical alignment", []string{"start", "center", "end", "stretch"}, "start").
			AddBooleanField("stackOnMobile", "Stack on mobile", true)
		for _, key := range constants.ColumnKeys(container.blockType) {
			builder.WithDefault(key, []interface{}{})
		}
		reg.MustRegister(builder.MustBuild())
	}
}

func renderColumns(ctx RenderContext, block models.Block) template.HTML {
	keys := block.ColumnKeys()
	if keys == nil {
		return ""
	}

	content := block.Data
	gap := getString(content, "gap")
	switch gap {
	case "none", "small", "medium", "large":
	default:
		gap = "medium"
	}
	align := getString(content, "align")
	switch align {
	case "start", "center", "end", "stretch":
	default:
		align = "start"
	}

	class := "columns"
	var sb strings.Builder
	sb.WriteString(`<div class="` + class + ` ` + block.Type + ` ` + class + `--gap-` + gap + ` ` + class + `--align-` + align)
	if parseBool(content["stackOnMobile"], true) {
		sb.WriteString(` ` + class + `--stack`)
	}
	sb.WriteString(`">`)
	for _, key := range keys {
		sb.WriteString(`<div class="` + elementClass(class, "column") + `" data-column="` + key + `">`)
		sb.WriteString(string(ctx.RenderChildren(block.Columns[key])))
		sb.WriteString(`</div>`)
	}
	sb.WriteString(`</div>`)
	return template.HTML(sb.String())
}
