package theme

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"sitebuilder-backend/internal/blocks"
	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/pkg/logger"
	"sitebuilder-backend/pkg/utils"
)

// BlockView is the data a block override template is executed with.
type BlockView struct {
	ID      string
	Type    string
	Theme   models.Theme
	Data    map[string]interface{}
	Columns map[string]template.HTML
	Palette models.Palette
}

func templateFuncs(t *Template) template.FuncMap {
	funcs := utils.BlockTemplateFuncs(t.AssetModTime)
	// Rebound to the render pass before every execution.
	funcs["markdown"] = func(string) template.HTML { return "" }
	funcs["sanitize"] = func(string) template.HTML { return "" }
	return funcs
}

// loadBlockOverrides parses every blocks/<type>.html file into a component.
// A missing directory yields no overrides.
func loadBlockOverrides(dir string, funcs template.FuncMap) (map[string]blocks.Component, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	overrides := make(map[string]blocks.Component)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".html" {
			continue
		}

		blockType := strings.ToLower(strings.TrimSuffix(name, ".html"))
		parsed, err := template.New(name).Funcs(funcs).ParseFiles(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("parse block override %s: %w", name, err)
		}
		overrides[blockType] = newTemplateComponent(parsed)
	}

	return overrides, nil
}

func loadLayout(templatePath string, funcs template.FuncMap) (*template.Template, error) {
	path := filepath.Join(templatePath, "layout.html")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	layout, err := template.New("layout.html").Funcs(funcs).ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return layout, nil
}

// newTemplateComponent adapts a parsed override template to a block component.
// Every render executes a clone so the markdown and sanitize helpers can be
// bound to the current render pass.
func newTemplateComponent(tmpl *template.Template) blocks.Component {
	return func(ctx blocks.RenderContext, block models.Block) template.HTML {
		clone, err := tmpl.Clone()
		if err != nil {
			logger.Error(err, "Failed to clone block template", map[string]interface{}{
				"block_type": block.Type,
			})
			return ""
		}
		clone.Funcs(template.FuncMap{
			"markdown": ctx.Markdown,
			"sanitize": func(input string) template.HTML {
				return template.HTML(ctx.SanitizeHTML(input))
			},
		})

		view := BlockView{
			ID:      block.ID,
			Type:    block.Type,
			Theme:   block.Theme,
			Data:    block.Data,
			Palette: ctx.Palette(),
		}
		if view.Data == nil {
			view.Data = map[string]interface{}{}
		}
		if keys := block.ColumnKeys(); keys != nil {
			view.Columns = make(map[string]template.HTML, len(keys))
			for _, key := range keys {
				view.Columns[key] = ctx.RenderChildren(block.Columns[key])
			}
		}

		var buf bytes.Buffer
		if err := clone.Execute(&buf, view); err != nil {
			logger.Error(err, "Failed to execute block template", map[string]interface{}{
				"block_id":   block.ID,
				"block_type": block.Type,
			})
			return ""
		}
		return template.HTML(buf.String())
	}
}
