package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"sitebuilder-backend/internal/blocks"
	"sitebuilder-backend/internal/content"
	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/internal/render"
	"sitebuilder-backend/pkg/cache"
	"sitebuilder-backend/pkg/logger"
)

var ErrPageNotFound = errors.New("page not found")

// LayoutSource resolves the page layout of a template.
type LayoutSource interface {
	Layout(slug string) *template.Template
}

// SiteService renders the published site.
type SiteService struct {
	store    content.Store
	renderer *render.Renderer
	layouts  LayoutSource
	cache    *cache.PageCache
}

func NewSiteService(store content.Store, renderer *render.Renderer, layouts LayoutSource, cacheService *cache.PageCache) *SiteService {
	return &SiteService{
		store:    store,
		renderer: renderer,
		layouts:  layouts,
		cache:    cacheService,
	}
}

// RenderPage renders the page with slug as a full HTML document. An empty
// slug selects the first page. templateOverride renders the page with
// another installed template instead of the one the site chose.
func (s *SiteService) RenderPage(ctx context.Context, slug, templateOverride string) ([]byte, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	templateOverride = strings.ToLower(strings.TrimSpace(templateOverride))

	if s.cache.Enabled() {
		if html, err := s.cache.Get(ctx, templateOverride, slug); err == nil {
			return []byte(html), nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn("Failed to read cached page", map[string]interface{}{"slug": slug, "template": templateOverride, "error": err.Error()})
		}
	}

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load site content: %w", err)
	}

	page, ok := selectPage(doc, slug)
	if !ok {
		return nil, ErrPageNotFound
	}

	output, err := s.renderDocument(page, doc.Metadata, templateOverride)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Put(ctx, templateOverride, slug, string(output)); err != nil {
			logger.Warn("Failed to cache page", map[string]interface{}{"slug": slug, "template": templateOverride, "error": err.Error()})
		}
	}

	return output, nil
}

func (s *SiteService) renderDocument(page models.PageContent, meta models.SiteMetadata, templateOverride string) ([]byte, error) {
	normalized := blocks.NormalizeBlocks(page.Blocks)
	visible := blocks.Project(normalized, blocks.HiddenFromBlocks(normalized))

	templateName := templateOverride
	if templateName == "" {
		templateName = page.Template
	}
	if templateName == "" {
		templateName = meta.Template
	}

	output := s.renderer.Render(visible, render.ContextFromMetadata(meta), render.Options{Template: templateName})

	layoutData := render.NewPage(page, meta, output.HTML)
	layoutData.Template = templateName
	layoutData.Scripts = append(layoutData.Scripts, render.ThemeScriptPath)

	var layout *template.Template
	if s.layouts != nil {
		layout = s.layouts.Layout(templateName)
	}

	var buf bytes.Buffer
	if err := render.Document(&buf, layout, layoutData); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// InvalidateCache drops every cached page. Its signature matches
// content.SaveHook.
func (s *SiteService) InvalidateCache(ctx context.Context, _ models.SiteDocument) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		logger.Error(err, "Failed to invalidate page cache", nil)
	}
}

func selectPage(doc models.SiteDocument, slug string) (models.PageContent, bool) {
	if len(doc.Pages) == 0 {
		return models.PageContent{}, false
	}
	if slug == "" {
		return doc.Pages[0], true
	}
	index := doc.FindPage(slug)
	if index < 0 {
		return models.PageContent{}, false
	}
	return doc.Pages[index], true
}
