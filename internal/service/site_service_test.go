package service

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"strings"
	"testing"

	"sitebuilder-backend/internal/blocks"
	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/internal/render"
	"sitebuilder-backend/pkg/cache"
)

const siteDocument = `{
	"pages": [
		{"slug": "home", "title": "Home", "blocks": [
			{"id": "hero", "type": "hero-simple", "data": {"title": "Welcome aboard"}},
			{"id": "secret", "type": "quote", "hidden": true, "data": {"text": "Hidden words"}},
			{"id": "shown", "type": "quote", "data": {"text": "Visible words"}}
		]},
		{"slug": "about", "title": "About", "template": "studio", "blocks": [
			{"type": "quote", "text": "Legacy flat quote"}
		]}
	],
	"metadata": {"palette": {"primary": "#112233"}}
}`

type staticStore struct {
	doc   models.SiteDocument
	err   error
	loads int
}

func newStaticStore(t *testing.T) *staticStore {
	t.Helper()
	var doc models.SiteDocument
	if err := json.Unmarshal([]byte(siteDocument), &doc); err != nil {
		t.Fatalf("failed to decode site document: %v", err)
	}
	return &staticStore{doc: doc}
}

func (s *staticStore) Load(context.Context) (models.SiteDocument, error) {
	s.loads++
	return s.doc.Clone(), s.err
}

func (s *staticStore) Save(_ context.Context, doc models.SiteDocument) error {
	s.doc = doc.Clone()
	return nil
}

type layoutStub map[string]*template.Template

func (l layoutStub) Layout(slug string) *template.Template {
	return l[slug]
}

func newSiteService(t *testing.T, store *staticStore, layouts LayoutSource) *SiteService {
	t.Helper()
	renderer := render.NewRenderer(blocks.NewTemplateRegistry(blocks.DefaultRegistry()))
	return NewSiteService(store, renderer, layouts, cache.Disabled())
}

func TestRenderPageOmitsHiddenBlocks(t *testing.T) {
	svc := newSiteService(t, newStaticStore(t), nil)

	output, err := svc.RenderPage(context.Background(), "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := string(output)

	if !strings.HasPrefix(html, "<!DOCTYPE html>") {
		t.Fatalf("expected a full document, got %q", html[:min(len(html), 40)])
	}
	if !strings.Contains(html, "Welcome aboard") || !strings.Contains(html, "Visible words") {
		t.Fatalf("expected visible blocks to render, got %s", html)
	}
	if strings.Contains(html, "Hidden words") {
		t.Fatalf("expected hidden block to be omitted")
	}
	if !strings.Contains(html, "--color-primary") {
		t.Fatalf("expected palette variables in the document")
	}
	if strings.Contains(html, "data-block-id") {
		t.Fatalf("expected published pages without editor markers")
	}
	if !strings.Contains(html, `<script src="`+render.ThemeScriptPath+`" defer></script>`) {
		t.Fatalf("expected published page to load the theme script, got %s", html)
	}
	if !strings.Contains(html, `data-block-theme="`) {
		t.Fatalf("expected block wrappers to carry their theme")
	}
}

func TestRenderPageUsesTemplateLayout(t *testing.T) {
	layout := template.Must(template.New("layout").Parse(`<studio>{{.Template}}|{{.Body}}</studio>`))
	svc := newSiteService(t, newStaticStore(t), layoutStub{"studio": layout})

	output, err := svc.RenderPage(context.Background(), "About", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := string(output)
	if !strings.HasPrefix(html, "<studio>studio|") {
		t.Fatalf("expected studio layout, got %s", html)
	}
	if !strings.Contains(html, "Legacy flat quote") {
		t.Fatalf("expected legacy block to be normalized and rendered, got %s", html)
	}

	output, err = svc.RenderPage(context.Background(), "about", "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.HasPrefix(string(output), "<studio>") {
		t.Fatalf("expected override to replace the page template")
	}
}

func TestRenderPageErrors(t *testing.T) {
	store := newStaticStore(t)
	svc := newSiteService(t, store, nil)

	if _, err := svc.RenderPage(context.Background(), "missing", ""); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}

	store.err = errors.New("database down")
	if _, err := svc.RenderPage(context.Background(), "home", ""); err == nil || errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestInvalidateCacheWithDisabledCache(t *testing.T) {
	svc := newSiteService(t, newStaticStore(t), nil)
	svc.InvalidateCache(context.Background(), models.SiteDocument{})
}
