package blocks

import (
	"reflect"
	"testing"

	"sitebuilder-backend/internal/models"
)

func TestResolveComponentFallbackTiers(t *testing.T) {
	base := NewRegistry()
	base.MustRegister(Registration{Type: "image", Component: staticComponent("base-image")})
	base.MustRegister(Registration{Type: "quote", Component: staticComponent("base-quote")})
	base.MustRegister(Registration{Type: "logos", Component: staticComponent("base-logos")})

	overrides := NewTemplateRegistry(base)
	if err := overrides.Override("default", "quote", staticComponent("default-quote")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := overrides.Override("studio", "image", staticComponent("studio-image")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		template string
		block    string
		expected string
	}{
		{template: "studio", block: "image", expected: "studio-image"},
		{template: "studio", block: "quote", expected: "default-quote"},
		{template: "studio", block: "logos", expected: "base-logos"},
		{template: "", block: "image", expected: "base-image"},
		{template: "other", block: "QUOTE", expected: "default-quote"},
	}

	for _, tc := range cases {
		component, ok := overrides.ResolveComponent(tc.template, tc.block)
		if !ok {
			t.Fatalf("expected component for %s/%s", tc.template, tc.block)
		}
		if got := string(component(testRenderContext{}, models.Block{})); got != tc.expected {
			t.Fatalf("%s/%s: expected %q, got %q", tc.template, tc.block, tc.expected, got)
		}
	}
}

func TestResolveComponentUnknownType(t *testing.T) {
	overrides := NewTemplateRegistry(DefaultRegistry())

	for _, name := range []string{"", "default", "studio"} {
		if component, ok := overrides.ResolveComponent(name, "does-not-exist"); ok || component != nil {
			t.Fatalf("expected no component for unknown type in template %q", name)
		}
	}
}

func TestReplaceTemplateSwapsOverrides(t *testing.T) {
	overrides := NewTemplateRegistry(NewRegistry())
	overrides.ReplaceTemplate("studio", map[string]Component{
		"image": staticComponent("a"),
		"quote": staticComponent("b"),
		"":      staticComponent("ignored"),
	})

	if !reflect.DeepEqual(overrides.Overrides("studio"), []string{"image", "quote"}) {
		t.Fatalf("unexpected overrides: %v", overrides.Overrides("studio"))
	}

	overrides.ReplaceTemplate("studio", map[string]Component{"logos": staticComponent("c")})
	if !reflect.DeepEqual(overrides.Overrides("studio"), []string{"logos"}) {
		t.Fatalf("expected replacement to drop old overrides, got %v", overrides.Overrides("studio"))
	}

	overrides.ReplaceTemplate("studio", nil)
	if len(overrides.Templates()) != 0 {
		t.Fatalf("expected empty replacement to remove the template, got %v", overrides.Templates())
	}
}
