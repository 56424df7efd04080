package render

import (
	"testing"

	"sitebuilder-backend/internal/models"
)

func TestInferTheme(t *testing.T) {
	cases := []struct {
		name     string
		block    models.Block
		user     models.Theme
		expected models.Theme
	}{
		{name: "explicit wins", block: models.Block{Type: "services", Theme: models.ThemeLight}, expected: models.ThemeLight},
		{name: "services dark", block: models.Block{Type: "services"}, expected: models.ThemeDark},
		{name: "projects dark", block: models.Block{Type: "projects"}, expected: models.ThemeDark},
		{name: "logos light", block: models.Block{Type: "logos"}, expected: models.ThemeLight},
		{name: "columns inherit user", block: models.Block{Type: "two-columns"}, user: models.ThemeDark, expected: models.ThemeDark},
		{name: "columns without user theme", block: models.Block{Type: "four-columns"}, user: models.ThemeAuto, expected: models.ThemeAuto},
		{name: "hero dark", block: models.Block{Type: "hero-simple"}, expected: models.ThemeDark},
		{name: "other inherit", block: models.Block{Type: "quote"}, user: models.ThemeLight, expected: models.ThemeAuto},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := InferTheme(tc.block, tc.user); got != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestReduceThemeTopmostWins(t *testing.T) {
	state := NewThemeState(models.ThemeLight)

	state = ReduceTheme(state, VisibilityEvent{BlockID: "services", Index: 1, Top: 200, Visible: true, Theme: models.ThemeDark})
	if state.Active != models.ThemeDark || state.Source != "services" {
		t.Fatalf("expected services to set dark, got %+v", state)
	}

	state = ReduceTheme(state, VisibilityEvent{BlockID: "logos", Index: 2, Top: 600, Visible: true, Theme: models.ThemeLight})
	if state.Active != models.ThemeDark {
		t.Fatalf("expected the topmost block to keep deciding, got %s", state.Active)
	}

	state = ReduceTheme(state, VisibilityEvent{BlockID: "services", Visible: false})
	if state.Active != models.ThemeLight || state.Source != "logos" {
		t.Fatalf("expected logos to take over, got %+v", state)
	}
}

func TestReduceThemeTieBreakByIndex(t *testing.T) {
	state := NewThemeState(models.ThemeAuto)
	state = ReduceTheme(state, VisibilityEvent{BlockID: "b", Index: 3, Top: 0, Visible: true, Theme: models.ThemeLight})
	state = ReduceTheme(state, VisibilityEvent{BlockID: "a", Index: 2, Top: 0, Visible: true, Theme: models.ThemeDark})

	if state.Source != "a" || state.Active != models.ThemeDark {
		t.Fatalf("expected lower index to win a tie, got %+v", state)
	}
}

func TestReduceThemeAutoRestoresUserTheme(t *testing.T) {
	state := NewThemeState(models.ThemeLight)
	state = ReduceTheme(state, VisibilityEvent{BlockID: "dark", Index: 0, Top: 0, Visible: true, Theme: models.ThemeDark})
	state = ReduceTheme(state, VisibilityEvent{BlockID: "dark", Visible: false})
	if state.Active != models.ThemeDark {
		t.Fatalf("expected theme to persist when nothing is visible, got %s", state.Active)
	}

	state = ReduceTheme(state, VisibilityEvent{BlockID: "plain", Index: 1, Top: 10, Visible: true, Theme: models.ThemeAuto})
	if state.Active != models.ThemeLight {
		t.Fatalf("expected user theme to be restored, got %s", state.Active)
	}
}

func TestReduceThemeIsPure(t *testing.T) {
	state := NewThemeState(models.ThemeLight)
	state = ReduceTheme(state, VisibilityEvent{BlockID: "a", Index: 0, Top: 0, Visible: true, Theme: models.ThemeDark})

	next := ReduceTheme(state, VisibilityEvent{BlockID: "a", Visible: false})
	if _, ok := state.Visible["a"]; !ok {
		t.Fatalf("reducer mutated the previous state")
	}
	if _, ok := next.Visible["a"]; ok {
		t.Fatalf("expected block to be removed from the next state")
	}
}

func TestAnimationClassName(t *testing.T) {
	cases := map[string]string{
		"content-block":         "ContentBlock",
		"hero-floating-gallery": "HeroFloatingGallery",
		"two-columns":           "TwoColumns",
		"content":               "ContentBlock",
		"gallery":               "GalleryGrid",
		"image":                 "Image",
		"":                      "Block",
	}
	for input, expected := range cases {
		if got := AnimationClassName(input); got != expected {
			t.Fatalf("AnimationClassName(%q): expected %q, got %q", input, expected, got)
		}
	}
}
