package render

import (
	"io"
	"strings"
	"testing"
)

func TestAssetsServeThemeScript(t *testing.T) {
	name := strings.TrimPrefix(ThemeScriptPath, "/assets/")
	file, err := Assets().Open(name)
	if err != nil {
		t.Fatalf("expected %s to be embedded: %v", name, err)
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		t.Fatalf("failed to read script: %v", err)
	}
	script := string(body)
	for _, want := range []string{"data-block-theme", "data-block-index", "IntersectionObserver"} {
		if !strings.Contains(script, want) {
			t.Errorf("expected script to reference %s", want)
		}
	}
}
