package render

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// legacyAnimationNames keeps the animation targets of block types that were
// renamed, so stylesheets written against the old names keep working.
var legacyAnimationNames = map[string]string{
	"content":           "ContentBlock",
	"text":              "ContentBlock",
	"gallery":           "GalleryGrid",
	"image-gallery":     "GalleryGrid",
	"two-column":        "TwoColumns",
	"hero":              "HeroSimple",
	"mouse-gallery":     "MouseImageGallery",
	"scrolling-heading": "ScrollingText",
}

// AnimationClassName derives the animation target name of a block type,
// e.g. "content-block" becomes "ContentBlock".
func AnimationClassName(blockType string) string {
	blockType = strings.TrimSpace(strings.ToLower(blockType))
	if name, ok := legacyAnimationNames[blockType]; ok {
		return name
	}

	parts := strings.FieldsFunc(blockType, func(r rune) bool {
		return r == '-' || r == '_' || r == ' ' || r == '.'
	})
	// A Caser keeps state between calls and must not be shared.
	caser := cases.Title(language.Und)
	var sb strings.Builder
	for _, part := range parts {
		sb.WriteString(caser.String(part))
	}
	if sb.Len() == 0 {
		return "Block"
	}
	return sb.String()
}
