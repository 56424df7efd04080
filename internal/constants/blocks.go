package constants

import "strings"

const (
	// BlockTypeTwoColumns is the two column container block.
	BlockTypeTwoColumns = "two-columns"
	// BlockTypeThreeColumns is the three column container block.
	BlockTypeThreeColumns = "three-columns"
	// BlockTypeFourColumns is the four column container block.
	BlockTypeFourColumns = "four-columns"

	BlockTypeHeroSimple          = "hero-simple"
	BlockTypeHeroFloatingGallery = "hero-floating-gallery"
	BlockTypeMouseImageGallery   = "mouse-image-gallery"

	// DefaultTemplateName is the override tier consulted when a template does not override a block type.
	DefaultTemplateName = "default"

	// DefaultBlockAnimation defines the default scroll animation applied to blocks.
	DefaultBlockAnimation = "float-up"
	// DefaultBlockAnimationBlur controls whether blur is applied during the block animation.
	DefaultBlockAnimationBlur = true
)

var containerColumns = map[string][]string{
	BlockTypeTwoColumns:   {"leftColumn", "rightColumn"},
	BlockTypeThreeColumns: {"leftColumn", "middleColumn", "rightColumn"},
	BlockTypeFourColumns:  {"column1", "column2", "column3", "column4"},
}

var heroBlockTypes = map[string]struct{}{
	BlockTypeHeroFloatingGallery: {},
	BlockTypeMouseImageGallery:   {},
	BlockTypeHeroSimple:          {},
}

var blockAnimationOptions = []BlockAnimationOption{
	{
		Value:       "float-up",
		Label:       "Float up",
		Description: "Tilted lift with a soft blur fade",
	},
	{
		Value:       "fade-in",
		Label:       "Fade in",
		Description: "Gentle fade with a slight rise",
	},
	{
		Value:       "slide-left",
		Label:       "Slide from right",
		Description: "Horizontal slide-in with easing",
	},
	{
		Value:       "zoom-in",
		Label:       "Zoom in",
		Description: "Scale up softly from the center",
	},
	{
		Value:       "none",
		Label:       "None",
		Description: "Disable block animation",
	},
}

// BlockAnimationOption describes an available scroll animation preset.
type BlockAnimationOption struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// ColumnKeys returns the ordered column slot names of a container block type,
// or nil when the type is not a container.
// A copy of the slice is returned to prevent external mutation of the internal list.
func ColumnKeys(blockType string) []string {
	keys, ok := containerColumns[normaliseType(blockType)]
	if !ok {
		return nil
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// IsContainerType reports whether the block type holds nested column lists.
func IsContainerType(blockType string) bool {
	_, ok := containerColumns[normaliseType(blockType)]
	return ok
}

// IsHeroType reports whether the block type belongs to the singleton hero set.
func IsHeroType(blockType string) bool {
	_, ok := heroBlockTypes[normaliseType(blockType)]
	return ok
}

// BlockAnimationOptions returns the allowed block animations.
func BlockAnimationOptions() []BlockAnimationOption {
	options := make([]BlockAnimationOption, len(blockAnimationOptions))
	copy(options, blockAnimationOptions)
	return options
}

// NormaliseBlockAnimation returns a known animation value or the default.
func NormaliseBlockAnimation(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return DefaultBlockAnimation
	}
	for _, option := range blockAnimationOptions {
		if option.Value == trimmed {
			return trimmed
		}
	}
	return DefaultBlockAnimation
}

// NormaliseBlockAnimationBlur returns whether blur should be applied for the animation.
func NormaliseBlockAnimationBlur(value *bool) bool {
	if value == nil {
		return DefaultBlockAnimationBlur
	}
	return *value
}

func normaliseType(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}
