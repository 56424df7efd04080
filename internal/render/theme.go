package render

import (
	"sitebuilder-backend/internal/models"
)

// typeThemes is the theme a block type forces when the block itself does not
// pick one. Types not listed inherit the active theme.
var typeThemes = map[string]models.Theme{
	"services":              models.ThemeDark,
	"projects":              models.ThemeDark,
	"logos":                 models.ThemeLight,
	"hero-simple":           models.ThemeDark,
	"hero-floating-gallery": models.ThemeDark,
	"mouse-image-gallery":   models.ThemeDark,
}

// InferTheme returns the theme a block asks for while it is in view. An
// explicit block theme wins; column containers follow the user's own choice.
// ThemeAuto means the block does not change the active theme.
func InferTheme(block models.Block, userTheme models.Theme) models.Theme {
	if block.Theme.IsExplicit() {
		return block.Theme
	}
	if block.IsContainer() {
		if userTheme.IsExplicit() {
			return userTheme
		}
		return models.ThemeAuto
	}
	if theme, ok := typeThemes[block.Type]; ok {
		return theme
	}
	return models.ThemeAuto
}

// VisibleBlock is a root block currently intersecting the viewport.
type VisibleBlock struct {
	Index int          `json:"index"`
	Top   float64      `json:"top"`
	Theme models.Theme `json:"theme"`
}

// VisibilityEvent reports that a block entered or left the viewport.
type VisibilityEvent struct {
	BlockID string       `json:"blockId"`
	Index   int          `json:"index"`
	Top     float64      `json:"top"`
	Visible bool         `json:"visible"`
	Theme   models.Theme `json:"theme"`
}

// ThemeState is the document-level theme and the blocks that decide it.
type ThemeState struct {
	UserTheme models.Theme            `json:"userTheme"`
	Active    models.Theme            `json:"active"`
	Source    string                  `json:"source,omitempty"`
	Visible   map[string]VisibleBlock `json:"visible,omitempty"`
}

// NewThemeState starts with the user's chosen theme active.
func NewThemeState(userTheme models.Theme) ThemeState {
	return ThemeState{
		UserTheme: userTheme,
		Active:    userTheme,
		Visible:   map[string]VisibleBlock{},
	}
}

// ReduceTheme applies a visibility event and returns the next state. The
// input state is not modified.
//
// Among all visible blocks the one nearest the viewport top decides the
// theme; equal tops go to the block earlier in the document. A deciding
// block with no theme of its own restores the user's theme. When nothing is
// visible the previous theme stays active.
func ReduceTheme(state ThemeState, event VisibilityEvent) ThemeState {
	next := ThemeState{
		UserTheme: state.UserTheme,
		Active:    state.Active,
		Source:    state.Source,
		Visible:   make(map[string]VisibleBlock, len(state.Visible)+1),
	}
	for id, block := range state.Visible {
		next.Visible[id] = block
	}

	if event.BlockID != "" {
		if event.Visible {
			next.Visible[event.BlockID] = VisibleBlock{
				Index: event.Index,
				Top:   event.Top,
				Theme: models.ParseTheme(string(event.Theme)),
			}
		} else {
			delete(next.Visible, event.BlockID)
		}
	}

	winner, block, ok := topmost(next.Visible)
	if !ok {
		return next
	}
	next.Source = winner
	if block.Theme.IsExplicit() {
		next.Active = block.Theme
	} else {
		next.Active = next.UserTheme
	}
	return next
}

func topmost(visible map[string]VisibleBlock) (string, VisibleBlock, bool) {
	var (
		winnerID string
		winner   VisibleBlock
		found    bool
	)
	for id, block := range visible {
		if !found || block.Top < winner.Top ||
			(block.Top == winner.Top && block.Index < winner.Index) ||
			(block.Top == winner.Top && block.Index == winner.Index && id < winnerID) {
			winnerID, winner, found = id, block, true
		}
	}
	return winnerID, winner, found
}
