package models

import "sitebuilder-backend/internal/constants"

// InsertBlockRequest represents a request to add a new block to a page.
// An empty ParentID inserts at the root list; otherwise Column names the
// column slot of the container block ParentID.
type InsertBlockRequest struct {
	Type     string `json:"type" binding:"required,block_type"`
	Index    *int   `json:"index,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
	Column   string `json:"column,omitempty"`
}

// UpdateBlockRequest represents an edit of an existing block's fields.
// Data is merged into the existing payload unless Replace is set.
type UpdateBlockRequest struct {
	Data    map[string]interface{} `json:"data,omitempty"`
	Theme   *string                `json:"theme,omitempty" binding:"omitempty,block_theme"`
	Replace bool                   `json:"replace,omitempty"`
}

// ReorderBlocksRequest carries the new root order.
type ReorderBlocksRequest struct {
	BlockIDs []string `json:"block_ids" binding:"required"`
}

// MoveBlockRequest moves a block to another list (root or a column).
type MoveBlockRequest struct {
	ParentID string `json:"parent_id,omitempty"`
	Column   string `json:"column,omitempty"`
	Index    int    `json:"index" binding:"min=0"`
}

// SelectBlockRequest opens the inspector for a block, optionally scoped to a column.
type SelectBlockRequest struct {
	BlockID string `json:"block_id"`
	Column  string `json:"column,omitempty"`
}

// ScrollToBlockRequest asks the preview to scroll a block into view.
type ScrollToBlockRequest struct {
	BlockID    string `json:"block_id" binding:"required"`
	AlignToTop bool   `json:"align_to_top"`
}

// EditorField describes one input of a block's authoring form.
type EditorField struct {
	Name        string      `json:"name"`
	Label       string      `json:"label"`
	Kind        string      `json:"kind"`
	Required    bool        `json:"required,omitempty"`
	Default     interface{} `json:"default,omitempty"`
	Options     []string    `json:"options,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
}

// BlockTypeConfig describes a block type available in the builder.
type BlockTypeConfig struct {
	Type        string        `json:"type"`
	Label       string        `json:"label"`
	Icon        string        `json:"icon,omitempty"`
	Category    string        `json:"category,omitempty"`
	Description string        `json:"description,omitempty"`
	Editor      []EditorField `json:"editor,omitempty"`
}

// TemplateSummary describes an installed site template.
type TemplateSummary struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Overrides   []string `json:"overrides,omitempty"`
	Active      bool     `json:"active"`
}

// PageBuilderConfig contains configuration for the page builder UI.
type PageBuilderConfig struct {
	AvailableBlocks  []BlockTypeConfig                `json:"available_blocks"`
	Templates        []TemplateSummary                `json:"templates"`
	AnimationOptions []constants.BlockAnimationOption `json:"animation_options"`
}
