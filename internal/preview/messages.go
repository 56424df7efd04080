package preview

import (
	"encoding/json"
	"fmt"

	"sitebuilder-backend/internal/models"
)

// MessageType is the discriminant of a preview protocol message.
type MessageType string

const (
	// Editor to preview.
	MessageUpdatePreview  MessageType = "UPDATE_PREVIEW"
	MessageHighlightBlock MessageType = "HIGHLIGHT_BLOCK"
	MessageScrollToBlock  MessageType = "SCROLL_TO_BLOCK"
	MessageSetTheme       MessageType = "SET_THEME"

	// Preview to editor.
	MessageIframeReady     MessageType = "IFRAME_READY"
	MessageBlockClicked    MessageType = "BLOCK_CLICKED"
	MessageBlockVisibility MessageType = "BLOCK_VISIBILITY"
)

// Message is a single JSON frame exchanged with the preview surface.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage encodes payload into a message of the given type.
func NewMessage(messageType MessageType, payload interface{}) (Message, error) {
	if payload == nil {
		return Message{Type: messageType, Payload: json.RawMessage("{}")}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", messageType, err)
	}
	return Message{Type: messageType, Payload: raw}, nil
}

// Decode unmarshals the payload into target. An empty payload leaves target untouched.
func (m Message) Decode(target interface{}) error {
	if len(m.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Payload, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}

// PreviewData describes the page being previewed.
type PreviewData struct {
	Slug     string              `json:"slug"`
	Title    string              `json:"title"`
	Template string              `json:"template"`
	Metadata models.SiteMetadata `json:"metadata"`
}

// UpdatePreviewPayload is a full snapshot of the visible page. Blocks is the
// projected list; HTML is the same list rendered with debug ids.
type UpdatePreviewPayload struct {
	PreviewData      PreviewData       `json:"previewData"`
	Blocks           []models.Block    `json:"blocks"`
	PaletteCSS       map[string]string `json:"paletteCss"`
	HighlightBlockID string            `json:"highlightBlockId,omitempty"`
	HiddenBlockIDs   []string          `json:"hiddenBlockIds"`
	HTML             string            `json:"html"`
	StyleCSS         string            `json:"styleCss,omitempty"`
	Revision         int64             `json:"revision"`
	Theme            models.Theme      `json:"theme"`
}

// BlockPayload addresses one block.
type BlockPayload struct {
	BlockID string `json:"blockId"`
}

// ScrollPayload asks the preview to scroll a block into view.
type ScrollPayload struct {
	BlockID    string `json:"blockId"`
	AlignToTop bool   `json:"alignToTop"`
}

// ThemePayload switches the preview document theme.
type ThemePayload struct {
	Theme models.Theme `json:"theme"`
}

// VisibilityPayload is reported by the preview when a root block enters or
// leaves the viewport. Top is the block's distance from the viewport top in
// CSS pixels.
type VisibilityPayload struct {
	BlockID string  `json:"blockId"`
	Top     float64 `json:"top"`
	Visible bool    `json:"visible"`
}
