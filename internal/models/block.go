package models

import (
	"encoding/json"
	"strconv"
	"strings"

	"sitebuilder-backend/internal/constants"
)

// Theme forces a visual theme while a block is in view.
type Theme string

const (
	ThemeAuto  Theme = "auto"
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme maps arbitrary input onto a known theme. Unknown values become ThemeAuto.
func ParseTheme(value string) Theme {
	switch Theme(strings.TrimSpace(strings.ToLower(value))) {
	case ThemeLight:
		return ThemeLight
	case ThemeDark:
		return ThemeDark
	default:
		return ThemeAuto
	}
}

// IsExplicit reports whether the theme overrides the inferred one.
func (t Theme) IsExplicit() bool {
	return t == ThemeLight || t == ThemeDark
}

// Block is the atomic unit of page content.
//
// Container blocks keep their child lists in Columns, keyed by column slot
// name; every other payload field lives in Data. Legacy reports that the block
// was decoded from the flat shape, with payload fields spread on the block
// itself.
type Block struct {
	ID      string
	Type    string
	Hidden  bool
	Theme   Theme
	Data    map[string]interface{}
	Columns map[string][]Block
	Legacy  bool
}

var reservedBlockKeys = map[string]struct{}{
	"id":     {},
	"type":   {},
	"hidden": {},
	"theme":  {},
	"data":   {},
}

// NewBlock builds a block from a payload. Column slots of container types are
// lifted out of data into Columns.
func NewBlock(id, blockType string, data map[string]interface{}) Block {
	raw := map[string]interface{}{
		"id":   id,
		"type": blockType,
	}
	if data != nil {
		raw["data"] = data
	}
	return BlockFromMap(raw)
}

// BlockFromMap converts a decoded JSON object into a Block, accepting both the
// nested {id, type, data} shape and the legacy flat shape.
func BlockFromMap(raw map[string]interface{}) Block {
	block := Block{
		ID:    scalarString(raw["id"]),
		Type:  strings.TrimSpace(strings.ToLower(scalarString(raw["type"]))),
		Theme: ThemeAuto,
	}

	if hidden, ok := raw["hidden"].(bool); ok {
		block.Hidden = hidden
	}
	if theme, ok := raw["theme"].(string); ok {
		block.Theme = ParseTheme(theme)
	}

	data := map[string]interface{}{}
	if nested, ok := raw["data"].(map[string]interface{}); ok {
		for key, value := range nested {
			data[key] = value
		}
	}

	for key, value := range raw {
		if _, reserved := reservedBlockKeys[key]; reserved {
			continue
		}
		block.Legacy = true
		if _, exists := data[key]; exists {
			continue
		}
		data[key] = value
	}

	if block.Type == "" {
		block.Type = inferLegacyType(data)
	}

	if keys := constants.ColumnKeys(block.Type); keys != nil {
		block.Columns = make(map[string][]Block, len(keys))
		for _, key := range keys {
			block.Columns[key] = columnFromValue(data[key])
			delete(data, key)
		}
	}

	if len(data) > 0 {
		block.Data = data
	}

	return block
}

// ToMap returns the nested persisted shape of the block.
func (b Block) ToMap() map[string]interface{} {
	out := map[string]interface{}{
		"id":   b.ID,
		"type": b.Type,
	}
	if b.Hidden {
		out["hidden"] = true
	}
	if b.Theme.IsExplicit() {
		out["theme"] = string(b.Theme)
	}

	data := make(map[string]interface{}, len(b.Data)+len(b.Columns))
	for key, value := range b.Data {
		data[key] = value
	}
	for key, children := range b.Columns {
		list := make([]interface{}, 0, len(children))
		for _, child := range children {
			list = append(list, child.ToMap())
		}
		data[key] = list
	}
	out["data"] = data
	return out
}

// MarshalJSON always emits the nested shape.
func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.ToMap())
}

// UnmarshalJSON accepts both persisted shapes.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = BlockFromMap(raw)
	return nil
}

// IsContainer reports whether the block holds column lists.
func (b Block) IsContainer() bool {
	return constants.IsContainerType(b.Type)
}

// IsHero reports whether the block belongs to the hero type set.
func (b Block) IsHero() bool {
	return constants.IsHeroType(b.Type)
}

// ColumnKeys returns the ordered column slots for container blocks.
func (b Block) ColumnKeys() []string {
	return constants.ColumnKeys(b.Type)
}

// String returns the value stored under key when it is a string.
func (b Block) String(key string) string {
	if b.Data == nil {
		return ""
	}
	value, _ := b.Data[key].(string)
	return value
}

// Clone returns a deep copy that shares no maps or slices with the receiver.
func (b Block) Clone() Block {
	cloned := b
	if b.Data != nil {
		cloned.Data = CloneData(b.Data)
	}
	if b.Columns != nil {
		cloned.Columns = make(map[string][]Block, len(b.Columns))
		for key, children := range b.Columns {
			cloned.Columns[key] = CloneBlocks(children)
		}
	}
	return cloned
}

// CloneBlocks deep-copies a block list. A nil list stays nil.
func CloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i, block := range blocks {
		out[i] = block.Clone()
	}
	return out
}

// CloneData deep-copies a JSON-like payload.
func CloneData(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	out := make(map[string]interface{}, len(data))
	for key, value := range data {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return CloneData(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case []map[string]interface{}:
		out := make([]map[string]interface{}, len(v))
		for i, item := range v {
			out[i] = CloneData(item)
		}
		return out
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []Block:
		return CloneBlocks(v)
	case Block:
		return v.Clone()
	default:
		return v
	}
}

func columnFromValue(value interface{}) []Block {
	children := []Block{}
	switch v := value.(type) {
	case []Block:
		children = append(children, CloneBlocks(v)...)
	case []map[string]interface{}:
		for _, item := range v {
			children = append(children, BlockFromMap(item))
		}
	case []interface{}:
		for _, item := range v {
			switch child := item.(type) {
			case map[string]interface{}:
				children = append(children, BlockFromMap(child))
			case Block:
				children = append(children, child.Clone())
			}
		}
	}
	return children
}

// inferLegacyType recovers a type for untyped legacy payloads, which were
// always plain images or text snippets.
func inferLegacyType(data map[string]interface{}) string {
	for _, key := range []string{"src", "url", "image"} {
		if _, ok := data[key]; ok {
			return "image"
		}
	}
	for _, key := range []string{"text", "content", "body"} {
		if _, ok := data[key]; ok {
			return "content-block"
		}
	}
	return ""
}

func scalarString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
