package blocks

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
)

func getString(content map[string]interface{}, key string) string {
	if content == nil {
		return ""
	}
	if value, ok := content[key]; ok {
		if str, ok := value.(string); ok {
			return strings.TrimSpace(str)
		}
	}
	return ""
}

// firstString returns the first non-empty string among keys. Older documents
// used different field names for the same value.
func firstString(content map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value := getString(content, key); value != "" {
			return value
		}
	}
	return ""
}

func getInt(content map[string]interface{}, key string, fallback int) int {
	if content == nil {
		return fallback
	}
	switch v := content[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return fallback
}

func parseBool(value interface{}, fallback bool) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		trimmed := strings.TrimSpace(strings.ToLower(v))
		if trimmed == "" {
			return fallback
		}
		switch trimmed {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		default:
			return fallback
		}
	default:
		return fallback
	}
}

// getItems returns the object entries of a list field. Plain strings are
// promoted to {"src": value} so image lists may be stored as URL arrays.
func getItems(content map[string]interface{}, key string) []map[string]interface{} {
	if content == nil {
		return nil
	}
	var items []map[string]interface{}
	switch v := content[key].(type) {
	case []interface{}:
		for _, raw := range v {
			switch item := raw.(type) {
			case map[string]interface{}:
				items = append(items, item)
			case string:
				if strings.TrimSpace(item) != "" {
					items = append(items, map[string]interface{}{"src": item})
				}
			}
		}
	case []map[string]interface{}:
		items = append(items, v...)
	case []string:
		for _, item := range v {
			if strings.TrimSpace(item) != "" {
				items = append(items, map[string]interface{}{"src": item})
			}
		}
	}
	return items
}

func imageSource(item map[string]interface{}) string {
	return safeURL(firstString(item, "src", "url", "image"))
}

// safeURL drops script URLs and escapes the rest for use inside an attribute.
func safeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "vbscript:") {
		return ""
	}
	if strings.HasPrefix(lower, "data:") && !strings.HasPrefix(lower, "data:image/") {
		return ""
	}
	return template.HTMLEscapeString(trimmed)
}

func elementClass(blockType, element string) string {
	if element == "" {
		return blockType
	}
	return fmt.Sprintf("%s__%s", blockType, element)
}

// placeholder is rendered in place of a block whose required fields are missing.
func placeholder(blockType, message string) template.HTML {
	var sb strings.Builder
	sb.WriteString(`<div class="block-placeholder ` + elementClass(blockType, "placeholder") + `">`)
	sb.WriteString(template.HTMLEscapeString(message))
	sb.WriteString(`</div>`)
	return template.HTML(sb.String())
}

func writeImage(sb *strings.Builder, class, src, alt string) {
	sb.WriteString(`<img class="` + class + `" src="` + src + `" alt="` + template.HTMLEscapeString(alt) + `" loading="lazy" />`)
}
