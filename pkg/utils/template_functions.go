package utils

import (
	"fmt"
	"html/template"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type AssetModTimeFunc func(path string) (time.Time, error)

// BlockTemplateFuncs returns the helpers available to template layouts and
// block override files. Block payloads are decoded JSON, so lists arrive as
// []interface{} and numbers as float64; the payload helpers smooth that over.
func BlockTemplateFuncs(assetModTime AssetModTimeFunc) template.FuncMap {
	return template.FuncMap{
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
		"title":    func(s string) string { return cases.Title(language.Und).String(s) },
		"trim":     strings.TrimSpace,
		"contains": strings.Contains,
		"truncate": truncate,
		"anchor":   GenerateSlug,

		"field":   field,
		"has":     func(data map[string]interface{}, key string) bool { return !isEmpty(data[key]) },
		"default": fallback,
		"items":   toItems,
		"str":     toString,
		"int":     toInt,
		"seq":     seq,
		"dict":    dict,

		"cssVar": func(name string) template.CSS {
			return template.CSS("var(--color-" + GenerateSlug(name) + ")")
		},
		"asset": func(path string) string {
			return AssetURL(path, assetModTime)
		},
	}
}

// AssetURL appends the modification time of a template asset as a cache
// busting query parameter. External URLs and unknown files are returned as is.
func AssetURL(path string, modTime AssetModTimeFunc) string {
	lower := strings.ToLower(path)
	if path == "" || modTime == nil || strings.HasPrefix(path, "//") ||
		strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return path
	}

	stamp, err := modTime(path)
	if err != nil || stamp.IsZero() {
		return path
	}

	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%sv=%d", path, separator, stamp.Unix())
}

// field reads key from a block payload, returning def when it is missing or
// blank.
func field(data map[string]interface{}, key string, def ...interface{}) interface{} {
	value := data[key]
	if isEmpty(value) && len(def) > 0 {
		return def[0]
	}
	return value
}

func fallback(def, value interface{}) interface{} {
	if isEmpty(value) {
		return def
	}
	return value
}

func truncate(s string, length int) string {
	if length < 0 || utf8.RuneCountInString(s) <= length {
		return s
	}
	return string([]rune(s)[:length]) + "..."
}

func seq(n int) []int {
	if n <= 0 {
		return []int{}
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func dict(values ...interface{}) (map[string]interface{}, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("dict expects an even number of arguments")
	}
	out := make(map[string]interface{}, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", values[i])
		}
		out[key] = values[i+1]
	}
	return out, nil
}

// toItems turns a gallery or list payload into maps. Bare strings become
// {"src": value} so image lists can be written either way.
func toItems(value interface{}) []map[string]interface{} {
	items := []map[string]interface{}{}
	switch v := value.(type) {
	case []map[string]interface{}:
		return v
	case []interface{}:
		for _, item := range v {
			switch entry := item.(type) {
			case map[string]interface{}:
				items = append(items, entry)
			case string:
				items = append(items, map[string]interface{}{"src": entry})
			}
		}
	case []string:
		for _, entry := range v {
			items = append(items, map[string]interface{}{"src": entry})
		}
	}
	return items
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func toInt(value interface{}) int {
	switch v := value.(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func isEmpty(value interface{}) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Bool:
		return false
	case reflect.Slice, reflect.Array, reflect.Map:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	}
	return v.IsZero()
}
