package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"
)

// SiteDocument is the full content document exchanged with the persistence
// boundary. It is always read and written as a whole.
type SiteDocument struct {
	Pages    []PageContent `json:"pages"`
	Metadata SiteMetadata  `json:"metadata"`
}

// PageContent is a single page and its ordered root block list.
type PageContent struct {
	Slug     string  `json:"slug"`
	Title    string  `json:"title"`
	Template string  `json:"template,omitempty"`
	Blocks   []Block `json:"blocks"`
}

// SiteMetadata holds the site-wide configuration used while rendering.
type SiteMetadata struct {
	Template         string           `json:"template,omitempty"`
	Palette          Palette          `json:"palette,omitempty"`
	Typography       Typography       `json:"typography"`
	ScrollAnimations ScrollAnimations `json:"scrollAnimations"`
	UserTheme        Theme            `json:"userTheme,omitempty"`
}

// Typography configures fonts for rendered pages.
type Typography struct {
	HeadingFont string `json:"headingFont,omitempty"`
	BodyFont    string `json:"bodyFont,omitempty"`
	BaseSizePx  int    `json:"baseSizePx,omitempty"`
}

// ScrollAnimations configures the scroll-triggered animation boundary around blocks.
type ScrollAnimations struct {
	Enabled bool   `json:"enabled"`
	Preset  string `json:"preset,omitempty"`
	Blur    *bool  `json:"blur,omitempty"`
}

// Palette maps colour names to CSS values.
type Palette map[string]string

// CSSVariables returns the palette as custom property declarations, e.g.
// "primary" becomes "--color-primary". Values are stripped of characters that
// could terminate the declaration.
func (p Palette) CSSVariables() map[string]string {
	if len(p) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(p))
	for name, value := range p {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !strings.HasPrefix(name, "--") {
			name = "--color-" + strings.ToLower(name)
		}
		out[name] = cssValueReplacer.Replace(strings.TrimSpace(value))
	}
	return out
}

// CSS renders the palette as a :root rule with a stable declaration order.
func (p Palette) CSS() string {
	vars := p.CSSVariables()
	if len(vars) == 0 {
		return ""
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(":root{")
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteString(":")
		sb.WriteString(vars[name])
		sb.WriteString(";")
	}
	sb.WriteString("}")
	return sb.String()
}

var cssValueReplacer = strings.NewReplacer(";", "", "{", "", "}", "", "<", "", ">", "")

// FindPage returns the index of the page with the given slug, or -1.
func (d *SiteDocument) FindPage(slug string) int {
	if d == nil {
		return -1
	}
	slug = strings.TrimSpace(strings.ToLower(slug))
	for i := range d.Pages {
		if strings.ToLower(d.Pages[i].Slug) == slug {
			return i
		}
	}
	return -1
}

// Clone deep-copies the document.
func (d SiteDocument) Clone() SiteDocument {
	cloned := d
	if d.Pages != nil {
		cloned.Pages = make([]PageContent, len(d.Pages))
		for i, page := range d.Pages {
			page.Blocks = CloneBlocks(page.Blocks)
			cloned.Pages[i] = page
		}
	}
	if d.Metadata.Palette != nil {
		cloned.Metadata.Palette = make(Palette, len(d.Metadata.Palette))
		for key, value := range d.Metadata.Palette {
			cloned.Metadata.Palette[key] = value
		}
	}
	if d.Metadata.ScrollAnimations.Blur != nil {
		blur := *d.Metadata.ScrollAnimations.Blur
		cloned.Metadata.ScrollAnimations.Blur = &blur
	}
	return cloned
}

func (d *SiteDocument) Scan(value interface{}) error {
	if value == nil {
		*d = SiteDocument{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan SiteDocument")
	}
	return json.Unmarshal(bytes, d)
}

func (d SiteDocument) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// SiteDocumentRecord stores one site document per site key.
type SiteDocumentRecord struct {
	ID        uint         `gorm:"primarykey" json:"id"`
	SiteKey   string       `gorm:"uniqueIndex;size:128;not null" json:"site_key"`
	Document  SiteDocument `gorm:"type:jsonb" json:"document"`
	Revision  int64        `gorm:"not null;default:0" json:"revision"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (SiteDocumentRecord) TableName() string {
	return "site_documents"
}
