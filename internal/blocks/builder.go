package blocks

import (
	"encoding/json"
	"fmt"

	"sitebuilder-backend/internal/models"
)

// Builder provides a fluent interface for creating block registrations.
type Builder struct {
	entry  Registration
	errors []error
}

// NewBuilder creates a new builder for the given block type.
func NewBuilder(blockType string) *Builder {
	return &Builder{
		entry: Registration{
			Type:        blockType,
			DefaultData: make(map[string]interface{}),
		},
	}
}

// WithLabel sets the display name of the block.
func (b *Builder) WithLabel(label string) *Builder {
	b.entry.Label = label
	return b
}

// WithDescription sets the description of the block.
func (b *Builder) WithDescription(desc string) *Builder {
	b.entry.Description = desc
	return b
}

// WithCategory sets the category for grouping blocks in the insertion menu.
func (b *Builder) WithCategory(category string) *Builder {
	b.entry.Category = category
	return b
}

// WithIcon sets the icon identifier for the block.
func (b *Builder) WithIcon(icon string) *Builder {
	b.entry.Icon = icon
	return b
}

// WithComponent sets the rendering function for the block.
func (b *Builder) WithComponent(component Component) *Builder {
	if component == nil {
		b.errors = append(b.errors, fmt.Errorf("component cannot be nil"))
	}
	b.entry.Component = component
	return b
}

// WithDefault seeds a single default data field without adding an editor input.
func (b *Builder) WithDefault(name string, value interface{}) *Builder {
	b.entry.DefaultData[name] = value
	return b
}

// WithDefaultsFromJSON merges default data from a JSON object.
func (b *Builder) WithDefaultsFromJSON(raw string) *Builder {
	var defaults map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &defaults); err != nil {
		b.errors = append(b.errors, fmt.Errorf("failed to parse default data JSON: %w", err))
		return b
	}
	for key, value := range defaults {
		b.entry.DefaultData[key] = value
	}
	return b
}

// AddField adds an editor input and, when def is non-nil, its default value.
func (b *Builder) AddField(field models.EditorField) *Builder {
	if field.Name == "" {
		b.errors = append(b.errors, fmt.Errorf("editor field name is required"))
		return b
	}
	if field.Label == "" {
		field.Label = field.Name
	}
	b.entry.Editor = append(b.entry.Editor, field)
	if field.Default != nil {
		b.entry.DefaultData[field.Name] = field.Default
	}
	return b
}

// AddStringField is a convenience method for adding a single line text input.
func (b *Builder) AddStringField(name, label string, required bool, defaultValue ...string) *Builder {
	field := models.EditorField{Name: name, Label: label, Kind: "string", Required: required}
	if len(defaultValue) > 0 {
		field.Default = defaultValue[0]
	}
	return b.AddField(field)
}

// AddTextField is a convenience method for adding a multi-line (markdown) input.
func (b *Builder) AddTextField(name, label string, defaultValue ...string) *Builder {
	field := models.EditorField{Name: name, Label: label, Kind: "text"}
	if len(defaultValue) > 0 {
		field.Default = defaultValue[0]
	}
	return b.AddField(field)
}

// AddImageField is a convenience method for adding an image picker.
func (b *Builder) AddImageField(name, label string, required bool) *Builder {
	return b.AddField(models.EditorField{Name: name, Label: label, Kind: "image", Required: required})
}

// AddNumberField is a convenience method for adding a number input.
func (b *Builder) AddNumberField(name, label string, defaultValue ...int) *Builder {
	field := models.EditorField{Name: name, Label: label, Kind: "number"}
	if len(defaultValue) > 0 {
		field.Default = float64(defaultValue[0])
	}
	return b.AddField(field)
}

// AddBooleanField is a convenience method for adding a toggle.
func (b *Builder) AddBooleanField(name, label string, defaultValue bool) *Builder {
	return b.AddField(models.EditorField{Name: name, Label: label, Kind: "boolean", Default: defaultValue})
}

// AddEnumField is a convenience method for adding a select input.
func (b *Builder) AddEnumField(name, label string, options []string, defaultValue ...string) *Builder {
	field := models.EditorField{Name: name, Label: label, Kind: "select", Options: options}
	if len(defaultValue) > 0 {
		field.Default = defaultValue[0]
	}
	return b.AddField(field)
}

// AddListField is a convenience method for adding a repeatable list of items.
// Lists always default to an empty list so components never see nil.
func (b *Builder) AddListField(name, label string) *Builder {
	return b.AddField(models.EditorField{Name: name, Label: label, Kind: "list", Default: []interface{}{}})
}

// Build constructs the final Registration and returns any accumulated errors.
func (b *Builder) Build() (Registration, error) {
	if len(b.errors) > 0 {
		return Registration{}, fmt.Errorf("builder has %d error(s): %v", len(b.errors), b.errors[0])
	}

	if b.entry.Component == nil {
		return Registration{}, fmt.Errorf("component is required")
	}

	if normaliseType(b.entry.Type) == "" {
		return Registration{}, fmt.Errorf("block type is required")
	}

	return b.entry, nil
}

// MustBuild builds the registration and panics if there are errors.
// Use this only when you're certain the configuration is valid.
func (b *Builder) MustBuild() Registration {
	entry, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build block registration: %v", err))
	}
	return entry
}
