package blocks

// RegisterDefaults registers every built-in block type on the provided registry.
// Listing order follows registration order.
func RegisterDefaults(reg *Registry) {
	if reg == nil {
		return
	}

	RegisterHeroes(reg)
	RegisterMedia(reg)
	RegisterShowcase(reg)
	RegisterText(reg)
	RegisterColumns(reg)
}

// DefaultRegistry returns a new registry populated with the built-in block types.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	RegisterDefaults(reg)
	return reg
}
