package blocks

import (
	"sort"
	"strings"

	"sitebuilder-backend/internal/models"
)

// HiddenSet holds the ids of blocks excluded from rendered output.
type HiddenSet map[string]struct{}

// NewHiddenSet builds a set from ids, ignoring blanks.
func NewHiddenSet(ids ...string) HiddenSet {
	set := make(HiddenSet, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// HiddenFromBlocks collects the ids of every block flagged hidden, nested children included.
func HiddenFromBlocks(blocks []models.Block) HiddenSet {
	set := make(HiddenSet)
	Walk(blocks, func(block models.Block, _ Position) bool {
		if block.Hidden && block.ID != "" {
			set[block.ID] = struct{}{}
		}
		return true
	})
	return set
}

// Has reports whether id is hidden.
func (h HiddenSet) Has(id string) bool {
	if h == nil {
		return false
	}
	_, ok := h[id]
	return ok
}

// Toggle flips the visibility of id and reports whether it is now hidden.
func (h HiddenSet) Toggle(id string) bool {
	if _, ok := h[id]; ok {
		delete(h, id)
		return false
	}
	h[id] = struct{}{}
	return true
}

// Sorted returns the hidden ids in lexical order.
func (h HiddenSet) Sorted() []string {
	ids := make([]string, 0, len(h))
	for id := range h {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone copies the set.
func (h HiddenSet) Clone() HiddenSet {
	cloned := make(HiddenSet, len(h))
	for id := range h {
		cloned[id] = struct{}{}
	}
	return cloned
}

// Project returns the visible view of blocks: every block whose id is in
// hidden is dropped, at the root and inside every column. The result shares
// nothing with blocks, and neither argument is modified.
func Project(blocks []models.Block, hidden HiddenSet) []models.Block {
	result := make([]models.Block, 0, len(blocks))
	for _, block := range blocks {
		if hidden.Has(block.ID) {
			continue
		}
		result = append(result, projectBlock(block, hidden))
	}
	return result
}

func projectBlock(block models.Block, hidden HiddenSet) models.Block {
	if !block.IsContainer() || block.Columns == nil {
		return block.Clone()
	}

	projected := block
	projected.Data = models.CloneData(block.Data)
	projected.Columns = make(map[string][]models.Block, len(block.Columns))
	for key, children := range block.Columns {
		projected.Columns[key] = Project(children, hidden)
	}
	return projected
}

// AnnotateHidden returns a copy of blocks whose Hidden flags mirror hidden.
// This is the shape written back to the content store.
func AnnotateHidden(blocks []models.Block, hidden HiddenSet) []models.Block {
	annotated := models.CloneBlocks(blocks)
	annotateHidden(annotated, hidden)
	return annotated
}

func annotateHidden(blocks []models.Block, hidden HiddenSet) {
	for i := range blocks {
		blocks[i].Hidden = hidden.Has(blocks[i].ID)
		for key := range blocks[i].Columns {
			annotateHidden(blocks[i].Columns[key], hidden)
		}
	}
}
