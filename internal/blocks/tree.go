package blocks

import (
	"errors"
	"strings"

	"sitebuilder-backend/internal/models"
)

var (
	ErrBlockNotFound  = errors.New("block not found")
	ErrParentNotFound = errors.New("parent block not found")
	ErrNotContainer   = errors.New("parent block is not a column container")
	ErrInvalidColumn  = errors.New("invalid column for container block")
	ErrInvalidMove    = errors.New("block cannot be moved into itself")
)

// Location names a block list: the root list, or one column of a container.
type Location struct {
	ParentID string `json:"parent_id,omitempty"`
	Column   string `json:"column,omitempty"`
}

// IsRoot reports whether the location is the page's root list.
func (l Location) IsRoot() bool {
	return strings.TrimSpace(l.ParentID) == ""
}

// Position is the place of a block inside a list.
type Position struct {
	Location
	Index int
	Depth int
}

// Walk visits blocks in document order, each container before its children.
// Returning false from fn stops the walk.
func Walk(blocks []models.Block, fn func(block models.Block, pos Position) bool) {
	walk(blocks, Location{}, 0, fn)
}

func walk(blocks []models.Block, loc Location, depth int, fn func(models.Block, Position) bool) bool {
	for i, block := range blocks {
		if !fn(block, Position{Location: loc, Index: i, Depth: depth}) {
			return false
		}
		for _, key := range block.ColumnKeys() {
			child := Location{ParentID: block.ID, Column: key}
			if !walk(block.Columns[key], child, depth+1, fn) {
				return false
			}
		}
	}
	return true
}

// Find locates a block by id. Root blocks take precedence over nested ones.
func Find(blocks []models.Block, id string) (models.Block, Position, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Block{}, Position{}, false
	}
	for i, block := range blocks {
		if block.ID == id {
			return block, Position{Index: i}, true
		}
	}

	var (
		found    models.Block
		position Position
		ok       bool
	)
	Walk(blocks, func(block models.Block, pos Position) bool {
		if block.ID == id && !pos.IsRoot() {
			found, position, ok = block, pos, true
			return false
		}
		return true
	})
	return found, position, ok
}

// Contains reports whether a block with id exists anywhere in blocks.
func Contains(blocks []models.Block, id string) bool {
	_, _, ok := Find(blocks, id)
	return ok
}

// Insert places block into the list named by loc. The index is clamped to the
// list bounds; a negative index appends.
func Insert(blocks []models.Block, loc Location, index int, block models.Block) ([]models.Block, error) {
	result := models.CloneBlocks(blocks)
	if result == nil {
		result = []models.Block{}
	}
	return mutateList(result, loc, func(list []models.Block) ([]models.Block, error) {
		return insertAt(list, index, block.Clone()), nil
	})
}

// Remove deletes the block with id and returns the removed block.
func Remove(blocks []models.Block, id string) ([]models.Block, models.Block, error) {
	_, pos, ok := Find(blocks, id)
	if !ok {
		return nil, models.Block{}, ErrBlockNotFound
	}

	var removed models.Block
	result, err := mutateList(models.CloneBlocks(blocks), pos.Location, func(list []models.Block) ([]models.Block, error) {
		removed = list[pos.Index]
		return append(list[:pos.Index], list[pos.Index+1:]...), nil
	})
	if err != nil {
		return nil, models.Block{}, err
	}
	return result, removed, nil
}

// Update replaces the block with id by the result of fn, whether it lives at
// the root or inside a column. The id is preserved.
func Update(blocks []models.Block, id string, fn func(models.Block) models.Block) ([]models.Block, error) {
	_, pos, ok := Find(blocks, id)
	if !ok {
		return nil, ErrBlockNotFound
	}

	return mutateList(models.CloneBlocks(blocks), pos.Location, func(list []models.Block) ([]models.Block, error) {
		current := list[pos.Index]
		updated := fn(current.Clone())
		updated.ID = current.ID
		list[pos.Index] = updated
		return list, nil
	})
}

// Move detaches the block with id and inserts it into the list named by to.
func Move(blocks []models.Block, id string, to Location, index int) ([]models.Block, error) {
	block, _, ok := Find(blocks, id)
	if !ok {
		return nil, ErrBlockNotFound
	}
	if !to.IsRoot() {
		if to.ParentID == block.ID || Contains(descendants(block), to.ParentID) {
			return nil, ErrInvalidMove
		}
	}

	remaining, removed, err := Remove(blocks, id)
	if err != nil {
		return nil, err
	}
	return Insert(remaining, to, index, removed)
}

// Reorder rearranges the root list to follow ids. Unknown ids are ignored and
// blocks not named keep their relative order after the named ones.
func Reorder(blocks []models.Block, ids []string) []models.Block {
	byID := make(map[string]int, len(blocks))
	for i, block := range blocks {
		byID[block.ID] = i
	}

	placed := make([]bool, len(blocks))
	result := make([]models.Block, 0, len(blocks))
	for _, id := range ids {
		i, ok := byID[strings.TrimSpace(id)]
		if !ok || placed[i] {
			continue
		}
		placed[i] = true
		result = append(result, blocks[i].Clone())
	}
	for i, block := range blocks {
		if !placed[i] {
			result = append(result, block.Clone())
		}
	}
	return result
}

// ClearIDs blanks the id of every descendant of block so that normalization
// derives fresh ids from the block's own id.
func ClearIDs(block models.Block) models.Block {
	cleared := block.Clone()
	for key, children := range cleared.Columns {
		for i := range children {
			children[i] = ClearIDs(children[i])
			children[i].ID = ""
		}
		cleared.Columns[key] = children
	}
	return cleared
}

func descendants(block models.Block) []models.Block {
	var result []models.Block
	for _, key := range block.ColumnKeys() {
		result = append(result, block.Columns[key]...)
	}
	return result
}

// mutateList applies fn to the list named by loc inside blocks and returns
// the updated root list. blocks must already be a private copy.
func mutateList(blocks []models.Block, loc Location, fn func([]models.Block) ([]models.Block, error)) ([]models.Block, error) {
	if loc.IsRoot() {
		return fn(blocks)
	}

	_, pos, ok := Find(blocks, loc.ParentID)
	if !ok {
		return nil, ErrParentNotFound
	}

	return mutateList(blocks, pos.Location, func(list []models.Block) ([]models.Block, error) {
		parent := &list[pos.Index]
		column, err := resolveColumn(*parent, loc.Column)
		if err != nil {
			return nil, err
		}
		children := parent.Columns[column]
		if children == nil {
			children = []models.Block{}
		}
		children, err = fn(children)
		if err != nil {
			return nil, err
		}
		if parent.Columns == nil {
			parent.Columns = make(map[string][]models.Block)
		}
		parent.Columns[column] = children
		return list, nil
	})
}

// resolveColumn validates column against the container's slots. An empty
// column selects the first slot.
func resolveColumn(parent models.Block, column string) (string, error) {
	keys := parent.ColumnKeys()
	if keys == nil {
		return "", ErrNotContainer
	}
	column = strings.TrimSpace(column)
	if column == "" {
		return keys[0], nil
	}
	for _, key := range keys {
		if key == column {
			return key, nil
		}
	}
	return "", ErrInvalidColumn
}

func insertAt(list []models.Block, index int, block models.Block) []models.Block {
	if index < 0 || index > len(list) {
		index = len(list)
	}
	list = append(list, models.Block{})
	copy(list[index+1:], list[index:])
	list[index] = block
	return list
}
