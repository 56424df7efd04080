package blocks

import (
	"fmt"
	"strings"

	"sitebuilder-backend/internal/models"
)

const fallbackIDType = "block"

// NormalizeResult is the repaired block list plus a report of structural changes.
type NormalizeResult struct {
	Blocks []models.Block
	// Moved reports that hero enforcement changed the order or the number of root blocks.
	Moved bool
	// RemovedHeroes lists the ids of hero blocks dropped in favour of the primary hero.
	RemovedHeroes []string
}

// Normalize assigns missing ids, repairs duplicate ids and enforces the single
// leading hero rule. Ids are unique across the whole tree: root blocks claim
// theirs first, then each container's children in document order. It never
// mutates its input and is idempotent.
func Normalize(input []models.Block) NormalizeResult {
	blocks := models.CloneBlocks(input)
	if blocks == nil {
		blocks = []models.Block{}
	}

	used := make(map[string]struct{})
	assignIDs(blocks, used, func(index int, block models.Block) string {
		return fmt.Sprintf("%s-%d", idType(block.Type), index)
	})
	for i := range blocks {
		normalizeColumns(&blocks[i], used)
	}

	blocks, primary, removed := enforceHero(blocks)

	return NormalizeResult{
		Blocks:        blocks,
		Moved:         primary > 0 || len(removed) > 0,
		RemovedHeroes: removed,
	}
}

// NormalizeBlocks is Normalize without the report.
func NormalizeBlocks(input []models.Block) []models.Block {
	return Normalize(input).Blocks
}

func normalizeColumns(block *models.Block, used map[string]struct{}) {
	keys := block.ColumnKeys()
	if keys == nil {
		return
	}
	if block.Columns == nil {
		block.Columns = make(map[string][]models.Block, len(keys))
	}

	parentID := block.ID
	for _, key := range keys {
		children := block.Columns[key]
		if children == nil {
			children = []models.Block{}
		}
		columnKey := key
		assignIDs(children, used, func(index int, child models.Block) string {
			return fmt.Sprintf("%s-%s-%d-%s", parentID, columnKey, index, idType(child.Type))
		})
		for i := range children {
			normalizeColumns(&children[i], used)
		}
		block.Columns[key] = children
	}
}

// assignIDs gives every block in list a non-empty id not yet in used and
// records it there. Existing ids keep priority; duplicates and blank ids are
// derived from their position.
func assignIDs(list []models.Block, used map[string]struct{}, derive func(index int, block models.Block) string) {
	var pending []int

	for i := range list {
		id := strings.TrimSpace(list[i].ID)
		list[i].ID = id
		if id == "" {
			pending = append(pending, i)
			continue
		}
		if _, duplicate := used[id]; duplicate {
			pending = append(pending, i)
			continue
		}
		used[id] = struct{}{}
	}

	for _, i := range pending {
		id := uniqueID(derive(i, list[i]), used)
		list[i].ID = id
		used[id] = struct{}{}
	}
}

func uniqueID(candidate string, used map[string]struct{}) string {
	if _, taken := used[candidate]; !taken {
		return candidate
	}
	for n := 2; ; n++ {
		next := fmt.Sprintf("%s-%d", candidate, n)
		if _, taken := used[next]; !taken {
			return next
		}
	}
}

// enforceHero keeps the first hero block, moves it to the front and drops the others.
func enforceHero(blocks []models.Block) ([]models.Block, int, []string) {
	primary := -1
	for i, block := range blocks {
		if block.IsHero() {
			primary = i
			break
		}
	}
	if primary < 0 {
		return blocks, primary, nil
	}

	result := make([]models.Block, 0, len(blocks))
	result = append(result, blocks[primary])
	var removed []string
	for i, block := range blocks {
		if i == primary {
			continue
		}
		if block.IsHero() {
			removed = append(removed, block.ID)
			continue
		}
		result = append(result, block)
	}
	return result, primary, removed
}

func idType(blockType string) string {
	blockType = strings.TrimSpace(blockType)
	if blockType == "" {
		return fallbackIDType
	}
	return blockType
}
