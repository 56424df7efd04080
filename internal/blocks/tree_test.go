package blocks

import (
	"errors"
	"reflect"
	"testing"

	"sitebuilder-backend/internal/models"
)

func ids(blocks []models.Block) []string {
	result := make([]string, 0, len(blocks))
	for _, block := range blocks {
		result = append(result, block.ID)
	}
	return result
}

func TestFindPrefersRootAndLocatesNested(t *testing.T) {
	blocks := sampleTree(t)

	_, pos, ok := Find(blocks, "l2")
	if !ok {
		t.Fatalf("expected to find nested block")
	}
	if pos.ParentID != "cols" || pos.Column != "leftColumn" || pos.Index != 1 || pos.Depth != 1 {
		t.Fatalf("unexpected position: %+v", pos)
	}

	_, pos, ok = Find(blocks, "c2")
	if !ok || !pos.IsRoot() || pos.Index != 1 {
		t.Fatalf("unexpected root position: %+v", pos)
	}

	if _, _, ok := Find(blocks, "missing"); ok {
		t.Fatalf("expected missing id to be reported as not found")
	}
}

func TestInsertIntoRootAndColumn(t *testing.T) {
	blocks := sampleTree(t)
	snapshot := models.CloneBlocks(blocks)

	root, err := Insert(blocks, Location{}, 1, models.Block{ID: "new", Type: "image"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ids(root), []string{"c1", "new", "c2", "cols"}) {
		t.Fatalf("unexpected root order: %v", ids(root))
	}

	nested, err := Insert(blocks, Location{ParentID: "cols", Column: "rightColumn"}, -1, models.Block{ID: "r2", Type: "image"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ids(nested[2].Columns["rightColumn"]), []string{"r1", "r2"}) {
		t.Fatalf("unexpected column: %v", ids(nested[2].Columns["rightColumn"]))
	}

	if !reflect.DeepEqual(blocks, snapshot) {
		t.Fatalf("insert mutated its input")
	}
}

func TestInsertErrors(t *testing.T) {
	blocks := sampleTree(t)

	cases := []struct {
		name string
		loc  Location
		err  error
	}{
		{name: "missing parent", loc: Location{ParentID: "nope"}, err: ErrParentNotFound},
		{name: "not a container", loc: Location{ParentID: "c1"}, err: ErrNotContainer},
		{name: "bad column", loc: Location{ParentID: "cols", Column: "column3"}, err: ErrInvalidColumn},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Insert(blocks, tc.loc, 0, models.Block{ID: "x", Type: "image"})
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
		})
	}
}

func TestRemoveNestedBlock(t *testing.T) {
	blocks := sampleTree(t)

	result, removed, err := Remove(blocks, "l1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed.ID != "l1" {
		t.Fatalf("unexpected removed block %q", removed.ID)
	}
	if !reflect.DeepEqual(ids(result[2].Columns["leftColumn"]), []string{"l2"}) {
		t.Fatalf("unexpected column after remove: %v", ids(result[2].Columns["leftColumn"]))
	}
	if len(blocks[2].Columns["leftColumn"]) != 2 {
		t.Fatalf("remove mutated its input")
	}

	if _, _, err := Remove(blocks, "missing"); !errors.Is(err, ErrBlockNotFound) {
		t.Fatalf("expected ErrBlockNotFound, got %v", err)
	}
}

func TestUpdateKeepsIDAndPosition(t *testing.T) {
	blocks := sampleTree(t)

	result, err := Update(blocks, "r1", func(block models.Block) models.Block {
		block.ID = "renamed"
		block.Data["text"] = "updated"
		return block
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	child := result[2].Columns["rightColumn"][0]
	if child.ID != "r1" || child.String("text") != "updated" {
		t.Fatalf("unexpected updated block: %+v", child)
	}
	if blocks[2].Columns["rightColumn"][0].String("text") != "right" {
		t.Fatalf("update mutated its input")
	}
}

func TestMoveBetweenLists(t *testing.T) {
	blocks := sampleTree(t)

	result, err := Move(blocks, "c1", Location{ParentID: "cols", Column: "leftColumn"}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ids(result), []string{"c2", "cols"}) {
		t.Fatalf("unexpected root after move: %v", ids(result))
	}
	if !reflect.DeepEqual(ids(result[1].Columns["leftColumn"]), []string{"c1", "l1", "l2"}) {
		t.Fatalf("unexpected column after move: %v", ids(result[1].Columns["leftColumn"]))
	}

	back, err := Move(result, "l2", Location{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ids(back), []string{"l2", "c2", "cols"}) {
		t.Fatalf("unexpected root after move out: %v", ids(back))
	}

	if _, err := Move(blocks, "cols", Location{ParentID: "cols", Column: "leftColumn"}, 0); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove, got %v", err)
	}
}

func TestReorderKeepsUnlistedBlocks(t *testing.T) {
	blocks := sampleTree(t)

	result := Reorder(blocks, []string{"cols", "unknown", "c1", "cols"})
	if !reflect.DeepEqual(ids(result), []string{"cols", "c1", "c2"}) {
		t.Fatalf("unexpected order: %v", ids(result))
	}
}

func TestClearIDsBlanksDescendants(t *testing.T) {
	blocks := sampleTree(t)

	cleared := ClearIDs(blocks[2])
	if cleared.ID != "cols" {
		t.Fatalf("expected container id to be kept")
	}
	for _, key := range cleared.ColumnKeys() {
		for _, child := range cleared.Columns[key] {
			if child.ID != "" {
				t.Fatalf("expected child id to be cleared, got %q", child.ID)
			}
		}
	}
	if blocks[2].Columns["leftColumn"][0].ID != "l1" {
		t.Fatalf("ClearIDs mutated its input")
	}
}
