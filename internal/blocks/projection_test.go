package blocks

import (
	"reflect"
	"testing"

	"sitebuilder-backend/internal/models"
)

func sampleTree(t *testing.T) []models.Block {
	t.Helper()
	return decodeBlocks(t, `[
		{"id":"c1","type":"quote","data":{"text":"one"}},
		{"id":"c2","type":"quote","data":{"text":"two"}},
		{"id":"cols","type":"two-columns","data":{
			"gap":"small",
			"leftColumn":[{"id":"l1","type":"image","src":"a.png"},{"id":"l2","type":"image","src":"b.png"}],
			"rightColumn":[{"id":"r1","type":"quote","text":"right"}]
		}}
	]`)
}

func TestProjectRemovesHiddenRootBlocks(t *testing.T) {
	blocks := decodeBlocks(t, `[{"id":"c1"},{"id":"c2"}]`)

	projected := Project(blocks, NewHiddenSet("c1"))
	if len(projected) != 1 || projected[0].ID != "c2" {
		t.Fatalf("unexpected projection: %+v", projected)
	}
}

func TestProjectHidesNestedChildren(t *testing.T) {
	blocks := sampleTree(t)

	projected := Project(blocks, NewHiddenSet("l1"))
	if len(projected) != 3 {
		t.Fatalf("expected all root blocks to remain, got %d", len(projected))
	}
	left := projected[2].Columns["leftColumn"]
	if len(left) != 1 || left[0].ID != "l2" {
		t.Fatalf("expected only l2 to remain in the left column, got %+v", left)
	}
	if len(projected[2].Columns["rightColumn"]) != 1 {
		t.Fatalf("expected right column to be untouched")
	}
	if projected[2].String("gap") != "small" {
		t.Fatalf("expected container data to be kept")
	}

	hiddenContainer := Project(blocks, NewHiddenSet("l1", "cols"))
	if len(hiddenContainer) != 2 {
		t.Fatalf("expected container to be removed, got %d blocks", len(hiddenContainer))
	}
}

func TestProjectNeverMutatesInput(t *testing.T) {
	blocks := sampleTree(t)
	snapshot := models.CloneBlocks(blocks)
	hidden := NewHiddenSet("c2", "r1")
	hiddenSnapshot := hidden.Clone()

	projected := Project(blocks, hidden)
	if !reflect.DeepEqual(blocks, snapshot) {
		t.Fatalf("project mutated its block list")
	}
	if !reflect.DeepEqual(hidden, hiddenSnapshot) {
		t.Fatalf("project mutated the hidden set")
	}

	projected[0].Data["text"] = "changed"
	projected[1].Columns["leftColumn"][0].Data["src"] = "changed.png"
	if blocks[0].String("text") != "one" {
		t.Fatalf("projection shares data with its input")
	}
	if blocks[2].Columns["leftColumn"][0].String("src") != "a.png" {
		t.Fatalf("projection shares nested data with its input")
	}
}

func TestProjectWithEmptyHiddenSet(t *testing.T) {
	blocks := sampleTree(t)

	projected := Project(blocks, nil)
	if !reflect.DeepEqual(projected, blocks) {
		t.Fatalf("expected projection with no hidden ids to equal the input")
	}
}

func TestHiddenSetHelpers(t *testing.T) {
	blocks := decodeBlocks(t, `[
		{"id":"a","type":"image","hidden":true},
		{"id":"cols","type":"two-columns","data":{"rightColumn":[{"id":"x","type":"image","hidden":true}]}}
	]`)

	hidden := HiddenFromBlocks(blocks)
	if !reflect.DeepEqual(hidden.Sorted(), []string{"a", "x"}) {
		t.Fatalf("unexpected hidden ids: %v", hidden.Sorted())
	}

	if hidden.Toggle("a") {
		t.Fatalf("expected a to become visible")
	}
	if !hidden.Toggle("cols") {
		t.Fatalf("expected cols to become hidden")
	}

	annotated := AnnotateHidden(blocks, hidden)
	if annotated[0].Hidden || !annotated[1].Hidden {
		t.Fatalf("unexpected root flags: %v %v", annotated[0].Hidden, annotated[1].Hidden)
	}
	if !annotated[1].Columns["rightColumn"][0].Hidden {
		t.Fatalf("expected nested flag to be kept")
	}
	if !blocks[0].Hidden {
		t.Fatalf("annotate mutated its input")
	}
}
