package blocks

import (
	"encoding/json"
	"reflect"
	"testing"

	"sitebuilder-backend/internal/models"
)

func decodeBlocks(t *testing.T, raw string) []models.Block {
	t.Helper()
	var blocks []models.Block
	if err := json.Unmarshal([]byte(raw), &blocks); err != nil {
		t.Fatalf("failed to decode blocks: %v", err)
	}
	return blocks
}

func TestNormalizeHeroSingleton(t *testing.T) {
	blocks := decodeBlocks(t, `[
		{"type":"hero-simple"},
		{"type":"content","id":"c1"},
		{"type":"hero-floating-gallery"}
	]`)

	result := Normalize(blocks)
	if !result.Moved {
		t.Fatalf("expected moved flag when a duplicate hero is removed")
	}
	if len(result.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(result.Blocks))
	}
	if result.Blocks[0].ID != "hero-simple-0" || result.Blocks[0].Type != "hero-simple" {
		t.Fatalf("unexpected primary hero: %+v", result.Blocks[0])
	}
	if result.Blocks[1].ID != "c1" {
		t.Fatalf("expected content block to follow the hero, got %+v", result.Blocks[1])
	}
	if !reflect.DeepEqual(result.RemovedHeroes, []string{"hero-floating-gallery-2"}) {
		t.Fatalf("unexpected removed heroes: %v", result.RemovedHeroes)
	}
}

func TestNormalizeMovesHeroToFront(t *testing.T) {
	blocks := decodeBlocks(t, `[{"id":"a","type":"image"},{"id":"h","type":"mouse-image-gallery"}]`)

	result := Normalize(blocks)
	if !result.Moved {
		t.Fatalf("expected moved flag")
	}
	if result.Blocks[0].ID != "h" || result.Blocks[1].ID != "a" {
		t.Fatalf("unexpected order: %s, %s", result.Blocks[0].ID, result.Blocks[1].ID)
	}

	again := Normalize(result.Blocks)
	if again.Moved {
		t.Fatalf("expected no move on an already normalized list")
	}
}

func TestNormalizeColumnChildIDs(t *testing.T) {
	blocks := decodeBlocks(t, `[{"id":"cols","type":"two-columns","data":{"leftColumn":[{"src":"a.png"}],"rightColumn":[{"type":"quote","text":"hi"}]}}]`)

	result := Normalize(blocks)
	left := result.Blocks[0].Columns["leftColumn"]
	if len(left) != 1 {
		t.Fatalf("expected 1 left child, got %d", len(left))
	}
	if left[0].ID != "cols-leftColumn-0-image" {
		t.Fatalf("unexpected left child id %q", left[0].ID)
	}
	right := result.Blocks[0].Columns["rightColumn"]
	if right[0].ID != "cols-rightColumn-0-quote" {
		t.Fatalf("unexpected right child id %q", right[0].ID)
	}
}

func TestNormalizeDerivesContainerIDBeforeChildren(t *testing.T) {
	blocks := decodeBlocks(t, `[{"type":"image","id":"x"},{"type":"four-columns","data":{"column3":[{"type":"image"}]}}]`)

	result := Normalize(blocks)
	container := result.Blocks[1]
	if container.ID != "four-columns-1" {
		t.Fatalf("unexpected container id %q", container.ID)
	}
	if got := container.Columns["column3"][0].ID; got != "four-columns-1-column3-0-image" {
		t.Fatalf("unexpected nested id %q", got)
	}
	for _, key := range []string{"column1", "column2", "column4"} {
		if container.Columns[key] == nil {
			t.Fatalf("expected empty column %s to be present", key)
		}
	}
}

func TestNormalizeRepairsCollisions(t *testing.T) {
	blocks := []models.Block{
		{ID: "image-1", Type: "image"},
		{Type: "image"},
		{ID: "dup", Type: "quote"},
		{ID: "dup", Type: "quote"},
	}

	result := Normalize(blocks)
	assertUniqueIDs(t, result.Blocks)
	if result.Blocks[1].ID != "image-1-2" {
		t.Fatalf("expected suffixed id, got %q", result.Blocks[1].ID)
	}
	if result.Blocks[2].ID != "dup" {
		t.Fatalf("expected first occurrence to keep its id, got %q", result.Blocks[2].ID)
	}
	if result.Blocks[3].ID != "quote-3" {
		t.Fatalf("expected duplicate to be re-derived, got %q", result.Blocks[3].ID)
	}
}

func TestNormalizeRepairsIDsSharedAcrossLevels(t *testing.T) {
	blocks := decodeBlocks(t, `[
		{"id":"x","type":"quote","data":{"text":"root"}},
		{"id":"cols","type":"two-columns","data":{
			"leftColumn":[{"id":"x","type":"quote","data":{"text":"nested"}}],
			"rightColumn":[{"id":"cols","type":"image"}]
		}}
	]`)

	result := Normalize(blocks)
	assertUniqueIDs(t, result.Blocks)
	if result.Blocks[0].ID != "x" || result.Blocks[1].ID != "cols" {
		t.Fatalf("expected root blocks to keep their ids, got %v", []string{result.Blocks[0].ID, result.Blocks[1].ID})
	}
	nested := result.Blocks[1].Columns["leftColumn"][0]
	if nested.ID != "cols-leftColumn-0-quote" {
		t.Fatalf("expected nested duplicate to be re-derived, got %q", nested.ID)
	}
	if got := result.Blocks[1].Columns["rightColumn"][0].ID; got != "cols-rightColumn-0-image" {
		t.Fatalf("expected child sharing its container id to be re-derived, got %q", got)
	}

	projected := Project(result.Blocks, NewHiddenSet(nested.ID))
	if len(projected) != 2 || projected[0].ID != "x" {
		t.Fatalf("hiding the nested block must not hide the root block, got %+v", projected)
	}

	updated, err := Update(result.Blocks, nested.ID, func(block models.Block) models.Block {
		block.Data["text"] = "edited"
		return block
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated[0].String("text") != "root" {
		t.Fatalf("expected root block to be untouched, got %q", updated[0].String("text"))
	}
	if got := updated[1].Columns["leftColumn"][0].String("text"); got != "edited" {
		t.Fatalf("expected nested block to be edited, got %q", got)
	}
}

func TestNormalizeIsIdempotentAndPure(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: `[]`},
		{name: "plain", raw: `[{"type":"image"},{"type":"quote"},{"type":""}]`},
		{name: "heroes", raw: `[{"type":"image"},{"type":"hero-simple"},{"type":"hero-simple"},{"type":"mouse-image-gallery","id":"m"}]`},
		{name: "nested", raw: `[{"type":"two-columns","data":{"leftColumn":[{"type":"three-columns","data":{"middleColumn":[{"src":"x.png"},{"src":"y.png"}]}}],"rightColumn":[{"id":"r","type":"image"},{"id":"r","type":"image"}]}}]`},
		{name: "collisions", raw: `[{"id":"quote-1","type":"image"},{"type":"quote"},{"id":"quote-1","type":"quote"}]`},
		{name: "shared across levels", raw: `[{"id":"x","type":"image"},{"id":"c","type":"two-columns","data":{"leftColumn":[{"id":"x","type":"image"},{"type":"image"}],"rightColumn":[{"id":"c-leftColumn-1-image","type":"quote"}]}}]`},
		{name: "legacy flat", raw: `[{"id":"f","type":"image","src":"a.png","data":{"alt":"A"}}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := decodeBlocks(t, tc.raw)
			snapshot := models.CloneBlocks(input)

			once := Normalize(input)
			if !reflect.DeepEqual(input, snapshot) {
				t.Fatalf("normalize mutated its input")
			}

			twice := Normalize(once.Blocks)
			if !reflect.DeepEqual(once.Blocks, twice.Blocks) {
				t.Fatalf("normalize is not idempotent:\n once %+v\ntwice %+v", once.Blocks, twice.Blocks)
			}
			if twice.Moved {
				t.Fatalf("expected second pass to report no move")
			}

			assertUniqueIDs(t, once.Blocks)
			assertHeroFirst(t, input, once.Blocks)
		})
	}
}

func assertUniqueIDs(t *testing.T, blocks []models.Block) {
	t.Helper()
	seen := make(map[string]struct{})
	Walk(blocks, func(block models.Block, _ Position) bool {
		if block.ID == "" {
			t.Fatalf("found block without id: %+v", block)
		}
		if _, dup := seen[block.ID]; dup {
			t.Fatalf("duplicate id %q", block.ID)
		}
		seen[block.ID] = struct{}{}
		return true
	})
}

func assertHeroFirst(t *testing.T, input, output []models.Block) {
	t.Helper()
	hadHero := false
	for _, block := range input {
		if block.IsHero() {
			hadHero = true
			break
		}
	}
	heroes := 0
	for i, block := range output {
		if block.IsHero() {
			heroes++
			if i != 0 {
				t.Fatalf("hero found at index %d", i)
			}
		}
	}
	if hadHero && heroes != 1 {
		t.Fatalf("expected exactly one hero, got %d", heroes)
	}
}
