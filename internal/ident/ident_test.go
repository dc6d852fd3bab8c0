package ident

import (
	"testing"

	"github.com/ephes/kptncook/internal/model"
)

func details(id, name string) model.IngredientDetails {
	return model.IngredientDetails{
		ID:             id,
		Typ:            "ingredient",
		LocalizedTitle: model.LocalizedText{De: name},
		NumberTitle:    model.LocalizedText{De: name},
	}
}

func TestResolveAssignsDistinctIDs(t *testing.T) {
	recipe := &model.Recipe{
		Ingredients: []model.Ingredient{
			{Ingredient: details("aaa", "Zwiebel")},
			{Ingredient: details("bbb", "Knoblauch")},
		},
	}

	res := Resolve(recipe)
	if len(res.RefIDs) != 2 {
		t.Fatalf("RefIDs = %d, want 2", len(res.RefIDs))
	}
	if res.RefIDs[0] == res.RefIDs[1] {
		t.Error("reference ids must be distinct per position")
	}

	other := Resolve(recipe)
	if res.RefIDs[0] == other.RefIDs[0] {
		t.Error("reference ids must not repeat across resolutions")
	}
}

func TestResolveDuplicateIngredient(t *testing.T) {
	// The same upstream ingredient appears twice in the flat list, e.g.
	// once for the dough and once for the topping.
	recipe := &model.Recipe{
		Ingredients: []model.Ingredient{
			{Ingredient: details("dup", "Zucker")},
			{Ingredient: details("solo", "Mehl")},
			{Ingredient: details("dup", "Zucker")},
		},
	}

	res := Resolve(recipe)
	refs := res.ForUpstream("dup")
	if len(refs) != 2 {
		t.Fatalf("ForUpstream(dup) = %d refs, want 2", len(refs))
	}
	if refs[0] == refs[1] {
		t.Error("duplicate positions must get distinct ids")
	}
	if refs[0] != res.RefIDs[0] || refs[1] != res.RefIDs[2] {
		t.Error("ForUpstream must preserve list order")
	}

	step := model.RecipeStep{
		Ingredients: []model.StepIngredient{
			{Ingredient: &model.IngredientDetails{ID: "dup"}},
		},
	}
	stepRefs := res.StepRefs(step)
	if len(stepRefs) != 2 {
		t.Fatalf("StepRefs = %d, want both duplicate occurrences", len(stepRefs))
	}
}

func TestStepRefsUnknownMention(t *testing.T) {
	recipe := &model.Recipe{
		Ingredients: []model.Ingredient{{Ingredient: details("aaa", "Zwiebel")}},
	}
	res := Resolve(recipe)

	step := model.RecipeStep{
		Ingredients: []model.StepIngredient{
			{Ingredient: &model.IngredientDetails{ID: "missing"}},
			{Ingredient: nil},
			{Ingredient: &model.IngredientDetails{ID: "aaa"}},
		},
	}
	refs := res.StepRefs(step)
	if len(refs) != 1 {
		t.Fatalf("StepRefs = %d, want 1", len(refs))
	}
	if refs[0] != res.RefIDs[0] {
		t.Error("resolved ref must match the list position id")
	}
}
