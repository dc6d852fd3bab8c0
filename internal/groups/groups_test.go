package groups

import (
	"testing"

	"github.com/ephes/kptncook/internal/model"
)

func ingredientWithTyp(typ, name string) model.Ingredient {
	return model.Ingredient{
		Ingredient: model.IngredientDetails{
			Typ:            typ,
			LocalizedTitle: model.LocalizedText{De: name},
			NumberTitle:    model.LocalizedText{De: name},
		},
	}
}

func TestParseLabels(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		key  string
		want string
	}{
		{name: "empty keeps defaults", raw: "", key: "regular", want: "You need"},
		{name: "default basic", raw: "", key: "basic", want: "Pantry"},
		{name: "override default", raw: "regular:Fresh", key: "regular", want: "Fresh"},
		{name: "new key", raw: "spices:Spice Rack", key: "spices", want: "Spice Rack"},
		{name: "key lowercased", raw: "SPICES:Spice Rack", key: "spices", want: "Spice Rack"},
		{name: "malformed entry skipped", raw: "nolabel,spices:Spice Rack", key: "spices", want: "Spice Rack"},
		{name: "unknown key title cased", raw: "", key: "fresh_herbs", want: "Fresh Herbs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := ParseLabels(tt.raw)
			if got := labels.Label(tt.key); got != tt.want {
				t.Errorf("Label(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestByTypOrdering(t *testing.T) {
	ingredients := []model.Ingredient{
		ingredientWithTyp("spices", "Paprika"),
		ingredientWithTyp("basic", "Salz"),
		ingredientWithTyp("regular", "Zwiebel"),
		ingredientWithTyp("", "Mystery"),
		ingredientWithTyp("regular", "Tomate"),
	}

	got := ByTyp(ingredients, DefaultLabels())

	wantLabels := []string{"You need", "Pantry", "Spices", "Other"}
	if len(got) != len(wantLabels) {
		t.Fatalf("groups = %d, want %d", len(got), len(wantLabels))
	}
	for i, want := range wantLabels {
		if got[i].Label != want {
			t.Errorf("group[%d].Label = %q, want %q", i, got[i].Label, want)
		}
	}

	// Configured labels come first, then first-seen order; order inside a
	// group follows the flat list.
	regular := got[0].Ingredients
	if len(regular) != 2 {
		t.Fatalf("regular group = %d ingredients, want 2", len(regular))
	}
	if regular[0].Ingredient.Name() != "Zwiebel" || regular[1].Ingredient.Name() != "Tomate" {
		t.Errorf("regular group order = %q, %q", regular[0].Ingredient.Name(), regular[1].Ingredient.Name())
	}
}

func TestByTypConfiguredOrderWins(t *testing.T) {
	labels := ParseLabels("spices:Spice Rack")
	ingredients := []model.Ingredient{
		ingredientWithTyp("spices", "Paprika"),
		ingredientWithTyp("regular", "Zwiebel"),
	}

	got := ByTyp(ingredients, labels)
	if got[0].Label != "You need" || got[1].Label != "Spice Rack" {
		t.Errorf("labels = %q, %q; want configured order first", got[0].Label, got[1].Label)
	}
}

func TestUngrouped(t *testing.T) {
	ingredients := []model.Ingredient{
		ingredientWithTyp("regular", "Zwiebel"),
		ingredientWithTyp("basic", "Salz"),
	}
	got := Ungrouped(ingredients)
	if len(got) != 1 {
		t.Fatalf("groups = %d, want 1", len(got))
	}
	if got[0].Label != "" {
		t.Errorf("label = %q, want empty", got[0].Label)
	}
	if len(got[0].Ingredients) != 2 {
		t.Errorf("ingredients = %d, want 2", len(got[0].Ingredients))
	}
}
