package mealie

import (
	"testing"

	"github.com/ephes/kptncook/internal/ident"
	"github.com/ephes/kptncook/internal/model"
)

func intp(v int) *int { return &v }

func canonicalRecipe() *model.Recipe {
	quantity := 250.0
	measure := "g"
	return &model.Recipe{
		ID:              model.RecipeID{OID: "5e5390e2740000cdf1381c64"},
		UID:             "3d6ca9e1",
		RType:           "veggie",
		LocalizedTitle:  model.LocalizedText{De: "Spaghetti Bolognese"},
		AuthorComment:   model.LocalizedText{De: "Ein Klassiker"},
		PreparationTime: 20,
		CookingTime:     intp(15),
		Nutrition:       model.Nutrition{Calories: 600, Protein: 20, Fat: 25, Carbohydrate: 70},
		ActiveTags:      []string{"pasta", "kptncook", "pasta"},
		Ingredients: []model.Ingredient{
			{
				Quantity: &quantity,
				Measure:  &measure,
				Ingredient: model.IngredientDetails{
					ID:             "ing-1",
					Typ:            "regular",
					LocalizedTitle: model.LocalizedText{De: "Spaghetti"},
					NumberTitle:    model.LocalizedText{De: "Spaghetti"},
				},
			},
			{
				Ingredient: model.IngredientDetails{
					ID:             "ing-2",
					Typ:            "basic",
					LocalizedTitle: model.LocalizedText{De: "Salz"},
					NumberTitle:    model.LocalizedText{De: "Salz"},
				},
			},
		},
		Steps: []model.RecipeStep{
			{
				Title: model.LocalizedText{De: "Nudeln kochen, <timer>."},
				Timers: []model.StepTimer{
					{MinOrExact: intp(10)},
				},
				Ingredients: []model.StepIngredient{
					{Ingredient: &model.IngredientDetails{ID: "ing-1"}},
				},
				Image: model.Image{Name: "step1.jpg", URL: "https://img.example.com/step1"},
			},
		},
		ImageList: []model.Image{
			{Name: "REZ_1_Cover.jpg", Type: "cover", URL: "https://img.example.com/cover"},
		},
	}
}

func TestFromCanonical(t *testing.T) {
	recipe := canonicalRecipe()
	res := ident.Resolve(recipe)
	projected := FromCanonical(recipe, res, "test-key")

	if projected.Name != "Spaghetti Bolognese" {
		t.Errorf("name = %q", projected.Name)
	}
	if projected.RecipeYield != "1 Portionen" {
		t.Errorf("yield = %q, want fixed portion yield", projected.RecipeYield)
	}
	if projected.PrepTime != "20" || projected.CookTime != "15" {
		t.Errorf("times = %q/%q", projected.PrepTime, projected.CookTime)
	}
	if projected.OrgURL != "https://share.kptncook.com/3d6ca9e1" {
		t.Errorf("orgURL = %q", projected.OrgURL)
	}
	if projected.Nutrition == nil || projected.Nutrition.Calories != "600" {
		t.Errorf("nutrition = %+v, want string calories", projected.Nutrition)
	}
	if projected.Extras["kptncook_id"] != "5e5390e2740000cdf1381c64" || projected.Extras["source"] != "kptncook" {
		t.Errorf("extras = %v", projected.Extras)
	}
	if projected.coverURL != "https://img.example.com/cover?kptnkey=test-key" {
		t.Errorf("coverURL = %q", projected.coverURL)
	}
}

func TestFromCanonicalTags(t *testing.T) {
	projected := FromCanonical(canonicalRecipe(), nil, "test-key")

	want := []string{"kptncook", "pasta"}
	if len(projected.Tags) != len(want) {
		t.Fatalf("tags = %v, want %v", projected.Tags, want)
	}
	for i, name := range want {
		if projected.Tags[i].Name != name {
			t.Errorf("tags[%d] = %q, want %q", i, projected.Tags[i].Name, name)
		}
	}
}

func TestFromCanonicalIngredientReferences(t *testing.T) {
	recipe := canonicalRecipe()
	res := ident.Resolve(recipe)
	projected := FromCanonical(recipe, res, "test-key")

	if len(projected.Ingredients) != 2 {
		t.Fatalf("ingredients = %d, want 2", len(projected.Ingredients))
	}
	if projected.Ingredients[0].ReferenceID != res.RefIDs[0] {
		t.Error("ingredient row must carry its resolved reference id")
	}
	if projected.Ingredients[0].Quantity != 250 {
		t.Errorf("quantity = %v, want 250", projected.Ingredients[0].Quantity)
	}
	if projected.Ingredients[0].Unit == nil || projected.Ingredients[0].Unit.Name != "g" {
		t.Errorf("unit = %+v", projected.Ingredients[0].Unit)
	}
	if projected.Ingredients[1].Unit != nil {
		t.Error("unitless ingredient must not carry a unit")
	}

	if len(projected.Instructions) != 1 {
		t.Fatalf("instructions = %d, want 1", len(projected.Instructions))
	}
	step := projected.Instructions[0]
	if step.Text != "Nudeln kochen, 10 Min.." {
		t.Errorf("step text = %q, want expanded timer", step.Text)
	}
	if len(step.IngredientReferences) != 1 || step.IngredientReferences[0].ReferenceID != res.RefIDs[0] {
		t.Errorf("step references = %v, want first ingredient ref", step.IngredientReferences)
	}
	if step.imageURL != "https://img.example.com/step1?kptnkey=test-key" {
		t.Errorf("step imageURL = %q", step.imageURL)
	}
}

func TestFromCanonicalDuplicateIngredient(t *testing.T) {
	recipe := canonicalRecipe()
	dup := recipe.Ingredients[0]
	recipe.Ingredients = append(recipe.Ingredients, dup)

	res := ident.Resolve(recipe)
	projected := FromCanonical(recipe, res, "test-key")

	if projected.Ingredients[0].ReferenceID == projected.Ingredients[2].ReferenceID {
		t.Error("duplicate ingredient rows must carry distinct reference ids")
	}
	refs := projected.Instructions[0].IngredientReferences
	if len(refs) != 2 {
		t.Fatalf("step references = %d, want both duplicates", len(refs))
	}
}
