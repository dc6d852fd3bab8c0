package mealie

import (
	"fmt"
	"strconv"

	"github.com/ephes/kptncook/internal/ident"
	"github.com/ephes/kptncook/internal/model"
)

const (
	sourceTag       = "kptncook"
	extrasIDKey     = "kptncook_id"
	extrasSourceKey = "source"

	shareBaseURL = "https://share.kptncook.com/"

	// fixedYield deliberately overrides the upstream serving count with a
	// single portion so Mealie's scaling works at portion granularity.
	fixedYield = "1 Portionen"
)

// FromCanonical projects a canonical recipe into the Mealie payload. Pure:
// step image uploads and cover scraping happen later during create.
func FromCanonical(r *model.Recipe, res *ident.Resolution, apiKey string) *Recipe {
	if res == nil {
		res = ident.Resolve(r)
	}

	out := &Recipe{
		Name:        r.LocalizedTitle.Fallback(),
		Description: r.AuthorComment.Fallback(),
		RecipeYield: fixedYield,
		PrepTime:    strconv.Itoa(r.PreparationTime),
		OrgURL:      shareURL(r),
		Tags:        projectTags(r),
		Nutrition: &Nutrition{
			Calories:            strconv.Itoa(r.Nutrition.Calories),
			FatContent:          strconv.Itoa(r.Nutrition.Fat),
			ProteinContent:      strconv.Itoa(r.Nutrition.Protein),
			CarbohydrateContent: strconv.Itoa(r.Nutrition.Carbohydrate),
		},
		Settings: &RecipeSettings{
			DisableComments: true,
			ShowNutrition:   true,
			ShowAssets:      true,
		},
		Extras: map[string]string{
			extrasIDKey:     r.ID.OID,
			extrasSourceKey: sourceTag,
		},
		coverURL: r.CoverURL(apiKey),
	}
	if r.CookingTime != nil {
		out.CookTime = strconv.Itoa(*r.CookingTime)
	}
	if comment := r.AuthorComment.Fallback(); comment != "" {
		out.Notes = []RecipeNote{{Title: "author comment", Text: comment}}
	}

	out.Ingredients = make([]RecipeIngredient, 0, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		out.Ingredients = append(out.Ingredients, projectIngredient(ing, res.RefIDs[i]))
	}

	out.Instructions = make([]RecipeStep, 0, len(r.Steps))
	for _, step := range r.Steps {
		refs := make([]IngredientReference, 0, len(step.Ingredients))
		for _, refID := range res.StepRefs(step) {
			refs = append(refs, IngredientReference{ReferenceID: refID})
		}
		out.Instructions = append(out.Instructions, RecipeStep{
			Text:                 step.Text(),
			IngredientReferences: refs,
			imageURL:             stepImageURL(step, apiKey),
		})
	}
	return out
}

func projectIngredient(ing model.Ingredient, refID string) RecipeIngredient {
	row := RecipeIngredient{
		ReferenceID: refID,
		Note:        ing.Ingredient.Name(),
		Quantity:    1,
		Food:        &UnitFood{Name: ing.Ingredient.Name()},
	}
	if ing.Quantity != nil {
		row.Quantity = *ing.Quantity
	}
	if ing.Measure != nil && *ing.Measure != "" {
		row.Unit = &UnitFood{Name: *ing.Measure}
	}
	return row
}

// projectTags yields the fixed origin tag plus the recipe's active tags in
// order, deduplicated.
func projectTags(r *model.Recipe) []RecipeTag {
	tags := []RecipeTag{{Name: sourceTag}}
	seen := map[string]bool{sourceTag: true}
	for _, tag := range r.ActiveTags {
		if tag == "" || seen[tag] {
			continue
		}
		tags = append(tags, RecipeTag{Name: tag})
		seen[tag] = true
	}
	return tags
}

// shareURL reconstructs the public sharing URL, preferring the short uid.
func shareURL(r *model.Recipe) string {
	if r.UID != "" {
		return fmt.Sprintf("%s%s", shareBaseURL, r.UID)
	}
	return fmt.Sprintf("%s%s", shareBaseURL, r.ID.OID)
}

func stepImageURL(step model.RecipeStep, apiKey string) string {
	if step.Image.URL == "" {
		return ""
	}
	return step.Image.URLWithKey(apiKey)
}
