// Package mealie projects canonical recipes into the Mealie REST API and
// reconciles them idempotently with the recipes already present there.
package mealie

import "encoding/json"

// RecipeTag is a named organizer entity. The id is assigned by the server.
type RecipeTag struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// UnitFood is a food or unit entity referenced by name from ingredient
// rows.
type UnitFood struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// RecipeIngredient is one ingredient row. ReferenceID ties the row to the
// step instructions mentioning it.
type RecipeIngredient struct {
	ReferenceID   string    `json:"referenceId,omitempty"`
	Title         *string   `json:"title"`
	Note          string    `json:"note,omitempty"`
	Unit          *UnitFood `json:"unit,omitempty"`
	Food          *UnitFood `json:"food,omitempty"`
	Quantity      float64   `json:"quantity"`
	DisableAmount bool      `json:"disableAmount"`
}

// IngredientReference links an instruction step to an ingredient row.
type IngredientReference struct {
	ReferenceID string `json:"referenceId"`
}

// RecipeStep is one instruction step of a Mealie recipe.
type RecipeStep struct {
	ID                   string                `json:"id,omitempty"`
	Title                string                `json:"title,omitempty"`
	Text                 string                `json:"text"`
	IngredientReferences []IngredientReference `json:"ingredientReferences"`

	// imageURL is the authenticated upstream step image URL, carried
	// through projection so the create flow can upload it as an asset.
	// Never serialized.
	imageURL string
}

// Nutrition carries Mealie's string-typed nutrition fields.
type Nutrition struct {
	Calories            string `json:"calories,omitempty"`
	FatContent          string `json:"fatContent,omitempty"`
	ProteinContent      string `json:"proteinContent,omitempty"`
	CarbohydrateContent string `json:"carbohydrateContent,omitempty"`
}

// RecipeSettings mirrors the per-recipe display settings.
type RecipeSettings struct {
	Public          bool `json:"public"`
	ShowNutrition   bool `json:"showNutrition"`
	ShowAssets      bool `json:"showAssets"`
	LandscapeView   bool `json:"landscapeView"`
	DisableComments bool `json:"disableComments"`
	DisableAmount   bool `json:"disableAmount"`
	Locked          bool `json:"locked"`
}

// RecipeNote is a free-form note attached to a recipe.
type RecipeNote struct {
	Title string `json:"title"`
	Text  string `json:"text,omitempty"`
}

// RecipeSummary is the shape of a recipe in listing responses.
type RecipeSummary struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
}

// Recipe is the full Mealie recipe payload.
type Recipe struct {
	ID           string             `json:"id,omitempty"`
	Name         string             `json:"name"`
	Slug         string             `json:"slug,omitempty"`
	Description  string             `json:"description,omitempty"`
	RecipeYield  string             `json:"recipeYield,omitempty"`
	PrepTime     string             `json:"prepTime,omitempty"`
	CookTime     string             `json:"cookTime,omitempty"`
	PerformTime  string             `json:"performTime,omitempty"`
	OrgURL       string             `json:"orgURL,omitempty"`
	Tags         []RecipeTag        `json:"tags"`
	Ingredients  []RecipeIngredient `json:"recipeIngredient"`
	Instructions []RecipeStep       `json:"recipeInstructions"`
	Nutrition    *Nutrition         `json:"nutrition,omitempty"`
	Settings     *RecipeSettings    `json:"settings,omitempty"`
	Notes        []RecipeNote       `json:"notes,omitempty"`
	Extras       map[string]string  `json:"extras,omitempty"`

	// coverURL is the authenticated upstream cover image URL, used by the
	// create flow for the image scrape call. Never serialized.
	coverURL string
}

// KptnCookID returns the upstream recipe id embedded in the extras, or ""
// for recipes that did not originate here.
func (r *Recipe) KptnCookID() string {
	return r.Extras[extrasIDKey]
}

// FromKptnCook reports whether the recipe's extras carry the origin tag.
func (r *Recipe) FromKptnCook() bool {
	return r.Extras[extrasSourceKey] == sourceTag
}

// paginated is the envelope of Mealie's listing endpoints.
type paginated struct {
	Page       int               `json:"page"`
	PerPage    int               `json:"perPage"`
	TotalPages int               `json:"total_pages"`
	Items      []json.RawMessage `json:"items"`
}
