// Package model holds the canonical recipe object graph and the parser that
// normalizes the drifting upstream JSON shapes into it.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RecipeID wraps the upstream 24-character hex object identifier. It is the
// identity key for a canonical recipe.
type RecipeID struct {
	OID string `json:"$oid"`
}

func (id RecipeID) String() string {
	return id.OID
}

// Nutrition carries the per-portion nutrition block, integer as upstream
// delivers it.
type Nutrition struct {
	Calories     int `json:"calories"`
	Protein      int `json:"protein"`
	Fat          int `json:"fat"`
	Carbohydrate int `json:"carbohydrate"`
}

// Image is an upstream-hosted image. Its URL is only fetchable with the API
// key appended as a query parameter.
type Image struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	URL  string `json:"url"`
}

// URLWithKey derives the authenticated URL for the image.
func (i Image) URLWithKey(apiKey string) string {
	return fmt.Sprintf("%s?kptnkey=%s", i.URL, apiKey)
}

// IngredientDetails describes one ingredient independent of quantity.
type IngredientDetails struct {
	ID               string         `json:"-"`
	Typ              string         `json:"typ"`
	LocalizedTitle   LocalizedText  `json:"localizedTitle"`
	NumberTitle      LocalizedText  `json:"numberTitle"`
	UncountableTitle *LocalizedText `json:"uncountableTitle,omitempty"`
	Category         string         `json:"category"`
}

// Name resolves the display name: the uncountable title when present, then
// the localized title.
func (d IngredientDetails) Name() string {
	if d.UncountableTitle != nil {
		if title := d.UncountableTitle.Fallback(); title != "" {
			return title
		}
	}
	return d.LocalizedTitle.Fallback()
}

// UnmarshalJSON repairs historically inconsistent payloads: a missing
// localizedTitle is filled from uncountableTitle, numberTitle, title or name
// in that order; a missing numberTitle falls back through the same chain in
// reverse; a missing uncountableTitle defaults to numberTitle.
func (d *IngredientDetails) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding ingredient details: %w", err)
	}

	if missingKey(raw, "localizedTitle") {
		for _, key := range []string{"uncountableTitle", "numberTitle", "title", "name"} {
			if !missingKey(raw, key) {
				raw["localizedTitle"] = raw[key]
				break
			}
		}
	}
	if missingKey(raw, "numberTitle") {
		for _, key := range []string{"title", "uncountableTitle", "localizedTitle", "name"} {
			if !missingKey(raw, key) {
				raw["numberTitle"] = raw[key]
				break
			}
		}
	}
	if missingKey(raw, "uncountableTitle") {
		if v, ok := raw["numberTitle"]; ok {
			raw["uncountableTitle"] = v
		}
	}

	type alias IngredientDetails
	var a alias
	repaired, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("re-encoding ingredient details: %w", err)
	}
	if err := json.Unmarshal(repaired, &a); err != nil {
		return fmt.Errorf("decoding ingredient details: %w", err)
	}
	*d = IngredientDetails(a)
	d.ID = extractObjectID(raw)
	return nil
}

// Ingredient is one entry of the flat ingredient list. Constructed once per
// recipe during parse, immutable within a single export.
type Ingredient struct {
	Quantity   *float64          `json:"quantity,omitempty"`
	Measure    *string           `json:"measure,omitempty"`
	Ingredient IngredientDetails `json:"ingredient"`
}

// StepIngredientUnit names the unit of a step-scoped ingredient mention.
type StepIngredientUnit struct {
	Name           string        `json:"name,omitempty"`
	LocalizedTitle LocalizedText `json:"localizedTitle,omitempty"`
	ShortTitle     LocalizedText `json:"shortTitle,omitempty"`
}

// DisplayName resolves the unit name, preferring the plain name.
func (u StepIngredientUnit) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if title := u.LocalizedTitle.Fallback(); title != "" {
		return title
	}
	return u.ShortTitle.Fallback()
}

// StepIngredient is a step-scoped mention of an ingredient. It references
// the flat list only through the upstream ingredient id.
type StepIngredient struct {
	Quantity   *float64            `json:"quantity,omitempty"`
	Unit       *StepIngredientUnit `json:"unit,omitempty"`
	Ingredient *IngredientDetails  `json:"ingredient,omitempty"`
}

// UpstreamID returns the upstream ingredient id of the mention, or "" when
// the payload carried none.
func (s StepIngredient) UpstreamID() string {
	if s.Ingredient == nil {
		return ""
	}
	return s.Ingredient.ID
}

// Name resolves a display name for the mention: uncountable, localized,
// then number title.
func (s StepIngredient) Name() string {
	if s.Ingredient == nil {
		return ""
	}
	if s.Ingredient.UncountableTitle != nil {
		if title := s.Ingredient.UncountableTitle.Fallback(); title != "" {
			return title
		}
	}
	if title := s.Ingredient.LocalizedTitle.Fallback(); title != "" {
		return title
	}
	return s.Ingredient.NumberTitle.Fallback()
}

// StepTimer is a timer attached to a step, substituted positionally into
// <timer> placeholders of the instruction text.
type StepTimer struct {
	MinOrExact *int `json:"minOrExact,omitempty"`
	Max        *int `json:"maxOrNil,omitempty"`
}

// RecipeStep is one instruction step.
type RecipeStep struct {
	Title       LocalizedText    `json:"title"`
	Image       Image            `json:"image"`
	Ingredients []StepIngredient `json:"ingredients,omitempty"`
	Timers      []StepTimer      `json:"timers,omitempty"`
}

// Recipe is the canonical, normalized recipe.
type Recipe struct {
	ID              RecipeID      `json:"_id"`
	UID             string        `json:"uid,omitempty"`
	RType           string        `json:"rtype,omitempty"`
	LocalizedTitle  LocalizedText `json:"localizedTitle"`
	AuthorComment   LocalizedText `json:"authorComment"`
	PreparationTime int           `json:"preparationTime"`
	CookingTime     *int          `json:"cookingTime,omitempty"`
	Nutrition       Nutrition     `json:"recipeNutrition"`
	ActiveTags      []string      `json:"activeTags,omitempty"`
	Steps           []RecipeStep  `json:"steps"`
	ImageList       []Image       `json:"imageList"`
	Ingredients     []Ingredient  `json:"ingredients"`
}

// recipeRequiredKeys are the fields with no reasonable fallback. A payload
// missing any of them fails parsing for that single recipe.
var recipeRequiredKeys = []string{
	"_id",
	"localizedTitle",
	"preparationTime",
	"recipeNutrition",
	"steps",
	"imageList",
	"ingredients",
}

// ValidationError enumerates every structurally invalid field of a payload.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid recipe payload: missing or invalid fields: %s",
		strings.Join(e.Fields, ", "))
}

// UnmarshalJSON applies the top-level title fallback (localizedTitle, then
// title, then name) before decoding into the typed struct. Unknown keys are
// ignored for forward compatibility.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	raw, err := normalizeRecipeTree(data)
	if err != nil {
		return err
	}

	type alias Recipe
	var a alias
	repaired, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("re-encoding recipe: %w", err)
	}
	if err := json.Unmarshal(repaired, &a); err != nil {
		return fmt.Errorf("decoding recipe: %w", err)
	}
	*r = Recipe(a)
	return nil
}

// ParseRecipe normalizes one upstream recipe payload into the canonical
// model, or fails with a *ValidationError naming every missing required
// field. Batch callers are expected to skip failing records and continue.
func ParseRecipe(data []byte) (*Recipe, error) {
	raw, err := normalizeRecipeTree(data)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, key := range recipeRequiredKeys {
		if missingKey(raw, key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	var r Recipe
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r.ID.OID == "" {
		return nil, &ValidationError{Fields: []string{"_id.$oid"}}
	}
	return &r, nil
}

// normalizeRecipeTree decodes the payload into an untyped tree and applies
// the top-level shape fallbacks.
func normalizeRecipeTree(data []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding recipe: %w", err)
	}
	if missingKey(raw, "localizedTitle") {
		for _, key := range []string{"title", "name"} {
			if !missingKey(raw, key) {
				raw["localizedTitle"] = raw[key]
				break
			}
		}
	}
	return raw, nil
}

func missingKey(raw map[string]json.RawMessage, key string) bool {
	v, ok := raw[key]
	return !ok || isJSONNull(v)
}

// extractObjectID pulls an upstream identifier from an untyped tree,
// accepting {"$oid": ...} wrappers, bare strings and the usual key aliases.
func extractObjectID(raw map[string]json.RawMessage) string {
	for _, key := range []string{"_id", "id", "ingredientId"} {
		v, ok := raw[key]
		if !ok || isJSONNull(v) {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(v, &nested); err != nil {
			continue
		}
		for _, nestedKey := range []string{"$oid", "oid"} {
			if nv, ok := nested[nestedKey]; ok {
				if err := json.Unmarshal(nv, &s); err == nil {
					return s
				}
			}
		}
	}
	return ""
}
