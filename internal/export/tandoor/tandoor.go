// Package tandoor renders recipes into Tandoor's import format: one zip
// archive per recipe holding recipe.json and, when available, image.jpg.
package tandoor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ephes/kptncook/internal/export"
	"github.com/ephes/kptncook/internal/groups"
	"github.com/ephes/kptncook/internal/model"
)

const (
	originKeyword = "kptncook"
	shareBaseURL  = "https://share.kptncook.com/"

	// fixedServings matches the upstream default serving size.
	fixedServings     = 3
	fixedServingsText = "Portionen"
)

// Recipe is the recipe.json payload.
type Recipe struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Servings     int          `json:"servings"`
	ServingsText string       `json:"servings_text,omitempty"`
	SourceURL    string       `json:"source_url"`
	PrepTime     int          `json:"prep_time"`
	CookTime     *int         `json:"cook_time"`
	Keywords     []string     `json:"keywords"`
	Steps        []Step       `json:"steps"`
	Ingredients  []Ingredient `json:"ingredients"`
}

// Step carries one instruction plus the ingredient mentions shown beside
// it. ShowIngredients is an explicit flag derived from mention presence.
type Step struct {
	Instruction     string       `json:"instruction"`
	ShowIngredients bool         `json:"show_ingredients_table"`
	Ingredients     []Ingredient `json:"ingredients"`
}

// Ingredient is one ingredient row. Header rows mark group labels and
// carry no amount.
type Ingredient struct {
	Amount   *float64 `json:"amount,omitempty"`
	Unit     *Named   `json:"unit,omitempty"`
	Food     Named    `json:"food"`
	IsHeader bool     `json:"is_header,omitempty"`
}

type Named struct {
	Name string `json:"name"`
}

// Exporter writes Tandoor archives, one per recipe.
type Exporter struct {
	Log         *slog.Logger
	Covers      *export.CoverFetcher
	GroupsOn    bool
	GroupLabels *groups.Labels
}

// Export writes one archive per recipe into outDir and returns the
// archive filenames in recipe order.
func (e *Exporter) Export(ctx context.Context, recipes []*model.Recipe, outDir string) ([]string, error) {
	filenames := make([]string, 0, len(recipes))
	for _, recipe := range recipes {
		filename, err := e.ExportRecipe(ctx, recipe, outDir)
		if err != nil {
			return filenames, fmt.Errorf("exporting recipe %s: %w", recipe.ID.OID, err)
		}
		filenames = append(filenames, filename)
	}
	return filenames, nil
}

// ExportRecipe writes a single recipe archive. A missing cover image only
// omits the image entry.
func (e *Exporter) ExportRecipe(ctx context.Context, recipe *model.Recipe, outDir string) (string, error) {
	payload := e.Payload(recipe)
	doc, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding recipe: %w", err)
	}

	entries := []export.ZipEntry{{Name: "recipe.json", Data: doc}}
	if _, imageData := e.Covers.Fetch(ctx, recipe); imageData != nil {
		entries = append(entries, export.ZipEntry{Name: "image.jpg", Data: imageData})
	}

	filename := e.exportFilename(recipe)
	if err := export.WriteZip(filepath.Join(outDir, filename), entries); err != nil {
		return "", err
	}
	return filename, nil
}

func (e *Exporter) exportFilename(recipe *model.Recipe) string {
	title := recipe.LocalizedTitle.Fallback()
	if title == "" {
		title = "kptncook-recipe"
	}
	return export.AsciifyString(title) + ".zip"
}

// Payload projects the canonical recipe into the recipe.json shape. Pure.
func (e *Exporter) Payload(recipe *model.Recipe) Recipe {
	return Recipe{
		Name:         recipe.LocalizedTitle.Fallback(),
		Description:  recipe.AuthorComment.Fallback(),
		Servings:     fixedServings,
		ServingsText: fixedServingsText,
		SourceURL:    sourceURL(recipe),
		PrepTime:     recipe.PreparationTime,
		CookTime:     recipe.CookingTime,
		Keywords:     keywords(recipe),
		Steps:        e.steps(recipe),
		Ingredients:  e.ingredients(recipe.Ingredients),
	}
}

// sourceURL reconstructs the sharing URL, preferring the short uid over
// the object id.
func sourceURL(recipe *model.Recipe) string {
	if recipe.UID != "" {
		return shareBaseURL + recipe.UID
	}
	return shareBaseURL + recipe.ID.OID
}

// keywords yields the origin tag, the recipe type and the active tags,
// deduplicated in that order.
func keywords(recipe *model.Recipe) []string {
	kws := []string{originKeyword}
	seen := map[string]bool{originKeyword: true}
	add := func(kw string) {
		if kw == "" || seen[kw] {
			return
		}
		kws = append(kws, kw)
		seen[kw] = true
	}
	add(recipe.RType)
	for _, tag := range recipe.ActiveTags {
		add(tag)
	}
	return kws
}

func (e *Exporter) steps(recipe *model.Recipe) []Step {
	steps := make([]Step, 0, len(recipe.Steps))
	for _, step := range recipe.Steps {
		mentions := stepIngredients(step)
		steps = append(steps, Step{
			Instruction:     step.Text(),
			ShowIngredients: len(mentions) > 0,
			Ingredients:     mentions,
		})
	}
	return steps
}

func stepIngredients(step model.RecipeStep) []Ingredient {
	rows := make([]Ingredient, 0, len(step.Ingredients))
	for _, mention := range step.Ingredients {
		name := mention.Name()
		if name == "" {
			continue
		}
		row := Ingredient{
			Amount: mention.Quantity,
			Food:   Named{Name: name},
		}
		if mention.Unit != nil {
			if unitName := mention.Unit.DisplayName(); unitName != "" {
				row.Unit = &Named{Name: unitName}
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// ingredients renders the flat list, optionally partitioned by group with
// a synthetic header row per group.
func (e *Exporter) ingredients(ingredients []model.Ingredient) []Ingredient {
	var grouped []groups.Group
	if e.GroupsOn {
		grouped = groups.ByTyp(ingredients, e.GroupLabels)
	} else {
		grouped = groups.Ungrouped(ingredients)
	}

	var rows []Ingredient
	for _, group := range grouped {
		if group.Label != "" {
			rows = append(rows, Ingredient{Food: Named{Name: group.Label}, IsHeader: true})
		}
		for _, ing := range group.Ingredients {
			row := Ingredient{
				Amount: ing.Quantity,
				Food:   Named{Name: ing.Ingredient.Name()},
			}
			if ing.Measure != nil && *ing.Measure != "" {
				row.Unit = &Named{Name: *ing.Measure}
			}
			rows = append(rows, row)
		}
	}
	return rows
}
