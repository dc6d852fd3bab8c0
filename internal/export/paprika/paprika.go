// Package paprika renders recipes into the Paprika app's import archive:
// one gzip-compressed JSON document per recipe, zipped together.
package paprika

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/ephes/kptncook/internal/export"
	"github.com/ephes/kptncook/internal/groups"
	"github.com/ephes/kptncook/internal/model"
)

const (
	batchFilename = "allrecipes.paprikarecipes"

	// escapedNewline separates lines inside rendered JSON string values.
	escapedNewline = `\n`
)

// recipeTemplate renders one recipe document. Values are inserted raw and
// the result is repaired and validated afterwards, a recipe that still
// renders invalid JSON is skipped.
var recipeTemplate = template.Must(template.New("paprika").Parse(`{
   "uid":"{{.UID}}",
   "name":"{{.Name}}",
   "directions": "{{.Directions}}",
   "servings":"2",
   "rating":0,
   "difficulty":"",
   "ingredients":"{{.Ingredients}}",
   "notes":"",
   "created":"{{.Created}}",
   "image_url":null,
   "cook_time":"{{.CookTime}}",
   "prep_time":"{{.PrepTime}}",
   "source":"Kptncook",
   "source_url":"",
   "hash" : "{{.Hash}}",
   "photo_hash":null,
   "photos":[],
   "photo": "{{.CoverFilename}}",
   "nutritional_info":"{{.Nutrition}}",
   "photo_data":"{{.CoverData}}",
   "photo_large":null,
   "categories":["Kptncook"]
}`))

var invalidControlChars = regexp.MustCompile(`[\x00-\x08\x0B-\x0C\x0E-\x1F\x7F-\x9F]`)

type templateData struct {
	UID           string
	Name          string
	Directions    string
	Ingredients   string
	Created       string
	CookTime      string
	PrepTime      string
	Hash          string
	CoverFilename string
	Nutrition     string
	CoverData     string
}

// Exporter writes Paprika archives. Cover images are embedded base64 when
// fetchable, grouping of the ingredients text follows the configuration.
type Exporter struct {
	Log          *slog.Logger
	Covers       *export.CoverFetcher
	GroupsOn     bool
	GroupLabels  *groups.Labels
	now          func() time.Time
	hashOverride string
}

// Export renders every recipe, packages them into one archive in outDir
// and returns the archive filename. Recipes that fail to render are logged
// and skipped, they never abort the batch.
func (e *Exporter) Export(ctx context.Context, recipes []*model.Recipe, outDir string) (string, error) {
	rendered := make(map[string]string, len(recipes))
	var order []string
	for _, recipe := range recipes {
		doc, err := e.RecipeJSON(ctx, recipe)
		if err != nil {
			e.Log.WarnContext(ctx, "could not render recipe, skipping",
				slog.String("recipe", recipe.ID.OID), slog.Any("error", err))
			continue
		}
		if _, ok := rendered[recipe.ID.OID]; !ok {
			order = append(order, recipe.ID.OID)
		}
		rendered[recipe.ID.OID] = doc
	}
	if len(rendered) == 0 {
		return "", fmt.Errorf("no recipe could be rendered")
	}

	filename := e.exportFilename(rendered, recipes)
	entries := make([]export.ZipEntry, 0, len(rendered))
	for _, oid := range order {
		data, err := gzipBytes([]byte(rendered[oid]))
		if err != nil {
			return "", fmt.Errorf("compressing recipe %s: %w", oid, err)
		}
		entries = append(entries, export.ZipEntry{
			Name: "recipe_" + oid + ".paprikarecipe",
			Data: data,
		})
	}
	if err := export.WriteZip(filepath.Join(outDir, filename), entries); err != nil {
		return "", err
	}
	return filename, nil
}

func (e *Exporter) exportFilename(rendered map[string]string, recipes []*model.Recipe) string {
	if len(rendered) == 1 {
		title := recipes[0].LocalizedTitle.Fallback()
		if title == "" {
			title = "recipe"
		}
		return export.AsciifyString(title) + ".paprikarecipes"
	}
	return batchFilename
}

// RecipeJSON renders one recipe document: template, control char strip,
// newline repair, JSON validity check.
func (e *Exporter) RecipeJSON(ctx context.Context, recipe *model.Recipe) (string, error) {
	coverName, coverData := e.Covers.Fetch(ctx, recipe)

	data := templateData{
		UID:           recipe.ID.OID,
		Name:          recipe.LocalizedTitle.Fallback(),
		Directions:    e.directionsText(recipe),
		Ingredients:   e.ingredientsText(recipe.Ingredients),
		Created:       e.timeNow().Format("2006-01-02 15:04:05"),
		PrepTime:      strconv.Itoa(recipe.PreparationTime),
		Hash:          e.contentHash(),
		CoverFilename: coverName,
		Nutrition:     nutritionText(recipe.Nutrition),
	}
	if recipe.CookingTime != nil {
		data.CookTime = strconv.Itoa(*recipe.CookingTime)
	}
	if coverData != nil {
		data.CoverData = base64.StdEncoding.EncodeToString(coverData)
	}

	var buf bytes.Buffer
	if err := recipeTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering recipe: %w", err)
	}

	doc := invalidControlChars.ReplaceAllString(buf.String(), "")
	doc = replaceUnescapedNewlines(doc)
	if !json.Valid([]byte(doc)) {
		return "", fmt.Errorf("rendered document is not valid json")
	}
	return doc, nil
}

func (e *Exporter) directionsText(recipe *model.Recipe) string {
	var b strings.Builder
	for _, step := range recipe.Steps {
		b.WriteString(step.Text())
		b.WriteString(escapedNewline)
	}
	return b.String()
}

// ingredientsText renders the freeform ingredients block, optionally
// partitioned by group headers.
func (e *Exporter) ingredientsText(ingredients []model.Ingredient) string {
	var grouped []groups.Group
	if e.GroupsOn {
		grouped = groups.ByTyp(ingredients, e.GroupLabels)
	} else {
		grouped = groups.Ungrouped(ingredients)
	}

	var lines []string
	for _, group := range grouped {
		if group.Label != "" {
			lines = append(lines, group.Label+":")
		}
		for _, ing := range group.Ingredients {
			if line := formatIngredientLine(ing); line != "" {
				lines = append(lines, line)
			}
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, escapedNewline) + escapedNewline
}

func formatIngredientLine(ing model.Ingredient) string {
	var parts []string
	if ing.Quantity != nil && *ing.Quantity != 0 {
		parts = append(parts, strconv.FormatFloat(*ing.Quantity, 'g', -1, 64))
	}
	if ing.Measure != nil && *ing.Measure != "" {
		parts = append(parts, *ing.Measure)
	}
	if name := ing.Ingredient.Name(); name != "" {
		parts = append(parts, name)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func nutritionText(n model.Nutrition) string {
	return fmt.Sprintf("calories: %d%sprotein: %d%sfat: %d%scarbohydrate: %d%s",
		n.Calories, escapedNewline,
		n.Protein, escapedNewline,
		n.Fat, escapedNewline,
		n.Carbohydrate, escapedNewline)
}

// contentHash generates the opaque per-export change-detection hash the
// app expects, unique per rendered document.
func (e *Exporter) contentHash() string {
	if e.hashOverride != "" {
		return e.hashOverride
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(buf)
}

func (e *Exporter) timeNow() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

// replaceUnescapedNewlines rewrites literal newline characters that are
// not preceded by a backslash into spaces. Escaped sequences written into
// the document on purpose stay untouched.
func replaceUnescapedNewlines(s string) string {
	out := []byte(s)
	for i := 0; i < len(out); i++ {
		if out[i] == '\n' && (i == 0 || out[i-1] != '\\') {
			out[i] = ' '
		}
	}
	return string(out)
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
