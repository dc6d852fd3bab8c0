package paprika

import (
	"archive/zip"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ephes/kptncook/internal/export"
	internalhttp "github.com/ephes/kptncook/internal/http"
	"github.com/ephes/kptncook/internal/log"
	"github.com/ephes/kptncook/internal/model"
)

func intp(v int) *int { return &v }

func testRecipe(coverURL string) *model.Recipe {
	quantity := 250.0
	measure := "g"
	return &model.Recipe{
		ID:              model.RecipeID{OID: "5e5390e2740000cdf1381c64"},
		LocalizedTitle:  model.LocalizedText{De: "Käsespätzle"},
		AuthorComment:   model.LocalizedText{De: "Lecker"},
		PreparationTime: 20,
		CookingTime:     intp(15),
		Nutrition:       model.Nutrition{Calories: 600, Protein: 20, Fat: 25, Carbohydrate: 70},
		Steps: []model.RecipeStep{
			{Title: model.LocalizedText{De: "Alles parat?"}},
			{
				Title:  model.LocalizedText{De: "Kochen, <timer>."},
				Timers: []model.StepTimer{{MinOrExact: intp(10)}},
			},
		},
		ImageList: []model.Image{
			{Name: "REZ_1_Cover.jpg", Type: "cover", URL: coverURL},
		},
		Ingredients: []model.Ingredient{
			{
				Quantity: &quantity,
				Measure:  &measure,
				Ingredient: model.IngredientDetails{
					Typ:            "regular",
					LocalizedTitle: model.LocalizedText{De: "Spätzle"},
					NumberTitle:    model.LocalizedText{De: "Spätzle"},
				},
			},
			{
				Ingredient: model.IngredientDetails{
					Typ:            "basic",
					LocalizedTitle: model.LocalizedText{De: "Salz"},
					NumberTitle:    model.LocalizedText{De: "Salz"},
				},
			},
		},
	}
}

func testExporter(t *testing.T, coverStatus int) (*Exporter, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if coverStatus != http.StatusOK {
			w.WriteHeader(coverStatus)
			return
		}
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	t.Cleanup(srv.Close)

	rc := internalhttp.DefaultConfig()
	rc.RetryMax = 0
	rc.Logger = nil

	return &Exporter{
		Log: log.NullLogger(),
		Covers: &export.CoverFetcher{
			Log:    log.NullLogger(),
			HTTP:   internalhttp.New(rc),
			APIKey: "test-key",
		},
	}, srv.URL
}

func TestRecipeJSONRoundTrip(t *testing.T) {
	exporter, coverURL := testExporter(t, http.StatusOK)
	recipe := testRecipe(coverURL)

	doc, err := exporter.RecipeJSON(context.Background(), recipe)
	if err != nil {
		t.Fatalf("RecipeJSON: %v", err)
	}
	if strings.Contains(doc, "\n") {
		t.Error("document must not contain literal newlines")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(doc), &payload); err != nil {
		t.Fatalf("document is not valid json: %v", err)
	}
	if payload["uid"] != "5e5390e2740000cdf1381c64" {
		t.Errorf("uid = %v", payload["uid"])
	}
	if payload["name"] != "Käsespätzle" {
		t.Errorf("name = %v", payload["name"])
	}
	directions, _ := payload["directions"].(string)
	if !strings.Contains(directions, "Alles parat?\nKochen, 10 Min..") {
		t.Errorf("directions = %q, want newline-joined expanded steps", directions)
	}
	ingredients, _ := payload["ingredients"].(string)
	if !strings.Contains(ingredients, "250 g Spätzle") {
		t.Errorf("ingredients = %q", ingredients)
	}
	hash, _ := payload["hash"].(string)
	if len(hash) != 64 {
		t.Errorf("hash = %q, want 64 hex chars", hash)
	}
	if payload["photo_data"] == "" {
		t.Error("photo_data must carry the base64 cover")
	}
	categories, _ := payload["categories"].([]any)
	if len(categories) != 1 || categories[0] != "Kptncook" {
		t.Errorf("categories = %v", categories)
	}
}

func TestRecipeJSONMissingCover(t *testing.T) {
	exporter, coverURL := testExporter(t, http.StatusNotFound)
	recipe := testRecipe(coverURL)

	doc, err := exporter.RecipeJSON(context.Background(), recipe)
	if err != nil {
		t.Fatalf("RecipeJSON: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(doc), &payload); err != nil {
		t.Fatalf("document is not valid json: %v", err)
	}
	if payload["photo_data"] != "" {
		t.Errorf("photo_data = %v, want empty on failed fetch", payload["photo_data"])
	}
	if payload["photo"] != "" {
		t.Errorf("photo = %v, want empty on failed fetch", payload["photo"])
	}
}

func TestRecipeJSONNewlineInTitle(t *testing.T) {
	exporter, coverURL := testExporter(t, http.StatusNotFound)
	recipe := testRecipe(coverURL)
	recipe.LocalizedTitle = model.LocalizedText{De: "Zwei\nZeilen"}

	doc, err := exporter.RecipeJSON(context.Background(), recipe)
	if err != nil {
		t.Fatalf("RecipeJSON: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(doc), &payload); err != nil {
		t.Fatalf("document is not valid json: %v", err)
	}
	if payload["name"] != "Zwei Zeilen" {
		t.Errorf("name = %q, want literal newline replaced by space", payload["name"])
	}
}

func TestExportSingleRecipeFilename(t *testing.T) {
	exporter, coverURL := testExporter(t, http.StatusNotFound)
	outDir := t.TempDir()

	filename, err := exporter.Export(context.Background(), []*model.Recipe{testRecipe(coverURL)}, outDir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filename != "Kasespatzle.paprikarecipes" {
		t.Errorf("filename = %q", filename)
	}

	r, err := zip.OpenReader(filepath.Join(outDir, filename))
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer r.Close()
	if len(r.File) != 1 {
		t.Fatalf("archive entries = %d, want 1", len(r.File))
	}
	if r.File[0].Name != "recipe_5e5390e2740000cdf1381c64.paprikarecipe" {
		t.Errorf("entry name = %q", r.File[0].Name)
	}

	entry, err := r.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer entry.Close()
	gz, err := gzip.NewReader(entry)
	if err != nil {
		t.Fatalf("entry is not gzip: %v", err)
	}
	doc, err := io.ReadAll(gz)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(doc) {
		t.Error("archived document is not valid json")
	}
}

func TestExportBatchFilename(t *testing.T) {
	exporter, coverURL := testExporter(t, http.StatusNotFound)
	outDir := t.TempDir()

	second := testRecipe(coverURL)
	second.ID = model.RecipeID{OID: "6e5390e2740000cdf1381c65"}
	second.LocalizedTitle = model.LocalizedText{De: "Andere"}

	filename, err := exporter.Export(context.Background(), []*model.Recipe{testRecipe(coverURL), second}, outDir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filename != "allrecipes.paprikarecipes" {
		t.Errorf("filename = %q", filename)
	}
	if _, err := os.Stat(filepath.Join(outDir, filename)); err != nil {
		t.Errorf("archive missing: %v", err)
	}
}

func TestExportGroupedIngredients(t *testing.T) {
	exporter, coverURL := testExporter(t, http.StatusNotFound)
	exporter.GroupsOn = true

	doc, err := exporter.RecipeJSON(context.Background(), testRecipe(coverURL))
	if err != nil {
		t.Fatalf("RecipeJSON: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(doc), &payload); err != nil {
		t.Fatal(err)
	}
	ingredients, _ := payload["ingredients"].(string)
	wantOrder := []string{"You need:", "250 g Spätzle", "Pantry:", "Salz"}
	var lines []string
	for _, line := range strings.Split(ingredients, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) != len(wantOrder) {
		t.Fatalf("lines = %v, want %v", lines, wantOrder)
	}
	for i, want := range wantOrder {
		if lines[i] != want {
			t.Errorf("lines[%d] = %q, want %q", i, lines[i], want)
		}
	}
}
