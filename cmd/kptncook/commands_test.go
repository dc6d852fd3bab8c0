package main

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/ephes/kptncook/internal/config"
	"github.com/ephes/kptncook/internal/env"
	"github.com/ephes/kptncook/internal/log"
	"github.com/ephes/kptncook/internal/repository"
)

func storedRecipe(oid, title, uid string) json.RawMessage {
	payload := fmt.Sprintf(`{
		"_id": {"$oid": %q},
		"uid": %q,
		"localizedTitle": {"en": %q},
		"preparationTime": 20,
		"recipeNutrition": {"calories": 500, "protein": 20, "fat": 10, "carbohydrate": 60},
		"steps": [],
		"imageList": [{"name": "REZ_cover", "url": "https://img.example/cover", "type": "cover"}],
		"ingredients": []
	}`, oid, uid, title)
	return json.RawMessage(payload)
}

func testEnv(t *testing.T) *env.Env {
	t.Helper()
	repo := repository.New(t.TempDir())
	return env.New(log.NullLogger(), nil, config.Config{}, repo)
}

func TestLoadLocalRecipesSkipsBadPayloads(t *testing.T) {
	e := testEnv(t)
	today := repository.Today()
	records := []repository.Record{
		{Date: today, Data: storedRecipe("5e5390e2740000cdf1381c64", "Good", "abcd1234")},
		{Date: today, Data: json.RawMessage(`{"_id": {"$oid": "ffffffffffffffffffffffff"}}`)},
	}
	if err := e.Repo.AddList(records); err != nil {
		t.Fatalf("seeding repository: %v", err)
	}

	recipes, err := loadLocalRecipes(context.Background(), e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recipes) != 1 {
		t.Fatalf("expected 1 parsable recipe, got %d", len(recipes))
	}
	if got := recipes[0].LocalizedTitle.Fallback(); got != "Good" {
		t.Errorf("expected title %q, got %q", "Good", got)
	}
}

func TestSelectForExport(t *testing.T) {
	e := testEnv(t)
	today := repository.Today()
	records := []repository.Record{
		{Date: today, Data: storedRecipe("5e5390e2740000cdf1381c64", "First", "abcd1234")},
		{Date: today, Data: storedRecipe("6f6490e2740000cdf1381c65", "Second", "efgh5678")},
	}
	if err := e.Repo.AddList(records); err != nil {
		t.Fatalf("seeding repository: %v", err)
	}

	tests := []struct {
		name      string
		args      []string
		wantCount int
		wantTitle string
		wantError bool
	}{
		{
			name:      "no args selects everything",
			args:      nil,
			wantCount: 2,
		},
		{
			name:      "select by oid",
			args:      []string{"6f6490e2740000cdf1381c65"},
			wantCount: 1,
			wantTitle: "Second",
		},
		{
			name:      "select by uid",
			args:      []string{"abcd1234"},
			wantCount: 1,
			wantTitle: "First",
		},
		{
			name:      "unknown id",
			args:      []string{"000000000000000000000000"},
			wantError: true,
		},
		{
			name:      "too many args",
			args:      []string{"abcd1234", "efgh5678"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipes, err := selectForExport(context.Background(), e, tt.args)
			if tt.wantError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(recipes) != tt.wantCount {
				t.Fatalf("expected %d recipes, got %d", tt.wantCount, len(recipes))
			}
			if tt.wantTitle != "" {
				if got := recipes[0].LocalizedTitle.Fallback(); got != tt.wantTitle {
					t.Errorf("expected title %q, got %q", tt.wantTitle, got)
				}
			}
		})
	}
}

func TestSplitListValues(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []string
	}{
		{
			name:   "repeatable flags",
			values: []string{"veggie", "comfort"},
			want:   []string{"veggie", "comfort"},
		},
		{
			name:   "comma separated",
			values: []string{"veggie, comfort ,quick"},
			want:   []string{"veggie", "comfort", "quick"},
		},
		{
			name:   "duplicates and empties dropped",
			values: []string{"veggie,,veggie", " ", "comfort"},
			want:   []string{"veggie", "comfort"},
		},
		{
			name:   "nothing usable",
			values: []string{"", " ,"},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitListValues(tt.values)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("value %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestSelectForExportEmptyRepository(t *testing.T) {
	e := testEnv(t)
	if _, err := selectForExport(context.Background(), e, nil); err == nil {
		t.Fatal("expected error for empty repository")
	}
}
