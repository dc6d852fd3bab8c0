// Package sync reconciles locally stored recipes with a Mealie instance,
// creating exactly the recipes that are not present there yet.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ephes/kptncook/internal/mealie"
)

// RecipeService is the slice of the Mealie client the reconciliation needs.
type RecipeService interface {
	AllRecipes(ctx context.Context) ([]mealie.RecipeSummary, error)
	GetViaSlug(ctx context.Context, slug string) (*mealie.Recipe, error)
	CreateRecipe(ctx context.Context, recipe *mealie.Recipe) (*mealie.Recipe, error)
}

// Result summarizes one reconciliation run.
type Result struct {
	// CreatedSlugs holds the slugs of recipes created during this run.
	CreatedSlugs []string

	// Skipped counts recipes the remote reported as already existing.
	Skipped int
}

func (r Result) Created() int {
	return len(r.CreatedSlugs)
}

// ExistingIDs fetches the upstream ids already present on the remote,
// considering only recipes whose extras carry the origin tag. Recipes
// created by other means never count as collisions.
func ExistingIDs(ctx context.Context, svc RecipeService) (map[string]bool, error) {
	summaries, err := svc.AllRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing remote recipes: %w", err)
	}
	existing := make(map[string]bool)
	for _, summary := range summaries {
		recipe, err := svc.GetViaSlug(ctx, summary.Slug)
		if err != nil {
			return nil, fmt.Errorf("fetching remote recipe %q: %w", summary.Slug, err)
		}
		if recipe.FromKptnCook() && recipe.KptnCookID() != "" {
			existing[recipe.KptnCookID()] = true
		}
	}
	return existing, nil
}

// Plan returns the subset of local recipes whose upstream id is not present
// remotely, preserving local order.
func Plan(local []*mealie.Recipe, existing map[string]bool) []*mealie.Recipe {
	var toCreate []*mealie.Recipe
	for _, recipe := range local {
		if !existing[recipe.KptnCookID()] {
			toCreate = append(toCreate, recipe)
		}
	}
	return toCreate
}

// Run creates the planned recipes one at a time. An already-exists conflict
// is counted and skipped, any other error aborts the run but the result
// still reports the recipes created before the failure.
func Run(ctx context.Context, log *slog.Logger, svc RecipeService, toCreate []*mealie.Recipe) (Result, error) {
	var result Result
	for _, recipe := range toCreate {
		created, err := svc.CreateRecipe(ctx, recipe)
		if errors.Is(err, mealie.ErrRecipeExists) {
			log.InfoContext(ctx, "recipe already exists, skipping",
				slog.String("name", recipe.Name), slog.String("kptncook_id", recipe.KptnCookID()))
			result.Skipped++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("creating recipe %q: %w", recipe.Name, err)
		}
		log.InfoContext(ctx, "recipe created",
			slog.String("slug", created.Slug), slog.String("kptncook_id", recipe.KptnCookID()))
		result.CreatedSlugs = append(result.CreatedSlugs, created.Slug)
	}
	return result, nil
}

// Reconcile runs the complete flow: fetch the remote state, plan the diff
// and create the missing recipes.
func Reconcile(ctx context.Context, log *slog.Logger, svc RecipeService, local []*mealie.Recipe) (Result, error) {
	existing, err := ExistingIDs(ctx, svc)
	if err != nil {
		return Result{}, err
	}
	return Run(ctx, log, svc, Plan(local, existing))
}
