package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"strconv"
	"strings"

	"github.com/ephes/kptncook/internal/creds"
	"github.com/ephes/kptncook/internal/env"
	"github.com/ephes/kptncook/internal/mealie"
	"github.com/ephes/kptncook/internal/model"
	"github.com/ephes/kptncook/internal/repository"
	"github.com/ephes/kptncook/internal/setup"
	"github.com/ephes/kptncook/internal/sync"
	"github.com/ephes/kptncook/internal/upstream"
)

// loadLocalRecipes parses every stored record. Records that fail to parse
// are logged and skipped so that one bad payload never blocks a command.
func loadLocalRecipes(ctx context.Context, e *env.Env) ([]*model.Recipe, error) {
	records, err := e.Repo.List()
	if err != nil {
		return nil, fmt.Errorf("listing repository: %w", err)
	}

	recipes := make([]*model.Recipe, 0, len(records))
	for _, rec := range records {
		recipe, err := model.ParseRecipe(rec.Data)
		if err != nil {
			e.Log.WarnContext(ctx, "skipping unparsable stored recipe",
				slog.String("id", rec.ID()), slog.Any("error", err))
			continue
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

func printRecipeList(recipes []*model.Recipe) {
	for i, recipe := range recipes {
		fmt.Printf("%3d  %-40s  %s\n", i, recipe.LocalizedTitle.Fallback(), recipe.ID.OID)
	}
}

func cmdToday(ctx context.Context, e *env.Env) error {
	client := setup.Upstream(e)
	records, err := client.ListToday(ctx)
	if err != nil {
		return fmt.Errorf("fetching today's recipes: %w", err)
	}

	recipes := make([]*model.Recipe, 0, len(records))
	for _, rec := range records {
		recipe, err := model.ParseRecipe(rec.Data)
		if err != nil {
			e.Log.WarnContext(ctx, "skipping unparsable recipe",
				slog.String("id", rec.ID()), slog.Any("error", err))
			continue
		}
		recipes = append(recipes, recipe)
	}
	printRecipeList(recipes)
	return nil
}

func cmdDailies(ctx context.Context, e *env.Env, args []string) error {
	fs := flag.NewFlagSet("dailies", flag.ContinueOnError)
	filter := fs.String("filter", "", "recipe filter passed to the feed")
	zone := fs.String("zone", "", "delivery zone")
	subscribed := fs.Bool("subscribed", false, "request the subscriber feed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := upstream.DailiesOptions{RecipeFilter: *filter, Zone: *zone}
	if *subscribed {
		yes := true
		opts.IsSubscribed = &yes
	}

	client := setup.Upstream(e)
	records, err := client.ListDailies(ctx, opts)
	if err != nil {
		return fmt.Errorf("fetching dailies: %w", err)
	}
	for _, rec := range records {
		recipe, err := model.ParseRecipe(rec.Data)
		if err != nil {
			e.Log.WarnContext(ctx, "skipping unparsable recipe",
				slog.String("id", rec.ID()), slog.Any("error", err))
			continue
		}
		fmt.Printf("%-40s  %s\n", recipe.LocalizedTitle.Fallback(), recipe.ID.OID)
	}
	return nil
}

func cmdSaveToday(ctx context.Context, e *env.Env) error {
	needed, err := e.Repo.NeedsSync(repository.Today())
	if err != nil {
		return fmt.Errorf("checking sync state: %w", err)
	}
	if !needed {
		e.Log.InfoContext(ctx, "already synced today, nothing to do")
		return nil
	}

	client := setup.Upstream(e)
	records, err := client.ListToday(ctx)
	if err != nil {
		return fmt.Errorf("fetching today's recipes: %w", err)
	}
	if err := e.Repo.AddList(records); err != nil {
		return fmt.Errorf("storing recipes: %w", err)
	}
	e.Log.InfoContext(ctx, "stored today's recipes", slog.Int("count", len(records)))
	return nil
}

func cmdListRecipes(ctx context.Context, e *env.Env) error {
	recipes, err := loadLocalRecipes(ctx, e)
	if err != nil {
		return err
	}
	printRecipeList(recipes)
	return nil
}

func cmdDeleteRecipes(ctx context.Context, e *env.Env, args []string) error {
	fs := flag.NewFlagSet("delete-recipes", flag.ContinueOnError)
	force := fs.Bool("force", false, "delete without asking for confirmation")
	var oids stringList
	fs.Var(&oids, "oid", "object id to delete, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}

	records, err := e.Repo.List()
	if err != nil {
		return fmt.Errorf("listing repository: %w", err)
	}

	ids := make([]string, 0, len(oids)+fs.NArg())
	ids = append(ids, oids...)
	for _, arg := range fs.Args() {
		index, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid index %q", arg)
		}
		if index < 0 || index >= len(records) {
			return fmt.Errorf("index %d out of range, have %d recipes", index, len(records))
		}
		ids = append(ids, records[index].ID())
	}
	if len(ids) == 0 {
		return fmt.Errorf("nothing to delete, pass indices or --oid")
	}

	if !*force {
		ok, err := confirm(fmt.Sprintf("Delete %d recipe(s)? [y/N] ", len(ids)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("aborted")
			return nil
		}
	}

	deleted, missing, err := e.Repo.DeleteByIDs(ids)
	if err != nil {
		return fmt.Errorf("deleting recipes: %w", err)
	}
	if len(missing) > 0 {
		fmt.Printf("some recipes were not found: %s\n", strings.Join(missing, ", "))
	}
	fmt.Printf("deleted %d recipe(s)\n", len(deleted))
	return nil
}

func cmdSearchByID(ctx context.Context, e *env.Env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: kptncook search-by-id <id or share url>")
	}

	text := args[0]
	if strings.Contains(text, "share.kptncook.com") {
		resolved, err := resolveShareURL(ctx, text)
		if err != nil {
			return fmt.Errorf("resolving share url: %w", err)
		}
		text = resolved
	}

	id, ok := upstream.ParseID(text)
	if !ok {
		return fmt.Errorf("could not find a recipe id in %q", args[0])
	}

	client := setup.Upstream(e)
	records, err := client.GetByIDs(ctx, []upstream.ID{id})
	if err != nil {
		return fmt.Errorf("fetching recipe: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no recipe found for %q", id.Value)
	}

	if err := e.Repo.Add(records[0]); err != nil {
		return fmt.Errorf("storing recipe: %w", err)
	}
	recipe, err := model.ParseRecipe(records[0].Data)
	if err != nil {
		return fmt.Errorf("parsing fetched recipe: %w", err)
	}
	fmt.Printf("stored %q (%s)\n", recipe.LocalizedTitle.Fallback(), recipe.ID.OID)
	return nil
}

// resolveShareURL follows the single redirect of a share link and returns
// the target url, which carries the recipe uid.
func resolveShareURL(ctx context.Context, shareURL string) (string, error) {
	client := &nethttp.Client{
		CheckRedirect: func(req *nethttp.Request, via []*nethttp.Request) error {
			return nethttp.ErrUseLastResponse
		},
	}
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, shareURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting share url: %w", err)
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("share url did not redirect")
	}
	return location, nil
}

func loggedInUpstream(ctx context.Context, e *env.Env) (*upstream.Client, error) {
	client := setup.Upstream(e)
	if client.LoggedIn() {
		return client, nil
	}

	username, password, err := creds.Get(ctx, e.Config.Credentials, &creds.StdioPrompter{})
	if err != nil {
		return nil, fmt.Errorf("obtaining credentials: %w", err)
	}
	token, err := client.GetAccessToken(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	client.SetAccessToken(token)
	return client, nil
}

func cmdBackupFavorites(ctx context.Context, e *env.Env) error {
	client, err := loggedInUpstream(ctx, e)
	if err != nil {
		return err
	}

	favorites, err := client.ListFavorites(ctx)
	if err != nil {
		return fmt.Errorf("listing favorites: %w", err)
	}
	items := make([]any, 0, len(favorites))
	for _, raw := range favorites {
		items = append(items, decodeAny(raw))
	}

	records, err := client.ResolveSummaries(ctx, items)
	if err != nil {
		return fmt.Errorf("fetching favorite recipes: %w", err)
	}
	if err := e.Repo.AddList(records); err != nil {
		return fmt.Errorf("storing favorites: %w", err)
	}
	e.Log.InfoContext(ctx, "stored favorites", slog.Int("count", len(records)))
	return nil
}

func cmdAccessToken(ctx context.Context, e *env.Env) error {
	username, password, err := creds.Get(ctx, e.Config.Credentials, &creds.StdioPrompter{})
	if err != nil {
		return fmt.Errorf("obtaining credentials: %w", err)
	}

	client := setup.Upstream(e)
	token, err := client.GetAccessToken(ctx, username, password)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	fmt.Println(token)
	return nil
}

func cmdSyncWithMealie(ctx context.Context, e *env.Env) error {
	recipes, err := loadLocalRecipes(ctx, e)
	if err != nil {
		return err
	}

	client, err := setup.Mealie(e)
	if err != nil {
		return fmt.Errorf("setting up mealie: %w", err)
	}

	payloads := make([]*mealie.Recipe, 0, len(recipes))
	for _, recipe := range recipes {
		payloads = append(payloads, mealie.FromCanonical(recipe, nil, e.Config.APIKey))
	}

	result, err := sync.Reconcile(ctx, e.Log, client, payloads)
	fmt.Printf("created %d recipe(s), skipped %d existing\n", result.Created(), result.Skipped)
	if err != nil {
		return fmt.Errorf("syncing with mealie: %w", err)
	}
	return nil
}

func cmdSync(ctx context.Context, e *env.Env) error {
	if err := cmdSaveToday(ctx, e); err != nil {
		return err
	}
	return cmdSyncWithMealie(ctx, e)
}

func cmdExportPaprika(ctx context.Context, e *env.Env, args []string) error {
	fs := flag.NewFlagSet("export-paprika", flag.ContinueOnError)
	outDir := fs.String("out", ".", "directory to write the archive to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	recipes, err := selectForExport(ctx, e, fs.Args())
	if err != nil {
		return err
	}

	exporter := setup.Paprika(e)
	filename, err := exporter.Export(ctx, recipes, *outDir)
	if err != nil {
		return fmt.Errorf("exporting paprika archive: %w", err)
	}
	fmt.Println(filename)
	return nil
}

func cmdExportTandoor(ctx context.Context, e *env.Env, args []string) error {
	fs := flag.NewFlagSet("export-tandoor", flag.ContinueOnError)
	outDir := fs.String("out", ".", "directory to write the archives to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	recipes, err := selectForExport(ctx, e, fs.Args())
	if err != nil {
		return err
	}

	exporter := setup.Tandoor(e)
	filenames, err := exporter.Export(ctx, recipes, *outDir)
	if err != nil {
		return fmt.Errorf("exporting tandoor archives: %w", err)
	}
	for _, name := range filenames {
		fmt.Println(name)
	}
	return nil
}

// selectForExport returns all stored recipes, or the single recipe matching
// the given id argument. Matching by uid or oid, ambiguity is an error.
func selectForExport(ctx context.Context, e *env.Env, args []string) ([]*model.Recipe, error) {
	recipes, err := loadLocalRecipes(ctx, e)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		if len(recipes) == 0 {
			return nil, fmt.Errorf("no recipes stored yet")
		}
		return recipes, nil
	}
	if len(args) > 1 {
		return nil, fmt.Errorf("pass at most one recipe id")
	}

	wanted := args[0]
	var matches []*model.Recipe
	for _, recipe := range recipes {
		if recipe.ID.OID == wanted || recipe.UID == wanted {
			matches = append(matches, recipe)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no stored recipe matches %q", wanted)
	case 1:
		return matches, nil
	default:
		return nil, fmt.Errorf("%d stored recipes match %q", len(matches), wanted)
	}
}

func cmdDiscoveryScreen(ctx context.Context, e *env.Env, args []string) error {
	fs := flag.NewFlagSet("discovery-screen", flag.ContinueOnError)
	quickSearch := fs.Bool("quick-search", true, "also list quick search entries")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := setup.Upstream(e)
	payload, err := client.GetDiscoveryScreen(ctx)
	if err != nil {
		return fmt.Errorf("fetching discovery screen: %w", err)
	}

	lists := upstream.DiscoveryLists(payload)
	if len(lists) == 0 {
		fmt.Println("No discovery lists found.")
	} else {
		fmt.Println("Discovery lists:")
		for _, list := range lists {
			fmt.Printf("- %s | %s | %s\n",
				orDash(list.ID), orDash(list.Title), orDash(list.Type))
		}
	}

	if *quickSearch {
		labels := upstream.QuickSearches(payload)
		if len(labels) == 0 {
			fmt.Println("No quick search entries found.")
		} else {
			fmt.Println("Quick search:")
			for _, label := range labels {
				fmt.Printf("- %s\n", label)
			}
		}
	}
	return nil
}

func cmdDiscoveryList(ctx context.Context, e *env.Env, args []string) error {
	fs := flag.NewFlagSet("discovery-list", flag.ContinueOnError)
	listType := fs.String("type", "", "list type: latest, recommended, curated, automated")
	listID := fs.String("id", "", "list id, required for curated and automated lists")
	save := fs.Bool("save", false, "store the listed recipes in the local repository")
	if err := fs.Parse(args); err != nil {
		return err
	}

	typ := strings.ToLower(strings.TrimSpace(*listType))
	if !upstream.DiscoveryListTypes[typ] {
		return fmt.Errorf("type must be one of: latest, recommended, curated, automated")
	}
	id := strings.TrimSpace(*listID)
	if upstream.DiscoveryListNeedsID(typ) && id == "" {
		return fmt.Errorf("id is required for %s lists", typ)
	}

	client := setup.Upstream(e)
	items, err := client.GetDiscoveryList(ctx, typ, id)
	if err != nil {
		return fmt.Errorf("fetching discovery list: %w", err)
	}
	if len(items) == 0 {
		fmt.Println("No discovery list recipes found.")
		return nil
	}
	return resolveAndReport(ctx, e, client, items, *save)
}

func cmdOnboarding(ctx context.Context, e *env.Env, args []string) error {
	fs := flag.NewFlagSet("onboarding", flag.ContinueOnError)
	var tags stringList
	fs.Var(&tags, "tag", "onboarding tag, repeatable, comma-separated ok")
	save := fs.Bool("save", false, "store the listed recipes in the local repository")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tagList := splitListValues(tags)
	if len(tagList) == 0 {
		return fmt.Errorf("pass one or more non-empty --tag values")
	}

	client := setup.Upstream(e)
	items, err := client.GetOnboardingRecipes(ctx, tagList)
	if err != nil {
		return fmt.Errorf("fetching onboarding recipes: %w", err)
	}
	if len(items) == 0 {
		fmt.Println("No onboarding recipes found.")
		return nil
	}
	return resolveAndReport(ctx, e, client, items, *save)
}

func cmdPopularIngredients(ctx context.Context, e *env.Env) error {
	client, err := loggedInUpstream(ctx, e)
	if err != nil {
		return err
	}

	items, err := client.ListPopularIngredients(ctx)
	if err != nil {
		return fmt.Errorf("listing popular ingredients: %w", err)
	}

	summaries := upstream.ParseIngredientSummaries(items)
	if len(summaries) == 0 {
		fmt.Println("No popular ingredients found.")
		return nil
	}
	fmt.Println("Popular ingredients:")
	for _, summary := range summaries {
		fmt.Printf("- %s | %s\n", orDash(summary.ID), orDash(summary.Name))
	}
	return nil
}

func cmdRecipesWithIngredients(ctx context.Context, e *env.Env, args []string) error {
	fs := flag.NewFlagSet("recipes-with-ingredients", flag.ContinueOnError)
	var ingredientIDs stringList
	fs.Var(&ingredientIDs, "ingredient-id", "ingredient id, repeatable, comma-separated ok")
	save := fs.Bool("save", false, "store the listed recipes in the local repository")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ids := splitListValues(ingredientIDs)
	if len(ids) == 0 {
		return fmt.Errorf("pass one or more non-empty --ingredient-id values")
	}

	client, err := loggedInUpstream(ctx, e)
	if err != nil {
		return err
	}
	items, err := client.GetRecipesWithIngredients(ctx, ids)
	if err != nil {
		return fmt.Errorf("fetching recipes with ingredients: %w", err)
	}
	if len(items) == 0 {
		fmt.Println("No recipes found.")
		return nil
	}
	return resolveAndReport(ctx, e, client, items, *save)
}

// resolveAndReport turns summary payloads into full recipes, prints them
// and optionally stores them.
func resolveAndReport(ctx context.Context, e *env.Env, client *upstream.Client, items []json.RawMessage, save bool) error {
	decoded := make([]any, 0, len(items))
	for _, raw := range items {
		decoded = append(decoded, decodeAny(raw))
	}

	records, err := client.ResolveSummaries(ctx, decoded)
	if err != nil {
		return fmt.Errorf("fetching recipes: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No recipes found.")
		return nil
	}

	for _, rec := range records {
		recipe, err := model.ParseRecipe(rec.Data)
		if err != nil {
			e.Log.WarnContext(ctx, "skipping unparsable recipe",
				slog.String("id", rec.ID()), slog.Any("error", err))
			continue
		}
		fmt.Printf("%-40s  %s\n", recipe.LocalizedTitle.Fallback(), recipe.ID.OID)
	}

	if save {
		if err := e.Repo.AddList(records); err != nil {
			return fmt.Errorf("storing recipes: %w", err)
		}
		fmt.Printf("added %d recipe(s) to the local repository\n", len(records))
	}
	return nil
}

// splitListValues flattens repeatable, comma-separated flag values into a
// deduplicated list in first-seen order.
func splitListValues(values []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" || seen[part] {
				continue
			}
			out = append(out, part)
			seen[part] = true
		}
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func confirm(prompt string) (bool, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func decodeAny(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}
