package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ephes/kptncook/internal/batch"
	"github.com/ephes/kptncook/internal/config"
	"github.com/ephes/kptncook/internal/env"
	"github.com/ephes/kptncook/internal/http"
	"github.com/ephes/kptncook/internal/log"
	"github.com/ephes/kptncook/internal/repository"
	"github.com/ephes/kptncook/internal/setup"
)

const usage = `kptncook - sync and export recipes from the KptnCook app

Usage: kptncook <command> [arguments]

Commands:
  today                 list the recipes of the current daily selection
  dailies               list the daily recipe feed
  save-today            store today's recipes in the local repository
  list-recipes          list all locally stored recipes
  delete-recipes        delete recipes from the local repository
  search-by-id          fetch one recipe by id or share url and store it
  backup-favorites      store the account's favorites in the local repository
  access-token          obtain an access token for the account endpoints
  sync-with-mealie      create locally stored recipes in Mealie
  sync                  save-today followed by sync-with-mealie
  export-paprika        export recipes as a Paprika archive
  export-tandoor        export recipes as Tandoor archives
  discovery-screen      list discovery lists and quick search entries
  discovery-list        list the recipes of one discovery list
  onboarding            list onboarding recipes by tags
  ingredients-popular   list popular ingredients
  recipes-with-ingredients
                        list recipes matching ingredient ids
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command, args := os.Args[1], os.Args[2:]

	logger := log.New(nil)
	ctx = batch.WithID(ctx, batch.NewID())

	httpConfig := http.DefaultConfig()
	httpConfig.Logger = logger
	client := http.New(httpConfig)

	conf, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	repo := repository.New(setup.RepositoryDir(conf))
	e := env.New(logger, client, conf, repo)

	if err := run(ctx, e, command, args); err != nil {
		logger.Error("command failed", slog.String("command", command), slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, e *env.Env, command string, args []string) error {
	switch command {
	case "today":
		return cmdToday(ctx, e)
	case "dailies":
		return cmdDailies(ctx, e, args)
	case "save-today", "save-todays-recipes":
		return cmdSaveToday(ctx, e)
	case "list-recipes":
		return cmdListRecipes(ctx, e)
	case "delete-recipes":
		return cmdDeleteRecipes(ctx, e, args)
	case "search-by-id":
		return cmdSearchByID(ctx, e, args)
	case "backup-favorites":
		return cmdBackupFavorites(ctx, e)
	case "access-token":
		return cmdAccessToken(ctx, e)
	case "sync-with-mealie":
		return cmdSyncWithMealie(ctx, e)
	case "sync":
		return cmdSync(ctx, e)
	case "export-paprika":
		return cmdExportPaprika(ctx, e, args)
	case "export-tandoor":
		return cmdExportTandoor(ctx, e, args)
	case "discovery-screen":
		return cmdDiscoveryScreen(ctx, e, args)
	case "discovery-list":
		return cmdDiscoveryList(ctx, e, args)
	case "onboarding":
		return cmdOnboarding(ctx, e, args)
	case "ingredients-popular":
		return cmdPopularIngredients(ctx, e)
	case "recipes-with-ingredients":
		return cmdRecipesWithIngredients(ctx, e, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}
