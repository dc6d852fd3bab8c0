// Package env provides a structure for managing application-wide dependencies.
package env

import (
	"log/slog"

	"github.com/ephes/kptncook/internal/config"
	"github.com/ephes/kptncook/internal/http"
	"github.com/ephes/kptncook/internal/log"
	"github.com/ephes/kptncook/internal/repository"
)

type Env struct {
	Log    *slog.Logger
	HTTP   *http.HTTP
	Config config.Config
	Repo   *repository.Repository
}

func New(lg *slog.Logger, client *http.HTTP, conf config.Config, repo *repository.Repository) *Env {
	if lg == nil {
		lg = log.NullLogger()
	}

	return &Env{
		Log:    lg,
		HTTP:   client,
		Config: conf,
		Repo:   repo,
	}
}

func Null() *Env {
	return &Env{
		Log: log.NullLogger(),
	}
}
