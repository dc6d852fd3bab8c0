// Package setup is responsible for setting up components.
package setup

import (
	"github.com/ephes/kptncook/internal/config"
	"github.com/ephes/kptncook/internal/env"
	"github.com/ephes/kptncook/internal/export"
	"github.com/ephes/kptncook/internal/export/paprika"
	"github.com/ephes/kptncook/internal/export/tandoor"
	"github.com/ephes/kptncook/internal/groups"
	"github.com/ephes/kptncook/internal/mealie"
	"github.com/ephes/kptncook/internal/upstream"
)

// RepositoryDir returns the directory holding the local recipe store.
func RepositoryDir(conf config.Config) string {
	return conf.Home
}

// Upstream builds the mobile API client. A configured access token is
// attached so that the account endpoints work right away.
func Upstream(e *env.Env) *upstream.Client {
	client := upstream.NewClient(e.Log, e.HTTP, e.Config)
	if e.Config.AccessToken != "" {
		client.SetAccessToken(e.Config.AccessToken)
	}
	return client
}

// Mealie builds the Mealie client. It fails with mealie.ErrNoAuth when
// neither an api token nor a username/password pair is configured.
func Mealie(e *env.Env) (*mealie.Client, error) {
	return mealie.NewClient(e.Log, e.HTTP, e.Config)
}

// Covers builds the shared cover image fetcher used by the exporters.
func Covers(e *env.Env) *export.CoverFetcher {
	return &export.CoverFetcher{
		Log:    e.Log,
		HTTP:   e.HTTP,
		APIKey: e.Config.APIKey,
	}
}

// GroupLabels resolves the configured ingredient group labels.
func GroupLabels(conf config.Config) *groups.Labels {
	if conf.Groups.Labels == "" {
		return groups.DefaultLabels()
	}
	return groups.ParseLabels(conf.Groups.Labels)
}

// Paprika builds the Paprika archive exporter.
func Paprika(e *env.Env) *paprika.Exporter {
	return &paprika.Exporter{
		Log:         e.Log,
		Covers:      Covers(e),
		GroupsOn:    e.Config.Groups.Enabled,
		GroupLabels: GroupLabels(e.Config),
	}
}

// Tandoor builds the Tandoor archive exporter.
func Tandoor(e *env.Env) *tandoor.Exporter {
	return &tandoor.Exporter{
		Log:         e.Log,
		Covers:      Covers(e),
		GroupsOn:    e.Config.Groups.Enabled,
		GroupLabels: GroupLabels(e.Config),
	}
}
