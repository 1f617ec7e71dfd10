// Package glidewire is an MCP server exposing a ServiceNow instance to
// LLM agents: table tools, dynamic resources, and prompt templates.
package glidewire

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/avandyck/glidewire/client"
	"github.com/avandyck/glidewire/config"
	"github.com/avandyck/glidewire/resource"
	"github.com/avandyck/glidewire/server"
	"github.com/avandyck/glidewire/tools"
)

type Config struct {
	// Settings overrides the loaded configuration. If nil, config.Load()
	// reads the config file and environment.
	Settings *config.Config

	// API overrides the record transport. If nil, a client against the
	// configured instance is created.
	API tools.API

	// Logger is the structured logger. If nil, a discard logger is used.
	Logger *slog.Logger

	// Name overrides the MCP server implementation name (default: "glidewire").
	Name string

	// Version overrides the MCP server implementation version (default: "0.1.0").
	Version string
}

// New builds a handler core from cfg, creating the session and
// transport against the configured instance.
func New(cfg Config) (*tools.Core, error) {
	settings := cfg.Settings
	if settings == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		settings = &loaded
	}

	api := cfg.API
	if api == nil {
		session := client.NewSession(settings.InstanceURL, client.Credentials{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			Username:     settings.Username,
			Password:     settings.Password,
			Scope:        settings.Scope,
		}, cfg.Logger, client.WithSessionHTTPClient(&http.Client{Timeout: settings.Timeout()}))
		api = client.NewClient(settings.InstanceURL, session, cfg.Logger,
			client.WithTimeout(settings.Timeout()),
			client.WithDebug(settings.Debug),
		)
	}

	resolver := resource.NewResolver(api, cfg.Logger)
	return tools.NewCore(api, resolver, cfg.Logger, settings.MaxOutputBytes), nil
}

// RunStdio creates a server from cfg and runs it over stdin/stdout.
func RunStdio(ctx context.Context, cfg Config) error {
	core, err := New(cfg)
	if err != nil {
		return err
	}
	return server.RunStdio(ctx, core, cfg.Logger, server.ServerOptions{
		Name:    cfg.Name,
		Version: cfg.Version,
	})
}
