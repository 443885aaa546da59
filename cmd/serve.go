package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/setsvm/novi/internal/server"
	"github.com/setsvm/novi/internal/services"
	"github.com/setsvm/novi/internal/shared"
	"github.com/setsvm/novi/internal/storage"
	"github.com/setsvm/novi/internal/web"
)

const (
	defaultIdle     = 30 * time.Minute
	sweepInterval   = 5 * time.Minute
	clientRetention = 90 * 24 * time.Hour
	pruneInterval   = 24 * time.Hour
	openDelay       = 300 * time.Millisecond
)

// siteURL is the address a local browser should use to reach the server.
func siteURL(cfg shared.ServerConfig) string {
	host := cfg.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Port))
}

// Serve runs the web front end until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	store := storage.NewSQLiteStorage(db)
	clients := storage.NewClientRepository(db)
	r.pruneClients(clients)

	gateway := r.gateway(config)
	if err := gateway.Ping(ctx); err != nil {
		r.logger.Warn("API gateway is not reachable yet", "url", gateway.BaseURL(), "error", err)
	}

	app, err := web.NewApp(web.AppOpts{
		Config:    config.Server,
		NewClient: func(s storage.Storage) services.Client { return gateway.Bind(s) },
		Storage:   store,
		Clients:   clients,
		Logger:    shared.WithLogger(r.logger, "component", "web"),
	})
	if err != nil {
		return fmt.Errorf("failed to build web app: %w", err)
	}

	go app.SweepIdle(ctx, sweepInterval, cmd.Duration("idle"))
	go r.pruneEvery(ctx, clients)

	if cmd.Bool("open") {
		url := siteURL(config.Server)
		time.AfterFunc(openDelay, func() {
			if err := shared.OpenBrowser(url); err != nil {
				r.logger.Warn("could not open browser", "url", url, "error", err)
			}
		})
	}

	r.logger.Info("serving novi", "url", siteURL(config.Server), "api", gateway.BaseURL(), "routes", len(app.Routes()))
	return server.Run(ctx, server.New(config.Server.Addr(), app), r.logger)
}

func (r *Runner) pruneClients(clients *storage.ClientRepository) {
	removed, err := clients.Prune(r.now().Add(-clientRetention))
	if err != nil {
		r.logger.Warn("failed to prune clients", "error", err)
		return
	}
	if removed > 0 {
		r.logger.Info("pruned idle clients", "count", removed)
	}
}

func (r *Runner) pruneEvery(ctx context.Context, clients *storage.ClientRepository) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pruneClients(clients)
		}
	}
}
