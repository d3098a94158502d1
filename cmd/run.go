package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/tubetune/internal/engine"
	"github.com/desertthunder/tubetune/internal/host/cdp"
	"github.com/desertthunder/tubetune/internal/navigation"
	"github.com/desertthunder/tubetune/internal/repositories"
	"github.com/desertthunder/tubetune/internal/server"
	"github.com/desertthunder/tubetune/internal/shared"
	"github.com/desertthunder/tubetune/internal/watch"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

var _ engine.Recorder = (*repositories.History)(nil)

// Run attaches to the browser and runs the engine, the navigation detector, the push channel
// and the config file watcher until interrupted.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	configPath, config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}
	if u := cmd.String("cdp-url"); u != "" {
		config.Browser.CDPURL = u
	}
	addr := config.Server.Addr()
	if a := cmd.String("addr"); a != "" {
		addr = a
	}

	shared.SetLogLevel(r.logger, shared.DebugLevel(config.Engine.Debug))

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Info("connecting to browser", "url", config.Browser.CDPURL)
	browser, err := cdp.Connect(ctx, cdp.Options{
		URL:         config.Browser.CDPURL,
		StartURL:    config.Browser.StartURL,
		CallTimeout: config.Browser.CallTimeout(),
		Logger:      shared.WithLogger(r.logger, "component", "cdp"),
	})
	if err != nil {
		return fmt.Errorf("failed to attach to browser: %w", err)
	}
	defer browser.Close()
	r.logger.Info("attached to tab", "target", browser.TargetID())

	doc := browser.Document()
	eng := engine.New(engine.Options{
		Document: doc,
		Config:   engine.ConfigFrom(config.Engine),
		Logger:   r.logger,
		Recorder: repositories.NewHistory(db),
	})
	detector := navigation.NewDetector(doc, navigation.Options{
		PollInterval: config.Browser.PollInterval(),
	}, shared.WithLogger(r.logger, "component", "navigation"))
	hub := server.NewHub()
	router := server.New(eng, hub, shared.WithLogger(r.logger, "component", "server"))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(ctx) })
	g.Go(func() error {
		hub.Run(ctx, eng.Events())
		return nil
	})
	g.Go(func() error { return detector.Run(ctx, eng.Notify) })
	g.Go(func() error { return server.Serve(ctx, addr, router, r.logger) })
	if !cmd.Bool("no-watch") {
		w := watch.New(configPath, 0, func() { r.reload(configPath, eng) }, shared.WithLogger(r.logger, "component", "watch"))
		g.Go(func() error { return w.Run(ctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	r.logger.Info("shut down")
	return nil
}

// reload pushes the engine section of the config file into eng.
func (r *Runner) reload(path string, eng *engine.Engine) {
	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("ignoring config change", "error", err)
		return
	}
	if err := eng.Update(engine.FullUpdate(engine.ConfigFrom(config.Engine))); err != nil {
		r.logger.Warn("config change rejected", "error", err)
		return
	}
	r.logger.Info("config reloaded", "path", path)
}
