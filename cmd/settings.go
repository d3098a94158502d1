package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tubetune/internal/engine"
	"github.com/desertthunder/tubetune/internal/formatter"
	"github.com/desertthunder/tubetune/internal/quality"
	"github.com/desertthunder/tubetune/internal/server"
	"github.com/desertthunder/tubetune/internal/shared"
	"github.com/desertthunder/tubetune/internal/ui"
	"github.com/urfave/cli/v3"
)

const pushTimeout = 2 * time.Second

// settingsStore saves engine settings to the config file and pushes them to the daemon.
type settingsStore struct {
	path   string
	config *shared.Config
	client *server.Client
}

func (r *Runner) newSettingsStore(path string, config *shared.Config) *settingsStore {
	return &settingsStore{
		path:   path,
		config: config,
		client: server.NewClient(config.Server.Addr(), r.httpClient),
	}
}

func (s *settingsStore) Save(cfg shared.EngineConfig) error {
	s.config.Engine = cfg
	return shared.SaveConfig(s.path, s.config)
}

func (s *settingsStore) Push(ctx context.Context, cfg shared.EngineConfig) error {
	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()
	return s.client.Push(ctx, engine.FullUpdate(engine.ConfigFrom(cfg)))
}

// SettingsShow prints the settings from the config file, or the live daemon state with --live.
func (r *Runner) SettingsShow(ctx context.Context, cmd *cli.Command) error {
	_, config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("live") {
		snap, err := server.NewClient(config.Server.Addr(), r.httpClient).Status(ctx)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(snap, true)
		}
		r.writePlainHeader("Live engine status")
		return r.writePlain("%s", formatter.StatusToText(snap))
	}

	cfg := engine.ConfigFrom(config.Engine)
	if cmd.Bool("json") {
		return r.writeJSON(engine.FullUpdate(cfg), true)
	}

	r.writePlainHeader("Settings")
	r.writePlain("Enabled:      %t\n", cfg.Enabled)
	r.writePlain("Quality:      %s (%s)\n", cfg.Quality, quality.LevelFor(cfg.Quality))
	r.writePlain("Debug:        %t\n", cfg.Debug)
	r.writePlain("Interval:     %v\n", cfg.AttemptInterval)
	r.writePlain("Max attempts: %d\n", cfg.MaxAttempts)
	return nil
}

// settingsUpdate collects the flags that were set on cmd.
func settingsUpdate(cmd *cli.Command) engine.ConfigUpdate {
	var u engine.ConfigUpdate
	if cmd.IsSet("quality") {
		q := cmd.String("quality")
		u.Quality = &q
	}
	if cmd.IsSet("enabled") {
		v := cmd.Bool("enabled")
		u.Enabled = &v
	}
	if cmd.IsSet("debug") {
		v := cmd.Bool("debug")
		u.Debug = &v
	}
	if cmd.IsSet("interval") {
		v := cmd.Int("interval")
		u.AttemptIntervalMs = &v
	}
	if cmd.IsSet("max-attempts") {
		v := cmd.Int("max-attempts")
		u.MaxAttempts = &v
	}
	return u
}

// applySettings merges u into the config file and pushes the result to a running daemon.
//
// The push is best effort: a daemon that is not running picks the change up from the file.
func (r *Runner) applySettings(ctx context.Context, path string, config *shared.Config, u engine.ConfigUpdate) error {
	if u.Empty() {
		return fmt.Errorf("%w: nothing to change (use --quality, --enabled, --debug, --interval or --max-attempts)", shared.ErrMissingArgument)
	}
	if err := u.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidFlag, err)
	}

	next := engine.ConfigFrom(config.Engine).Merge(u)
	store := r.newSettingsStore(path, config)
	engineConfig := shared.EngineConfig{
		Enabled:           next.Enabled,
		Quality:           next.Quality,
		Debug:             next.Debug,
		AttemptIntervalMs: int(next.AttemptInterval / time.Millisecond),
		MaxAttempts:       next.MaxAttempts,
	}
	if err := store.Save(engineConfig); err != nil {
		return err
	}
	r.logger.Info("settings saved", "path", path)

	if err := store.Push(ctx, engineConfig); err != nil {
		if errors.Is(err, shared.ErrServiceUnavailable) {
			r.logger.Debug("daemon not reachable", "error", err)
			return r.writePlain("Saved. The daemon is not reachable; it will pick up the file change.\n")
		}
		return fmt.Errorf("saved, but the daemon rejected the update: %w", err)
	}
	return r.writePlain("Saved and applied.\n")
}

// SettingsSet applies the given flags to the config file and the running daemon.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	path, config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}
	return r.applySettings(ctx, path, config, settingsUpdate(cmd))
}

// SettingsUI launches the interactive settings panel.
func (r *Runner) SettingsUI(ctx context.Context, cmd *cli.Command) error {
	path, config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tubetune-ui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, config.Engine, r.newSettingsStore(path, config))
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running settings panel: %w", err)
	}

	return nil
}
