package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tubetune/internal/formatter"
	"github.com/desertthunder/tubetune/internal/repositories"
	"github.com/desertthunder/tubetune/internal/shared"
	"github.com/urfave/cli/v3"
)

// History lists recorded sessions, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	_, config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	sessions := repositories.NewSessionRepository(db)
	records, err := sessions.List(cmd.String("video"), cmd.Int("limit"))
	if err != nil {
		return err
	}

	format := cmd.String("format")
	if cmd.Bool("json") {
		format = formatter.FormatJSON
	}

	if out := cmd.String("output"); out != "" {
		if err := formatter.WriteExport(records, format, out); err != nil {
			return err
		}
		r.logger.Info("history exported", "path", out, "sessions", len(records))
		return nil
	}

	data, err := formatter.Export(records, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return err
	}

	if format != formatter.FormatText && format != "" {
		return nil
	}

	video := cmd.String("video")
	counts, err := sessions.CountByOutcome(video)
	if err != nil {
		return err
	}
	scope := "all sessions"
	if video != "" {
		scope = "all sessions for " + video
	}
	r.writePlainln("%s: %s", scope, formatter.OutcomeSummary(counts))

	if video == "" {
		return nil
	}
	events, err := repositories.NewOverrideRepository(db).ListByVideo(video)
	if err != nil {
		return err
	}
	r.writePlainln("Manual overrides")
	return r.writePlain("%s", formatter.OverridesToText(events))
}

// HistoryShow prints one session and the manual overrides seen for its video.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	_, config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := repositories.NewSessionRepository(db).Get(id)
	if err != nil {
		return err
	}
	events, err := repositories.NewOverrideRepository(db).ListByVideo(rec.VideoID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"session": rec, "overrides": events}, true)
	}
	r.writePlain("%s", formatter.SessionToText(rec))
	r.writePlainln("Manual overrides")
	return r.writePlain("%s", formatter.OverridesToText(events))
}

// Qualities prints the quality vocabulary.
func (r *Runner) Qualities(ctx context.Context, cmd *cli.Command) error {
	return r.writePlain("%s", formatter.QualityTable())
}
