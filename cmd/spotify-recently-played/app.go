package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/justestif/go-spotify-recently-played/internal/archive"
	"github.com/justestif/go-spotify-recently-played/internal/auth"
	"github.com/justestif/go-spotify-recently-played/internal/config"
	"github.com/justestif/go-spotify-recently-played/internal/render"
	"github.com/justestif/go-spotify-recently-played/internal/spotify"
	"github.com/justestif/go-spotify-recently-played/internal/store"
	"github.com/justestif/go-spotify-recently-played/internal/sync"
)

// app holds what a run reaches outside the process.
type app struct {
	fs     afero.Fs
	stderr io.Writer

	// Overridden in tests; empty means the Spotify defaults.
	tokenURL   string
	apiBaseURL string
}

func defaultApp() *app {
	return &app{
		fs:     afero.NewOsFs(),
		stderr: os.Stderr,
	}
}

func (a *app) run(ctx context.Context, cfg config.Config) error {
	runID := uuid.New()
	logger := setupLogger(a.stderr, cfg.LogLevel).With().Str("run_id", runID.String()).Logger()

	logger.Info().Str("version", version).Msg("Starting run")

	archiveDir := cfg.ArchiveDir
	if archiveDir == "" {
		dir, err := afero.TempDir(a.fs, "", "recently-played-")
		if err != nil {
			return fmt.Errorf("creating archive directory: %w", err)
		}
		archiveDir = dir
	}
	logger.Debug().Str("dir", archiveDir).Msg("Using archive directory")

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	authOpts := []auth.Option{auth.WithHTTPClient(httpClient)}
	if a.tokenURL != "" {
		authOpts = append(authOpts, auth.WithTokenURL(a.tokenURL))
	}

	apiOpts := []spotify.Option{spotify.WithHTTPClient(httpClient)}
	if a.apiBaseURL != "" {
		apiOpts = append(apiOpts, spotify.WithBaseURL(a.apiBaseURL))
	}

	docs := store.New(a.fs)

	renderer, err := render.New(docs, cfg.OutputFile, render.WithCount(cfg.RecentCount))
	if err != nil {
		return err
	}

	svc := sync.New(
		auth.New(cfg.Credentials, authOpts...),
		spotify.New(apiOpts...),
		store.NewCursorStore(docs, cfg.CursorFile),
		archive.New(docs, archiveDir),
		renderer,
		sync.WithLimit(cfg.Limit),
		sync.WithRenderMode(cfg.RenderMode),
		sync.WithTrimArchive(cfg.TrimArchive),
		sync.WithRunID(runID),
		sync.WithLogger(logger),
	)

	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info().
		Int("fetched", res.Fetched).
		Strs("archived", res.Archived).
		Strs("rendered", res.Rendered).
		Int("failures", len(res.Failures)).
		Str("cursor", res.Cursor).
		Dur("elapsed", res.FinishedAt.Sub(res.StartedAt)).
		Msg("Run complete")

	return nil
}

// setupLogger creates a console logger on w at the given level.
func setupLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
